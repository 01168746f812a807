package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"recipebook"
	"recipebook/recipe"
	"recipebook/recipe/storage"
)

func main() {
	if err := newRootCommand(os.Stdin).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root has loaded config.
type app struct {
	in  io.Reader
	out io.Writer

	cfgPath     string
	storageType string
	logLevel    string

	cfg recipebook.Config
	log zerolog.Logger
}

func newRootCommand(in io.Reader) *cobra.Command {
	a := &app{in: in}

	root := &cobra.Command{
		Use:           "recipebook",
		Short:         "Keep a local catalog of recipes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default $HOME/.recipebook/config.toml)")
	root.PersistentFlags().StringVar(&a.storageType, "storage", "", "storage backend (memory|file|sqlite|s3)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug|info|warn|error)")

	root.AddCommand(
		newListCommand(a),
		newAddCommand(a),
		newEditCommand(a),
		newDeleteCommand(a),
		newShowCommand(a),
		newSchemaCommand(),
	)
	return root
}

// setup resolves config from defaults, file, environment and flags, in that order.
func (a *app) setup(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = recipebook.DefaultConfigPath()
	}

	cfg, err := recipebook.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	if changed["storage"] {
		cfg.Storage.Type = a.storageType
	}
	if changed["log-level"] {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

// withStore hydrates a store, runs fn against it and closes everything down,
// waiting for the last save.
func (a *app) withStore(ctx context.Context, fn func(s *recipe.Store) error) (err error) {
	bridge, err := storage.New(ctx, a.cfg.Storage, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := bridge.Close(); cerr != nil {
			a.log.Error().Err(cerr).Msg("failed to close storage")
		}
	}()

	opts := []recipe.Option{
		recipe.WithKey(a.cfg.Storage.Key),
		recipe.WithSaveTimeout(a.cfg.SaveTimeout),
		recipe.WithLogger(a.log),
	}

	if a.cfg.SaveLogPath != "" {
		plog, cleanup, perr := newPersistenceLogger(a.cfg.SaveLogPath, a.out)
		if perr != nil {
			return perr
		}
		defer func() {
			if cerr := cleanup(); cerr != nil {
				a.log.Error().Err(cerr).Msg("failed to flush save log")
			}
		}()
		opts = append(opts, recipe.WithPersistenceLogger(plog))
	}

	if a.cfg.Telemetry {
		tracerProvider, meterProvider, otelShutdown, oerr := recipebook.InitOtel(ctx)
		if oerr != nil {
			return fmt.Errorf("init telemetry: %w", oerr)
		}
		defer func() {
			if serr := otelShutdown(context.Background()); serr != nil {
				a.log.Error().Err(serr).Msg("failed to shutdown OpenTelemetry")
			}
		}()
		opts = append(opts,
			recipe.WithTracer(tracerProvider.Tracer(recipebook.TracerName)),
			recipe.WithMeter(meterProvider.Meter(recipebook.TracerName)),
		)
	}

	store := recipe.NewStore(bridge, opts...)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), a.cfg.SaveTimeout+time.Second)
		defer cancel()
		if cerr := store.Close(closeCtx); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
		}
	}()

	if _, err := store.Hydrate(ctx); err != nil {
		return err
	}
	return fn(store)
}

// newPersistenceLogger opens the save log at path. A path of "-" writes JSON lines to stdout.
func newPersistenceLogger(path string, stdout io.Writer) (recipebook.PersistenceLogger, func() error, error) {
	if path == "-" {
		return recipebook.NewStdoutPersistenceLogger(stdout), func() error { return nil }, nil
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open save log: %w", err)
	}

	logger := recipebook.NewFilePersistenceLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
