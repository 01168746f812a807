package recipe

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"recipebook"
)

// DefaultSaveTimeout bounds a single save against the bridge.
const DefaultSaveTimeout = 10 * time.Second

type options struct {
	key         string
	saveTimeout time.Duration
	logger      zerolog.Logger
	plog        recipebook.PersistenceLogger
	tracer      trace.Tracer
	meter       metric.Meter
	newID       func() string
}

// Option configures a Store.
type Option func(*options)

// WithKey sets the bridge key the collection is stored under.
func WithKey(key string) Option { return func(o *options) { o.key = key } }

// WithSaveTimeout bounds each save attempt.
func WithSaveTimeout(d time.Duration) Option { return func(o *options) { o.saveTimeout = d } }

// WithLogger sets the structured logger used for hydrate and save failures.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.logger = l } }

// WithPersistenceLogger records every save attempt to l.
func WithPersistenceLogger(l recipebook.PersistenceLogger) Option {
	return func(o *options) { o.plog = l }
}

// WithTracer sets the tracer for hydrate and save spans.
func WithTracer(t trace.Tracer) Option { return func(o *options) { o.tracer = t } }

// WithMeter sets the meter the store's instruments are created from.
func WithMeter(m metric.Meter) Option { return func(o *options) { o.meter = m } }

// WithIDGenerator replaces the ULID generator used for new recipe ids.
func WithIDGenerator(fn func() string) Option { return func(o *options) { o.newID = fn } }

func newULID() string { return ulid.Make().String() }

// Store owns the recipe collection. Every successful mutation is applied in
// memory and then handed to a background writer that saves the full
// collection; callers never wait on the save.
type Store struct {
	bridge recipebook.PersistenceBridge
	key    string
	newID  func() string
	log    zerolog.Logger
	tracer trace.Tracer
	inst   instruments
	writer *syncer

	mu       sync.Mutex
	recipes  Collection
	hydrated bool
	closed   bool
}

// NewStore creates a store backed by bridge. The store rejects mutations until Hydrate has run.
func NewStore(bridge recipebook.PersistenceBridge, opts ...Option) *Store {
	o := options{
		key:         DefaultStorageKey,
		saveTimeout: DefaultSaveTimeout,
		logger:      zerolog.Nop(),
		plog:        recipebook.NewNoOpPersistenceLogger(),
		tracer:      tracenoop.NewTracerProvider().Tracer(recipebook.TracerName),
		meter:       metricnoop.NewMeterProvider().Meter(recipebook.TracerName),
		newID:       newULID,
	}
	for _, opt := range opts {
		opt(&o)
	}

	inst := newInstruments(o.meter)
	return &Store{
		bridge:  bridge,
		key:     o.key,
		newID:   o.newID,
		log:     o.logger,
		tracer:  o.tracer,
		inst:    inst,
		writer:  newSyncer(bridge, o.key, o, inst),
		recipes: Collection{},
	}
}

// Hydrate loads the collection from the bridge. A missing, unreadable or
// corrupt blob leaves the store with an empty collection; the failure is
// logged and not returned. Only a cancelled ctx is reported as an error.
// Calling Hydrate again returns the current collection without reloading.
func (s *Store) Hydrate(ctx context.Context) (Collection, error) {
	ctx, span := s.tracer.Start(ctx, "Store.Hydrate", trace.WithAttributes(
		attribute.String("storage.key", s.key),
	))
	defer span.End()

	s.mu.Lock()
	if s.hydrated {
		defer s.mu.Unlock()
		return s.recipes.Clone(), nil
	}
	s.mu.Unlock()

	recipes := Collection{}
	blob, err := s.bridge.Load(ctx, s.key)
	switch {
	case err == nil:
		c, derr := Unmarshal(blob)
		if derr != nil {
			s.hydrateFailed(ctx, span, derr, "stored recipes are corrupt, starting with an empty collection")
			break
		}
		recipes = c
	case errors.Is(err, recipebook.ErrBlobNotFound):
		s.log.Debug().Str("key", s.key).Msg("no stored recipes, starting with an empty collection")
	case ctx.Err() != nil:
		span.SetStatus(codes.Error, "hydrate cancelled")
		return nil, fmt.Errorf("hydrate: %w", ctx.Err())
	default:
		s.hydrateFailed(ctx, span, err, "failed to load recipes, starting with an empty collection")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent Hydrate got there first.
	if s.hydrated {
		return s.recipes.Clone(), nil
	}
	s.recipes = recipes
	s.hydrated = true
	s.inst.collectionSize.Record(ctx, int64(len(recipes)))
	span.SetAttributes(attribute.Int("recipes.count", len(recipes)))

	s.log.Info().Str("key", s.key).Int("recipes", len(recipes)).Msg("recipes hydrated")
	return recipes.Clone(), nil
}

func (s *Store) hydrateFailed(ctx context.Context, span trace.Span, err error, msg string) {
	s.inst.hydrateFailures.Add(ctx, 1)
	span.RecordError(err)
	s.log.Error().Err(err).Str("key", s.key).Msg(msg)
}

// Create appends a new recipe with a fresh id.
func (s *Store) Create(d Draft) (Recipe, error) {
	if err := d.validate(); err != nil {
		return Recipe{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writableLocked(); err != nil {
		return Recipe{}, err
	}

	r := Recipe{
		ID:          s.newID(),
		Title:       d.Title,
		Ingredients: d.Ingredients,
		Preparation: clonePrep(d.Preparation),
	}
	for r.ID == "" || s.recipes.Contains(r.ID) {
		r.ID = s.newID()
	}

	s.recipes = append(s.recipes, r)
	s.persistLocked("create")
	return r.clone(), nil
}

// Update replaces the fields of the recipe with id, keeping its id and position.
// Nothing is saved when the fields are unchanged.
func (s *Store) Update(id string, d Draft) (Recipe, error) {
	if err := d.validate(); err != nil {
		return Recipe{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writableLocked(); err != nil {
		return Recipe{}, err
	}

	i := s.recipes.Index(id)
	if i < 0 {
		return Recipe{}, fmt.Errorf("update %q: %w", id, ErrNotFound)
	}

	if d.equal(s.recipes[i]) {
		return s.recipes[i].clone(), nil
	}

	s.recipes[i] = Recipe{
		ID:          id,
		Title:       d.Title,
		Ingredients: d.Ingredients,
		Preparation: clonePrep(d.Preparation),
	}
	s.persistLocked("update")
	return s.recipes[i].clone(), nil
}

// Delete removes the recipe with id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writableLocked(); err != nil {
		return err
	}

	i := s.recipes.Index(id)
	if i < 0 {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}

	s.recipes = slices.Delete(s.recipes, i, i+1)
	s.persistLocked("delete")
	return nil
}

// Get returns a copy of the recipe with id.
func (s *Store) Get(id string) (Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.recipes.Index(id)
	if i < 0 {
		return Recipe{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return s.recipes[i].clone(), nil
}

// List returns a snapshot of the collection in insertion order.
func (s *Store) List() Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recipes.Clone()
}

// Len returns the number of recipes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recipes)
}

// Flush waits until every save dispatched so far has been attempted.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close rejects further mutations, writes any pending save and stops the writer.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.writer.close(ctx)
}

func (s *Store) writableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if !s.hydrated {
		return ErrNotHydrated
	}
	return nil
}

// persistLocked snapshots the collection and dispatches it for saving.
func (s *Store) persistLocked(op string) {
	ctx := context.Background()
	s.inst.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	s.inst.collectionSize.Record(ctx, int64(len(s.recipes)))

	blob, err := Marshal(s.recipes)
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("failed to serialize recipes, skipping save")
		return
	}
	s.writer.dispatch(blob, len(s.recipes))
}
