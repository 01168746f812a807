package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"recipebook"
	"recipebook/recipe"
)

func newListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes in the order they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *recipe.Store) error {
				recipes := s.List()
				if asJSON {
					blob, err := recipe.Marshal(recipes)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(blob))
					return err
				}
				printList(cmd.OutOrStdout(), recipes)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON form")
	return cmd
}

func newAddCommand(a *app) *cobra.Command {
	var d recipe.Draft
	var preparation string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recipe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("preparation") {
				d.Preparation = recipe.Preparation(preparation)
			}
			return a.withStore(cmd.Context(), func(s *recipe.Store) error {
				session := recipe.NewEditSession(s)
				session.BeginCreate()
				r, err := session.Submit(d)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), r.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&d.Title, "title", "", "recipe title (required)")
	cmd.Flags().StringVar(&d.Ingredients, "ingredients", "", "ingredients, free text")
	cmd.Flags().StringVar(&preparation, "preparation", "", "preparation steps")
	return cmd
}

func newEditCommand(a *app) *cobra.Command {
	var title, ingredients, preparation string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a recipe, keeping its id and position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *recipe.Store) error {
				r, err := s.Get(args[0])
				if err != nil {
					return err
				}

				session := recipe.NewEditSession(s)
				session.BeginEdit(r)

				d := session.Form()
				flags := cmd.Flags()
				if flags.Changed("title") {
					d.Title = title
				}
				if flags.Changed("ingredients") {
					d.Ingredients = ingredients
				}
				if flags.Changed("preparation") {
					d.Preparation = recipe.Preparation(preparation)
				}

				updated, err := session.Submit(d)
				if err != nil {
					return err
				}
				printRecipe(cmd.OutOrStdout(), updated)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&ingredients, "ingredients", "", "new ingredients")
	cmd.Flags().StringVar(&preparation, "preparation", "", "new preparation steps")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recipe after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *recipe.Store) error {
				r, err := s.Get(args[0])
				if err != nil {
					return err
				}

				confirm := recipe.NewDeletionConfirmation(s)
				confirm.RequestDelete(r.ID)

				if !yes && !ask(a.in, cmd.OutOrStdout(), fmt.Sprintf("Delete %q?", r.Title)) {
					confirm.Cancel()
					fmt.Fprintln(cmd.OutOrStdout(), "kept")
					return nil
				}
				if err := confirm.Confirm(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newShowCommand(a *app) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *recipe.Store) error {
				r, err := s.Get(args[0])
				if err != nil {
					return err
				}
				if debug {
					recipebook.Dump(cmd.OutOrStdout(), r)
					return nil
				}
				printRecipe(cmd.OutOrStdout(), r)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "dump the raw record")
	return cmd
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the stored collection",
		Args:  cobra.NoArgs,
		// Needs no config or storage.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recipe.Schema())
		},
	}
}

func printList(w io.Writer, recipes recipe.Collection) {
	if len(recipes) == 0 {
		fmt.Fprintln(w, "No recipes yet. Add one with: recipebook add --title <title>")
		return
	}
	for _, r := range recipes {
		fmt.Fprintf(w, "%s  %s\n", r.ID, r.Title)
	}
}

func printRecipe(w io.Writer, r recipe.Recipe) {
	fmt.Fprintf(w, "%s\n", r.Title)
	fmt.Fprintf(w, "  id:          %s\n", r.ID)
	fmt.Fprintf(w, "  ingredients: %s\n", r.Ingredients)
	if r.Detailed() {
		fmt.Fprintf(w, "  preparation: %s\n", r.PreparationText())
	}
}

// ask prints question and reports whether the answer starts with y.
func ask(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
