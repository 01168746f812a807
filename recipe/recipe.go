// Package recipe holds the recipe catalog: the in-memory collection, its
// write-through sync with a persistence bridge, and the edit and delete
// state machines that sit in front of it.
package recipe

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultStorageKey is the bridge key the collection is stored under.
const DefaultStorageKey = "@recipes"

// Recipe is a single catalog entry. A nil Preparation marks the basic variant
// that carries no preparation field at all.
type Recipe struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Ingredients string  `json:"ingredients"`
	Preparation *string `json:"preparation,omitempty"`
}

// Detailed reports whether r carries a preparation field.
func (r Recipe) Detailed() bool { return r.Preparation != nil }

// PreparationText returns the preparation steps, or "" for basic recipes.
func (r Recipe) PreparationText() string {
	if r.Preparation == nil {
		return ""
	}
	return *r.Preparation
}

// Draft returns the mutable fields of r.
func (r Recipe) Draft() Draft {
	return Draft{
		Title:       r.Title,
		Ingredients: r.Ingredients,
		Preparation: clonePrep(r.Preparation),
	}
}

func (r Recipe) clone() Recipe {
	r.Preparation = clonePrep(r.Preparation)
	return r
}

// Draft is the caller-supplied part of a recipe, used for create, update and form state.
type Draft struct {
	Title       string
	Ingredients string
	Preparation *string
}

// Preparation returns a pointer to s, for filling Draft.Preparation.
func Preparation(s string) *string { return &s }

// validate rejects drafts that would not survive a save and reload unchanged.
func (d Draft) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	fields := []struct{ name, value string }{
		{"title", d.Title},
		{"ingredients", d.Ingredients},
		{"preparation", d.PreparationText()},
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return fmt.Errorf("%w: %s is not valid UTF-8", ErrValidation, f.name)
		}
	}
	return nil
}

// PreparationText returns the preparation steps, or "" when there are none.
func (d Draft) PreparationText() string {
	if d.Preparation == nil {
		return ""
	}
	return *d.Preparation
}

func (d Draft) equal(r Recipe) bool {
	if d.Title != r.Title || d.Ingredients != r.Ingredients {
		return false
	}
	if (d.Preparation == nil) != (r.Preparation == nil) {
		return false
	}
	return d.Preparation == nil || *d.Preparation == *r.Preparation
}

// Collection is an insertion-ordered list of recipes, unique by ID.
type Collection []Recipe

// Index returns the position of id, or -1.
func (c Collection) Index(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether a recipe with id is present.
func (c Collection) Contains(id string) bool { return c.Index(id) >= 0 }

// IDs returns the recipe ids in collection order.
func (c Collection) IDs() []string {
	ids := make([]string, len(c))
	for i := range c {
		ids[i] = c[i].ID
	}
	return ids
}

// Clone returns a deep copy of c. The result is never nil.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for i := range c {
		out[i] = c[i].clone()
	}
	return out
}

func clonePrep(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
