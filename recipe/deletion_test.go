package recipe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebook/recipe/storage"
)

type recordingDeleter struct {
	calls []string
	err   error
}

func (d *recordingDeleter) Delete(id string) error {
	d.calls = append(d.calls, id)
	return d.err
}

func TestDeletionConfirmation(t *testing.T) {
	tests := []struct {
		name        string
		actions     func(c *DeletionConfirmation) error
		deleteErr   error
		wantErr     error
		wantCalls   []string
		wantPending bool
		wantID      string
	}{
		{
			name:    "confirm while armed is a no-op",
			actions: func(c *DeletionConfirmation) error { return c.Confirm() },
		},
		{
			name: "request then confirm",
			actions: func(c *DeletionConfirmation) error {
				c.RequestDelete("a")
				return c.Confirm()
			},
			wantCalls: []string{"a"},
		},
		{
			name: "request then cancel",
			actions: func(c *DeletionConfirmation) error {
				c.RequestDelete("a")
				c.Cancel()
				return c.Confirm()
			},
		},
		{
			name: "latest request wins",
			actions: func(c *DeletionConfirmation) error {
				c.RequestDelete("a")
				c.RequestDelete("b")
				return c.Confirm()
			},
			wantCalls: []string{"b"},
		},
		{
			name: "pending without confirm",
			actions: func(c *DeletionConfirmation) error {
				c.RequestDelete("a")
				return nil
			},
			wantPending: true,
			wantID:      "a",
		},
		{
			name: "store failure keeps target pending",
			actions: func(c *DeletionConfirmation) error {
				c.RequestDelete("a")
				return c.Confirm()
			},
			deleteErr:   ErrNotFound,
			wantErr:     ErrNotFound,
			wantCalls:   []string{"a"},
			wantPending: true,
			wantID:      "a",
		},
		{
			name: "second confirm does nothing",
			actions: func(c *DeletionConfirmation) error {
				c.RequestDelete("a")
				if err := c.Confirm(); err != nil {
					return err
				}
				return c.Confirm()
			},
			wantCalls: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &recordingDeleter{err: tt.deleteErr}
			c := NewDeletionConfirmation(d)

			err := tt.actions(c)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.wantCalls, d.calls)
			id, pending := c.Pending()
			assert.Equal(t, tt.wantPending, pending)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestDeletionConfirmationWithStore(t *testing.T) {
	s := newHydratedStore(t, storage.NewMemoryBridge(), WithIDGenerator(sequentialIDs()))
	for _, title := range []string{"One", "Two"} {
		_, err := s.Create(Draft{Title: title})
		require.NoError(t, err)
	}

	c := NewDeletionConfirmation(s)
	c.RequestDelete("r1")
	c.RequestDelete("r2")
	require.NoError(t, c.Confirm())
	assert.Equal(t, []string{"r1"}, s.List().IDs())

	c.RequestDelete("gone")
	err := c.Confirm()
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, []string{"r1"}, s.List().IDs())

	c.Cancel()
	_, pending := c.Pending()
	assert.False(t, pending)
}
