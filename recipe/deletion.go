package recipe

import "sync"

// Deleter is the part of the store a DeletionConfirmation dispatches to.
type Deleter interface {
	Delete(id string) error
}

// DeletionConfirmation holds at most one pending delete until it is
// confirmed or cancelled.
type DeletionConfirmation struct {
	store Deleter

	mu        sync.Mutex
	pendingID string
	pending   bool
}

// NewDeletionConfirmation returns an idle confirmation bound to store.
func NewDeletionConfirmation(store Deleter) *DeletionConfirmation {
	return &DeletionConfirmation{store: store}
}

// RequestDelete makes id the pending target, replacing any earlier one.
func (c *DeletionConfirmation) RequestDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingID = id
	c.pending = true
}

// Confirm deletes the pending target and re-arms. With nothing pending it
// does nothing. If the store rejects the delete the target stays pending.
func (c *DeletionConfirmation) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pending {
		return nil
	}
	if err := c.store.Delete(c.pendingID); err != nil {
		return err
	}
	c.pendingID = ""
	c.pending = false
	return nil
}

// Cancel drops the pending target without touching the store.
func (c *DeletionConfirmation) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingID = ""
	c.pending = false
}

// Pending returns the id awaiting confirmation.
func (c *DeletionConfirmation) Pending() (id string, pending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingID, c.pending
}
