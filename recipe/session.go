package recipe

import "sync"

// Editor is the part of the store an EditSession dispatches to.
type Editor interface {
	Create(d Draft) (Recipe, error)
	Update(id string, d Draft) (Recipe, error)
}

// EditSession decides whether a form submission creates a new recipe or
// updates the one being edited, and holds the form fields in between.
type EditSession struct {
	store Editor

	mu       sync.Mutex
	targetID string
	editing  bool
	form     Draft
}

// NewEditSession returns an idle session that submits to store.
func NewEditSession(store Editor) *EditSession {
	return &EditSession{store: store}
}

// BeginCreate returns the session to Idle with an empty form.
func (e *EditSession) BeginCreate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

// BeginEdit targets r and prefills the form from it.
func (e *EditSession) BeginEdit(r Recipe) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.targetID = r.ID
	e.editing = true
	e.form = r.Draft()
}

// Submit records d as the form and sends it to the store: an update when
// editing, a create otherwise. On success the session is back to Idle with an
// empty form. On failure the state and the submitted form are kept so the
// user can correct them.
func (e *EditSession) Submit(d Draft) (Recipe, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.form = Draft{Title: d.Title, Ingredients: d.Ingredients, Preparation: clonePrep(d.Preparation)}

	var (
		r   Recipe
		err error
	)
	if e.editing {
		r, err = e.store.Update(e.targetID, d)
	} else {
		r, err = e.store.Create(d)
	}
	if err != nil {
		return Recipe{}, err
	}

	e.resetLocked()
	return r, nil
}

// Cancel discards the form and returns to Idle without touching the store.
func (e *EditSession) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

// Target returns the id being edited; editing is false when Idle.
func (e *EditSession) Target() (id string, editing bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.targetID, e.editing
}

// Form returns the current form fields.
func (e *EditSession) Form() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := e.form
	f.Preparation = clonePrep(f.Preparation)
	return f
}

func (e *EditSession) resetLocked() {
	e.targetID = ""
	e.editing = false
	e.form = Draft{}
}
