package p2p

import (
	"sync"
	"time"

	"github.com/codellyson/quick-rest/internal/core/request"
)

// Tracker records which document fields the local user is actively editing.
// A field is hot while it holds focus or for a grace window after its last
// edit; hot fields are exempt from remote overwrite. The tracker is never
// persisted or transmitted.
type Tracker struct {
	mu     sync.Mutex
	grace  time.Duration
	now    func() time.Time
	states map[request.Field]*editState
}

type editState struct {
	editing  bool
	lastEdit time.Time
}

// NewTracker returns a tracker with the given grace window.
func NewTracker(grace time.Duration) *Tracker {
	if grace <= 0 {
		grace = DefaultPolicy().GraceWindow
	}
	return &Tracker{
		grace:  grace,
		now:    time.Now,
		states: make(map[request.Field]*editState),
	}
}

// MarkEditing records a focus (true) or blur (false) on a field's editor.
// Blur stamps the last-edit time so the grace window starts counting.
func (t *Tracker) MarkEditing(field request.Field, editing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(field)
	st.editing = editing
	if !editing {
		st.lastEdit = t.now()
	}
}

// Touch stamps a field as just-edited without changing focus, as on any local
// mutation of the corresponding document field.
func (t *Tracker) Touch(field request.Field) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state(field).lastEdit = t.now()
}

// IsHot reports whether the field is focused or was edited within the grace
// window.
func (t *Tracker) IsHot(field request.Field) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[field]
	if !ok {
		return false
	}
	if st.editing {
		return true
	}
	return !st.lastEdit.IsZero() && t.now().Sub(st.lastEdit) < t.grace
}

func (t *Tracker) state(field request.Field) *editState {
	st, ok := t.states[field]
	if !ok {
		st = &editState{}
		t.states[field] = st
	}
	return st
}
