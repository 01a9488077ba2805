package p2p

import (
	"sync"
	"time"

	"github.com/codellyson/quick-rest/internal/core/appstate"
	"github.com/codellyson/quick-rest/internal/core/request"
	"github.com/codellyson/quick-rest/internal/p2p/wire"
)

// SendFunc transmits one snapshot to the connected peer.
type SendFunc func(wire.Snapshot)

// Syncer keeps the local and remote document replicas converged while a
// channel is attached. Outbound, it collapses edit bursts with a per-field
// trailing debounce and sends the snapshot that is current when the timer
// fires. Inbound, it applies remote snapshots field by field, skipping fields
// the local user is editing.
type Syncer struct {
	docs   *request.Store
	hints  *appstate.Store
	link   *Link
	edits  *Tracker
	policy Policy

	mu       sync.Mutex
	send     SendFunc
	timer    *time.Timer
	lastSent wire.Snapshot
	hasSent  bool
	applying bool
}

// NewSyncer wires a synchronizer to the document and hints stores. It
// subscribes immediately; sends only start once a channel is attached and the
// link reports connected.
func NewSyncer(docs *request.Store, hints *appstate.Store, link *Link, edits *Tracker, policy Policy) *Syncer {
	s := &Syncer{
		docs:   docs,
		hints:  hints,
		link:   link,
		edits:  edits,
		policy: policy,
	}

	docs.Subscribe(s.onDocumentChange)
	hints.Subscribe(func(appstate.Hints) { s.schedule() })
	link.Subscribe(func(st Status) {
		if st != StatusConnected {
			s.cancelPending()
		}
	})

	return s
}

// Attach gives the syncer an open channel to send on and resets the last-sent
// state so the next change diffs against a clean slate.
func (s *Syncer) Attach(send SendFunc) {
	s.mu.Lock()
	s.send = send
	s.hasSent = false
	s.lastSent = wire.Snapshot{}
	s.mu.Unlock()
}

// Detach drops the channel and cancels any pending send.
func (s *Syncer) Detach() {
	s.mu.Lock()
	s.send = nil
	s.stopTimerLocked()
	s.mu.Unlock()
}

// SyncNow sends the current snapshot immediately, bypassing the debounce.
// The host uses it right after a channel opens so the client converges
// without waiting for an edit.
func (s *Syncer) SyncNow() {
	s.flush()
}

// ApplyRemote merges an incoming snapshot into the local stores. Discrete
// selectors always apply; text and table fields apply only when not hot; UI
// hints always apply. Writes go through the stores' setter API, the same path
// the UI uses.
func (s *Syncer) ApplyRemote(snap wire.Snapshot) {
	s.mu.Lock()
	s.applying = true
	s.mu.Unlock()

	doc := snap.Document

	s.docs.SetMethod(doc.Method)
	s.docs.SetBodyType(doc.BodyType)
	s.docs.SetAuthType(doc.AuthType)

	if !s.edits.IsHot(request.FieldURL) {
		s.docs.SetURL(doc.URL)
	}
	if !s.edits.IsHot(request.FieldBody) {
		s.docs.SetBody(doc.Body)
	}
	if !s.edits.IsHot(request.FieldParams) {
		s.docs.SetParams(doc.Params)
	}
	if !s.edits.IsHot(request.FieldHeaders) {
		s.docs.SetHeaders(doc.Headers)
	}
	if !s.edits.IsHot(request.FieldAuthConfig) {
		s.docs.SetAuthConfig(doc.Auth)
	}
	if snap.Hints != nil {
		s.hints.Set(*snap.Hints)
	}

	s.mu.Lock()
	s.applying = false
	// Record the incoming snapshot as last-sent: the sender already holds it,
	// so an unchanged document must not echo back. Fields where a hot local
	// edit won now differ from last-sent and get scheduled below, which is
	// how local intent eventually reaches the peer.
	s.lastSent = snap
	s.hasSent = true
	s.mu.Unlock()

	s.schedule()
}

// onDocumentChange runs synchronously after every local document mutation.
func (s *Syncer) onDocumentChange(_ request.Document, changed []request.Field) {
	s.mu.Lock()
	applying := s.applying
	s.mu.Unlock()
	if applying {
		return
	}

	for _, f := range changed {
		switch f {
		case request.FieldURL, request.FieldBody, request.FieldParams,
			request.FieldHeaders, request.FieldAuthConfig:
			s.edits.Touch(f)
		}
	}

	s.schedule()
}

// schedule classifies the pending delta and arms the trailing debounce. Each
// new change resets the timer.
func (s *Syncer) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applying || s.send == nil || s.link.Status() != StatusConnected {
		return
	}

	cur := s.snapshotLocked()
	changed := request.DiffFields(s.lastSent.Document, cur.Document)
	hintsChanged := !hintsEqual(s.lastSent.Hints, cur.Hints)
	if s.hasSent && len(changed) == 0 && !hintsChanged {
		return
	}

	interval := s.policy.debounceFor(changed, hintsChanged)
	s.stopTimerLocked()
	s.timer = time.AfterFunc(interval, s.flush)
}

// flush sends the snapshot that is current now, not the one that was current
// when the timer was armed.
func (s *Syncer) flush() {
	s.mu.Lock()
	s.timer = nil

	if s.send == nil || s.link.Status() != StatusConnected {
		s.mu.Unlock()
		return
	}

	cur := s.snapshotLocked()
	if s.hasSent && cur.Equal(s.lastSent) {
		s.mu.Unlock()
		return
	}

	send := s.send
	s.lastSent = cur
	s.hasSent = true
	s.mu.Unlock()

	send(cur)
}

func (s *Syncer) cancelPending() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()
}

func (s *Syncer) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Syncer) snapshotLocked() wire.Snapshot {
	h := s.hints.Get()
	return wire.NewSnapshot(s.docs.Snapshot(), &h)
}

// hintsEqual treats nil hints and zero-value hints as the same state.
func hintsEqual(a, b *appstate.Hints) bool {
	var av, bv appstate.Hints
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}
