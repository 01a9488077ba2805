// Package wire defines the envelope protocol spoken between a peer and the
// relay, and the snapshot payload exchanged between paired peers. Everything
// on the wire is a tagged JSON message; payloads that fail validation are
// rejected at the boundary rather than handed to the sync layer.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/codellyson/quick-rest/internal/core/appstate"
	"github.com/codellyson/quick-rest/internal/core/request"
)

// Envelope kinds.
const (
	KindRegister   = "register"   // peer -> relay: claim an identity
	KindRegistered = "registered" // relay -> peer: identity granted
	KindDial       = "dial"       // peer -> relay: connect to a remote identity
	KindOpen       = "open"       // relay -> peer: channel to Peer is open
	KindData       = "data"       // either direction: relayed payload
	KindHangup     = "hangup"     // peer -> relay: close the channel
	KindClosed     = "closed"     // relay -> peer: channel closed
	KindError      = "error"      // relay -> peer: request failed
)

// Error codes carried by KindError envelopes.
const (
	CodeIDTaken         = "id-taken"
	CodePeerUnavailable = "peer-unavailable"
)

// Envelope is the relay protocol frame.
type Envelope struct {
	Kind    string          `json:"kind"`
	ID      string          `json:"id,omitempty"`      // register: preferred id; registered: granted id
	Target  string          `json:"target,omitempty"`  // dial: remote identity
	Peer    string          `json:"peer,omitempty"`    // open: remote identity
	Code    string          `json:"code,omitempty"`    // error: machine-readable code
	Message string          `json:"message,omitempty"` // error: human-readable detail
	Payload json.RawMessage `json:"payload,omitempty"` // data: opaque relayed bytes
}

// SnapshotType tags a full document snapshot, the only payload peers exchange.
const SnapshotType = "snapshot"

// Snapshot is one sync message: the full request document plus optional UI
// hints.
type Snapshot struct {
	Type     string           `json:"type"`
	Document request.Document `json:"document"`
	Hints    *appstate.Hints  `json:"hints,omitempty"`
}

// NewSnapshot builds a tagged snapshot from a document and optional hints.
func NewSnapshot(doc request.Document, hints *appstate.Hints) Snapshot {
	return Snapshot{Type: SnapshotType, Document: doc, Hints: hints}
}

// ParseSnapshot decodes and validates a relayed payload. It returns an error
// for anything that is not a well-formed snapshot; callers log and drop.
func ParseSnapshot(raw []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if snap.Type != SnapshotType {
		return nil, fmt.Errorf("unexpected payload type %q", snap.Type)
	}
	if !snap.Document.Method.Valid() {
		return nil, fmt.Errorf("invalid method %q", snap.Document.Method)
	}
	if !snap.Document.BodyType.Valid() {
		return nil, fmt.Errorf("invalid body type %q", snap.Document.BodyType)
	}
	if !snap.Document.AuthType.Valid() {
		return nil, fmt.Errorf("invalid auth type %q", snap.Document.AuthType)
	}
	return &snap, nil
}

// Equal reports whether two snapshots carry identical state. Absent hints
// compare equal to zero-value hints.
func (s Snapshot) Equal(o Snapshot) bool {
	if !s.Document.Equal(o.Document) {
		return false
	}
	var sh, oh appstate.Hints
	if s.Hints != nil {
		sh = *s.Hints
	}
	if o.Hints != nil {
		oh = *o.Hints
	}
	return sh == oh
}
