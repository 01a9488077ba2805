package p2p

import (
	"time"

	"github.com/codellyson/quick-rest/internal/core/request"
)

// Policy holds the timing constants of the sync core. The defaults were tuned
// by feel, not derivation; treat them as configuration, not protocol.
type Policy struct {
	// GraceWindow keeps a field "hot" after its last edit so a snapshot that
	// lands just after a blur cannot clobber text the user is about to
	// resume typing.
	GraceWindow time.Duration

	// Trailing debounce per field class. Heavier text fields wait longer so a
	// typing burst collapses into one send.
	DebounceBody     time.Duration // body text
	DebounceURL      time.Duration // URL bar
	DebounceKV       time.Duration // params and headers tables
	DebounceDiscrete time.Duration // method, body type, auth type
	DebounceHints    time.Duration // UI hints only
	DebounceDefault  time.Duration // anything else (auth credentials)

	// ConnectTimeout bounds a channel handshake.
	ConnectTimeout time.Duration
}

// DefaultPolicy returns the stock tuning.
func DefaultPolicy() Policy {
	return Policy{
		GraceWindow:      2 * time.Second,
		DebounceBody:     1500 * time.Millisecond,
		DebounceURL:      1000 * time.Millisecond,
		DebounceKV:       800 * time.Millisecond,
		DebounceDiscrete: 200 * time.Millisecond,
		DebounceHints:    100 * time.Millisecond,
		DebounceDefault:  500 * time.Millisecond,
		ConnectTimeout:   30 * time.Second,
	}
}

// debounceFor picks the interval for a change set. Precedence runs from the
// most disruption-prone field down: body, url, key-value tables, discrete
// selectors, then hints-only.
func (p Policy) debounceFor(changed []request.Field, hintsChanged bool) time.Duration {
	var body, url, kv, discrete, other bool
	for _, f := range changed {
		switch f {
		case request.FieldBody:
			body = true
		case request.FieldURL:
			url = true
		case request.FieldParams, request.FieldHeaders:
			kv = true
		case request.FieldMethod, request.FieldBodyType, request.FieldAuthType:
			discrete = true
		default:
			other = true
		}
	}
	switch {
	case body:
		return p.DebounceBody
	case url:
		return p.DebounceURL
	case kv:
		return p.DebounceKV
	case discrete:
		return p.DebounceDiscrete
	case other:
		return p.DebounceDefault
	case hintsChanged:
		return p.DebounceHints
	}
	return p.DebounceDefault
}
