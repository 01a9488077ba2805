package p2p

import "errors"

// Errors surfaced by the transport adapter. Everything else the relay or the
// socket can throw is converted into one of these plus a state transition;
// raw network errors never cross the adapter boundary.
var (
	// ErrConnectionTimeout means a channel handshake did not complete within
	// the configured window. The attempt is abandoned, not retried.
	ErrConnectionTimeout = errors.New("p2p: connection attempt timed out")

	// ErrPeerUnavailable means the dialed identity is not registered with the
	// relay (or is already paired).
	ErrPeerUnavailable = errors.New("p2p: remote peer unavailable")

	// ErrChannelClosed means the data channel went away after being open.
	ErrChannelClosed = errors.New("p2p: channel closed")

	// ErrTornDown means the transport was already disconnected.
	ErrTornDown = errors.New("p2p: transport torn down")
)
