package p2p

import "sync"

// Status is the lifecycle state of the peer link.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusReady        Status = "ready" // host only: identity allocated, awaiting a peer
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// Link tracks the local identity and the single remote counterpart. It is an
// observable store: the synchronizer gates sends on it and the UI renders it,
// both via Subscribe rather than polling.
type Link struct {
	mu       sync.Mutex
	localID  string
	remoteID string
	isHost   bool
	status   Status
	subs     map[int]func(Status)
	next     int
}

// NewLink returns a link in the disconnected state.
func NewLink() *Link {
	return &Link{
		status: StatusDisconnected,
		subs:   make(map[int]func(Status)),
	}
}

// Status returns the current lifecycle state.
func (l *Link) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// LocalID returns the allocated local identity, or "".
func (l *Link) LocalID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.localID
}

// RemoteID returns the connected peer's identity, or "".
func (l *Link) RemoteID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remoteID
}

// IsHost reports whether this side allocated first and waited.
func (l *Link) IsHost() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isHost
}

// SetLocalID records the identity granted by the relay.
func (l *Link) SetLocalID(id string) {
	l.mu.Lock()
	l.localID = id
	l.mu.Unlock()
}

// SetRemoteID records the counterpart's identity.
func (l *Link) SetRemoteID(id string) {
	l.mu.Lock()
	l.remoteID = id
	l.mu.Unlock()
}

// SetHost records which role this side plays.
func (l *Link) SetHost(isHost bool) {
	l.mu.Lock()
	l.isHost = isHost
	l.mu.Unlock()
}

// SetStatus transitions the lifecycle state, notifying subscribers if it
// actually changed.
func (l *Link) SetStatus(st Status) {
	l.mu.Lock()
	if l.status == st {
		l.mu.Unlock()
		return
	}
	l.status = st
	subs := l.listeners()
	l.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// Clear resets identity, role and state, as on a full teardown.
func (l *Link) Clear() {
	l.mu.Lock()
	l.localID = ""
	l.remoteID = ""
	l.isHost = false
	notify := l.status != StatusDisconnected
	l.status = StatusDisconnected
	var subs []func(Status)
	if notify {
		subs = l.listeners()
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(StatusDisconnected)
	}
}

// Subscribe registers a status listener and returns its unsubscribe function.
func (l *Link) Subscribe(fn func(Status)) func() {
	l.mu.Lock()
	id := l.next
	l.next++
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

func (l *Link) listeners() []func(Status) {
	out := make([]func(Status), 0, len(l.subs))
	for _, fn := range l.subs {
		out = append(out, fn)
	}
	return out
}
