package p2p

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/codellyson/quick-rest/internal/p2p/wire"
)

// Channel is the ordered, reliable, bidirectional snapshot pipe to the one
// remote peer. Sends on a non-open channel are dropped silently, never
// queued: a stale snapshot delivered after reconnect would be worse than no
// snapshot.
type Channel struct {
	t *Transport

	mu        sync.Mutex
	peer      string
	open      bool
	closed    bool
	pending   *wire.Snapshot
	onOpen    func()
	onMessage func(wire.Snapshot)
	onClose   func()
	onError   func(error)
}

func newChannel(t *Transport, peer string) *Channel {
	return &Channel{t: t, peer: peer}
}

// Peer returns the remote identity.
func (c *Channel) Peer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

// IsOpen reports whether the channel is currently open.
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Send transmits a snapshot to the peer. Fire-and-forget: on a non-open
// channel it is a no-op, and transport write failures surface through the
// error callback, not a return value.
func (c *Channel) Send(snap wire.Snapshot) {
	c.mu.Lock()
	open := c.open
	onError := c.onError
	c.mu.Unlock()
	if !open {
		return
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	err = c.t.writeEnvelope(context.Background(), wire.Envelope{
		Kind:    wire.KindData,
		Payload: payload,
	})
	if err != nil && onError != nil {
		onError(err)
	}
}

// OnOpen registers the open callback. If the channel is already open the
// callback fires immediately.
func (c *Channel) OnOpen(fn func()) {
	c.mu.Lock()
	c.onOpen = fn
	open := c.open
	c.mu.Unlock()
	if open && fn != nil {
		fn()
	}
}

// OnMessage registers the snapshot callback. A message that arrived before a
// handler was attached is delivered immediately; only the most recent one is
// kept, since every snapshot carries full state.
func (c *Channel) OnMessage(fn func(wire.Snapshot)) {
	c.mu.Lock()
	c.onMessage = fn
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	if pending != nil && fn != nil {
		fn(*pending)
	}
}

// OnClose registers the close callback.
func (c *Channel) OnClose(fn func()) {
	c.mu.Lock()
	c.onClose = fn
	c.mu.Unlock()
}

// OnError registers the error callback.
func (c *Channel) OnError(fn func(error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

func (c *Channel) setOpen() {
	c.mu.Lock()
	if c.open || c.closed {
		c.mu.Unlock()
		return
	}
	c.open = true
	fn := c.onOpen
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Channel) deliver(snap wire.Snapshot) {
	c.mu.Lock()
	fn := c.onMessage
	if fn == nil {
		c.pending = &snap
	}
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func (c *Channel) closeLocal() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.open = false
	c.closed = true
	fn := c.onClose
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Channel) errored(err error) {
	c.mu.Lock()
	fn := c.onError
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
	c.closeLocal()
}
