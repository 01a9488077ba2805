package p2p

import (
	"context"
	"errors"

	"github.com/codellyson/quick-rest/internal/core/appstate"
	"github.com/codellyson/quick-rest/internal/core/request"
)

// Notifier surfaces connection events to the user, toast-style. Fire and
// forget; implementations must not block.
type Notifier interface {
	Notify(message string, isErr bool)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(string, bool) {}

// Session is the facade the application drives: hosting, connecting,
// disconnecting, and status observation. It owns the link state machine, the
// editing tracker and the synchronizer, and binds them to channels the
// transport produces.
type Session struct {
	transport *Transport
	link      *Link
	edits     *Tracker
	syncer    *Syncer
	notify    Notifier
}

// NewSession wires a session over the given transport and stores.
func NewSession(transport *Transport, docs *request.Store, hints *appstate.Store, notify Notifier, policy Policy) *Session {
	if notify == nil {
		notify = NopNotifier{}
	}
	link := NewLink()
	edits := NewTracker(policy.GraceWindow)
	s := &Session{
		transport: transport,
		link:      link,
		edits:     edits,
		syncer:    NewSyncer(docs, hints, link, edits, policy),
		notify:    notify,
	}
	transport.OnIncomingConnection(s.acceptIncoming)
	return s
}

// Link exposes the observable connection state.
func (s *Session) Link() *Link { return s.link }

// Edits exposes the editing tracker; the UI calls MarkEditing on focus and
// blur of each editable field.
func (s *Session) Edits() *Tracker { return s.edits }

// Status returns the current connection status.
func (s *Session) Status() Status { return s.link.Status() }

// Subscribe registers a status listener and returns its unsubscribe function.
func (s *Session) Subscribe(fn func(Status)) func() { return s.link.Subscribe(fn) }

// StartHosting allocates an identity and waits for an inbound peer. Returns
// the identity to share out of band (or embed in a share link).
func (s *Session) StartHosting(ctx context.Context) (string, error) {
	s.link.SetHost(true)
	s.transport.AllowIncoming(true)

	id, err := s.transport.AllocateIdentity(ctx, "")
	if err != nil {
		s.link.SetStatus(StatusDisconnected)
		s.notify.Notify("Could not reach the sharing relay", true)
		return "", err
	}

	s.link.SetLocalID(id)
	s.link.SetStatus(StatusReady)
	return id, nil
}

// ConnectToHost dials a host identity and brings the link to connected, or
// reverts to disconnected with a user-visible reason.
func (s *Session) ConnectToHost(ctx context.Context, hostID string) error {
	s.link.SetHost(false)
	// A dialing side must not be mistaken for a host by a late open frame.
	s.transport.AllowIncoming(false)
	s.link.SetStatus(StatusConnecting)

	ch, err := s.transport.ConnectTo(ctx, hostID)
	if err != nil {
		s.link.SetStatus(StatusDisconnected)
		switch {
		case errors.Is(err, ErrConnectionTimeout):
			s.notify.Notify("Connection timed out", true)
		case errors.Is(err, ErrPeerUnavailable):
			s.notify.Notify("Host is not available", true)
		default:
			s.notify.Notify("Connection failed", true)
		}
		return err
	}

	s.link.SetLocalID(s.transport.Identity())
	s.bind(ch)
	return nil
}

// Disconnect tears the link down. With keepIdentity the relay registration
// survives so the session can be re-joined without resharing.
func (s *Session) Disconnect(keepIdentity bool) {
	s.syncer.Detach()
	s.transport.Disconnect(keepIdentity)
	if keepIdentity {
		s.link.SetStatus(StatusDisconnected)
	} else {
		s.link.Clear()
	}
}

// acceptIncoming runs when a remote peer dials the local identity (host
// side). It is invoked before the channel's open event.
func (s *Session) acceptIncoming(ch *Channel) {
	s.link.SetStatus(StatusConnecting)
	s.bind(ch)
}

// bind attaches session behavior to a channel. OnOpen fires immediately for
// channels that are already open, so both roles share this path.
func (s *Session) bind(ch *Channel) {
	ch.OnMessage(s.syncer.ApplyRemote)
	ch.OnClose(func() {
		s.syncer.Detach()
		if s.link.Status() != StatusDisconnected {
			s.link.SetStatus(StatusDisconnected)
			s.notify.Notify("Peer disconnected", false)
		}
	})
	ch.OnError(func(err error) {
		s.notify.Notify("Peer link error: "+err.Error(), true)
	})
	ch.OnOpen(func() {
		s.link.SetRemoteID(ch.Peer())
		s.link.SetStatus(StatusConnected)
		s.syncer.Attach(ch.Send)
		s.notify.Notify("Peer connected", false)
		if s.link.IsHost() {
			// Push current state so the new peer converges without waiting
			// for an edit.
			s.syncer.SyncNow()
		}
	})
}
