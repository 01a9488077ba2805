package p2p

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/codellyson/quick-rest/internal/p2p/wire"
)

const writeTimeout = 10 * time.Second

// Transport wraps the rendezvous/relay service: it owns the relay socket and
// the local identity, and hands out at most one Channel at a time. All
// network failures are converted into sentinel errors or channel callbacks;
// nothing leaks out raw.
type Transport struct {
	relayURL    string
	dialTimeout time.Duration
	logger      *log.Logger

	mu            sync.Mutex
	conn          *websocket.Conn
	readCancel    context.CancelFunc
	identity      string
	channel       *Channel
	onIncoming    func(*Channel)
	allowIncoming bool
	regWait       chan regResult
	dialWait      chan error

	writeMu sync.Mutex
}

type regResult struct {
	id        string
	collision bool
}

// NewTransport creates a transport that rendezvouses through relayURL
// (a ws:// or wss:// endpoint). A zero dialTimeout uses the default policy's
// 30 seconds. A nil logger falls back to the standard logger.
func NewTransport(relayURL string, dialTimeout time.Duration, logger *log.Logger) *Transport {
	if dialTimeout <= 0 {
		dialTimeout = DefaultPolicy().ConnectTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Transport{
		relayURL:    relayURL,
		dialTimeout: dialTimeout,
		logger:      logger,
	}
}

// Identity returns the allocated identity, or "".
func (t *Transport) Identity() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.identity
}

// OnIncomingConnection registers the handler invoked when a remote peer
// connects to the local identity. The handler runs before the channel's open
// callback fires, so callbacks set inside it see every event.
func (t *Transport) OnIncomingConnection(fn func(*Channel)) {
	t.mu.Lock()
	t.onIncoming = fn
	t.mu.Unlock()
}

// AllowIncoming controls whether unsolicited open frames are accepted. Only a
// hosting side enables it; on a dialing side a stray open (say, one that
// lands just after the dial timed out) is refused with a hangup instead of
// being mistaken for an inbound connection.
func (t *Transport) AllowIncoming(allow bool) {
	t.mu.Lock()
	t.allowIncoming = allow
	t.mu.Unlock()
}

// AllocateIdentity obtains a globally addressable identity from the relay.
// If preferred is taken, the allocation is retried transparently with a
// relay-generated identity. Idempotent once an identity is held.
func (t *Transport) AllocateIdentity(ctx context.Context, preferred string) (string, error) {
	t.mu.Lock()
	if t.identity != "" {
		id := t.identity
		t.mu.Unlock()
		return id, nil
	}
	t.mu.Unlock()

	if err := t.ensureSocket(ctx); err != nil {
		return "", err
	}

	for {
		id, collision, err := t.register(ctx, preferred)
		if err != nil {
			return "", err
		}
		if collision {
			if preferred == "" {
				return "", fmt.Errorf("p2p: relay rejected a generated identity")
			}
			// Let the relay pick one instead.
			preferred = ""
			continue
		}

		t.mu.Lock()
		t.identity = id
		t.mu.Unlock()
		return id, nil
	}
}

func (t *Transport) register(ctx context.Context, preferred string) (string, bool, error) {
	wait := make(chan regResult, 1)
	t.mu.Lock()
	t.regWait = wait
	t.mu.Unlock()

	if err := t.writeEnvelope(ctx, wire.Envelope{Kind: wire.KindRegister, ID: preferred}); err != nil {
		return "", false, err
	}

	select {
	case res, ok := <-wait:
		if !ok {
			return "", false, ErrTornDown
		}
		return res.id, res.collision, nil
	case <-ctx.Done():
		t.mu.Lock()
		t.regWait = nil
		t.mu.Unlock()
		return "", false, ctx.Err()
	}
}

// ConnectTo initiates a channel to a remote identity. The local identity is
// allocated first if absent. Fails with ErrPeerUnavailable if the remote is
// unreachable, or ErrConnectionTimeout if the handshake does not complete
// within the dial timeout.
func (t *Transport) ConnectTo(ctx context.Context, remote string) (*Channel, error) {
	if _, err := t.AllocateIdentity(ctx, ""); err != nil {
		return nil, err
	}

	ch := newChannel(t, remote)
	wait := make(chan error, 1)

	t.mu.Lock()
	if t.channel != nil {
		old := t.channel
		t.channel = nil
		t.mu.Unlock()
		old.closeLocal()
		t.mu.Lock()
	}
	t.channel = ch
	t.dialWait = wait
	t.mu.Unlock()

	if err := t.writeEnvelope(ctx, wire.Envelope{Kind: wire.KindDial, Target: remote}); err != nil {
		t.abandonDial(ch)
		return nil, err
	}

	timer := time.NewTimer(t.dialTimeout)
	defer timer.Stop()

	select {
	case err, ok := <-wait:
		if !ok {
			return nil, ErrTornDown
		}
		if err != nil {
			t.abandonDial(ch)
			return nil, err
		}
		return ch, nil
	case <-timer.C:
		t.abandonDial(ch)
		_ = t.writeEnvelope(context.Background(), wire.Envelope{Kind: wire.KindHangup})
		return nil, ErrConnectionTimeout
	case <-ctx.Done():
		t.abandonDial(ch)
		return nil, ctx.Err()
	}
}

func (t *Transport) abandonDial(ch *Channel) {
	t.mu.Lock()
	t.dialWait = nil
	if t.channel == ch {
		t.channel = nil
	}
	t.mu.Unlock()
}

// Disconnect closes the active channel. When keepIdentity is false the relay
// socket is closed too and the identity is released; sharing again requires a
// fresh allocation.
func (t *Transport) Disconnect(keepIdentity bool) {
	t.mu.Lock()
	ch := t.channel
	t.channel = nil
	t.mu.Unlock()

	if ch != nil {
		_ = t.writeEnvelope(context.Background(), wire.Envelope{Kind: wire.KindHangup})
		ch.closeLocal()
	}

	if keepIdentity {
		return
	}

	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.identity = ""
	if t.readCancel != nil {
		t.readCancel()
		t.readCancel = nil
	}
	t.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "teardown")
	}
}

// ensureSocket dials the relay if no socket is up and starts the read loop.
func (t *Transport) ensureSocket(ctx context.Context) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	conn, _, err := websocket.Dial(ctx, t.relayURL, nil)
	if err != nil {
		return fmt.Errorf("p2p: connecting to relay: %w", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	if t.conn != nil {
		// Lost a race with another dial; keep the first socket.
		t.mu.Unlock()
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "duplicate")
		return nil
	}
	t.conn = conn
	t.readCancel = cancel
	t.mu.Unlock()

	go t.readLoop(readCtx, conn)
	return nil
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.handleSocketLoss(conn)
			return
		}

		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.logger.Printf("p2p: dropping malformed relay frame: %v", err)
			continue
		}
		t.dispatch(env)
	}
}

func (t *Transport) dispatch(env wire.Envelope) {
	switch env.Kind {
	case wire.KindRegistered:
		t.mu.Lock()
		wait := t.regWait
		t.regWait = nil
		t.mu.Unlock()
		if wait != nil {
			wait <- regResult{id: env.ID}
		}

	case wire.KindError:
		t.handleRelayError(env)

	case wire.KindOpen:
		t.handleOpen(env.Peer)

	case wire.KindData:
		t.mu.Lock()
		ch := t.channel
		t.mu.Unlock()
		if ch == nil || !ch.IsOpen() {
			t.logger.Printf("p2p: dropping data frame with no open channel")
			return
		}
		snap, err := wire.ParseSnapshot(env.Payload)
		if err != nil {
			t.logger.Printf("p2p: rejecting peer payload: %v", err)
			return
		}
		ch.deliver(*snap)

	case wire.KindClosed:
		t.mu.Lock()
		ch := t.channel
		t.channel = nil
		wait := t.dialWait
		t.dialWait = nil
		t.mu.Unlock()
		if wait != nil {
			wait <- ErrChannelClosed
		}
		if ch != nil {
			ch.closeLocal()
		}

	default:
		t.logger.Printf("p2p: ignoring relay frame kind %q", env.Kind)
	}
}

func (t *Transport) handleRelayError(env wire.Envelope) {
	switch env.Code {
	case wire.CodeIDTaken:
		t.mu.Lock()
		wait := t.regWait
		t.regWait = nil
		t.mu.Unlock()
		if wait != nil {
			wait <- regResult{collision: true}
		}
	case wire.CodePeerUnavailable:
		t.mu.Lock()
		wait := t.dialWait
		t.dialWait = nil
		if t.channel != nil && !t.channel.IsOpen() {
			t.channel = nil
		}
		t.mu.Unlock()
		if wait != nil {
			wait <- ErrPeerUnavailable
		}
	default:
		t.logger.Printf("p2p: relay error %s: %s", env.Code, env.Message)
	}
}

func (t *Transport) handleOpen(peer string) {
	t.mu.Lock()
	if t.dialWait != nil {
		// Outgoing dial completing.
		ch := t.channel
		wait := t.dialWait
		t.dialWait = nil
		t.mu.Unlock()
		if ch != nil {
			ch.setOpen()
		}
		wait <- nil
		return
	}

	if !t.allowIncoming {
		t.mu.Unlock()
		t.logger.Printf("p2p: refusing unsolicited open from %s", peer)
		_ = t.writeEnvelope(context.Background(), wire.Envelope{Kind: wire.KindHangup})
		return
	}

	// Incoming connection: hand the channel to the application before the
	// open event fires so its callbacks see everything.
	ch := newChannel(t, peer)
	t.channel = ch
	handler := t.onIncoming
	t.mu.Unlock()

	if handler != nil {
		handler(ch)
	}
	ch.setOpen()
}

// handleSocketLoss runs when the relay socket dies underneath us. The data
// channel is gone for good; the identity layer reconnects best-effort so the
// peer stays addressable, but the application must re-initiate any channel.
func (t *Transport) handleSocketLoss(conn *websocket.Conn) {
	t.mu.Lock()
	if t.conn != conn {
		// Deliberate teardown already handled.
		t.mu.Unlock()
		return
	}
	t.conn = nil
	if t.readCancel != nil {
		t.readCancel()
		t.readCancel = nil
	}
	id := t.identity
	ch := t.channel
	t.channel = nil
	regWait := t.regWait
	t.regWait = nil
	dialWait := t.dialWait
	t.dialWait = nil
	t.mu.Unlock()

	if regWait != nil {
		close(regWait)
	}
	if dialWait != nil {
		close(dialWait)
	}
	if ch != nil {
		ch.errored(ErrChannelClosed)
	}
	if id != "" {
		go t.reregister(id)
	}
}

// reregister re-claims the identity after an unexpected relay disconnect.
// Three attempts, then give up; the user can always reshare.
func (t *Transport) reregister(id string) {
	for attempt := 1; attempt <= 3; attempt++ {
		time.Sleep(time.Duration(attempt) * time.Second)

		t.mu.Lock()
		stillOurs := t.identity == id
		t.mu.Unlock()
		if !stillOurs {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := t.ensureSocket(ctx)
		if err == nil {
			var collision bool
			_, collision, err = t.register(ctx, id)
			if err == nil && collision {
				err = fmt.Errorf("identity taken by another peer")
			}
		}
		cancel()

		if err == nil {
			t.logger.Printf("p2p: re-registered identity after relay loss")
			return
		}
		t.logger.Printf("p2p: identity re-register attempt %d failed: %v", attempt, err)
	}
}

func (t *Transport) writeEnvelope(ctx context.Context, env wire.Envelope) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrTornDown
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return conn.Write(wctx, websocket.MessageText, data)
}
