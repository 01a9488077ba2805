// Package relay implements the rendezvous service peers meet through: it
// hands out identities, pairs a dialing peer with a registered one, and
// relays data frames between the two until either side goes away.
package relay

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/codellyson/quick-rest/internal/p2p/wire"
)

const writeTimeout = 10 * time.Second

// Server is an http.Handler that upgrades every request to a relay session.
type Server struct {
	logger *log.Logger

	mu    sync.Mutex
	peers map[string]*peer
}

type peer struct {
	id      string
	conn    *websocket.Conn
	partner *peer
	writeMu sync.Mutex
}

// New creates a relay server. A nil logger falls back to the standard logger.
func New(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		logger: logger,
		peers:  make(map[string]*peer),
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Browser sessions connect from arbitrary origins; that is the point
		// of a public rendezvous endpoint.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Printf("relay: accept: %v", err)
		return
	}
	defer conn.CloseNow()

	s.handle(r.Context(), &peer{conn: conn})
}

func (s *Server) handle(ctx context.Context, p *peer) {
	defer s.drop(p)

	for {
		_, data, err := p.conn.Read(ctx)
		if err != nil {
			return
		}

		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.Printf("relay: dropping malformed frame: %v", err)
			continue
		}

		switch env.Kind {
		case wire.KindRegister:
			s.register(ctx, p, env.ID)
		case wire.KindDial:
			s.dial(ctx, p, env.Target)
		case wire.KindData:
			s.forward(ctx, p, env.Payload)
		case wire.KindHangup:
			s.hangup(ctx, p)
		default:
			s.logger.Printf("relay: ignoring frame kind %q", env.Kind)
		}
	}
}

// register grants the peer an identity: the preferred one if free, otherwise
// a collision error (the client retries with no preference).
func (s *Server) register(ctx context.Context, p *peer, preferred string) {
	id := preferred
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	if other, taken := s.peers[id]; taken && other != p {
		s.mu.Unlock()
		s.send(ctx, p, wire.Envelope{
			Kind:    wire.KindError,
			Code:    wire.CodeIDTaken,
			Message: "identity already registered",
		})
		return
	}
	if p.id != "" {
		delete(s.peers, p.id)
	}
	p.id = id
	s.peers[id] = p
	s.mu.Unlock()

	s.send(ctx, p, wire.Envelope{Kind: wire.KindRegistered, ID: id})
}

// dial pairs the caller with a registered, unpaired target and tells both
// sides the channel is open.
func (s *Server) dial(ctx context.Context, p *peer, target string) {
	s.mu.Lock()
	other, ok := s.peers[target]
	if !ok || other == p || other.partner != nil || p.partner != nil {
		s.mu.Unlock()
		s.send(ctx, p, wire.Envelope{
			Kind:    wire.KindError,
			Code:    wire.CodePeerUnavailable,
			Message: "peer not available",
		})
		return
	}
	p.partner = other
	other.partner = p
	s.mu.Unlock()

	// The host hears first so it can stand up its handlers before data flows.
	s.send(ctx, other, wire.Envelope{Kind: wire.KindOpen, Peer: p.id})
	s.send(ctx, p, wire.Envelope{Kind: wire.KindOpen, Peer: other.id})
}

func (s *Server) forward(ctx context.Context, p *peer, payload json.RawMessage) {
	s.mu.Lock()
	partner := p.partner
	s.mu.Unlock()
	if partner == nil {
		s.logger.Printf("relay: dropping data frame from unpaired peer")
		return
	}
	s.send(ctx, partner, wire.Envelope{Kind: wire.KindData, Payload: payload})
}

func (s *Server) hangup(ctx context.Context, p *peer) {
	s.mu.Lock()
	partner := p.partner
	p.partner = nil
	if partner != nil {
		partner.partner = nil
	}
	s.mu.Unlock()

	if partner != nil {
		s.send(ctx, partner, wire.Envelope{Kind: wire.KindClosed})
	}
}

// drop runs when a peer's socket goes away: the identity is released and any
// partner is told the channel closed.
func (s *Server) drop(p *peer) {
	s.mu.Lock()
	if p.id != "" && s.peers[p.id] == p {
		delete(s.peers, p.id)
	}
	partner := p.partner
	p.partner = nil
	if partner != nil {
		partner.partner = nil
	}
	s.mu.Unlock()

	if partner != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		s.send(ctx, partner, wire.Envelope{Kind: wire.KindClosed})
	}
}

func (s *Server) send(ctx context.Context, p *peer, env wire.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.conn.Write(wctx, websocket.MessageText, data); err != nil {
		s.logger.Printf("relay: write to %s: %v", p.id, err)
	}
}
