package p2p

import (
	"context"
	"testing"
	"time"

	"github.com/codellyson/quick-rest/internal/core/appstate"
	"github.com/codellyson/quick-rest/internal/core/request"
)

type sessionSide struct {
	session *Session
	docs    *request.Store
	hints   *appstate.Store
}

func newSessionSide(t *testing.T, wsURL string, grace time.Duration) *sessionSide {
	t.Helper()
	docs := request.NewStore()
	hints := appstate.NewStore()
	transport := NewTransport(wsURL, 2*time.Second, quietLogger())
	t.Cleanup(func() { transport.Disconnect(false) })

	return &sessionSide{
		session: NewSession(transport, docs, hints, nil, testPolicy(grace)),
		docs:    docs,
		hints:   hints,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func pairSessions(t *testing.T, host, client *sessionSide) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := host.session.StartHosting(ctx)
	if err != nil {
		t.Fatalf("StartHosting: %v", err)
	}
	if host.session.Status() != StatusReady {
		t.Fatalf("host status = %q, want ready", host.session.Status())
	}

	if err := client.session.ConnectToHost(ctx, id); err != nil {
		t.Fatalf("ConnectToHost: %v", err)
	}

	waitFor(t, "both sides connected", func() bool {
		return host.session.Status() == StatusConnected &&
			client.session.Status() == StatusConnected
	})
}

func TestSessionConvergesOnHostEdits(t *testing.T) {
	wsURL := startRelay(t)
	host := newSessionSide(t, wsURL, time.Millisecond)
	client := newSessionSide(t, wsURL, time.Millisecond)

	host.docs.SetURL("https://api.example.com/orders")
	host.docs.SetMethod(request.MethodPost)

	pairSessions(t, host, client)

	// The host pushes its state the moment the channel opens.
	waitFor(t, "initial snapshot", func() bool {
		doc := client.docs.Snapshot()
		return doc.URL == "https://api.example.com/orders" && doc.Method == request.MethodPost
	})

	host.docs.SetBody(`{"item":"widget"}`)
	host.docs.SetBodyType(request.BodyJSON)

	waitFor(t, "edit propagation", func() bool {
		doc := client.docs.Snapshot()
		return doc.Body == `{"item":"widget"}` && doc.BodyType == request.BodyJSON
	})
}

func TestSessionConvergesOnClientEdits(t *testing.T) {
	wsURL := startRelay(t)
	host := newSessionSide(t, wsURL, time.Millisecond)
	client := newSessionSide(t, wsURL, time.Millisecond)

	pairSessions(t, host, client)

	client.docs.SetURL("https://client.example.com")

	waitFor(t, "client edit on host", func() bool {
		return host.docs.Snapshot().URL == "https://client.example.com"
	})
}

func TestSessionPreservesFieldUnderEdit(t *testing.T) {
	wsURL := startRelay(t)
	host := newSessionSide(t, wsURL, time.Millisecond)
	client := newSessionSide(t, wsURL, time.Hour)

	pairSessions(t, host, client)

	// The client is mid-edit in the body editor.
	client.session.Edits().MarkEditing(request.FieldBody, true)
	client.docs.SetBody("client draft")

	// The host pushes a competing body plus an uncontested method change.
	host.docs.SetBody("host version")
	host.docs.SetMethod(request.MethodDelete)

	waitFor(t, "uncontested field on client", func() bool {
		return client.docs.Snapshot().Method == request.MethodDelete
	})
	if got := client.docs.Snapshot().Body; got != "client draft" {
		t.Fatalf("client body = %q, the field under edit must not be clobbered", got)
	}

	// The client's local value wins and flows back to the host.
	waitFor(t, "client body winning on host", func() bool {
		return host.docs.Snapshot().Body == "client draft"
	})
}

func TestSessionHintsRideAlong(t *testing.T) {
	wsURL := startRelay(t)
	host := newSessionSide(t, wsURL, time.Millisecond)
	client := newSessionSide(t, wsURL, time.Millisecond)

	pairSessions(t, host, client)

	host.hints.SetActiveTab("params")
	host.hints.SetPanelWidth(62)

	waitFor(t, "hints propagation", func() bool {
		h := client.hints.Get()
		return h.ActiveTab == "params" && h.PanelWidth == 62
	})
}

func TestSessionDisconnectStopsSync(t *testing.T) {
	wsURL := startRelay(t)
	host := newSessionSide(t, wsURL, time.Millisecond)
	client := newSessionSide(t, wsURL, time.Millisecond)

	pairSessions(t, host, client)

	client.session.Disconnect(false)

	waitFor(t, "host noticing the disconnect", func() bool {
		return host.session.Status() == StatusDisconnected
	})
	if client.session.Status() != StatusDisconnected {
		t.Fatalf("client status = %q", client.session.Status())
	}
	if client.session.Link().LocalID() != "" {
		t.Fatal("full disconnect should clear the local identity")
	}

	// Edits after teardown stay local.
	host.docs.SetURL("https://late.example.com")
	time.Sleep(200 * time.Millisecond)
	if client.docs.Snapshot().URL == "https://late.example.com" {
		t.Fatal("edit leaked across a closed link")
	}
}

func TestConnectToUnknownHostReportsUnavailable(t *testing.T) {
	wsURL := startRelay(t)
	client := newSessionSide(t, wsURL, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.session.ConnectToHost(ctx, "no-such-host"); err == nil {
		t.Fatal("expected an error")
	}
	if client.session.Status() != StatusDisconnected {
		t.Fatalf("status = %q, want disconnected after a failed dial", client.session.Status())
	}
}
