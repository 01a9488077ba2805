package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codellyson/quick-rest/internal/core/history"
	"github.com/codellyson/quick-rest/internal/core/request"
)

func newTestHandler(t *testing.T, hist *history.Store) *Handler {
	t.Helper()
	return NewHandler(5*time.Second, nil, hist, log.New(io.Discard, "", 0))
}

func callProxy(t *testing.T, h *Handler, fwd ForwardRequest) (*httptest.ResponseRecorder, ForwardResponse) {
	t.Helper()
	body, err := json.Marshal(fwd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/proxy", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp ForwardResponse
	if rec.Code == http.StatusOK || rec.Code == http.StatusBadGateway {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, resp
}

func TestForwardCapturesResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("query page = %q", r.URL.Query().Get("page"))
		}
		if r.Header.Get("X-Trace") != "abc" {
			t.Errorf("header X-Trace = %q", r.Header.Get("X-Trace"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	doc := request.NewDocument()
	doc.URL = upstream.URL
	doc.Params = []request.KVPair{
		{ID: "1", Key: "page", Value: "2", Enabled: true},
		{ID: "2", Key: "skip", Value: "x", Enabled: false},
	}
	doc.Headers = []request.KVPair{{ID: "3", Key: "X-Trace", Value: "abc", Enabled: true}}

	rec, resp := callProxy(t, newTestHandler(t, nil), ForwardRequest{Document: doc})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Status != http.StatusCreated {
		t.Fatalf("captured status = %d", resp.Status)
	}
	if resp.Body != `{"ok":true}` {
		t.Fatalf("body = %q", resp.Body)
	}
	if resp.Size != int64(len(`{"ok":true}`)) {
		t.Fatalf("size = %d", resp.Size)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Fatalf("headers = %v", resp.Headers)
	}
}

func TestForwardSendsBodyAndAuth(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"name":"alice"}` {
			t.Errorf("upstream body = %q", body)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	doc := request.NewDocument()
	doc.Method = request.MethodPost
	doc.URL = upstream.URL
	doc.BodyType = request.BodyJSON
	doc.Body = `{"name":"alice"}`
	doc.AuthType = request.AuthBearer
	doc.Auth.BearerToken = "tok-1"

	rec, _ := callProxy(t, newTestHandler(t, nil), ForwardRequest{Document: doc})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestForwardResolvesVariables(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/users" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "k-99" {
			t.Errorf("api key header = %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	doc := request.NewDocument()
	doc.URL = upstream.URL + "/{{version}}/users"
	doc.AuthType = request.AuthAPIKey
	doc.Auth.APIKey = "{{apikey}}"

	fwd := ForwardRequest{
		Document:  doc,
		Variables: map[string]string{"version": "v2", "apikey": "k-99"},
	}
	rec, _ := callProxy(t, newTestHandler(t, nil), fwd)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestForwardAppendsDuplicateParams(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tags := r.URL.Query()["tag"]
		if len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
			t.Errorf("tag values = %v, want both rows", tags)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	doc := request.NewDocument()
	doc.URL = upstream.URL
	doc.Params = []request.KVPair{
		{ID: "1", Key: "tag", Value: "a", Enabled: true},
		{ID: "2", Key: "tag", Value: "b", Enabled: true},
	}

	rec, _ := callProxy(t, newTestHandler(t, nil), ForwardRequest{Document: doc})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestServerVariablesApplyAndRequestWins(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/users" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("X-Region"); got != "eu-west" {
			t.Errorf("region header = %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	serverVars := map[string]string{"version": "v1", "region": "eu-west"}
	h := NewHandler(5*time.Second, serverVars, nil, log.New(io.Discard, "", 0))

	doc := request.NewDocument()
	doc.URL = upstream.URL + "/{{version}}/users"
	doc.Headers = []request.KVPair{{ID: "1", Key: "X-Region", Value: "{{region}}", Enabled: true}}

	// The request overrides version but inherits region from the server set.
	fwd := ForwardRequest{Document: doc, Variables: map[string]string{"version": "v3"}}
	rec, _ := callProxy(t, h, fwd)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestForwardPrettyPrintsJSON(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1,"b":2}`))
	}))
	defer upstream.Close()

	doc := request.NewDocument()
	doc.URL = upstream.URL

	_, resp := callProxy(t, newTestHandler(t, nil), ForwardRequest{Document: doc, Pretty: true})
	if !strings.Contains(resp.Body, "\n") {
		t.Fatalf("body not prettified: %q", resp.Body)
	}
}

func TestUnreachableUpstreamReportsStatusZero(t *testing.T) {
	doc := request.NewDocument()
	doc.URL = "http://127.0.0.1:1/nope"

	rec, resp := callProxy(t, newTestHandler(t, nil), ForwardRequest{Document: doc})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Status != 0 || resp.StatusText == "" {
		t.Fatalf("resp = %+v, want status 0 with a reason", resp)
	}
}

func TestRejectsBadInput(t *testing.T) {
	h := newTestHandler(t, nil)

	// Wrong method.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proxy", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", rec.Code)
	}

	// Malformed JSON.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/proxy", strings.NewReader("{{{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", rec.Code)
	}

	// Missing URL.
	doc := request.NewDocument()
	rec, _ = callProxy(t, h, ForwardRequest{Document: doc})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing url status = %d", rec.Code)
	}
}

func TestPreflightAndCORS(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/proxy", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("CORS headers = %v", rec.Header())
	}
}

func TestExecutionsAreRecorded(t *testing.T) {
	hist, err := history.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer hist.Close()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	doc := request.NewDocument()
	doc.URL = upstream.URL

	rec, _ := callProxy(t, newTestHandler(t, hist), ForwardRequest{Document: doc})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	entries, err := hist.List(10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d history entries, want 1", len(entries))
	}
	if entries[0].URL != upstream.URL || entries[0].StatusCode != http.StatusOK {
		t.Fatalf("entry = %+v", entries[0])
	}
}
