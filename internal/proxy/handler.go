// Package proxy implements the forward-and-capture endpoint the browser UI
// calls to escape CORS: it executes the described request server-side and
// returns the captured response as JSON.
package proxy

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/pretty"

	"github.com/codellyson/quick-rest/internal/core/environment"
	"github.com/codellyson/quick-rest/internal/core/history"
	"github.com/codellyson/quick-rest/internal/core/request"
)

// ForwardRequest is the proxy's input: the draft to execute, plus optional
// variables to substitute before sending.
type ForwardRequest struct {
	Document  request.Document  `json:"document"`
	Variables map[string]string `json:"variables,omitempty"`
	Pretty    bool              `json:"pretty,omitempty"`
}

// ForwardResponse is the captured upstream response. Status 0 means the
// request never completed; StatusText then carries the reason.
type ForwardResponse struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	Time       int64             `json:"time"` // milliseconds
	Size       int64             `json:"size"`
}

// Handler forwards requests described by ForwardRequest. Stateless per call;
// an attached history store records every execution.
type Handler struct {
	client  *http.Client
	vars    map[string]string
	history *history.Store
	logger  *log.Logger
}

// NewHandler creates a proxy handler with the given upstream timeout. vars
// holds server-side environment variables; request-supplied variables shadow
// them per call.
func NewHandler(timeout time.Duration, vars map[string]string, hist *history.Store, logger *log.Logger) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		vars: vars,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		history: hist,
		logger:  logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var fwd ForwardRequest
	if err := json.NewDecoder(r.Body).Decode(&fwd); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doc := environment.ResolveDocument(fwd.Document, h.mergeVars(fwd.Variables))
	if doc.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	if !doc.Method.Valid() {
		http.Error(w, "invalid method", http.StatusBadRequest)
		return
	}

	resp, err := h.forward(r, doc, fwd.Pretty)
	if err != nil {
		h.logger.Printf("proxy: %s %s: %v", doc.Method, doc.URL, err)
		writeJSON(w, http.StatusBadGateway, ForwardResponse{
			StatusText: err.Error(),
			Headers:    map[string]string{},
		})
		return
	}

	h.record(doc, resp)
	writeJSON(w, http.StatusOK, *resp)
}

func (h *Handler) forward(r *http.Request, doc request.Document, prettify bool) (*ForwardResponse, error) {
	u, err := url.Parse(doc.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}

	// Append rather than replace so duplicate enabled keys all survive.
	q := u.Query()
	for _, p := range doc.Params {
		if p.Enabled && p.Key != "" {
			q.Add(p.Key, p.Value)
		}
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if doc.BodyType != request.BodyNone && doc.Body != "" &&
		doc.Method != request.MethodGet && doc.Method != request.MethodHead {
		body = strings.NewReader(doc.Body)
	}

	upstream, err := http.NewRequestWithContext(r.Context(), string(doc.Method), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for _, p := range doc.Headers {
		if p.Enabled && p.Key != "" {
			upstream.Header.Set(p.Key, p.Value)
		}
	}
	applyAuth(upstream, doc)

	start := time.Now()
	resp, err := h.client.Do(upstream)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	duration := time.Since(start)

	if prettify && strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		respBody = pretty.Pretty(respBody)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return &ForwardResponse{
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		Headers:    headers,
		Body:       string(respBody),
		Time:       duration.Milliseconds(),
		Size:       int64(len(respBody)),
	}, nil
}

// mergeVars overlays request-supplied variables onto the server-side set.
func (h *Handler) mergeVars(reqVars map[string]string) map[string]string {
	if len(h.vars) == 0 {
		return reqVars
	}
	merged := make(map[string]string, len(h.vars)+len(reqVars))
	for k, v := range h.vars {
		merged[k] = v
	}
	for k, v := range reqVars {
		merged[k] = v
	}
	return merged
}

func (h *Handler) record(doc request.Document, resp *ForwardResponse) {
	if h.history == nil {
		return
	}
	_, err := h.history.Add(history.Entry{
		Method:       string(doc.Method),
		URL:          doc.URL,
		StatusCode:   resp.Status,
		Duration:     time.Duration(resp.Time) * time.Millisecond,
		Size:         resp.Size,
		RequestBody:  doc.Body,
		ResponseBody: resp.Body,
		Timestamp:    time.Now(),
	})
	if err != nil {
		h.logger.Printf("proxy: recording history: %v", err)
	}
}

func applyAuth(req *http.Request, doc request.Document) {
	switch doc.AuthType {
	case request.AuthBearer:
		if doc.Auth.BearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+doc.Auth.BearerToken)
		}
	case request.AuthBasic:
		encoded := base64.StdEncoding.EncodeToString(
			[]byte(doc.Auth.Username + ":" + doc.Auth.Password),
		)
		req.Header.Set("Authorization", "Basic "+encoded)
	case request.AuthAPIKey:
		header := doc.Auth.APIKeyHeader
		if header == "" {
			header = "X-API-Key"
		}
		if doc.Auth.APIKey != "" {
			req.Header.Set(header, doc.Auth.APIKey)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

