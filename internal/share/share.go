// Package share encodes the request draft into a URL fragment and back. The
// fragment never reaches a server and is consumed once on load; credentials
// are stripped before encoding so a pasted link cannot leak them.
package share

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/codellyson/quick-rest/internal/core/appstate"
	"github.com/codellyson/quick-rest/internal/core/request"
)

const fragmentPrefix = "share="

// Packet is the serializable snapshot a link carries.
type Packet struct {
	Document request.Document `json:"document"`
	Hints    *appstate.Hints  `json:"hints,omitempty"`
}

// Decoded is the result of parsing a fragment.
type Decoded struct {
	Packet Packet
	PeerID string // optional auto-connect identity
}

// Encode serializes a packet to base64 JSON. When the document uses any auth
// scheme the secret fields are dropped; the scheme itself and non-secret
// fields (username, API key header name) survive.
func Encode(p Packet) string {
	p.Document = sanitize(p.Document)
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// Fragment builds the URL fragment, optionally embedding a peer identity for
// auto-connect.
func Fragment(p Packet, peerID string) string {
	frag := "#" + fragmentPrefix + Encode(p)
	if peerID != "" {
		frag += "&peer=" + peerID
	}
	return frag
}

// Link builds a full shareable URL.
func Link(baseURL string, p Packet, peerID string) string {
	return strings.TrimRight(baseURL, "/") + Fragment(p, peerID)
}

// Decode parses a URL fragment (with or without the leading "#"). It returns
// nil for anything that is not a well-formed share fragment: an arbitrary
// fragment may be present for unrelated reasons, and malformed input must
// never surface as an error.
func Decode(fragment string) *Decoded {
	frag := strings.TrimPrefix(fragment, "#")
	if !strings.HasPrefix(frag, fragmentPrefix) {
		return nil
	}

	var encoded, peerID string
	for i, part := range strings.Split(frag, "&") {
		switch {
		case i == 0:
			encoded = strings.TrimPrefix(part, fragmentPrefix)
		case strings.HasPrefix(part, "peer="):
			peerID = strings.TrimPrefix(part, "peer=")
		}
	}
	if encoded == "" {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Tolerate encoders that omit padding.
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil
		}
	}

	var p Packet
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	if !p.Document.Method.Valid() || !p.Document.BodyType.Valid() || !p.Document.AuthType.Valid() {
		return nil
	}

	return &Decoded{Packet: p, PeerID: peerID}
}

// sanitize strips secret credential values while keeping the scheme shape.
func sanitize(doc request.Document) request.Document {
	if doc.AuthType == request.AuthNone {
		return doc
	}
	out := doc.Clone()
	out.Auth.BearerToken = ""
	out.Auth.Password = ""
	out.Auth.APIKey = ""
	return out
}
