package request

import "github.com/google/uuid"

// Method is an HTTP request method.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions:
		return true
	}
	return false
}

// BodyType selects how the request body is edited and sent.
type BodyType string

const (
	BodyNone BodyType = "none"
	BodyJSON BodyType = "json"
	BodyRaw  BodyType = "raw"
	BodyForm BodyType = "form-data"
)

// Valid reports whether b is a known body type.
func (b BodyType) Valid() bool {
	switch b {
	case BodyNone, BodyJSON, BodyRaw, BodyForm:
		return true
	}
	return false
}

// AuthType selects the authentication scheme.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthAPIKey AuthType = "api-key"
)

// Valid reports whether a is a known auth type.
func (a AuthType) Valid() bool {
	switch a {
	case AuthNone, AuthBearer, AuthBasic, AuthAPIKey:
		return true
	}
	return false
}

// KVPair is one row of a params or headers editor. IDs are unique within a
// sequence; insertion order matters for display only.
type KVPair struct {
	ID      string `json:"id" yaml:"id"`
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// NewKVPair creates an enabled pair with a fresh ID.
func NewKVPair(key, value string) KVPair {
	return KVPair{ID: uuid.New().String(), Key: key, Value: value, Enabled: true}
}

// AuthConfig holds credential fields. Only the fields relevant to the current
// AuthType are meaningful; the rest are retained but ignored.
type AuthConfig struct {
	BearerToken  string `json:"bearerToken,omitempty" yaml:"bearer_token,omitempty"`
	Username     string `json:"username,omitempty" yaml:"username,omitempty"`
	Password     string `json:"password,omitempty" yaml:"password,omitempty"`
	APIKey       string `json:"apiKey,omitempty" yaml:"api_key,omitempty"`
	APIKeyHeader string `json:"apiKeyHeader,omitempty" yaml:"api_key_header,omitempty"`
}

// Document is the request draft being edited. A connected peer holds a
// replica of it, not a shared instance: the most recent snapshot wins per
// field unless the field is under active local edit.
type Document struct {
	Method   Method     `json:"method" yaml:"method"`
	URL      string     `json:"url" yaml:"url"`
	Params   []KVPair   `json:"params" yaml:"params,omitempty"`
	Headers  []KVPair   `json:"headers" yaml:"headers,omitempty"`
	BodyType BodyType   `json:"bodyType" yaml:"body_type"`
	Body     string     `json:"body" yaml:"body,omitempty"`
	AuthType AuthType   `json:"authType" yaml:"auth_type"`
	Auth     AuthConfig `json:"authConfig" yaml:"auth,omitempty"`
}

// NewDocument returns a draft with the same defaults a fresh editor shows.
func NewDocument() Document {
	return Document{
		Method:   MethodGet,
		Headers:  []KVPair{NewKVPair("Content-Type", "application/json")},
		BodyType: BodyNone,
		AuthType: AuthNone,
	}
}

// Clone returns a deep copy; the params and headers slices are not shared.
func (d Document) Clone() Document {
	out := d
	out.Params = clonePairs(d.Params)
	out.Headers = clonePairs(d.Headers)
	return out
}

// Equal reports structural equality over the full field set.
func (d Document) Equal(o Document) bool {
	return d.Method == o.Method &&
		d.URL == o.URL &&
		PairsEqual(d.Params, o.Params) &&
		PairsEqual(d.Headers, o.Headers) &&
		d.BodyType == o.BodyType &&
		d.Body == o.Body &&
		d.AuthType == o.AuthType &&
		d.Auth == o.Auth
}

// PairsEqual reports element-wise content equality of two KV sequences.
// Row IDs identify editor rows, not content, and are ignored.
func PairsEqual(a, b []KVPair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || a[i].Value != b[i].Value || a[i].Enabled != b[i].Enabled {
			return false
		}
	}
	return true
}

func clonePairs(pairs []KVPair) []KVPair {
	if pairs == nil {
		return nil
	}
	out := make([]KVPair, len(pairs))
	copy(out, pairs)
	return out
}
