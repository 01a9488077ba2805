package request

import "sync"

// Field identifies one syncable region of the document.
type Field string

const (
	FieldMethod     Field = "method"
	FieldURL        Field = "url"
	FieldParams     Field = "params"
	FieldHeaders    Field = "headers"
	FieldBodyType   Field = "bodyType"
	FieldBody       Field = "body"
	FieldAuthType   Field = "authType"
	FieldAuthConfig Field = "authConfig"
)

// Listener is notified after a mutation with a snapshot of the document and
// the fields that actually changed.
type Listener func(doc Document, changed []Field)

// Store is an observable container for the request draft. It is the single
// mutation path: user edits and incoming peer snapshots both go through the
// setters, and every setter detects changes structurally so that no-op writes
// never notify.
type Store struct {
	mu   sync.Mutex
	doc  Document
	subs map[int]Listener
	next int
}

// NewStore returns a store holding a default document.
func NewStore() *Store {
	return &Store{
		doc:  NewDocument(),
		subs: make(map[int]Listener),
	}
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Subscribe registers a listener and returns its unsubscribe function.
// Listeners run synchronously on the mutating goroutine, after the mutation
// is committed.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SetMethod updates the HTTP method.
func (s *Store) SetMethod(m Method) {
	s.mutate(FieldMethod, func(d *Document) bool {
		if d.Method == m {
			return false
		}
		d.Method = m
		return true
	})
}

// SetURL updates the request URL.
func (s *Store) SetURL(url string) {
	s.mutate(FieldURL, func(d *Document) bool {
		if d.URL == url {
			return false
		}
		d.URL = url
		return true
	})
}

// SetParams replaces the query parameter rows.
func (s *Store) SetParams(pairs []KVPair) {
	s.mutate(FieldParams, func(d *Document) bool {
		if PairsEqual(d.Params, pairs) {
			return false
		}
		d.Params = clonePairs(pairs)
		return true
	})
}

// SetHeaders replaces the header rows.
func (s *Store) SetHeaders(pairs []KVPair) {
	s.mutate(FieldHeaders, func(d *Document) bool {
		if PairsEqual(d.Headers, pairs) {
			return false
		}
		d.Headers = clonePairs(pairs)
		return true
	})
}

// SetBodyType updates the body type.
func (s *Store) SetBodyType(t BodyType) {
	s.mutate(FieldBodyType, func(d *Document) bool {
		if d.BodyType == t {
			return false
		}
		d.BodyType = t
		return true
	})
}

// SetBody updates the body text.
func (s *Store) SetBody(body string) {
	s.mutate(FieldBody, func(d *Document) bool {
		if d.Body == body {
			return false
		}
		d.Body = body
		return true
	})
}

// SetAuthType updates the auth scheme.
func (s *Store) SetAuthType(t AuthType) {
	s.mutate(FieldAuthType, func(d *Document) bool {
		if d.AuthType == t {
			return false
		}
		d.AuthType = t
		return true
	})
}

// SetAuthConfig replaces the credential fields.
func (s *Store) SetAuthConfig(cfg AuthConfig) {
	s.mutate(FieldAuthConfig, func(d *Document) bool {
		if d.Auth == cfg {
			return false
		}
		d.Auth = cfg
		return true
	})
}

// Reset restores the default document, notifying for every changed field.
func (s *Store) Reset() {
	def := NewDocument()
	s.mu.Lock()
	changed := DiffFields(s.doc, def)
	if len(changed) == 0 {
		s.mu.Unlock()
		return
	}
	s.doc = def
	doc := s.doc.Clone()
	subs := s.listeners()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(doc, changed)
	}
}

func (s *Store) mutate(field Field, apply func(*Document) bool) {
	s.mu.Lock()
	if !apply(&s.doc) {
		s.mu.Unlock()
		return
	}
	doc := s.doc.Clone()
	subs := s.listeners()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(doc, []Field{field})
	}
}

// listeners copies the subscriber set so notification runs outside the lock;
// a listener may re-enter the store.
func (s *Store) listeners() []Listener {
	out := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

// DiffFields returns the fields on which a and b disagree.
func DiffFields(a, b Document) []Field {
	var changed []Field
	if a.Method != b.Method {
		changed = append(changed, FieldMethod)
	}
	if a.URL != b.URL {
		changed = append(changed, FieldURL)
	}
	if !PairsEqual(a.Params, b.Params) {
		changed = append(changed, FieldParams)
	}
	if !PairsEqual(a.Headers, b.Headers) {
		changed = append(changed, FieldHeaders)
	}
	if a.BodyType != b.BodyType {
		changed = append(changed, FieldBodyType)
	}
	if a.Body != b.Body {
		changed = append(changed, FieldBody)
	}
	if a.AuthType != b.AuthType {
		changed = append(changed, FieldAuthType)
	}
	if a.Auth != b.Auth {
		changed = append(changed, FieldAuthConfig)
	}
	return changed
}
