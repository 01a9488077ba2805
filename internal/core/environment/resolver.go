package environment

import (
	"os"
	"regexp"
	"strings"

	"github.com/codellyson/quick-rest/internal/core/request"
)

var varPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Resolve replaces {{variable}} placeholders using the provided variable map,
// falling back to OS env vars. Unknown variables are left as-is.
func Resolve(input string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(input, func(match string) string {
		key := strings.TrimPrefix(strings.TrimSuffix(match, "}}"), "{{")
		if v, ok := vars[key]; ok {
			return v
		}
		if v := os.Getenv(key); v != "" {
			return v
		}
		return match
	})
}

// ResolveKVPairs resolves variables in the keys and values of a KV sequence.
func ResolveKVPairs(pairs []request.KVPair, vars map[string]string) []request.KVPair {
	resolved := make([]request.KVPair, len(pairs))
	for i, p := range pairs {
		resolved[i] = request.KVPair{
			ID:      p.ID,
			Key:     Resolve(p.Key, vars),
			Value:   Resolve(p.Value, vars),
			Enabled: p.Enabled,
		}
	}
	return resolved
}

// ResolveDocument resolves variables across a document's URL, params, headers
// and body, returning a copy. Auth credentials are also resolved so tokens
// can live in environments rather than in the draft.
func ResolveDocument(doc request.Document, vars map[string]string) request.Document {
	out := doc.Clone()
	out.URL = Resolve(doc.URL, vars)
	out.Params = ResolveKVPairs(doc.Params, vars)
	out.Headers = ResolveKVPairs(doc.Headers, vars)
	out.Body = Resolve(doc.Body, vars)
	out.Auth.BearerToken = Resolve(doc.Auth.BearerToken, vars)
	out.Auth.Username = Resolve(doc.Auth.Username, vars)
	out.Auth.Password = Resolve(doc.Auth.Password, vars)
	out.Auth.APIKey = Resolve(doc.Auth.APIKey, vars)
	return out
}
