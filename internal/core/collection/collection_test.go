package collection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codellyson/quick-rest/internal/core/request"
)

func TestAddFindRemove(t *testing.T) {
	col := New("smoke tests")

	doc := request.NewDocument()
	doc.URL = "https://api.example.com/health"
	id := col.Add("health check", doc)
	if id == "" {
		t.Fatal("Add returned an empty id")
	}

	saved := col.Find(id)
	if saved == nil {
		t.Fatal("Find returned nil for a fresh id")
	}
	if saved.Name != "health check" || saved.Document.URL != "https://api.example.com/health" {
		t.Fatalf("saved = %+v", saved)
	}

	if col.Find("missing") != nil {
		t.Fatal("Find should return nil for an unknown id")
	}

	if !col.Remove(id) {
		t.Fatal("Remove reported the request missing")
	}
	if col.Remove(id) {
		t.Fatal("second Remove should report false")
	}
	if len(col.Requests) != 0 {
		t.Fatalf("requests = %+v", col.Requests)
	}
}

func TestAddClonesDocument(t *testing.T) {
	col := New("c")
	doc := request.NewDocument()
	doc.Params = []request.KVPair{{ID: "1", Key: "a", Value: "1", Enabled: true}}

	id := col.Add("r", doc)
	doc.Params[0].Value = "mutated"

	if got := col.Find(id).Document.Params[0].Value; got != "1" {
		t.Fatalf("saved document shares slices with the input: %q", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.quickrest.yaml")

	col := New("user service")
	doc := request.NewDocument()
	doc.Method = request.MethodPost
	doc.URL = "https://api.example.com/users"
	doc.BodyType = request.BodyJSON
	doc.Body = `{"name":"alice"}`
	id := col.Add("create user", doc)

	if err := SaveToFile(col, path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Name != "user service" || loaded.Version != "1" {
		t.Fatalf("loaded = %+v", loaded)
	}
	saved := loaded.Find(id)
	if saved == nil {
		t.Fatal("saved request lost in round trip")
	}
	if saved.Document.Method != request.MethodPost || saved.Document.Body != `{"name":"alice"}` {
		t.Fatalf("document = %+v", saved.Document)
	}
}

func TestLoadFromBytesBackfillsDefaults(t *testing.T) {
	data := []byte(`
name: legacy
requests:
  - name: old style
    document:
      method: GET
      url: https://old.example.com
      body_type: none
      auth_type: none
`)
	col, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if col.Version != "1" {
		t.Fatalf("version = %q, want backfilled 1", col.Version)
	}
	if col.Requests[0].ID == "" {
		t.Fatal("missing id should be backfilled")
	}
}

func TestLoadFromBytesRejectsBadYAML(t *testing.T) {
	if _, err := LoadFromBytes([]byte("{not yaml")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	a := New("alpha")
	b := New("beta")
	if err := SaveToFile(a, filepath.Join(dir, "alpha.quickrest.yaml")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveToFile(b, filepath.Join(dir, "beta.quickrest.yaml")); err != nil {
		t.Fatalf("save: %v", err)
	}
	// A file with the wrong suffix is ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("x: 1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cols, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("loaded %d collections, want 2", len(cols))
	}
}
