package history

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndList(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, url := range []string{
		"https://api.example.com/users",
		"https://api.example.com/orders",
		"https://httpbin.org/get",
	} {
		_, err := s.Add(Entry{
			Method:     "GET",
			URL:        url,
			StatusCode: 200,
			Duration:   123 * time.Millisecond,
			Size:       456,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	entries, err := s.List(10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Most recent first.
	if entries[0].URL != "https://httpbin.org/get" {
		t.Fatalf("entries[0] = %q", entries[0].URL)
	}
	if entries[0].Duration != 123*time.Millisecond {
		t.Fatalf("duration = %v", entries[0].Duration)
	}
	if !entries[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("timestamp = %v", entries[0].Timestamp)
	}
}

func TestListPagination(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := s.Add(Entry{
			Method:    "GET",
			URL:       "https://example.com",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	page, err := s.List(2, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d entries, want 2", len(page))
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	urls := []string{
		"https://api.example.com/users",
		"https://api.example.com/orders",
		"https://status.other.dev/health",
	}
	for i, u := range urls {
		if _, err := s.Add(Entry{Method: "GET", URL: u, Timestamp: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := s.Search("users")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) == 0 || got[0].URL != "https://api.example.com/users" {
		t.Fatalf("Search(users) = %+v", got)
	}

	all, err := s.Search("")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("empty query should list everything, got %d", len(all))
	}

	none, err := s.Search("zzzzqqqq")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %+v", none)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Add(Entry{Method: "GET", URL: "https://example.com", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	entries, err := s.List(10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries after Clear", len(entries))
	}
}
