package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sahilm/fuzzy"
	_ "modernc.org/sqlite"
)

// Store manages request history persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store at the given path (":memory:" for tests).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			method        TEXT NOT NULL,
			url           TEXT NOT NULL,
			status_code   INTEGER,
			duration_ns   INTEGER,
			size          INTEGER,
			request_body  TEXT,
			response_body TEXT,
			timestamp     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating history table: %w", err)
	}
	return nil
}

// Add inserts a new history entry.
func (s *Store) Add(e Entry) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO history (method, url, status_code, duration_ns, size, request_body, response_body, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Method, e.URL, e.StatusCode, e.Duration.Nanoseconds(), e.Size,
		e.RequestBody, e.ResponseBody,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting history: %w", err)
	}
	return result.LastInsertId()
}

// List returns the most recent entries.
func (s *Store) List(limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, method, url, status_code, duration_ns, size, request_body, response_body, timestamp
		FROM history
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Search fuzzy-matches the query against the URLs of recent entries, best
// match first.
func (s *Store) Search(query string) ([]Entry, error) {
	recent, err := s.List(200, 0)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return recent, nil
	}

	urls := make([]string, len(recent))
	for i, e := range recent {
		urls[i] = e.URL
	}

	matches := fuzzy.Find(query, urls)

	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, recent[m.Index])
	}
	return out, nil
}

// Clear removes all history entries.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM history")
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationNs int64
		var ts string
		err := rows.Scan(&e.ID, &e.Method, &e.URL, &e.StatusCode, &durationNs,
			&e.Size, &e.RequestBody, &e.ResponseBody, &ts)
		if err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Duration = time.Duration(durationNs)
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
