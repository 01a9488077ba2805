package history

import "time"

// Entry is one executed request.
type Entry struct {
	ID           int64
	Method       string
	URL          string
	StatusCode   int
	Duration     time.Duration
	Size         int64
	RequestBody  string
	ResponseBody string
	Timestamp    time.Time
}
