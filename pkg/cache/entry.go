package cache

import (
	"time"
)

// Entry is one cached fund assets response.
type Entry struct {
	// Body is the raw JSON returned by the API
	Body []byte `json:"body"`

	// Records is the number of holdings parsed from Body when it was stored
	Records int `json:"records"`

	// FetchedAt is when the API returned Body
	FetchedAt time.Time `json:"fetched_at"`

	// Expires is when the entry stops being served
	Expires time.Time `json:"expires"`
}

// NewEntry creates an entry for body that expires ttl from now.
func NewEntry(body []byte, records int, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Body:      body,
		Records:   records,
		FetchedAt: now,
		Expires:   now.Add(ttl),
	}
}

// Fresh reports whether the entry may still be served at now.
func (e *Entry) Fresh(now time.Time) bool {
	return now.Before(e.Expires)
}

// Remaining returns how long the entry stays fresh after now, or 0.
func (e *Entry) Remaining(now time.Time) time.Duration {
	if d := e.Expires.Sub(now); d > 0 {
		return d
	}
	return 0
}
