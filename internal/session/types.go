// Package session provides per-conversation state: a free-form memory bag,
// the last-known location, and a bounded append-only transcript of turns.
//
// Sessions are keyed by an opaque caller-supplied id. The id is immutable
// once created; memory writes are last-write-wins per key; turns are never
// reordered or deduplicated.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Location is a latitude/longitude pair in degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the location is within geospatial bounds.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// Turn is one user message and the resulting assistant reply.
// Immutable once appended.
type Turn struct {
	ID        uuid.UUID `json:"id"`
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is a read snapshot of one conversation's state.
// Mutations go through the Store; a Session value never writes back.
type Session struct {
	ID        string
	UserID    string
	Language  string
	Location  *Location
	Memory    map[string]string
	TurnCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemoryKey constants for well-known memory bag entries.
const (
	// MemoryLastQuery remembers the most recent retrieval query.
	MemoryLastQuery = "last_query"
)
