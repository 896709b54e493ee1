package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event records one committed state change. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Action    string          `json:"action"`
	Actor     string          `json:"actor"`
	Subject   string          `json:"subject"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can be queried back.
type Lister interface {
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// Stamp fills the id and timestamp when unset.
func (e *Event) Stamp(now time.Time) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
}
