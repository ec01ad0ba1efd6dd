// Package events publishes design request lifecycle events to RabbitMQ and
// consumes them in the notifier worker.
package events

import (
	"context"
	"time"

	"atelier/internal/models"
)

// Type names a lifecycle event.
type Type string

const (
	RequestSubmitted Type = "request.submitted"
	RequestAccepted  Type = "request.accepted"
	RequestCompleted Type = "request.completed"
	RequestDeleted   Type = "request.deleted"
)

// Event is the JSON payload carried on the queue.
type Event struct {
	Type         Type      `json:"type"`
	RequestID    uint      `json:"request_id"`
	OwnerID      uint      `json:"owner_id"`
	OwnerEmail   string    `json:"owner_email,omitempty"`
	OwnerName    string    `json:"owner_name,omitempty"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	AdminComment string    `json:"admin_comment,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher hands events to a broker. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// TypeForStatus maps a review target status to its event type.
func TypeForStatus(s models.RequestStatus) (Type, bool) {
	switch s {
	case models.RequestStatusAccepted:
		return RequestAccepted, true
	case models.RequestStatusCompleted:
		return RequestCompleted, true
	default:
		return "", false
	}
}

// FromRequest builds an event snapshot of r. Owner fields are filled when the
// owner association is loaded.
func FromRequest(t Type, r *models.DesignRequest) Event {
	ev := Event{
		Type:         t,
		RequestID:    r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		Status:       string(r.Status),
		AdminComment: r.AdminComment,
		OccurredAt:   time.Now().UTC(),
	}
	if r.Owner != nil {
		ev.OwnerEmail = r.Owner.Email
		ev.OwnerName = r.Owner.DisplayName
	}
	return ev
}

// Noop discards events. Used when AMQP_URL is empty.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
