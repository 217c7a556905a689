package shared

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outbox job kinds. The primary transaction writes the state change plus
// its pending effects; the dispatcher drains them with retry.
const (
	JobKindNotification = "notification"
	JobKindEmail        = "email"
)

// Notification and email topics.
const (
	TopicBookingRequested = "booking_requested"
	TopicBookingAccepted  = "booking_accepted"
	TopicBookingDeclined  = "booking_declined"
	TopicBookingConfirmed = "booking_confirmed"
	TopicBookingCancelled = "booking_cancelled"
	TopicBookingCompleted = "booking_completed"
	TopicPaymentReceived  = "payment_received"
)

type NotificationPayload struct {
	UserID uuid.UUID      `json:"user_id"`
	Type   string         `json:"type"`
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Data   map[string]any `json:"data,omitempty"`
}

type EmailPayload struct {
	To      string         `json:"to"`
	Type    string         `json:"type"`
	Subject string         `json:"subject"`
	Data    map[string]any `json:"data,omitempty"`
}

// OutboxJob is a claimed pending effect as the dispatcher sees it.
type OutboxJob struct {
	ID       uuid.UUID
	Kind     string
	Topic    string
	Payload  json.RawMessage
	Attempts int
	RunAt    time.Time
}
