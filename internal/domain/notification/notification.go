package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rental-hub/rental-hub/internal/domain/quote"
)

// Type categorizes a notification for client-side grouping.
type Type string

const (
	TypeQuote    Type = "quote"
	TypeDelivery Type = "delivery"
	TypeReturn   Type = "return"
	TypePayment  Type = "payment"
)

// MaxRetries bounds how often a failed dispatch is replayed before it
// is abandoned.
const MaxRetries = 3

var (
	ErrNotFound     = errors.New("notification not found")
	ErrNotRecipient = errors.New("notification belongs to another user")
)

// Notification is one transition-triggered message for one recipient.
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"userId"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Type      Type            `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewNotification creates an unread notification for a recipient.
func NewNotification(userID, title, body string, typ Type, data json.RawMessage) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Type:      typ,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

// RetryRecord marks a failed dispatch for one (quote, status) pair.
// At most one live record exists per pair.
type RetryRecord struct {
	ID          int64        `json:"id"`
	QuoteID     uuid.UUID    `json:"quoteId"`
	Status      quote.Status `json:"status"`
	RetryCount  int          `json:"retryCount"`
	LastError   string       `json:"lastError"`
	CreatedAt   time.Time    `json:"createdAt"`
	LastRetryAt *time.Time   `json:"lastRetryAt,omitempty"`
}

// Exhausted reports whether the record has used up its attempts.
func (r *RetryRecord) Exhausted() bool {
	return r.RetryCount >= MaxRetries
}
