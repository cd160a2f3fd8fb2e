package user

import "context"

// Contact holds the delivery targets and display name for one user.
// A nil PushToken or Email means that channel is skipped, not an
// error.
type Contact struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Email       *string `json:"email,omitempty"`
	PushToken   *string `json:"pushToken,omitempty"`
}

// Directory resolves user ids to delivery contacts. The quote core
// only reads from it; profile storage lives elsewhere.
type Directory interface {
	GetContact(ctx context.Context, userID string) (*Contact, error)
}
