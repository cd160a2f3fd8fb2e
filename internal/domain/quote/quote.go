package quote

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle status of a rental quote.
type Status string

const (
	StatusPending         Status = "pending"
	StatusQuoted          Status = "quoted"
	StatusAccepted        Status = "accepted"
	StatusRejected        Status = "rejected"
	StatusCanceled        Status = "canceled"
	StatusInPreparation   Status = "in_preparation"
	StatusInTransit       Status = "in_transit"
	StatusDelivered       Status = "delivered"
	StatusReturnRequested Status = "return_requested"
	StatusPickupScheduled Status = "pickup_scheduled"
	StatusReturnInTransit Status = "return_in_transit"
	StatusCompleted       Status = "completed"
)

// Role identifies which party of a quote is acting.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleRequester Role = "requester"
)

// ReturnType indicates how a machine is returned to its owner.
type ReturnType string

const (
	ReturnTypeStore  ReturnType = "store"
	ReturnTypePickup ReturnType = "pickup"
)

var (
	ErrNotFound          = errors.New("quote not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrUnauthorized      = errors.New("actor not permitted for this transition")
	ErrValidation        = errors.New("invalid transition payload")
)

// transitions is the full edge table. The accepted..delivered segment
// also carries backward correction edges; everywhere else movement is
// strictly forward. rejected, canceled and completed have no outgoing
// edges.
var transitions = map[Status][]Status{
	StatusPending:         {StatusQuoted, StatusCanceled},
	StatusQuoted:          {StatusAccepted, StatusRejected, StatusCanceled},
	StatusAccepted:        {StatusInPreparation},
	StatusInPreparation:   {StatusInTransit, StatusAccepted},
	StatusInTransit:       {StatusDelivered, StatusInPreparation},
	StatusDelivered:       {StatusReturnRequested, StatusInTransit},
	StatusReturnRequested: {StatusPickupScheduled},
	StatusPickupScheduled: {StatusReturnInTransit},
	StatusReturnInTransit: {StatusCompleted},
	StatusRejected:        {},
	StatusCanceled:        {},
	StatusCompleted:       {},
}

// edgeActor maps a target status to the role allowed to drive the
// edge into it. Backward correction edges are owner-only and handled
// separately in RequiredActor.
var edgeActor = map[Status]Role{
	StatusQuoted:          RoleOwner,
	StatusAccepted:        RoleRequester,
	StatusRejected:        RoleRequester,
	StatusCanceled:        RoleRequester,
	StatusInPreparation:   RoleOwner,
	StatusInTransit:       RoleOwner,
	StatusDelivered:       RoleOwner,
	StatusReturnRequested: RoleRequester,
	StatusPickupScheduled: RoleOwner,
	StatusReturnInTransit: RoleOwner,
	StatusCompleted:       RoleOwner,
}

// backwardEdges are the one-step corrections inside the approved
// sub-phase, keyed by the current status.
var backwardEdges = map[Status]Status{
	StatusInPreparation: StatusAccepted,
	StatusInTransit:     StatusInPreparation,
	StatusDelivered:     StatusInTransit,
}

// Quote is the central lifecycle entity of a rental request.
type Quote struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     string      `json:"ownerId"`
	RequesterID string      `json:"requesterId"`
	MachineID   string      `json:"machineId"`
	MachineName string      `json:"machineName"`
	PhotoURLs   []string    `json:"photoUrls,omitempty"`
	StartDate   time.Time   `json:"startDate"`
	EndDate     time.Time   `json:"endDate"`
	Purpose     string      `json:"purpose,omitempty"`
	Location    string      `json:"location,omitempty"`
	Value       *float64    `json:"value,omitempty"`
	Message     *string     `json:"message,omitempty"`
	Status      Status      `json:"status"`
	ReturnType  *ReturnType `json:"returnType,omitempty"`
	ReturnNotes *string     `json:"returnNotes,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewQuote creates a pending quote request.
func NewQuote(ownerID, requesterID, machineID, machineName string, startDate, endDate time.Time) *Quote {
	now := time.Now().UTC()
	return &Quote{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		RequesterID: requesterID,
		MachineID:   machineID,
		MachineName: machineName,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsTerminal reports whether no further transition is permitted.
func (q *Quote) IsTerminal() bool {
	return q.Status == StatusRejected || q.Status == StatusCanceled || q.Status == StatusCompleted
}

// CanTransitionTo reports whether target is directly reachable from
// the quote's current status.
func (q *Quote) CanTransitionTo(target Status) bool {
	allowed, ok := transitions[q.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// RequiredActor returns the role that may drive the edge from the
// quote's current status to target. Backward corrections are always
// owner-only regardless of who drove the forward edge.
func (q *Quote) RequiredActor(target Status) Role {
	if backwardEdges[q.Status] == target {
		return RoleOwner
	}
	return edgeActor[target]
}

// IsBackward reports whether moving to target is a one-step
// correction inside the approved sub-phase.
func (q *Quote) IsBackward(target Status) bool {
	return backwardEdges[q.Status] == target
}

// RoleOf resolves which party of this quote the user is, if any.
func (q *Quote) RoleOf(userID string) (Role, bool) {
	switch userID {
	case q.OwnerID:
		return RoleOwner, true
	case q.RequesterID:
		return RoleRequester, true
	}
	return "", false
}

// PartyID returns the user id holding the given role on this quote.
func (q *Quote) PartyID(role Role) string {
	if role == RoleOwner {
		return q.OwnerID
	}
	return q.RequesterID
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// TransitionEvent is the immutable record of one applied transition,
// handed to the notification pipeline after the quote write succeeds.
type TransitionEvent struct {
	QuoteID uuid.UUID `json:"quoteId"`
	From    Status    `json:"fromStatus"`
	To      Status    `json:"toStatus"`
	Quote   *Quote    `json:"quote"`
}
