package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	domainNotification "github.com/rental-hub/rental-hub/internal/domain/notification"
	domainQuote "github.com/rental-hub/rental-hub/internal/domain/quote"
	"github.com/rental-hub/rental-hub/internal/domain/user"
	"github.com/rental-hub/rental-hub/internal/infrastructure/metrics"
)

// PushSender delivers one push message to a device token. The
// implementation is expected to carry its own timeout.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// EmailSender delivers one email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Dispatcher resolves a transition into per-recipient notifications
// and attempts delivery. It is the sole writer of notification
// records and the sole producer of retry records.
type Dispatcher struct {
	notifRepo domainNotification.Repository
	retryRepo domainNotification.RetryRepository
	directory user.Directory
	push      PushSender
	email     EmailSender
	logger    zerolog.Logger
}

func NewDispatcher(
	notifRepo domainNotification.Repository,
	retryRepo domainNotification.RetryRepository,
	directory user.Directory,
	push PushSender,
	email EmailSender,
	logger zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		notifRepo: notifRepo,
		retryRepo: retryRepo,
		directory: directory,
		push:      push,
		email:     email,
		logger:    logger.With().Str("service", "dispatcher").Logger(),
	}
}

// route is one resolved (recipient, message) pair for a transition.
type route struct {
	role  domainQuote.Role
	typ   domainNotification.Type
	title string
	body  string
}

// routesFor is the fixed status -> recipients mapping. The payment
// pair on completed fires only when the quote was priced.
func routesFor(q *domainQuote.Quote, to domainQuote.Status) []route {
	machine := q.MachineName
	if machine == "" {
		machine = q.MachineID
	}
	switch to {
	case domainQuote.StatusPending:
		return []route{{domainQuote.RoleOwner, domainNotification.TypeQuote,
			"New rental request",
			fmt.Sprintf("You received a rental request for %s.", machine)}}
	case domainQuote.StatusQuoted:
		return []route{{domainQuote.RoleRequester, domainNotification.TypeQuote,
			"Quote received",
			fmt.Sprintf("The owner priced your request for %s.", machine)}}
	case domainQuote.StatusAccepted:
		return []route{{domainQuote.RoleOwner, domainNotification.TypeQuote,
			"Quote accepted",
			fmt.Sprintf("Your quote for %s was accepted.", machine)}}
	case domainQuote.StatusRejected:
		return []route{{domainQuote.RoleOwner, domainNotification.TypeQuote,
			"Quote rejected",
			fmt.Sprintf("Your quote for %s was rejected.", machine)}}
	case domainQuote.StatusCanceled:
		return []route{{domainQuote.RoleOwner, domainNotification.TypeQuote,
			"Request canceled",
			fmt.Sprintf("The rental request for %s was canceled.", machine)}}
	case domainQuote.StatusInPreparation:
		return []route{{domainQuote.RoleRequester, domainNotification.TypeDelivery,
			"Delivery scheduled",
			fmt.Sprintf("%s is being prepared for delivery.", machine)}}
	case domainQuote.StatusInTransit:
		return []route{{domainQuote.RoleRequester, domainNotification.TypeDelivery,
			"On the way",
			fmt.Sprintf("%s is on its way to you.", machine)}}
	case domainQuote.StatusDelivered:
		return []route{
			{domainQuote.RoleRequester, domainNotification.TypeDelivery,
				"Machine delivered",
				fmt.Sprintf("%s was delivered. Please confirm receipt.", machine)},
			{domainQuote.RoleOwner, domainNotification.TypeDelivery,
				"Machine delivered",
				fmt.Sprintf("%s was delivered to the requester.", machine)},
		}
	case domainQuote.StatusReturnRequested:
		return []route{{domainQuote.RoleOwner, domainNotification.TypeReturn,
			"Return requested",
			fmt.Sprintf("The requester asked to return %s.", machine)}}
	case domainQuote.StatusPickupScheduled:
		return []route{{domainQuote.RoleRequester, domainNotification.TypeReturn,
			"Pickup scheduled",
			fmt.Sprintf("Pickup for %s has been scheduled.", machine)}}
	case domainQuote.StatusReturnInTransit:
		return []route{{domainQuote.RoleOwner, domainNotification.TypeReturn,
			"Return in transit",
			fmt.Sprintf("%s is on its way back to you.", machine)}}
	case domainQuote.StatusCompleted:
		routes := []route{
			{domainQuote.RoleRequester, domainNotification.TypeReturn,
				"Rental completed",
				fmt.Sprintf("The rental of %s is complete.", machine)},
			{domainQuote.RoleOwner, domainNotification.TypeReturn,
				"Rental completed",
				fmt.Sprintf("The rental of %s is complete.", machine)},
		}
		if q.Value != nil {
			amount := fmt.Sprintf("%.2f", *q.Value)
			routes = append(routes,
				route{domainQuote.RoleRequester, domainNotification.TypePayment,
					"Payment due",
					fmt.Sprintf("Payment of %s for %s is due.", amount, machine)},
				route{domainQuote.RoleOwner, domainNotification.TypePayment,
					"Payment incoming",
					fmt.Sprintf("Payment of %s for %s is on its way.", amount, machine)},
			)
		}
		return routes
	}
	return nil
}

// DispatchStatus ensures the recipients of (quote, status) are
// notified: one record per recipient plus best-effort push and email.
// Any failure in the unit fails the whole unit so the retry sweep can
// replay it.
func (d *Dispatcher) DispatchStatus(ctx context.Context, q *domainQuote.Quote, to domainQuote.Status) error {
	data, err := json.Marshal(map[string]string{
		"quoteId": q.ID.String(),
		"status":  string(to),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	var unitErr error
	for _, rt := range routesFor(q, to) {
		recipientID := q.PartyID(rt.role)

		n := domainNotification.NewNotification(recipientID, rt.title, rt.body, rt.typ, data)
		if err := d.notifRepo.Create(ctx, n); err != nil {
			unitErr = errors.Join(unitErr, fmt.Errorf("create record for %s: %w", recipientID, err))
			continue
		}

		if err := d.deliver(ctx, recipientID, rt.title, rt.body, q, to); err != nil {
			unitErr = errors.Join(unitErr, fmt.Errorf("deliver to %s: %w", recipientID, err))
		}
	}
	return unitErr
}

// deliver performs the external push/email attempts for one
// recipient. A missing token or email skips that channel silently.
func (d *Dispatcher) deliver(ctx context.Context, recipientID, title, body string, q *domainQuote.Quote, to domainQuote.Status) error {
	contact, err := d.directory.GetContact(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("resolve contact: %w", err)
	}
	if contact == nil {
		// unknown recipient: nothing to deliver, the record stands
		d.logger.Warn().Str("user_id", recipientID).Msg("recipient not in directory, delivery skipped")
		return nil
	}

	if contact.PushToken != nil {
		pushData := map[string]string{
			"quoteId": q.ID.String(),
			"status":  string(to),
		}
		if err := d.push.Send(ctx, *contact.PushToken, title, body, pushData); err != nil {
			return fmt.Errorf("push: %w", err)
		}
	}

	if contact.Email != nil {
		if err := d.email.Send(ctx, *contact.Email, title, body); err != nil {
			return fmt.Errorf("email: %w", err)
		}
	}
	return nil
}

// HandleTransition is the bus entry point. Dispatch failures are
// absorbed into the retry queue and never propagate; the transition
// already happened.
func (d *Dispatcher) HandleTransition(ctx context.Context, ev domainQuote.TransitionEvent) {
	err := d.DispatchStatus(ctx, ev.Quote, ev.To)
	if err == nil {
		return
	}

	metrics.DispatchFailuresTotal.Inc()
	d.logger.Warn().
		Str("quote_id", ev.QuoteID.String()).
		Str("to_status", string(ev.To)).
		Err(err).
		Msg("dispatch failed, queuing for retry")

	if qErr := d.retryRepo.Upsert(ctx, ev.QuoteID, ev.To, err.Error()); qErr != nil {
		d.logger.Error().
			Str("quote_id", ev.QuoteID.String()).
			Str("to_status", string(ev.To)).
			Err(qErr).
			Msg("failed to queue dispatch retry")
	}
}
