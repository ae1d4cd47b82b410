package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/ClipFox/app/models"
)

// EventKind is the closed set of processor events this service reacts to.
type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventPaymentSucceeded
	EventPaymentFailed
)

func (k EventKind) String() string {
	switch k {
	case EventPaymentSucceeded:
		return "payment_succeeded"
	case EventPaymentFailed:
		return "payment_failed"
	default:
		return "unrecognized"
	}
}

// KindOf maps a processor event type onto an EventKind.
func KindOf(eventType string) EventKind {
	switch eventType {
	case "payment_intent.succeeded":
		return EventPaymentSucceeded
	case "payment_intent.payment_failed":
		return EventPaymentFailed
	default:
		return EventUnrecognized
	}
}

// Event is a verified processor delivery.
type Event struct {
	ID     string
	Type   string
	Kind   EventKind
	Object json.RawMessage
}

// Ack describes how an event was handled. Every Ack is a success for the
// sender; errors are returned separately.
type Ack struct {
	Kind      EventKind
	Ignored   bool
	Duplicate bool
	Record    *models.PaymentRecord
}

// Dispatcher routes verified events to their handlers.
type Dispatcher struct {
	activator *Activator
	now       func() time.Time
}

// NewDispatcher creates a dispatcher feeding the given activator.
func NewDispatcher(activator *Activator, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{activator: activator, now: now}
}

// Dispatch handles one event. Unrecognized kinds are acknowledged without any
// state change so the sender does not retry them. Only a structurally invalid
// payload of a known kind, or a store failure, is returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (Ack, error) {
	ack := Ack{Kind: ev.Kind}

	switch ev.Kind {
	case EventPaymentSucceeded:
		intent, err := decodeIntent(ev)
		if err != nil {
			return ack, err
		}
		in, err := activationFromIntent(intent, models.PaymentSourceWebhook, d.now())
		if err != nil {
			return ack, err
		}
		rec, created, err := d.activator.Activate(ctx, in)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				// Redelivery cannot repair a missing user.
				log.Warnf("[Webhook] event %s: user %d for payment %s no longer exists", ev.ID, in.UserID, in.ExternalPaymentID)
				return ack, nil
			}
			return ack, err
		}
		ack.Record = rec
		ack.Duplicate = !created
		return ack, nil

	case EventPaymentFailed:
		intent, err := decodeIntent(ev)
		if err != nil {
			return ack, err
		}
		log.Infof("[Webhook] payment %s failed (customer=%s user=%s plan=%s)",
			intent.ID, intent.BillingCustomerID, intent.Metadata[metadataUserID], intent.Metadata[metadataPlanType])
		return ack, nil

	case EventUnrecognized:
		log.Debugf("[Webhook] ignoring event %s of type %q", ev.ID, ev.Type)
		ack.Ignored = true
		return ack, nil

	default:
		return ack, fmt.Errorf("%w: unknown event kind %d", ErrMalformedEvent, ev.Kind)
	}
}

func decodeIntent(ev Event) (*PaymentIntent, error) {
	if len(ev.Object) == 0 {
		return nil, fmt.Errorf("%w: event %s has no data object", ErrMalformedEvent, ev.ID)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Object, &pi); err != nil {
		return nil, fmt.Errorf("%w: event %s: %v", ErrMalformedEvent, ev.ID, err)
	}
	if pi.ID == "" {
		return nil, fmt.Errorf("%w: event %s: payment intent without id", ErrMalformedEvent, ev.ID)
	}
	return intentFromStripe(&pi), nil
}
