package checkout

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/api"
)

// Payment intent statuses reported by the processor.
const (
	StatusSucceeded      = "succeeded"
	StatusProcessing     = "processing"
	StatusRequiresAction = "requires_action"
)

type ConfirmRequest struct {
	ReturnURL    string
	ReceiptEmail string
}

type Confirmation struct {
	PaymentIntentID string
	Status          string
}

// Confirmer is the payment processor's hosted payment form. It collects the
// card data and confirms the intent identified by clientSecret. A declined
// payment is reported as an error, preferably *idp.PaymentError.
type Confirmer interface {
	Confirm(ctx context.Context, clientSecret string, req ConfirmRequest) (*Confirmation, error)
}

type ConfirmerFunc func(ctx context.Context, clientSecret string, req ConfirmRequest) (*Confirmation, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, clientSecret string, req ConfirmRequest) (*Confirmation, error) {
	return f(ctx, clientSecret, req)
}

type Outcome struct {
	PaymentIntentID string
	Status          string
	// Completed is set once the backend recorded the payment and the
	// handoff was cleared.
	Completed bool
}

// Pay confirms the created intent through confirmer. Only a succeeded
// payment is relayed to the backend as paid and clears the handoff. A
// declined payment keeps everything so the user can try another card.
func (c *Checkout) Pay(ctx context.Context, confirmer Confirmer) (*Outcome, error) {
	c.mu.Lock()
	if c.ticket == nil {
		c.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if c.intent == nil {
		c.mu.Unlock()
		return nil, ErrNoIntent
	}
	if c.paying {
		c.mu.Unlock()
		return nil, idp.ErrInFlight
	}
	c.paying = true
	s := c.ticket.Summary()
	intent := c.intent
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.paying = false
		c.mu.Unlock()
	}()

	conf, err := confirmer.Confirm(ctx, intent.ClientSecret, ConfirmRequest{ReturnURL: c.returnURL, ReceiptEmail: s.Email})
	if err != nil {
		if _, ok := errors.Into[*idp.PaymentError](err); ok {
			return nil, err
		}
		return nil, &idp.PaymentError{Message: err.Error(), Err: err}
	}
	if conf == nil {
		return nil, &idp.PaymentError{Message: "payment processor returned no result"}
	}

	if conf.PaymentIntentID == "" {
		conf.PaymentIntentID = intent.PaymentIntentID
	}
	return c.Record(ctx, conf)
}

// Record relays a confirmation to the backend. Only a succeeded payment is
// recorded as paid, after which the handoff is cleared. Any other status is
// returned as is and keeps the handoff.
func (c *Checkout) Record(ctx context.Context, conf *Confirmation) (*Outcome, error) {
	t, err := c.loaded()
	if err != nil {
		return nil, err
	}
	s := t.Summary()
	ctx = idp.ContextWithApplication(ctx, s.ApplicationID)
	l := idp.Logger(ctx, "idp.checkout")

	out := &Outcome{PaymentIntentID: conf.PaymentIntentID, Status: conf.Status}
	if conf.Status != StatusSucceeded {
		l.WithField("status", conf.Status).Info("payment not completed yet")
		return out, nil
	}
	if out.PaymentIntentID == "" {
		return nil, errors.New("succeeded payment without payment intent id")
	}

	if _, err := c.backend.UpdatePaymentStatus(ctx, &api.PaymentStatusUpdate{
		ApplicationID:   s.ApplicationID,
		PaymentIntentID: out.PaymentIntentID,
		Status:          api.StatusPaid,
	}); err != nil {
		return nil, errors.Wrap(err, "record payment")
	}
	if err := c.clear(ctx); err != nil {
		return nil, err
	}
	out.Completed = true
	l.WithField("payment_intent_id", out.PaymentIntentID).Info("payment completed")
	return out, nil
}

// ReportFailure tells the backend the payment for the loaded application
// failed. The handoff is kept.
func (c *Checkout) ReportFailure(ctx context.Context, paymentIntentID string) error {
	t, err := c.loaded()
	if err != nil {
		return err
	}
	_, err = c.backend.UpdatePaymentStatus(ctx, &api.PaymentStatusUpdate{
		ApplicationID:   t.Summary().ApplicationID,
		PaymentIntentID: paymentIntentID,
		Status:          api.StatusFailed,
	})
	return err
}
