package checkout

import (
	"context"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/api"
)

const verificationFailed = "Payment verification failed"

// VerifySession confirms a payment made through a hosted checkout session
// and clears the handoff when the backend vouches for it.
func (c *Checkout) VerifySession(ctx context.Context, sessionID string) (*api.Application, error) {
	if sessionID == "" {
		return nil, &idp.PaymentError{Message: "No payment information found"}
	}
	res, err := c.backend.VerifyPayment(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.verified(ctx, res)
}

// VerifyReturn handles the return from a redirect based confirmation: the
// payment was already recorded, so the stored application is looked up.
func (c *Checkout) VerifyReturn(ctx context.Context, paymentIntentID string) (*api.Application, error) {
	if paymentIntentID == "" {
		return nil, &idp.PaymentError{Message: "No payment information found"}
	}

	t, err := c.loaded()
	if err != nil {
		if _, err = c.Load(ctx); err != nil {
			return nil, err
		}
		if t, err = c.loaded(); err != nil {
			return nil, err
		}
	}

	id := t.Summary().ApplicationID
	res, err := c.backend.GetApplication(idp.ContextWithApplication(ctx, id), id)
	if err != nil {
		return nil, err
	}
	return c.verified(ctx, res)
}

func (c *Checkout) verified(ctx context.Context, res *api.Result) (*api.Application, error) {
	if !res.Confirmed() {
		msg := res.Message
		if msg == "" {
			msg = verificationFailed
		}
		return nil, &idp.PaymentError{Message: msg}
	}
	if err := c.clear(ctx); err != nil {
		return nil, err
	}
	return res.Application, nil
}
