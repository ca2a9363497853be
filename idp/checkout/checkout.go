// Package checkout turns a handed off application into a payment: it prices
// the chosen period, asks the backend for a payment intent, relays the
// processor's confirmation and clears the handoff once the payment is paid.
package checkout

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/api"
	"github.com/alapierre/go-idp-client/idp/handoff"
	"github.com/alapierre/go-idp-client/idp/pricing"
)

var logger = logrus.WithField("component", "idp.checkout")

var (
	ErrNotLoaded = errors.New("checkout has no application loaded")
	ErrNoIntent  = errors.New("no payment intent, create one first")
)

// Backend is the part of the REST API checkout talks to.
type Backend interface {
	CreatePaymentIntent(ctx context.Context, req *api.PaymentIntentRequest) (*api.PaymentIntentResponse, error)
	UpdatePaymentStatus(ctx context.Context, req *api.PaymentStatusUpdate) (*api.Result, error)
	VerifyPayment(ctx context.Context, sessionID string) (*api.Result, error)
	GetApplication(ctx context.Context, id int64) (*api.Result, error)
}

// Claimer is the read side of the handoff.
type Claimer interface {
	Claim(ctx context.Context) (*handoff.Ticket, error)
	Discard(ctx context.Context) error
}

type Intent struct {
	ClientSecret    string
	PaymentIntentID string
	Amount          decimal.Decimal
}

type Checkout struct {
	backend   Backend
	claimer   Claimer
	returnURL string

	mu       sync.Mutex
	ticket   *handoff.Ticket
	intent   *Intent
	creating bool
	paying   bool
}

type Option func(*Checkout)

// WithReturnURL is passed to the payment processor for flows that leave the page.
func WithReturnURL(u string) Option {
	return func(c *Checkout) {
		c.returnURL = u
	}
}

func New(backend Backend, claimer Claimer, opts ...Option) *Checkout {
	c := &Checkout{backend: backend, claimer: claimer}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load claims the handed off application. idp.ErrNoApplication means there
// is nothing to pay for and the user has to fill in the application again.
func (c *Checkout) Load(ctx context.Context) (*handoff.Summary, error) {
	ticket, err := c.claimer.Claim(ctx)
	if err != nil {
		if errors.Is(err, idp.ErrNoApplication) {
			logger.Info("checkout opened without a submitted application")
		}
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticket = ticket
	c.intent = nil
	return ticket.Summary(), nil
}

func (c *Checkout) Summary() (*handoff.Summary, error) {
	t, err := c.loaded()
	if err != nil {
		return nil, err
	}
	return t.Summary(), nil
}

func (c *Checkout) loaded() (*handoff.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticket == nil {
		return nil, ErrNotLoaded
	}
	return c.ticket, nil
}

// Amount is the charge for the stored IDP period, processing fee included.
func (c *Checkout) Amount() (decimal.Decimal, error) {
	t, err := c.loaded()
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.Total(t.Summary().IDPPeriod)
}

// CreateIntent asks the backend for a payment intent. Concurrent calls
// return idp.ErrInFlight while one is outstanding.
func (c *Checkout) CreateIntent(ctx context.Context) (*Intent, error) {
	c.mu.Lock()
	if c.ticket == nil {
		c.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if c.creating {
		c.mu.Unlock()
		return nil, idp.ErrInFlight
	}
	c.creating = true
	s := c.ticket.Summary()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.creating = false
		c.mu.Unlock()
	}()

	amount, err := pricing.Total(s.IDPPeriod)
	if err != nil {
		return nil, &idp.ValidationError{Field: "idpPeriod", Err: err}
	}

	ctx = idp.ContextWithApplication(ctx, s.ApplicationID)
	l := idp.Logger(ctx, "idp.checkout").WithField("amount", amount.StringFixed(2))

	res, err := c.backend.CreatePaymentIntent(ctx, &api.PaymentIntentRequest{
		ApplicationID: s.ApplicationID,
		Amount:        amount,
		IDPPeriod:     s.IDPPeriod,
		Email:         s.Email,
		CustomerName:  s.CustomerName(),
	})
	if err != nil {
		return nil, err
	}
	if !res.Success || res.ClientSecret == "" {
		msg := res.Message
		if msg == "" {
			msg = "Failed to create payment intent"
		}
		l.WithField("message", msg).Warn("payment intent refused")
		return nil, &idp.PaymentError{Message: msg}
	}

	intent := &Intent{ClientSecret: res.ClientSecret, PaymentIntentID: res.PaymentIntentID, Amount: amount}
	c.mu.Lock()
	c.intent = intent
	c.mu.Unlock()

	l.WithField("payment_intent_id", res.PaymentIntentID).Info("payment intent created")
	return intent, nil
}

// Abandon leaves checkout without paying and clears the handoff.
func (c *Checkout) Abandon(ctx context.Context) error {
	c.mu.Lock()
	t := c.ticket
	c.mu.Unlock()

	if t == nil {
		return c.claimer.Discard(ctx)
	}
	return t.Abandon(ctx)
}

// clear deletes the handoff after a confirmed payment, through the claimed
// ticket when there is one.
func (c *Checkout) clear(ctx context.Context) error {
	c.mu.Lock()
	t := c.ticket
	c.mu.Unlock()

	if t != nil {
		return t.Complete(ctx)
	}
	return c.claimer.Discard(ctx)
}
