package application

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/api"
	"github.com/alapierre/go-idp-client/idp/handoff"
	"github.com/alapierre/go-idp-client/idp/signature"
)

type State int

const (
	Idle State = iota
	Validating
	Packaging
	Sending
	Succeeded
	HandedOff
	Failed
)

var stateNames = [...]string{"idle", "validating", "packaging", "sending", "succeeded", "handed-off", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// ErrSubmitted the application was already handed off to checkout.
var ErrSubmitted = errors.New("application already submitted")

// Creator sends the encoded application to the backend.
type Creator interface {
	CreateApplication(ctx context.Context, contentType string, body io.Reader) (*api.ApplicationCreated, error)
}

// Publisher is the write side of the checkout handoff.
type Publisher interface {
	Pending(ctx context.Context) (bool, error)
	Publish(ctx context.Context, s *handoff.Summary) error
	Replace(ctx context.Context, s *handoff.Summary) error
}

// Submitter drives one application from validation to the checkout handoff.
// Only one submission runs at a time.
type Submitter struct {
	creator   Creator
	publisher Publisher
	progress  ProgressFunc
	replace   bool
	newKey    func() string

	mu    sync.Mutex
	state State
}

type Option func(*Submitter)

func WithProgress(fn ProgressFunc) Option {
	return func(s *Submitter) {
		s.progress = fn
	}
}

// WithReplacePending lets a new submission overwrite a summary that was
// published earlier but never paid for.
func WithReplacePending() Option {
	return func(s *Submitter) {
		s.replace = true
	}
}

func NewSubmitter(creator Creator, publisher Publisher, opts ...Option) *Submitter {
	s := &Submitter{
		creator:   creator,
		publisher: publisher,
		newKey:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Submitter) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.WithField("from", s.state).WithField("to", st).Debug("submission state")
	s.state = st
}

// begin moves Idle to Validating. Any other state rejects the call.
func (s *Submitter) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Idle:
		s.state = Validating
		return nil
	case HandedOff:
		return ErrSubmitted
	}
	return idp.ErrInFlight
}

// Reset returns a handed off submitter to Idle so a new application can be entered.
func (s *Submitter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == HandedOff {
		s.state = Idle
	}
}

// Submit validates the form and the signature, uploads the application and
// publishes its summary for checkout. A call made while another submission
// is running returns idp.ErrInFlight without touching the network.
//
// On any failure nothing is published, the submitter is Idle again and
// progress drops to 0.
func (s *Submitter) Submit(ctx context.Context, form *Form, pad *signature.Pad) (*handoff.Summary, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	t := newTracker(s.progress)
	t.report(StageStarted, PercentStarted)

	summary, err := s.submit(ctx, t, form, pad)
	if err != nil {
		s.setState(Failed)
		t.reset()
		s.setState(Idle)
		logger.WithError(err).Info("application submission failed")
		return nil, err
	}

	t.report(StageDone, PercentDone)
	s.setState(HandedOff)
	return summary, nil
}

func (s *Submitter) submit(ctx context.Context, t *tracker, form *Form, pad *signature.Pad) (*handoff.Summary, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	src, err := pad.Source()
	if err != nil {
		return nil, err
	}
	if !s.replace {
		pending, err := s.publisher.Pending(ctx)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, handoff.ErrAlreadyPublished
		}
	}

	s.setState(Packaging)
	b := newBuilder()
	if err := b.fields(form, src.Mode()); err != nil {
		return nil, err
	}
	if err := b.signature(src); err != nil {
		return nil, err
	}
	t.report(StageSignature, PercentSignature)
	if err := b.files(form); err != nil {
		return nil, err
	}
	payload, err := b.finish()
	if err != nil {
		return nil, err
	}
	t.report(StageFiles, PercentFiles)

	s.setState(Sending)
	key := s.newKey()
	ctx = idp.ContextWithIdempotencyKey(ctx, key)
	l := logger.WithField("idempotency_key", key).WithField("size", payload.Size())
	l.Debug("sending application")

	t.report(StageSent, PercentSent)
	created, err := s.creator.CreateApplication(ctx, payload.ContentType(), payload.Body(t.transfer))
	if err != nil {
		return nil, err
	}
	t.report(StageResponse, PercentResponse)
	s.setState(Succeeded)

	summary := summarize(form, created)
	if s.replace {
		err = s.publisher.Replace(ctx, summary)
	} else {
		err = s.publisher.Publish(ctx, summary)
	}
	if err != nil {
		return nil, err
	}
	l.WithField("application_id", summary.ApplicationID).Info("application submitted")
	return summary, nil
}

// summarize merges the entered data with the created record. Values returned
// by the backend win over the entered ones.
func summarize(form *Form, created *api.ApplicationCreated) *handoff.Summary {
	s := &handoff.Summary{
		ApplicationID: created.ID,
		Name:          strings.TrimSpace(form.FirstName + " " + form.LastName),
		Email:         form.Email,
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		IDPPeriod:     form.IDPPeriod,
		Extra:         make(map[string]jx.Raw),
	}
	for k, raw := range created.Fields {
		v := created.Str(k)
		switch k {
		case "name":
			if v != "" {
				s.Name = v
			}
		case "email":
			if v != "" {
				s.Email = v
			}
		case "firstName":
			if v != "" {
				s.FirstName = v
			}
		case "lastName":
			if v != "" {
				s.LastName = v
			}
		case "idpPeriod":
			if v != "" {
				s.IDPPeriod = v
			}
		case "applicationId":
		default:
			s.Extra[k] = raw
		}
	}
	return s
}
