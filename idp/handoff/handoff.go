// Package handoff passes the created application from the submission
// pipeline to the checkout stage through a persisted store.
//
// The submission side only publishes, once. The checkout side claims the
// summary and later completes or abandons the claim, which deletes both keys.
// Nothing else reads or writes the two keys.
package handoff

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-idp-client/idp"
)

var logger = logrus.WithField("component", "idp.handoff")

const (
	KeyApplicationData = "applicationData"
	KeyApplicationID   = "applicationId"
)

var ErrAlreadyPublished = errors.New("an application is already waiting for checkout")

// Summary is the application data checkout needs. Extra carries every other
// field returned by the backend, verbatim.
type Summary struct {
	ApplicationID int64
	Name          string
	Email         string
	FirstName     string
	LastName      string
	IDPPeriod     string
	Extra         map[string]jx.Raw
}

// CustomerName is the name shown to the payment processor: first and last
// name, or the stored full name when those are missing.
func (s *Summary) CustomerName() string {
	full := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if full != "" {
		return full
	}
	return s.Name
}

func (s *Summary) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("applicationId")
	e.Int64(s.ApplicationID)
	e.FieldStart("name")
	e.Str(s.Name)
	e.FieldStart("email")
	e.Str(s.Email)
	e.FieldStart("firstName")
	e.Str(s.FirstName)
	e.FieldStart("lastName")
	e.Str(s.LastName)
	e.FieldStart("idpPeriod")
	e.Str(s.IDPPeriod)

	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if isSummaryField(k) || len(s.Extra[k]) == 0 {
			continue
		}
		e.FieldStart(k)
		e.Raw(s.Extra[k])
	}
	e.ObjEnd()
}

func (s *Summary) Decode(d *jx.Decoder) error {
	*s = Summary{}
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "applicationId":
			s.ApplicationID, err = decodeID(d)
		case "name":
			s.Name, err = decodeText(d)
		case "email":
			s.Email, err = decodeText(d)
		case "firstName":
			s.FirstName, err = decodeText(d)
		case "lastName":
			s.LastName, err = decodeText(d)
		case "idpPeriod":
			s.IDPPeriod, err = decodeText(d)
		default:
			var raw jx.Raw
			if raw, err = d.Raw(); err == nil {
				if s.Extra == nil {
					s.Extra = make(map[string]jx.Raw)
				}
				s.Extra[key] = append(jx.Raw(nil), raw...)
			}
		}
		return errors.Wrapf(err, "field %q", key)
	})
}

func (s *Summary) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	s.Encode(&e)
	return e.Bytes(), nil
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	return s.Decode(jx.DecodeBytes(data))
}

func isSummaryField(k string) bool {
	switch k {
	case "applicationId", "name", "email", "firstName", "lastName", "idpPeriod":
		return true
	}
	return false
}

// decodeID accepts the id as a JSON number or a decimal string.
func decodeID(d *jx.Decoder) (int64, error) {
	switch d.Next() {
	case jx.Number:
		return d.Int64()
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return 0, err
		}
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, errors.Errorf("unexpected %s", d.Next())
}

func decodeText(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// Handoff exposes only the publish and claim operations over a Store.
type Handoff struct {
	store Store
	mu    sync.Mutex
}

func New(store Store) *Handoff {
	return &Handoff{store: store}
}

// Pending reports whether a published summary waits to be claimed.
func (h *Handoff) Pending(ctx context.Context) (bool, error) {
	_, ok, err := h.store.Get(ctx, KeyApplicationData)
	return ok, err
}

// Publish writes the summary and its id in one batch. It fails with
// ErrAlreadyPublished when a previous summary was never claimed to completion.
func (h *Handoff) Publish(ctx context.Context, s *Summary) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	pending, err := h.Pending(ctx)
	if err != nil {
		return err
	}
	if pending {
		return ErrAlreadyPublished
	}
	return h.write(ctx, s)
}

// Replace overwrites any pending summary. Used when the user deliberately
// submits a new application before paying for the previous one.
func (h *Handoff) Replace(ctx context.Context, s *Summary) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.write(ctx, s)
}

func (h *Handoff) write(ctx context.Context, s *Summary) error {
	if s.ApplicationID <= 0 {
		return errors.Errorf("invalid application id %d", s.ApplicationID)
	}
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	if err := h.store.Put(ctx, map[string]string{
		KeyApplicationData: string(data),
		KeyApplicationID:   strconv.FormatInt(s.ApplicationID, 10),
	}); err != nil {
		return errors.Wrap(err, "publish application summary")
	}
	logger.WithField("application_id", s.ApplicationID).Debug("application summary published")
	return nil
}

// Peek reads the pending summary without claiming it.
func (h *Handoff) Peek(ctx context.Context) (*Summary, error) {
	raw, ok, err := h.store.Get(ctx, KeyApplicationData)
	if err != nil {
		return nil, errors.Wrap(err, "read application summary")
	}
	if !ok || raw == "" {
		return nil, idp.ErrNoApplication
	}
	var s Summary
	if err := s.UnmarshalJSON([]byte(raw)); err != nil {
		logger.WithError(err).Warn("stored application summary is not valid JSON")
		return nil, idp.ErrNoApplication
	}

	rawID, ok, err := h.store.Get(ctx, KeyApplicationID)
	if err != nil {
		return nil, errors.Wrap(err, "read application id")
	}
	if ok {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			logger.WithField("value", rawID).Warn("stored application id is not a number")
			return nil, idp.ErrNoApplication
		}
		s.ApplicationID = id
	}
	if s.ApplicationID <= 0 {
		return nil, idp.ErrNoApplication
	}
	return &s, nil
}

// Claim takes the pending summary for checkout. The keys stay in the store
// until the returned ticket is completed or abandoned.
func (h *Handoff) Claim(ctx context.Context) (*Ticket, error) {
	s, err := h.Peek(ctx)
	if err != nil {
		return nil, err
	}
	return &Ticket{store: h.store, summary: s}, nil
}

// Discard deletes both keys regardless of any claim.
func (h *Handoff) Discard(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return errors.Wrap(h.store.Delete(ctx, KeyApplicationData, KeyApplicationID), "clear application summary")
}

// Ticket is a claimed summary. Complete or Abandon deletes the stored keys
// once; later calls do nothing.
type Ticket struct {
	store   Store
	summary *Summary

	mu   sync.Mutex
	done bool
}

func (t *Ticket) Summary() *Summary {
	return t.summary
}

// Done reports whether the stored keys were already deleted.
func (t *Ticket) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Complete is called after a confirmed payment.
func (t *Ticket) Complete(ctx context.Context) error {
	return t.release(ctx, "completed")
}

// Abandon is called when the user leaves checkout without paying.
func (t *Ticket) Abandon(ctx context.Context) error {
	return t.release(ctx, "abandoned")
}

func (t *Ticket) release(ctx context.Context, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	if err := t.store.Delete(ctx, KeyApplicationData, KeyApplicationID); err != nil {
		return errors.Wrap(err, "clear application summary")
	}
	t.done = true
	logger.WithField("application_id", t.summary.ApplicationID).WithField("reason", reason).Debug("application summary cleared")
	return nil
}
