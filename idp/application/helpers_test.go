package application

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/api"
	"github.com/alapierre/go-idp-client/idp/canvas"
	"github.com/alapierre/go-idp-client/idp/fakeapi"
	"github.com/alapierre/go-idp-client/idp/handoff"
	"github.com/alapierre/go-idp-client/idp/signature"
)

func pngAttachment(t *testing.T, name string) *idp.Attachment {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return idp.NewAttachment(name, buf.Bytes())
}

func validForm(t *testing.T) *Form {
	t.Helper()
	return &Form{
		Email:                        "jan@example.com",
		FirstName:                    "Jan",
		LastName:                     "Kowalski",
		ResidenceAddress:             "ul. Prosta 1",
		CityAndState:                 "Warszawa, mazowieckie",
		ZipCode:                      "00-001",
		Country:                      "Poland",
		DateOfBirth:                  "1980-05-17",
		CountryOfBirth:               "Poland",
		Gender:                       "male",
		EyeColor:                     "blue",
		Height:                       "180",
		VehicleTypes:                 []string{"B", "C"},
		NationalDriverLicense:        "ABC123456",
		NationalDriverLicenseCountry: "Poland",
		IDPPeriod:                    "2years",
		ShippingAddress:              "ul. Prosta 1",
		ShippingCityState:            "Warszawa",
		ShippingZipCode:              "00-001",
		ShippingCountry:              "Poland",
		Phone:                        "+48 600 000 000",
		AcceptConditions:             true,
		Photo:                        pngAttachment(t, "photo.png"),
		License:                      pngAttachment(t, "license.png"),
	}
}

func drawnPad(t *testing.T) *signature.Pad {
	t.Helper()
	pad, err := signature.NewPad()
	require.NoError(t, err)
	require.NoError(t, pad.Surface().Replay([][]canvas.Point{{{X: 20, Y: 100}, {X: 200, Y: 60}, {X: 400, Y: 120}}}))
	return pad
}

type progressLog struct {
	mu     sync.Mutex
	events []Progress
}

func (p *progressLog) record(pr Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pr)
}

func (p *progressLog) percents() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.events))
	for i, e := range p.events {
		out[i] = e.Percent
	}
	return out
}

func (p *progressLog) last() int {
	ps := p.percents()
	if len(ps) == 0 {
		return -1
	}
	return ps[len(ps)-1]
}

type env struct {
	fake     *fakeapi.Server
	client   *api.Client
	store    *handoff.MemoryStore
	handoff  *handoff.Handoff
	progress *progressLog
}

func newEnv(t *testing.T, opts ...fakeapi.Option) *env {
	t.Helper()
	fake := fakeapi.New(opts...)
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	store := handoff.NewMemoryStore()
	return &env{
		fake:     fake,
		client:   api.New(srv.URL, api.WithHTTPClient(srv.Client())),
		store:    store,
		handoff:  handoff.New(store),
		progress: &progressLog{},
	}
}

func (e *env) submitter(opts ...Option) *Submitter {
	opts = append([]Option{WithProgress(e.progress.record)}, opts...)
	return NewSubmitter(e.client, e.handoff, opts...)
}

func (e *env) stored(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, ok, err := e.store.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}
