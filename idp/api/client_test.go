package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/fakeapi"
)

func setup(t *testing.T, opts ...fakeapi.Option) (*fakeapi.Server, *Client) {
	t.Helper()
	fake := fakeapi.New(opts...)
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return fake, New(srv.URL, WithHTTPClient(srv.Client()))
}

type sizedBody struct {
	*bytes.Reader
	size int64
}

func (b *sizedBody) Close() error { return nil }
func (b *sizedBody) Size() int64  { return b.size }

func multipartBody(t *testing.T, fields map[string]string) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("signature", "signature.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return w.FormDataContentType(), buf.Bytes()
}

var validFields = map[string]string{
	"email":        "jan@example.com",
	"firstName":    "Jan",
	"lastName":     "Kowalski",
	"idpPeriod":    "2years",
	"vehicleTypes": `["B"]`,
}

func TestCreateApplication(t *testing.T) {
	fake, client := setup(t, fakeapi.WithFirstID(42))
	ct, body := multipartBody(t, validFields)

	ctx := idp.ContextWithIdempotencyKey(context.Background(), "key-1")
	res, err := client.CreateApplication(ctx, ct, &sizedBody{Reader: bytes.NewReader(body), size: int64(len(body))})
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.ID)
	assert.Equal(t, "jan@example.com", res.Str("email"))
	assert.Equal(t, "pending", res.Str("payment_status"))
	assert.Empty(t, res.Str("missing"))

	req, ok := fake.Last(fakeapi.PathApplications)
	require.True(t, ok)
	assert.Equal(t, "key-1", req.Header.Get(HeaderIdempotencyKey))
	assert.Equal(t, int64(len(body)), req.ContentLength)
	assert.Equal(t, "2years", req.Form["idpPeriod"])
}

func TestCreateApplication_IdempotentReplay(t *testing.T) {
	fake, client := setup(t)
	ct, body := multipartBody(t, validFields)
	ctx := idp.ContextWithIdempotencyKey(context.Background(), "same")

	first, err := client.CreateApplication(ctx, ct, bytes.NewReader(body))
	require.NoError(t, err)
	second, err := client.CreateApplication(ctx, ct, bytes.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, fake.Count(http.MethodPost, fakeapi.PathApplications))
}

func TestCreateApplication_ValidationRejected(t *testing.T) {
	_, client := setup(t)
	ct, body := multipartBody(t, map[string]string{"email": "jan@example.com"})

	_, err := client.CreateApplication(context.Background(), ct, bytes.NewReader(body))

	apiErr, ok := errors.Into[*idp.ApiError](err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "The given data was invalid.", apiErr.Message)

	fields := map[string][]string{}
	for _, d := range apiErr.Details {
		fields[d.Field] = d.Messages
	}
	assert.Equal(t, []string{"The firstName field is required."}, fields["firstName"])
	assert.Contains(t, fields, "idpPeriod")
}

func TestCreateApplication_ServerErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()
	client := New(srv.URL)

	_, err := client.CreateApplication(context.Background(), "multipart/form-data; boundary=x", bytes.NewReader(nil))

	apiErr, ok := errors.Into[*idp.ApiError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, "<html>bad gateway</html>", string(apiErr.Body))
	assert.Equal(t, "Error submitting application. Please try again.", idp.UserMessage(err))
}

func TestCreateApplication_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).CreateApplication(context.Background(), "multipart/form-data; boundary=x", bytes.NewReader(nil))

	_, ok := errors.Into[*idp.NetworkError](err)
	assert.True(t, ok, "%v", err)
}

func TestCreateApplication_NoID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"email":"x"}}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateApplication(context.Background(), "multipart/form-data; boundary=x", bytes.NewReader(nil))
	assert.Error(t, err)
}

func createApplication(t *testing.T, client *Client) int64 {
	t.Helper()
	ct, body := multipartBody(t, validFields)
	res, err := client.CreateApplication(context.Background(), ct, bytes.NewReader(body))
	require.NoError(t, err)
	return res.ID
}

func TestPaymentFlow(t *testing.T) {
	fake, client := setup(t)
	ctx := context.Background()
	id := createApplication(t, client)

	intent, err := client.CreatePaymentIntent(ctx, &PaymentIntentRequest{
		ApplicationID: id,
		Amount:        decimal.RequireFromString("84.99"),
		IDPPeriod:     "2years",
		Email:         "jan@example.com",
		CustomerName:  "Jan Kowalski",
	})
	require.NoError(t, err)
	assert.True(t, intent.Success)
	assert.NotEmpty(t, intent.ClientSecret)
	assert.Contains(t, intent.ClientSecret, intent.PaymentIntentID)

	req, _ := fake.Last(fakeapi.PathPaymentIntent)
	assert.JSONEq(t, `{"application_id":1,"amount":84.99,"idp_period":"2years","email":"jan@example.com","customer_name":"Jan Kowalski"}`, string(req.Body))

	res, err := client.UpdatePaymentStatus(ctx, &PaymentStatusUpdate{
		ApplicationID:   id,
		PaymentIntentID: intent.PaymentIntentID,
		Status:          StatusPaid,
	})
	require.NoError(t, err)
	assert.True(t, res.Confirmed())
	require.NotNil(t, res.Application)
	assert.Equal(t, "paid", res.Application.PaymentStatus)

	got, err := client.GetApplication(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Application)
	assert.Equal(t, id, got.Application.ID)
	assert.Equal(t, "Jan", got.Application.FirstName)
	assert.Equal(t, `"84.99"`, string(got.Application.Fields["amount"]))
}

func TestCreatePaymentIntent_Declined(t *testing.T) {
	fake, client := setup(t)
	id := createApplication(t, client)
	fake.DeclineIntents("Stripe is unavailable")

	res, err := client.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{ApplicationID: id, Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Stripe is unavailable", res.Message)
}

func TestVerifyPayment(t *testing.T) {
	fake, client := setup(t)
	ctx := context.Background()
	id := createApplication(t, client)
	sid := fake.NewSession(id)

	res, err := client.VerifyPayment(ctx, sid)
	require.NoError(t, err)
	assert.True(t, res.Confirmed())
	assert.Equal(t, "paid", res.Application.PaymentStatus)

	_, err = client.VerifyPayment(ctx, "cs_unknown")
	apiErr, ok := errors.Into[*idp.ApiError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Payment session not found", apiErr.Message)
}

func TestGetApplication_NotFound(t *testing.T) {
	_, client := setup(t)
	_, err := client.GetApplication(context.Background(), 999)
	apiErr, ok := errors.Into[*idp.ApiError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
