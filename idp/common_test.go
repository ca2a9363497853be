package idp

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing signature", &ValidationError{Field: "signature", Err: ErrMissingSignature}, ErrMissingSignature.Error()},
		{"validation", &ValidationError{Field: "email", Err: errors.New("invalid address")}, "validation failed: email: invalid address"},
		{"network", errors.Wrap(&NetworkError{Op: "create application", Err: context.DeadlineExceeded}, "submit"),
			"Error submitting application. Please check your connection and try again."},
		{"api with message", &ApiError{Status: 422, Message: "The given data was invalid."}, "The given data was invalid."},
		{"api without message", &ApiError{Status: 502}, "Error submitting application. Please try again."},
		{"payment", &PaymentError{Message: "Your card was declined."}, "Your card was declined."},
		{"payment without message", &PaymentError{}, "An error occurred during payment."},
		{"no application", errors.Wrap(ErrNoApplication, "load"), "We couldn't find your application data. Please submit your application first."},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestPaymentError_Error(t *testing.T) {
	err := &PaymentError{Code: "card_declined", Message: "Your card was declined.", Err: errors.New("stripe")}
	assert.Equal(t, "payment failed: Your card was declined. (card_declined): stripe", err.Error())
	assert.Equal(t, "payment failed: an error occurred during payment", (&PaymentError{}).Error())
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	_, ok := IdempotencyKeyFromContext(ctx)
	assert.False(t, ok)
	_, ok = IdempotencyKeyFromContext(ContextWithIdempotencyKey(ctx, ""))
	assert.False(t, ok)

	key, ok := IdempotencyKeyFromContext(ContextWithIdempotencyKey(ctx, "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", key)

	id, ok := ApplicationFromContext(ContextWithApplication(ctx, 42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, int64(42), Logger(ContextWithApplication(ctx, 42), "idp.test").Data["application_id"])
}

func TestEnvironment_UnmarshalText(t *testing.T) {
	var e Environment
	assert.NoError(t, e.UnmarshalText([]byte(" Production ")))
	assert.Equal(t, Prod, e)
	assert.NoError(t, e.UnmarshalText([]byte("")))
	assert.Equal(t, Local, e)
	assert.Equal(t, "http://localhost:8000", e.BaseURL())
	assert.Error(t, e.UnmarshalText([]byte("qa")))
}

func TestAttachment_Check(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	att := NewAttachment("photo.png", png)
	assert.True(t, att.IsImage())
	assert.NoError(t, att.Check("photo"))

	var missing *Attachment
	assert.Error(t, missing.Check("photo"))

	text := NewAttachment("notes.txt", []byte("hello"))
	assert.False(t, text.IsImage())
	assert.Error(t, text.Check("photo"))

	big := NewAttachment("big.png", append(png, make([]byte, MaxAttachmentSize)...))
	err := big.Check("license")
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "license", ve.Field)
}
