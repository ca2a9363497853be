package idp

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("component", "idp")

type idempotencyKey struct{}
type applicationKey struct{}

// ContextWithIdempotencyKey attaches the key sent as Idempotency-Key with
// the application create request.
func ContextWithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

func IdempotencyKeyFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(idempotencyKey{}).(string)
	return v, ok && v != ""
}

// ContextWithApplication tags the context with the application being paid for,
// used for log fields only.
func ContextWithApplication(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, applicationKey{}, id)
}

func ApplicationFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(applicationKey{}).(int64)
	return v, ok
}

// Logger returns the package logger enriched with values carried by ctx.
func Logger(ctx context.Context, component string) *logrus.Entry {
	l := logger.WithField("component", component)
	if id, ok := ApplicationFromContext(ctx); ok {
		l = l.WithField("application_id", id)
	}
	return l
}

var (
	// ErrMissingSignature neither a drawn nor an uploaded signature is available.
	ErrMissingSignature = errors.New("please draw your signature or switch to upload mode to provide a signature image")
	// ErrNoApplication checkout started without a stored application summary.
	ErrNoApplication = errors.New("no application found, please submit your application first")
	// ErrInFlight an operation of the same kind is still running.
	ErrInFlight = errors.New("operation already in progress")
)

// ValidationError blocks a submission before any network call is made.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	return fmt.Sprintf("validation failed: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NetworkError the request did not complete. The user may retry by resubmitting.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// PaymentError the payment processor declined or failed the payment. Entered data is kept.
type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "an error occurred during payment"
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("payment failed: %s: %v", msg, e.Err)
	}
	return "payment failed: " + msg
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// ApiError the backend answered with a non-2xx status.
type ApiError struct {
	Status  int
	Message string
	Details []ErrorDetail
	Body    []byte // fragment of the response body, for diagnostics
}

type ErrorDetail struct {
	Field    string
	Messages []string
}

func (e *ErrorDetail) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, strings.Join(e.Messages, "; "))
}

func (e *ApiError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request rejected by server"
	}
	return fmt.Sprintf("backend returned http status %d: %s", e.Status, msg)
}

// UserMessage renders any error from this module the way it is shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if v, ok := errors.Into[*ValidationError](err); ok {
		if errors.Is(v, ErrMissingSignature) {
			return ErrMissingSignature.Error()
		}
		return v.Error()
	}
	if _, ok := errors.Into[*NetworkError](err); ok {
		return "Error submitting application. Please check your connection and try again."
	}
	if v, ok := errors.Into[*ApiError](err); ok {
		if v.Message != "" {
			return v.Message
		}
		return "Error submitting application. Please try again."
	}
	if v, ok := errors.Into[*PaymentError](err); ok {
		if v.Message != "" {
			return v.Message
		}
		return "An error occurred during payment."
	}
	if errors.Is(err, ErrNoApplication) {
		return "We couldn't find your application data. Please submit your application first."
	}
	return err.Error()
}
