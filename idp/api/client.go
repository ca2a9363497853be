// Package api is the client of the IDP backend REST API.
package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/util"
)

var logger = logrus.WithField("component", "idp.api")

const (
	pathApplications  = "/api/applications"
	pathPaymentIntent = "/api/create-payment-intent"
	pathPaymentStatus = "/api/update-payment-status"
	pathVerifyPayment = "/api/verify-payment"

	HeaderIdempotencyKey = "Idempotency-Key"

	maxErrorBody = 2048
)

// Sized is implemented by request bodies that know their length up front.
// The length is sent as Content-Length instead of a chunked upload.
type Sized interface {
	Size() int64
}

type Client struct {
	rest    *resty.Client
	baseURL string
}

type Option func(*Client)

// WithHTTPClient routes requests through hc, e.g. an httptest server client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.rest = resty.NewWithClient(hc)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.rest.SetTimeout(d)
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{rest: resty.New(), baseURL: baseURL}
	for _, o := range opts {
		o(c)
	}
	c.rest.
		SetBaseURL(baseURL).
		SetLogger(logger).
		SetHeader("Accept", "application/json").
		SetPreRequestHook(setContentLength)
	return c
}

// NewForEnvironment uses the default base URL of env.
func NewForEnvironment(env idp.Environment, opts ...Option) *Client {
	return New(env.BaseURL(), opts...)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func setContentLength(_ *resty.Client, req *http.Request) error {
	if s, ok := req.Body.(Sized); ok && req.ContentLength <= 0 {
		req.ContentLength = s.Size()
	}
	return nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.rest.R().SetContext(ctx)
	if util.HttpTraceEnabled() {
		r.EnableTrace()
	}
	return r
}

// CreateApplication posts the multipart application body. The body is
// streamed as is, so a counting reader observes the upload.
func (c *Client) CreateApplication(ctx context.Context, contentType string, body io.Reader) (*ApplicationCreated, error) {
	r := c.request(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body)
	if key, ok := idp.IdempotencyKeyFromContext(ctx); ok {
		r.SetHeader(HeaderIdempotencyKey, key)
	}

	resp, err := r.Post(pathApplications)
	c.printTraceInfo(pathApplications, err, resp)
	if err := checkError("create application", resp, err); err != nil {
		return nil, err
	}

	res := &ApplicationCreated{}
	if err := res.Decode(jx.DecodeBytes(resp.Body())); err != nil {
		return nil, errors.Wrap(err, "decode create application response")
	}
	return res, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*PaymentIntentResponse, error) {
	res := &PaymentIntentResponse{}
	if err := c.postJson(ctx, pathPaymentIntent, req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) UpdatePaymentStatus(ctx context.Context, req *PaymentStatusUpdate) (*Result, error) {
	res := &Result{}
	if err := c.postJson(ctx, pathPaymentStatus, req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// VerifyPayment checks a hosted checkout session.
func (c *Client) VerifyPayment(ctx context.Context, sessionID string) (*Result, error) {
	res := &Result{}
	if err := c.postJson(ctx, pathVerifyPayment, &verifyPaymentRequest{SessionID: sessionID}, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetApplication(ctx context.Context, id int64) (*Result, error) {
	endpoint := pathApplications + "/" + strconv.FormatInt(id, 10)

	resp, err := c.request(ctx).Get(endpoint)
	c.printTraceInfo(endpoint, err, resp)
	if err := checkError("get application", resp, err); err != nil {
		return nil, err
	}

	res := &Result{}
	if err := res.Decode(jx.DecodeBytes(resp.Body())); err != nil {
		return nil, errors.Wrap(err, "decode application")
	}
	return res, nil
}

type encoder interface {
	Encode(e *jx.Encoder)
}

type decoder interface {
	Decode(d *jx.Decoder) error
}

func (c *Client) postJson(ctx context.Context, endpoint string, body encoder, result decoder) error {
	var e jx.Encoder
	body.Encode(&e)

	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(e.Bytes()).
		Post(endpoint)

	c.printTraceInfo(endpoint, err, resp)
	if err := checkError(endpoint, resp, err); err != nil {
		return err
	}
	if err := result.Decode(jx.DecodeBytes(resp.Body())); err != nil {
		return errors.Wrapf(err, "decode %s response", endpoint)
	}
	return nil
}

// checkError maps transport failures to *idp.NetworkError and non-2xx
// answers to *idp.ApiError.
func checkError(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &idp.NetworkError{Op: op, Err: err}
	}
	if resp == nil || resp.IsSuccess() {
		return nil
	}

	body := resp.Body()
	apiErr := &idp.ApiError{Status: resp.StatusCode()}
	if len(body) > maxErrorBody {
		apiErr.Body = append([]byte(nil), body[:maxErrorBody]...)
	} else {
		apiErr.Body = append([]byte(nil), body...)
	}
	if len(body) > 0 {
		if perr := parseErrorBody(body, apiErr); perr != nil {
			logger.WithError(perr).Debug("error response is not JSON")
		}
	}
	return apiErr
}

// parseErrorBody reads {"message": "...", "errors": {"field": ["..."]}}.
func parseErrorBody(body []byte, apiErr *idp.ApiError) error {
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return errors.New("not an object")
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "message":
			msg, err := decodeText(d)
			apiErr.Message = msg
			return err
		case "errors":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, field string) error {
				detail := idp.ErrorDetail{Field: field}
				var err error
				if d.Next() == jx.Array {
					err = d.Arr(func(d *jx.Decoder) error {
						m, err := decodeText(d)
						detail.Messages = append(detail.Messages, m)
						return err
					})
				} else {
					var m string
					m, err = decodeText(d)
					detail.Messages = append(detail.Messages, m)
				}
				apiErr.Details = append(apiErr.Details, detail)
				return err
			})
		}
		return d.Skip()
	})
}

func (c *Client) printTraceInfo(endpoint string, err error, resp *resty.Response) {
	if !util.HttpTraceEnabled() || resp == nil {
		return
	}

	l := logger.WithFields(logrus.Fields{
		"url":         c.baseURL + endpoint,
		"error":       err,
		"status_code": resp.StatusCode(),
		"status":      resp.Status(),
		"proto":       resp.Proto(),
		"time":        resp.Time(),
		"received_at": resp.ReceivedAt(),
	})
	if resp.Request != nil {
		ti := resp.Request.TraceInfo()
		l = l.WithFields(logrus.Fields{
			"dns_lookup":     ti.DNSLookup,
			"conn_time":      ti.ConnTime,
			"tls_handshake":  ti.TLSHandshake,
			"server_time":    ti.ServerTime,
			"total_time":     ti.TotalTime,
			"is_conn_reused": ti.IsConnReused,
		})
	}
	l.Info("http trace")
}
