package api

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// ApplicationCreated is the "data" object of the create-application response.
// Fields holds every attribute of the record, including id, verbatim.
type ApplicationCreated struct {
	ID     int64
	Fields map[string]jx.Raw
}

// Str returns a string field of the created record, or "" when absent.
func (a *ApplicationCreated) Str(name string) string {
	raw, ok := a.Fields[name]
	if !ok || raw.Type() != jx.String {
		return ""
	}
	v, err := jx.DecodeBytes(raw).Str()
	if err != nil {
		return ""
	}
	return v
}

func (a *ApplicationCreated) Decode(d *jx.Decoder) error {
	found := false
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "data" {
			return d.Skip()
		}
		found = true
		a.Fields = make(map[string]jx.Raw)
		return d.Obj(func(d *jx.Decoder, key string) error {
			raw, err := d.Raw()
			if err != nil {
				return errors.Wrapf(err, "data.%s", key)
			}
			a.Fields[key] = append(jx.Raw(nil), raw...)
			if key == "id" {
				id, err := decodeID(jx.DecodeBytes(raw))
				if err != nil {
					return errors.Wrap(err, "data.id")
				}
				a.ID = id
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	if !found || a.ID <= 0 {
		return errors.New("response has no data.id")
	}
	return nil
}

type PaymentIntentRequest struct {
	ApplicationID int64
	Amount        decimal.Decimal
	IDPPeriod     string
	Email         string
	CustomerName  string
}

func (r *PaymentIntentRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("application_id")
	e.Int64(r.ApplicationID)
	e.FieldStart("amount")
	e.Raw([]byte(r.Amount.StringFixed(2)))
	e.FieldStart("idp_period")
	e.Str(r.IDPPeriod)
	e.FieldStart("email")
	e.Str(r.Email)
	e.FieldStart("customer_name")
	e.Str(r.CustomerName)
	e.ObjEnd()
}

type PaymentIntentResponse struct {
	Success         bool
	ClientSecret    string
	PaymentIntentID string
	Message         string
}

func (r *PaymentIntentResponse) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "success":
			r.Success, err = decodeBool(d)
		case "client_secret":
			r.ClientSecret, err = decodeText(d)
		case "payment_intent_id":
			r.PaymentIntentID, err = decodeText(d)
		case "message":
			r.Message, err = decodeText(d)
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
}

type PaymentStatus string

const (
	StatusPaid   PaymentStatus = "paid"
	StatusFailed PaymentStatus = "failed"
)

type PaymentStatusUpdate struct {
	ApplicationID   int64
	PaymentIntentID string
	Status          PaymentStatus
}

func (r *PaymentStatusUpdate) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("application_id")
	e.Int64(r.ApplicationID)
	e.FieldStart("payment_intent_id")
	e.Str(r.PaymentIntentID)
	e.FieldStart("status")
	e.Str(string(r.Status))
	e.ObjEnd()
}

// Application is the application record returned by status and verification
// endpoints.
type Application struct {
	ID            int64
	Email         string
	FirstName     string
	LastName      string
	IDPPeriod     string
	PaymentStatus string
	Fields        map[string]jx.Raw
}

func (a *Application) Decode(d *jx.Decoder) error {
	a.Fields = make(map[string]jx.Raw)
	return d.Obj(func(d *jx.Decoder, key string) error {
		raw, err := d.Raw()
		if err != nil {
			return errors.Wrapf(err, "application.%s", key)
		}
		raw = append(jx.Raw(nil), raw...)
		a.Fields[key] = raw

		rd := jx.DecodeBytes(raw)
		switch key {
		case "id":
			a.ID, err = decodeID(rd)
		case "email":
			a.Email, err = decodeText(rd)
		case "firstName":
			a.FirstName, err = decodeText(rd)
		case "lastName":
			a.LastName, err = decodeText(rd)
		case "idpPeriod":
			a.IDPPeriod, err = decodeText(rd)
		case "payment_status", "paymentStatus":
			a.PaymentStatus, err = decodeText(rd)
		}
		return errors.Wrapf(err, "application.%s", key)
	})
}

// Result is the common envelope of status, verification and lookup
// responses: {success, message, application} or {data}.
type Result struct {
	Success     bool
	Message     string
	Application *Application
}

// Confirmed reports whether the backend vouches for the payment.
func (r *Result) Confirmed() bool {
	return r.Success || r.Application != nil
}

func (r *Result) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "success":
			r.Success, err = decodeBool(d)
		case "message":
			r.Message, err = decodeText(d)
		case "application", "data":
			if d.Next() == jx.Null {
				return d.Null()
			}
			r.Application = &Application{}
			err = r.Application.Decode(d)
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
}

type verifyPaymentRequest struct {
	SessionID string
}

func (r *verifyPaymentRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("session_id")
	e.Str(r.SessionID)
	e.ObjEnd()
}

// decodeID accepts a JSON number or a decimal string.
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
	switch d.Next() {
	case jx.Null:
		return "", d.Null()
	case jx.Number:
		n, err := d.Num()
		return n.String(), err
	}
	return d.Str()
}

func decodeBool(d *jx.Decoder) (bool, error) {
	if d.Next() == jx.Null {
		return false, d.Null()
	}
	return d.Bool()
}
