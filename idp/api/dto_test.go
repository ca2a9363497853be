package api

import (
	"testing"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationCreated_Decode(t *testing.T) {
	var res ApplicationCreated
	err := res.Decode(jx.DecodeStr(`{"success":true,"message":"ok","data":{"id":"42","email":"a@b.c","vehicleTypes":["A"]}}`))
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.ID)
	assert.Equal(t, "a@b.c", res.Str("email"))
	assert.Equal(t, `["A"]`, string(res.Fields["vehicleTypes"]))
	assert.Empty(t, res.Str("vehicleTypes"))
}

func TestApplicationCreated_DecodeMissingData(t *testing.T) {
	var res ApplicationCreated
	assert.Error(t, res.Decode(jx.DecodeStr(`{"success":true}`)))
	assert.Error(t, res.Decode(jx.DecodeStr(`{"data":{"id":0}}`)))
}

func TestResult_Decode(t *testing.T) {
	var r Result
	require.NoError(t, r.Decode(jx.DecodeStr(`{"success":false,"message":"nope","application":null}`)))
	assert.False(t, r.Confirmed())
	assert.Equal(t, "nope", r.Message)

	var withApp Result
	require.NoError(t, withApp.Decode(jx.DecodeStr(`{"data":{"id":7,"paymentStatus":"paid","lastName":null}}`)))
	assert.True(t, withApp.Confirmed())
	assert.Equal(t, int64(7), withApp.Application.ID)
	assert.Equal(t, "paid", withApp.Application.PaymentStatus)
}

func TestPaymentStatusUpdate_Encode(t *testing.T) {
	var e jx.Encoder
	(&PaymentStatusUpdate{ApplicationID: 3, PaymentIntentID: "pi_1", Status: StatusFailed}).Encode(&e)
	assert.JSONEq(t, `{"application_id":3,"payment_intent_id":"pi_1","status":"failed"}`, e.String())
}
