package api

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alapierre/go-idp-client/idp/util"
)

func TestGetApplication_Integration(t *testing.T) {

	baseURL, ok := util.GetEnvOrSkip("IDP_IT_BASE_URL")
	if !ok {
		t.Skip("IDP_IT_BASE_URL not set, skipping integration test")
	}
	rawID, ok := util.GetEnvOrSkip("IDP_IT_APPLICATION_ID")
	if !ok {
		t.Skip("IDP_IT_APPLICATION_ID not set, skipping integration test")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	require.NoError(t, err)

	logrus.SetLevel(logrus.DebugLevel)

	client := New(baseURL, WithHTTPClient(&http.Client{Timeout: 15 * time.Second}))
	res, err := client.GetApplication(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, res.Application)
	assert.Equal(t, id, res.Application.ID)
	t.Logf("application %d payment status: %s", id, res.Application.PaymentStatus)
}
