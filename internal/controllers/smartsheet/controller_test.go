package smartsheet_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isometry/smartsheet-webhook-app/internal/controllers/smartsheet"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, handler http.HandlerFunc, opts ...smartsheet.Option) (*smartsheet.Controller, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	ctl, err := smartsheet.NewController(append([]smartsheet.Option{
		smartsheet.WithBaseURL(srv.URL + "/2.0"),
		smartsheet.WithRequestsPerMinute(0),
	}, opts...)...)
	require.NoError(t, err)
	return ctl, &hits
}

func TestGetWebhook(t *testing.T) {
	ctl, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/2.0/webhooks/42", r.URL.Path)
		assert.Equal(t, "Bearer tok3n", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"name":"hook","scope":"sheet","scopeObjectId":7,"sharedSecret":"s3cr3t","enabled":true,"status":"ENABLED","version":1}`))
	})

	webhook, err := ctl.Client("tok3n").GetWebhook(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), webhook.ID)
	assert.Equal(t, "s3cr3t", webhook.SharedSecret)
	assert.Equal(t, "ENABLED", webhook.Status)
	assert.True(t, webhook.Enabled)
}

func TestGetWebhook_APIError(t *testing.T) {
	ctl, _ := newTestController(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorCode":1006,"message":"Not Found","refId":"abc"}`))
	})

	_, err := ctl.Client("tok3n").GetWebhook(context.Background(), "42")
	require.Error(t, err)
	assert.True(t, smartsheet.IsNotFound(err))

	var apiErr *smartsheet.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 1006, apiErr.ErrorCode)
	assert.Equal(t, "Not Found", apiErr.Message)
	assert.Equal(t, "abc", apiErr.RefID)
}

func TestGetWebhook_NonJSONError(t *testing.T) {
	ctl, _ := newTestController(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := ctl.Client("tok3n").GetWebhook(context.Background(), "42")
	var apiErr *smartsheet.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "bad gateway", apiErr.Message)
	assert.False(t, smartsheet.IsNotFound(err))
}

func TestGetWebhook_InvalidID(t *testing.T) {
	ctl, hits := newTestController(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"../sheets", "abc", "42.0", ""} {
		_, err := ctl.Client("tok3n").GetWebhook(context.Background(), id)
		assert.ErrorIs(t, err, smartsheet.ErrInvalidWebhookID, id)
	}
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestGetWebhook_CircuitBreaker(t *testing.T) {
	ctl, hits := newTestController(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, smartsheet.WithCircuitBreaker(2, time.Minute))
	client := ctl.Client("tok3n")

	for i := 0; i < 2; i++ {
		_, err := client.GetWebhook(context.Background(), "42")
		require.Error(t, err)
	}
	_, err := client.GetWebhook(context.Background(), "42")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestGetWebhook_ClientErrorsDoNotTripBreaker(t *testing.T) {
	ctl, hits := newTestController(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, smartsheet.WithCircuitBreaker(1, time.Minute))
	client := ctl.Client("tok3n")

	for i := 0; i < 3; i++ {
		_, err := client.GetWebhook(context.Background(), "42")
		assert.True(t, smartsheet.IsNotFound(err))
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestNewController_InvalidBaseURL(t *testing.T) {
	_, err := smartsheet.NewController(smartsheet.WithBaseURL("not a url"))
	assert.Error(t, err)
}
