package runtime_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/smartsheet-webhook-app/internal/controllers/smartsheet"
	"github.com/isometry/smartsheet-webhook-app/internal/handler"
	"github.com/isometry/smartsheet-webhook-app/internal/runtime"
	"github.com/isometry/smartsheet-webhook-app/internal/secret"
	"github.com/isometry/smartsheet-webhook-app/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	body         = `{"webhookId":42,"scope":"sheet","events":[]}`
	sharedSecret = "s3cr3t"
)

type staticClient struct{}

func (staticClient) GetWebhook(context.Context, string) (*smartsheet.Webhook, error) {
	return &smartsheet.Webhook{ID: 42, SharedSecret: sharedSecret}, nil
}

func newRuntime(t *testing.T, payloadType string, detailed bool) *runtime.Runtime {
	t.Helper()
	hdl, err := handler.NewHandler(
		handler.WithSecretStore(secret.NewStore(secret.NewMemoryBackend(nil))),
		handler.WithWebhookClientFactory(func(string) handler.WebhookClient { return staticClient{} }),
		handler.WithFallbackToken("token"),
		handler.WithDetailedStatusCodes(detailed))
	require.NoError(t, err)
	rt, err := runtime.NewRuntime(hdl, runtime.WithPayloadType(payloadType))
	require.NoError(t, err)
	return rt
}

func signature(b string) string {
	return validation.SharedSecret(sharedSecret).Sign([]byte(b))
}

func TestHandleEvent_PayloadTypes(t *testing.T) {
	request := events.APIGatewayV2HTTPRequest{
		Body:    body,
		Headers: map[string]string{"Smartsheet-Hmac-SHA256": signature(body)},
	}

	rt := newRuntime(t, runtime.PayloadTypeAPIGatewayV1, false)
	resp, err := rt.HandleEvent(context.Background(), request)
	require.NoError(t, err)
	require.IsType(t, events.APIGatewayProxyResponse{}, resp)
	assert.Equal(t, http.StatusOK, resp.(events.APIGatewayProxyResponse).StatusCode)

	rt = newRuntime(t, runtime.PayloadTypeAPIGatewayV2, false)
	resp, err = rt.HandleEvent(context.Background(), request)
	require.NoError(t, err)
	require.IsType(t, events.APIGatewayV2HTTPResponse{}, resp)
	assert.Equal(t, http.StatusOK, resp.(events.APIGatewayV2HTTPResponse).StatusCode)

	rt = newRuntime(t, runtime.PayloadTypeLambdaURL, false)
	resp, err = rt.HandleEvent(context.Background(), request)
	require.NoError(t, err)
	require.IsType(t, events.LambdaFunctionURLResponse{}, resp)
	assert.Equal(t, http.StatusOK, resp.(events.LambdaFunctionURLResponse).StatusCode)
}

func TestNewRuntime_UnsupportedPayloadType(t *testing.T) {
	hdl, err := handler.NewHandler(
		handler.WithSecretStore(secret.NewStore(secret.NewMemoryBackend(nil))),
		handler.WithWebhookClientFactory(func(string) handler.WebhookClient { return staticClient{} }),
		handler.WithFallbackToken("token"))
	require.NoError(t, err)

	_, err = runtime.NewRuntime(hdl, runtime.WithPayloadType("sqs"))
	assert.ErrorContains(t, err, "unsupported lambda payload type: sqs")

	rt, err := runtime.NewRuntime(hdl)
	require.NoError(t, err, "payload type defaults to api-gateway-v2")
	resp, err := rt.HandleEvent(context.Background(), events.APIGatewayV2HTTPRequest{
		Body:    body,
		Headers: map[string]string{"smartsheet-hmac-sha256": signature(body)},
	})
	require.NoError(t, err)
	assert.IsType(t, events.APIGatewayV2HTTPResponse{}, resp)
}

func TestHandleEvent(t *testing.T) {
	testCases := []struct {
		Name               string
		Request            events.APIGatewayV2HTTPRequest
		ExpectedStatusCode int
		ExpectedHeaders    map[string]string
	}{
		{
			Name: "challenge",
			Request: events.APIGatewayV2HTTPRequest{
				Body:    `{"challenge":"abc"}`,
				Headers: map[string]string{"smartsheet-hook-challenge": "abc"},
			},
			ExpectedStatusCode: http.StatusOK,
			ExpectedHeaders:    map[string]string{"Smartsheet-Hook-Response": "abc"},
		},
		{
			Name: "base64_body",
			Request: events.APIGatewayV2HTTPRequest{
				Body:            base64.StdEncoding.EncodeToString([]byte(body)),
				IsBase64Encoded: true,
				Headers:         map[string]string{"smartsheet-hmac-sha256": signature(body)},
			},
			ExpectedStatusCode: http.StatusOK,
		},
		{
			Name: "invalid_base64_body",
			Request: events.APIGatewayV2HTTPRequest{
				Body:            "%%%",
				IsBase64Encoded: true,
				Headers:         map[string]string{"smartsheet-hmac-sha256": signature(body)},
			},
			ExpectedStatusCode: http.StatusInternalServerError,
		},
		{
			Name: "signature_mismatch",
			Request: events.APIGatewayV2HTTPRequest{
				Body:    body,
				Headers: map[string]string{"smartsheet-hmac-sha256": signature(body + " ")},
			},
			ExpectedStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			rt := newRuntime(t, runtime.PayloadTypeAPIGatewayV2, false)
			resp, err := rt.HandleEvent(context.Background(), tc.Request)
			require.NoError(t, err)
			v2, ok := resp.(events.APIGatewayV2HTTPResponse)
			require.True(t, ok)
			assert.Equal(t, tc.ExpectedStatusCode, v2.StatusCode)
			assert.Equal(t, tc.ExpectedHeaders, v2.Headers)
			assert.Empty(t, v2.Body)
		})
	}
}

func TestServeHTTP(t *testing.T) {
	testCases := []struct {
		Name               string
		Method             string
		Body               string
		Headers            map[string]string
		Detailed           bool
		ExpectedStatusCode int
		ExpectedBody       string
		ExpectedHeader     map[string]string
	}{
		{
			Name:               "method_not_allowed",
			Method:             http.MethodGet,
			ExpectedStatusCode: http.StatusMethodNotAllowed,
		},
		{
			Name:               "challenge",
			Method:             http.MethodPost,
			Body:               `{}`,
			Headers:            map[string]string{"Smartsheet-Hook-Challenge": "abc"},
			ExpectedStatusCode: http.StatusOK,
			ExpectedHeader:     map[string]string{"Smartsheet-Hook-Response": "abc"},
		},
		{
			Name:               "authorized",
			Method:             http.MethodPost,
			Body:               body,
			Headers:            map[string]string{"Smartsheet-Hmac-Sha256": signature(body)},
			ExpectedStatusCode: http.StatusOK,
		},
		{
			Name:               "mismatch_generic",
			Method:             http.MethodPost,
			Body:               body,
			Headers:            map[string]string{"Smartsheet-Hmac-Sha256": "00"},
			ExpectedStatusCode: http.StatusInternalServerError,
		},
		{
			Name:               "mismatch_detailed",
			Method:             http.MethodPost,
			Body:               body,
			Headers:            map[string]string{"Smartsheet-Hmac-Sha256": "00"},
			Detailed:           true,
			ExpectedStatusCode: http.StatusUnauthorized,
			ExpectedBody:       "signature mismatch",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			rt := newRuntime(t, runtime.PayloadTypeAPIGatewayV2, tc.Detailed)
			req := httptest.NewRequest(tc.Method, "/", strings.NewReader(tc.Body))
			for k, v := range tc.Headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			rt.ServeHTTP(rec, req)

			assert.Equal(t, tc.ExpectedStatusCode, rec.Code)
			for k, v := range tc.ExpectedHeader {
				assert.Equal(t, v, rec.Header().Get(k))
			}
			if tc.ExpectedBody == "" {
				assert.Empty(t, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), tc.ExpectedBody)
			}
		})
	}
}
