package runtime

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/smartsheet-webhook-app/internal/handler"
	"github.com/isometry/smartsheet-webhook-app/internal/helpers"
	"github.com/isometry/smartsheet-webhook-app/internal/models"
	"github.com/pkg/errors"
)

const (
	PayloadTypeAPIGatewayV1 = "api-gateway-v1"
	PayloadTypeAPIGatewayV2 = "api-gateway-v2"
	PayloadTypeLambdaURL    = "lambda-url"
)

type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithPayloadType selects the Lambda response type returned by HandleEvent.
func WithPayloadType(payloadType string) Option {
	return func(r *Runtime) {
		if payloadType != "" {
			r.payloadType = payloadType
		}
	}
}

type Runtime struct {
	*handler.Handler
	logger      *slog.Logger
	payloadType string
}

// NewRuntime creates a new runtime instance. Unsupported Lambda payload types are rejected here, before any
// invocation is served.
func NewRuntime(handler *handler.Handler, opts ...Option) (*Runtime, error) {
	_inst := &Runtime{Handler: handler, payloadType: PayloadTypeAPIGatewayV2}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	switch _inst.payloadType {
	case PayloadTypeAPIGatewayV1, PayloadTypeAPIGatewayV2, PayloadTypeLambdaURL:
	default:
		return nil, errors.Errorf("unsupported lambda payload type: %s", _inst.payloadType)
	}
	return _inst, nil
}

// HandleEvent is the Lambda handler for the runtime.
// API Gateway v1, v2 and Lambda function URL payloads share the body, headers and isBase64Encoded fields.
func (r *Runtime) HandleEvent(ctx context.Context, req events.APIGatewayV2HTTPRequest) (response any, err error) {
	r.logger.Info("received API Gateway request")

	body := req.Body
	if req.IsBase64Encoded {
		decoded, decodeErr := base64.StdEncoding.DecodeString(req.Body)
		if decodeErr != nil {
			r.logger.Error("failed to decode request body", slog.Any("error", decodeErr))
			return r.lambdaResponse(models.Response{StatusCode: http.StatusInternalServerError})
		}
		body = string(decoded)
	}

	result, err := r.Handler.Process(ctx, models.Request{
		Body:    body,
		Headers: helpers.LowerKeys(req.Headers),
	})
	if err != nil {
		r.logger.Debug("request rejected", slog.Int("statusCode", result.StatusCode))
	}

	// failures are carried by the status code, never as invocation errors
	return r.lambdaResponse(result)
}

func (r *Runtime) lambdaResponse(result models.Response) (any, error) {
	switch r.payloadType {
	case PayloadTypeAPIGatewayV1:
		return events.APIGatewayProxyResponse{
			Body:       result.Body,
			Headers:    result.Headers,
			StatusCode: result.StatusCode,
		}, nil
	case PayloadTypeAPIGatewayV2:
		return events.APIGatewayV2HTTPResponse{
			Body:       result.Body,
			Headers:    result.Headers,
			StatusCode: result.StatusCode,
		}, nil
	case PayloadTypeLambdaURL:
		return events.LambdaFunctionURLResponse{
			Body:       result.Body,
			Headers:    result.Headers,
			StatusCode: result.StatusCode,
		}, nil
	default:
		return nil, errors.Errorf("unsupported lambda payload type: %s", r.payloadType)
	}
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	detailed := r.Handler.DetailedStatusCodes()
	if req.Method != http.MethodPost {
		r.logger.Debug("rejecting HTTP request...", slog.Any("requestor", req.RemoteAddr), "reason", "method not allowed", slog.Any("method", req.Method))
		helpers.RespondHTTP(models.Response{StatusCode: http.StatusMethodNotAllowed}, nil, detailed, resp)
		return
	}

	r.logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("path", req.URL.Path))
	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		r.logger.Error("failed to read request body", slog.Any("error", err))
		helpers.RespondHTTP(models.Response{StatusCode: http.StatusInternalServerError}, err, detailed, resp)
		return
	}

	result, err := r.Handler.Process(req.Context(), models.Request{Body: string(body), Headers: headers})
	helpers.RespondHTTP(result, err, detailed, resp)
}
