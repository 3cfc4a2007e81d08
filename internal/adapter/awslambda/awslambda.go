// Package awslambda runs the router behind AWS Lambda, for API Gateway proxy and Function URL events.
package awslambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/robbyt/go-edgeworker/internal/adapter"
	"github.com/robbyt/go-edgeworker/internal/helpers"
)

const unsupportedBody = "Unsupported request type"

// LambdaAdapter represents the AWS Lambda runtime adapter
type LambdaAdapter struct {
	handler    http.Handler
	logHandler slog.Handler
	logger     *slog.Logger
}

var _ adapter.Adapter = (*LambdaAdapter)(nil)

// NewAdapter creates a new Lambda adapter that serves handler. A nil logHandler uses the default.
func NewAdapter(handler http.Handler, logHandler slog.Handler) (*LambdaAdapter, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	logHandler, logger := helpers.SetupLogger(logHandler, "awslambda", "LambdaAdapter")
	return &LambdaAdapter{
		handler:    handler,
		logHandler: logHandler,
		logger:     logger,
	}, nil
}

// Start hands control to the Lambda runtime. It only returns if the runtime does.
func (a *LambdaAdapter) Start(ctx context.Context) error {
	lambda.StartWithOptions(a.HandleLambdaRequest, lambda.WithContext(ctx))
	return nil
}

// HandleLambdaRequest detects the event type and routes it through the handler.
func (a *LambdaAdapter) HandleLambdaRequest(ctx context.Context, req json.RawMessage) (any, error) {
	var apiGatewayReq events.APIGatewayProxyRequest
	var lambdaFunctionURLReq events.LambdaFunctionURLRequest

	if err := json.Unmarshal(req, &apiGatewayReq); err == nil && apiGatewayReq.HTTPMethod != "" {
		return a.handleAPIGatewayProxyRequest(ctx, apiGatewayReq), nil
	} else if err := json.Unmarshal(req, &lambdaFunctionURLReq); err == nil && lambdaFunctionURLReq.RequestContext.HTTP.Method != "" {
		return a.handleLambdaFunctionURLRequest(ctx, lambdaFunctionURLReq), nil
	}

	a.logger.WarnContext(ctx, "unsupported Lambda event")
	return events.LambdaFunctionURLResponse{StatusCode: http.StatusBadRequest, Body: unsupportedBody}, nil
}

func (a *LambdaAdapter) handleAPIGatewayProxyRequest(
	ctx context.Context,
	req events.APIGatewayProxyRequest,
) events.APIGatewayProxyResponse {
	query := url.Values{}
	for k, vs := range req.MultiValueQueryStringParameters {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, v := range req.QueryStringParameters {
		if !query.Has(k) {
			query.Set(k, v)
		}
	}

	httpReq, err := newHTTPRequest(ctx, req.HTTPMethod, &url.URL{Path: req.Path, RawQuery: query.Encode()}, req.Headers, req.Body, req.IsBase64Encoded)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to convert request", "error", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to convert request"}
	}

	recorder := a.serve(httpReq)
	body, isBase64 := encodeBody(recorder.Body.Bytes())
	return events.APIGatewayProxyResponse{
		StatusCode:      recorder.StatusCode,
		Headers:         convertHTTPHeaderToMap(recorder.Headers),
		Body:            body,
		IsBase64Encoded: isBase64,
	}
}

func (a *LambdaAdapter) handleLambdaFunctionURLRequest(
	ctx context.Context,
	req events.LambdaFunctionURLRequest,
) events.LambdaFunctionURLResponse {
	target, err := url.Parse(req.RawPath)
	if err != nil || req.RawPath == "" {
		target = &url.URL{Path: req.RequestContext.HTTP.Path}
	}
	target.RawQuery = req.RawQueryString

	httpReq, err := newHTTPRequest(ctx, req.RequestContext.HTTP.Method, target, req.Headers, req.Body, req.IsBase64Encoded)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to convert request", "error", err)
		return events.LambdaFunctionURLResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to convert request"}
	}

	recorder := a.serve(httpReq)
	body, isBase64 := encodeBody(recorder.Body.Bytes())
	return events.LambdaFunctionURLResponse{
		StatusCode:      recorder.StatusCode,
		Headers:         convertHTTPHeaderToMap(recorder.Headers),
		Body:            body,
		IsBase64Encoded: isBase64,
	}
}

func (a *LambdaAdapter) serve(req *http.Request) *responseRecorder {
	a.logger.DebugContext(req.Context(), "request", "method", req.Method, "url", req.URL.String())
	recorder := newResponseRecorder()
	a.handler.ServeHTTP(recorder, req)
	if !recorder.writtenStatus {
		recorder.WriteHeader(http.StatusOK)
	}
	a.logger.DebugContext(req.Context(), "response", "status", recorder.StatusCode, "bytes", recorder.Body.Len())
	return recorder
}

// newHTTPRequest converts a Lambda request to an http.Request.
func newHTTPRequest(
	ctx context.Context,
	method string,
	target *url.URL,
	headers map[string]string,
	body string,
	isBase64 bool,
) (*http.Request, error) {
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode body: %w", err)
		}
		body = string(decoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, "/", strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.URL = target
	httpReq.RequestURI = target.RequestURI()

	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}
	if host := httpReq.Header.Get("Host"); host != "" {
		httpReq.Host = host
	}
	return httpReq, nil
}

// encodeBody base64-encodes bodies that are not valid UTF-8.
func encodeBody(b []byte) (string, bool) {
	if utf8.Valid(b) {
		return string(b), false
	}
	return base64.StdEncoding.EncodeToString(b), true
}

// convertHTTPHeaderToMap converts http.Header to a map[string]string, dropping suppressed headers.
func convertHTTPHeaderToMap(header http.Header) map[string]string {
	result := make(map[string]string)
	for key, values := range header {
		if len(values) == 0 {
			continue
		}
		result[key] = strings.Join(values, ",")
	}
	return result
}
