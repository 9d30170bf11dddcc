package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// ServiceResolver maps a logical serviceName to the base URL Caller should
// dial. Kept as a function type rather than a fixed map so production
// wiring can back it with service discovery later without touching
// HTTPTransport itself.
type ServiceResolver func(serviceName string) (baseURL string, ok bool)

// StaticResolver returns a ServiceResolver backed by a fixed map, the
// shape config.LoadConfig's env-var defaults are read into at startup.
func StaticResolver(endpoints map[string]string) ServiceResolver {
	return func(serviceName string) (string, bool) {
		url, ok := endpoints[serviceName]
		return url, ok
	}
}

// HTTPTransport is the production Transport: one JSON POST per call, over
// fasthttp's pooled client rather than net/http's, since a call-per-step
// orchestrator is exactly the high-throughput, short-request workload
// fasthttp is built for.
type HTTPTransport struct {
	client   *fasthttp.Client
	resolve  ServiceResolver
	logger   *zap.Logger
}

// NewHTTPTransport constructs an HTTPTransport.
func NewHTTPTransport(client *fasthttp.Client, resolve ServiceResolver, logger *zap.Logger) *HTTPTransport {
	return &HTTPTransport{client: client, resolve: resolve, logger: logger}
}

var _ Transport = (*HTTPTransport)(nil)

// Do POSTs the request body as JSON to "<baseURL>/<operation>" and decodes
// the JSON response body into a map. The deadline on ctx (set by Caller.Call)
// becomes the fasthttp per-request timeout.
func (t *HTTPTransport) Do(ctx context.Context, serviceName, operation string, request map[string]interface{}) (map[string]interface{}, error) {
	baseURL, ok := t.resolve(serviceName)
	if !ok {
		return nil, fmt.Errorf("no endpoint registered for service %q", serviceName)
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(baseURL + "/" + operation)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, hasDeadline := ctx.Deadline()
	var doErr error
	if hasDeadline {
		doErr = t.client.DoDeadline(req, resp, deadline)
	} else {
		doErr = t.client.Do(req, resp)
	}
	if doErr != nil {
		return nil, fmt.Errorf("%s %s: %w", serviceName, operation, doErr)
	}

	if status := resp.StatusCode(); status >= 400 {
		return nil, fmt.Errorf("%s %s: remote returned status %d: %s", serviceName, operation, status, string(resp.Body()))
	}

	var out map[string]interface{}
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return nil, fmt.Errorf("%s %s: decode response: %w", serviceName, operation, err)
		}
	}
	return out, nil
}
