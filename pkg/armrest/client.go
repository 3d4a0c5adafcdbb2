/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package armrest is a generic Azure Resource Manager client for requests that have no
// typed SDK client: `azctl rest`, `azctl resource show --ids` and the backup operation
// endpoints.
package armrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"golang.org/x/time/rate"

	"github.com/azctl/azctl/pkg/defaults"
	"github.com/azctl/azctl/pkg/errors"
)

const (
	moduleName    = "azctl/armrest"
	moduleVersion = "v1.0.0"
)

// Options configures a Client.
type Options struct {
	// Endpoint is the resource manager base URL. Defaults to the public cloud.
	Endpoint string
	// Audience is the token scope. Defaults to the public cloud audience.
	Audience string
	// RateLimit is the client-side request rate per second. Zero uses the default.
	RateLimit float64
	// Burst is the client-side burst size. Zero uses the default.
	Burst int
	// MaxRetries is passed to the SDK retry policy; -1 disables retries.
	MaxRetries int32
	// Transport replaces the HTTP transport, mainly for tests.
	Transport policy.Transporter
}

// Client sends requests through an azcore pipeline.
type Client struct {
	endpoint string
	pipeline runtime.Pipeline
}

// Response is a successful resource manager response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// New creates a Client. A nil credential sends unauthenticated requests.
func New(cred azcore.TokenCredential, opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = defaults.ARMEndpoint
	}
	if opts.Audience == "" {
		opts.Audience = defaults.ARMAudience
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = defaults.ARMRateLimit
	}
	if opts.Burst == 0 {
		opts.Burst = defaults.ARMRateBurst
	}

	perCall := []policy.Policy{
		&requestIDPolicy{},
		&rateLimitPolicy{limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst)},
	}
	var perRetry []policy.Policy
	if cred != nil {
		perRetry = append(perRetry, runtime.NewBearerTokenPolicy(cred, []string{opts.Audience}, nil))
	}
	perRetry = append(perRetry, &metricsPolicy{})

	clientOpts := &policy.ClientOptions{
		Transport: opts.Transport,
		Retry:     policy.RetryOptions{MaxRetries: opts.MaxRetries},
	}

	return &Client{
		endpoint: strings.TrimSuffix(opts.Endpoint, "/"),
		pipeline: runtime.NewPipeline(moduleName, moduleVersion, runtime.PipelineOptions{
			PerCall:  perCall,
			PerRetry: perRetry,
		}, clientOpts),
	}
}

// Endpoint returns the resource manager base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// URL resolves path against the endpoint and sets api-version unless the path already
// carries one. Absolute URLs are used as is.
func (c *Client) URL(path, apiVersion string) (string, error) {
	raw := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		raw = c.endpoint + path
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidArgumentValue, fmt.Sprintf("invalid url %q", raw), err)
	}
	if apiVersion != "" {
		q := u.Query()
		if q.Get("api-version") == "" {
			q.Set("api-version", apiVersion)
			u.RawQuery = q.Encode()
		}
	}
	return u.String(), nil
}

// Request is one resource manager call.
type Request struct {
	Method     string
	Path       string
	APIVersion string
	// Body is JSON encoded unless it is nil, a []byte or a string.
	Body any
	// Header is added to the request. It may override Accept and Content-Type.
	Header map[string]string
}

// Do sends one request. Non-2xx responses are returned as StructuredErrors.
func (c *Client) Do(ctx context.Context, method, path, apiVersion string, body any) (*Response, error) {
	return c.Send(ctx, Request{Method: method, Path: path, APIVersion: apiVersion, Body: body})
}

// Send sends r.
func (c *Client) Send(ctx context.Context, r Request) (*Response, error) {
	target, err := c.URL(r.Path, r.APIVersion)
	if err != nil {
		return nil, err
	}

	req, err := runtime.NewRequest(ctx, r.Method, target)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create request", err)
	}
	req.Raw().Header.Set("Accept", "application/json")

	if r.Body != nil {
		payload, err := encodeBody(r.Body)
		if err != nil {
			return nil, err
		}
		if err := req.SetBody(streaming.NopCloser(bytes.NewReader(payload)), "application/json"); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to set request body", err)
		}
	}
	for k, v := range r.Header {
		req.Raw().Header.Set(k, v)
	}

	resp, err := c.pipeline.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("%s %s failed", r.Method, target), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.FromAzureError(runtime.NewResponseError(resp))
	}

	payload, err := runtime.Payload(resp)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to read response body", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: payload}, nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path, apiVersion string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, apiVersion, nil)
}

// Put sends a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path, apiVersion string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, apiVersion, body)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path, apiVersion string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, apiVersion, nil)
}

// GetJSON sends a GET request and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path, apiVersion string, out any) error {
	resp, err := c.Get(ctx, path, apiVersion)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Decode unmarshals the response body into out.
func (r *Response) Decode(out any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return errors.Wrap(errors.ErrCodeAzureInternal, "failed to decode response", err)
	}
	return nil
}

// JSON returns the body decoded into the generic JSON model, or the raw text when the
// body is not JSON.
func (r *Response) JSON() any {
	if len(r.Body) == 0 {
		return nil
	}
	var out any
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return string(r.Body)
	}
	return out
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidArgumentValue, "failed to encode request body", err)
		}
		return payload, nil
	}
}

// OperationIDFromHeader returns the last path segment of an Azure-AsyncOperation or
// Location header value, without its query string.
func OperationIDFromHeader(header string) string {
	u, err := url.Parse(header)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	return segments[len(segments)-1]
}
