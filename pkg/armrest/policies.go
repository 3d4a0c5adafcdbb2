package armrest

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/azctl/azctl/pkg/telemetry"
)

const headerClientRequestID = "x-ms-client-request-id"

type requestIDPolicy struct{}

func (p *requestIDPolicy) Do(req *policy.Request) (*http.Response, error) {
	if req.Raw().Header.Get(headerClientRequestID) == "" {
		req.Raw().Header.Set(headerClientRequestID, uuid.New().String())
	}
	return req.Next()
}

type rateLimitPolicy struct {
	limiter *rate.Limiter
}

func (p *rateLimitPolicy) Do(req *policy.Request) (*http.Response, error) {
	if err := p.limiter.Wait(req.Raw().Context()); err != nil {
		return nil, err
	}
	return req.Next()
}

type metricsPolicy struct{}

func (p *metricsPolicy) Do(req *policy.Request) (*http.Response, error) {
	resp, err := req.Next()
	code := 0
	if resp != nil {
		code = resp.StatusCode
	}
	telemetry.ObserveARMRequest(req.Raw().Method, code)
	return resp, err
}
