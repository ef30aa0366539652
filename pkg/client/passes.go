package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"visitorpass/pkg/model"
)

// APIError is a non-2xx answer from the creation endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("visitor pass API returned %d: %s", e.StatusCode, e.Message)
}

// PassClient talks to a running visitor pass service.
type PassClient struct {
	http *HttpClient
}

func NewPassClient(baseURL string) *PassClient {
	return &PassClient{http: NewHttpClient(baseURL)}
}

func (c *PassClient) CreatePass(ctx context.Context, req model.CreatePassRequest) (*model.CreatePassResponse, error) {
	resp, err := c.http.POST(ctx, "/api/pass/create", req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var errResp model.CreatePassErrorResponse
		if err := resp.DecodeJSON(&errResp); err != nil || errResp.Error == "" {
			errResp.Error = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	var out model.CreatePassResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	return &out, nil
}

// PassPage fetches the HTML ticket page for key and returns its status code
// and body.
func (c *PassClient) PassPage(ctx context.Context, key string) (int, string, error) {
	resp, err := c.http.GET(ctx, "/pass/"+url.PathEscape(key))
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, string(resp.Body), nil
}

func (c *PassClient) WaitForHealthy(ctx context.Context) error {
	return c.http.WaitForHealthy(ctx, defaultHealthWait)
}
