// Package client provides the API client for the bridge backend's job endpoints
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/tomlim2/unreal-mcp-jobs/internal/types"
	"github.com/tomlim2/unreal-mcp-jobs/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client is the interface for the bridge backend job API
type Client interface {
	// HealthCheck checks the liveness of the backend
	HealthCheck(ctx context.Context) (map[string]string, error)

	// StartJob submits a new job and returns the backend-assigned job id
	StartJob(ctx context.Context, req types.StartJobRequest) (string, error)

	// FetchStatus performs one status round-trip for the given job id
	FetchStatus(ctx context.Context, jobID string) (*types.Job, error)

	// CancelJob asks the backend to abort the job; the bool reports
	// whether the backend confirmed the cancellation
	CancelJob(ctx context.Context, jobID string) (bool, error)

	// DownloadResult fetches the raw file payload behind a result URL
	DownloadResult(ctx context.Context, resultURL string) ([]byte, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the bridge backend
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
	}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		fullURL = c.baseURL + endpoint
	}

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")

	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and returns the raw response body.
// Failures at the HTTP level are reported as *types.TransportError.
func (c *APIClient) doRequest(agent *fiber.Agent) ([]byte, error) {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, &types.TransportError{Message: errs[0].Error()}
	}

	if statusCode < 200 || statusCode >= 300 {
		return nil, &types.TransportError{
			StatusCode: statusCode,
			Message:    string(body),
		}
	}

	return body, nil
}

// executeRequest creates an agent, sends the request, and decodes the
// response into v. An undecodable payload is a transport error: the
// backend is expected to always answer with the JSON envelope.
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, v interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	respBody, err := c.doRequest(agent)
	if err != nil {
		return err
	}

	if v != nil {
		if err := json.Unmarshal(respBody, v); err != nil {
			return &types.TransportError{Message: fmt.Sprintf("error decoding response: %v", err)}
		}
	}

	return nil
}

// HealthCheck checks the health of the backend
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	var response map[string]string
	if err := c.executeRequest(ctx, http.MethodGet, routes.HealthCheckURL(), nil, &response); err != nil {
		return map[string]string{}, err
	}
	return response, nil
}

// StartJob submits a new job and returns the backend-assigned job id
func (c *APIClient) StartJob(ctx context.Context, req types.StartJobRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	var response types.StartJobResponse
	if err := c.executeRequest(ctx, http.MethodPost, routes.StartJobURL(), req, &response); err != nil {
		return "", err
	}

	if !response.Success {
		return "", &types.BackendError{Message: response.Error}
	}
	if response.JobID == "" {
		return "", &types.TransportError{Message: "start response is missing job_id"}
	}

	return response.JobID, nil
}

// FetchStatus performs one status round-trip for the given job id
func (c *APIClient) FetchStatus(ctx context.Context, jobID string) (*types.Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	var response types.JobStatusResponse
	if err := c.executeRequest(ctx, http.MethodGet, routes.JobStatusURL(jobID), nil, &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, &types.BackendError{Message: response.Error}
	}
	if response.Job == nil {
		return nil, &types.TransportError{Message: "status response is missing job payload"}
	}

	return response.Job, nil
}

// CancelJob asks the backend to abort the job. A backend that answers
// the request but declines the cancellation is not an error; the bool
// carries the outcome.
func (c *APIClient) CancelJob(ctx context.Context, jobID string) (bool, error) {
	if jobID == "" {
		return false, fmt.Errorf("job id is required")
	}

	var response types.CancelJobResponse
	if err := c.executeRequest(ctx, http.MethodPost, routes.CancelJobURL(jobID), nil, &response); err != nil {
		return false, err
	}

	return response.Success, nil
}

// DownloadResult fetches the raw file payload behind a result URL. The
// URL may be absolute or a backend-relative path.
func (c *APIClient) DownloadResult(ctx context.Context, resultURL string) ([]byte, error) {
	if resultURL == "" {
		return nil, fmt.Errorf("result URL is required")
	}

	agent, err := c.createAgent(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, err
	}
	agent.Set("Accept", "*/*")

	return c.doRequest(agent)
}
