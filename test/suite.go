package test

import (
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/suite"

	"github.com/tomlim2/unreal-mcp-jobs/internal/jobs"
	"github.com/tomlim2/unreal-mcp-jobs/internal/logger"
	"github.com/tomlim2/unreal-mcp-jobs/internal/poller"
	"github.com/tomlim2/unreal-mcp-jobs/pkg/api/v1/client"
)

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// Suite encapsulates all components needed for end-to-end testing:
// an in-memory fake backend served over HTTP, a real API client, and a
// real job manager polling through it.
type Suite struct {
	suite.Suite

	Backend *Backend
	App     *fiber.App
	Server  *httptest.Server

	APIClient client.Client
	Manager   *jobs.Manager
}

// SetupTest builds a fresh backend, server, client and manager for every
// test so polling state never leaks between tests
func (s *Suite) SetupTest() {
	logger.Initialize()

	s.Backend = NewBackend()
	s.App = s.Backend.App()
	s.Server = httptest.NewServer(adaptor.FiberApp(s.App))

	apiClient, err := client.NewClient(&client.Options{
		BaseURL: s.Server.URL,
		Timeout: testClientTimeout,
	})
	s.Require().NoError(err, "failed to create API client")
	s.APIClient = apiClient

	opts := poller.DefaultOptions()
	opts.BaseDelay = 5 * time.Millisecond
	opts.MaxDelay = 20 * time.Millisecond
	s.Manager = jobs.NewManager(apiClient, opts)
}

// TearDownTest stops polling and shuts down the server
func (s *Suite) TearDownTest() {
	if s.Manager != nil {
		s.Manager.Close()
	}
	if s.Server != nil {
		s.Server.Close()
	}
}
