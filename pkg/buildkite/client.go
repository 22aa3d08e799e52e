// Package buildkite is a client for the Buildkite v2 REST API.
//
// A Client owns a single transport which every service and every paginated
// sequence shares:
//
//	c, err := buildkite.New(buildkite.DefaultConfig(token, "my-tool/1.0"))
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	seq := c.Builds().IterFor("acme", "deploy", &buildkite.BuildListOptions{Branch: "main"})
//	for build, err := range seq.All(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(build.Number, build.State)
//	}
package buildkite

import (
	"fmt"

	"github.com/Sternrassler/buildkite-client/pkg/client"
	"github.com/Sternrassler/buildkite-client/pkg/logging"
	"github.com/Sternrassler/buildkite-client/pkg/pagination"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Config configures a Client.
type Config struct {
	// Client configures the shared HTTP transport.
	Client client.Config

	// PageSize is sent as per_page and used to detect the last page.
	// 0 selects pagination.DefaultPageSize.
	PageSize int `validate:"gte=0,lte=100"`
}

// DefaultConfig returns a configuration for the public Buildkite API.
func DefaultConfig(token, userAgent string) Config {
	return Config{
		Client:   client.DefaultConfig(token, userAgent),
		PageSize: pagination.DefaultPageSize,
	}
}

// Client is the entry point to the Buildkite API services.
type Client struct {
	transport *client.Client
	pageSize  int
	logger    zerolog.Logger

	organizations *OrganizationService
	pipelines     *PipelineService
	builds        *BuildService
	agents        *AgentService
}

// New creates a Client and its transport.
func New(cfg Config) (*Client, error) {
	if err := validator.New().StructPartial(cfg, "PageSize"); err != nil {
		return nil, fmt.Errorf("invalid buildkite config: %w", err)
	}

	transport, err := client.New(cfg.Client)
	if err != nil {
		return nil, err
	}

	return NewWithTransport(transport, cfg.PageSize), nil
}

// NewWithTransport creates a Client over an existing transport.
// pageSize <= 0 selects pagination.DefaultPageSize.
func NewWithTransport(transport *client.Client, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}

	c := &Client{
		transport: transport,
		pageSize:  pageSize,
		logger:    logging.NewLogger("buildkite"),
	}
	c.organizations = &OrganizationService{client: c}
	c.pipelines = &PipelineService{client: c}
	c.builds = &BuildService{client: c}
	c.agents = &AgentService{client: c}

	return c
}

// Organizations returns the organization service.
func (c *Client) Organizations() *OrganizationService { return c.organizations }

// Pipelines returns the pipeline service.
func (c *Client) Pipelines() *PipelineService { return c.pipelines }

// Builds returns the build service.
func (c *Client) Builds() *BuildService { return c.builds }

// Agents returns the agent service.
func (c *Client) Agents() *AgentService { return c.agents }

// Transport returns the shared HTTP transport.
func (c *Client) Transport() *client.Client { return c.transport }

// PageSize returns the page size used by every sequence of this client.
func (c *Client) PageSize() int { return c.pageSize }

// Close releases the transport's idle connections.
func (c *Client) Close() error {
	return c.transport.Close()
}
