package buildkite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Sternrassler/buildkite-client/internal/testutil"
	"github.com/Sternrassler/buildkite-client/pkg/client"
	"github.com/Sternrassler/buildkite-client/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "bk-test-token"

func newTestClient(t *testing.T, mock *testutil.MockBuildkite, pageSize int) *Client {
	t.Helper()

	cfg := DefaultConfig(testToken, "bk-test/1.0")
	cfg.Client.BaseURL = mock.BaseURL()
	cfg.Client.RateLimit = 0
	cfg.PageSize = pageSize

	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func newMock(t *testing.T) *testutil.MockBuildkite {
	t.Helper()
	mock := testutil.NewMockBuildkite(testToken)
	t.Cleanup(mock.Close)
	return mock
}

func organizations(n int) []Organization {
	orgs := make([]Organization, n)
	for i := range orgs {
		orgs[i] = Organization{
			ID:   fmt.Sprintf("org-%d", i),
			Slug: fmt.Sprintf("org-%d", i),
			Name: fmt.Sprintf("Org %d", i),
		}
	}
	return orgs
}

func builds(n int) []Build {
	out := make([]Build, n)
	for i := range out {
		out[i] = Build{
			ID:     fmt.Sprintf("build-%d", i),
			Number: i + 1,
			State:  BuildPassed,
			Branch: "main",
		}
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero page size falls back", mutate: func(c *Config) { c.PageSize = 0 }},
		{name: "page size above api maximum", mutate: func(c *Config) { c.PageSize = 101 }, expectError: true},
		{name: "negative page size", mutate: func(c *Config) { c.PageSize = -1 }, expectError: true},
		{name: "missing token", mutate: func(c *Config) { c.Client.Token = "" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(testToken, "bk-test/1.0")
			tt.mutate(&cfg)

			c, err := New(cfg)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, pagination.DefaultPageSize, c.PageSize())
		})
	}
}

func TestNewWithTransport_SharesTransport(t *testing.T) {
	transport, err := client.New(client.DefaultConfig(testToken, "bk-test/1.0"))
	require.NoError(t, err)

	c := NewWithTransport(transport, 0)

	assert.Same(t, transport, c.Transport())
	assert.Same(t, transport, c.Organizations().client.transport)
	assert.Same(t, transport, c.Agents().client.transport)
	assert.Equal(t, pagination.DefaultPageSize, c.PageSize())
}

func TestOrganizations_IterAllPages(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		pageSize      int
		expectFetches []int
	}{
		{name: "full pages then short page", total: 60, pageSize: 25, expectFetches: []int{1, 2, 3}},
		{name: "exact multiple needs empty page", total: 50, pageSize: 25, expectFetches: []int{1, 2, 3}},
		{name: "single short page", total: 3, pageSize: 25, expectFetches: []int{1}},
		{name: "empty collection", total: 0, pageSize: 25, expectFetches: []int{1}},
		{name: "small page size", total: 3, pageSize: 2, expectFetches: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			require.NoError(t, mock.SetCollection("/organizations", organizations(tt.total)))
			c := newTestClient(t, mock, tt.pageSize)

			got, err := pagination.Collect(context.Background(), c.Organizations().Iter())
			require.NoError(t, err)

			require.Len(t, got, tt.total)
			for i, org := range got {
				assert.Equal(t, fmt.Sprintf("org-%d", i), org.Slug)
			}
			assert.Equal(t, tt.expectFetches, mock.PageRequests("/organizations"))
		})
	}
}

func TestSequence_SendsPerPage(t *testing.T) {
	mock := newMock(t)
	require.NoError(t, mock.SetCollection("/organizations/acme/agents", []Agent{{ID: "a1"}}))
	c := newTestClient(t, mock, 10)

	_, err := pagination.Collect(context.Background(), c.Agents().IterFor("acme"))
	require.NoError(t, err)

	req := mock.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, []string{"1"}, req.Query["page"])
	assert.Equal(t, []string{"10"}, req.Query["per_page"])
	assert.Equal(t, "Bearer "+testToken, req.Header.Get("Authorization"))
}

func TestSequence_FailedPageEndsWithError(t *testing.T) {
	mock := newMock(t)
	path := "/organizations/acme/pipelines/deploy/builds"
	require.NoError(t, mock.SetCollection(path, builds(40)))
	mock.FailPage(path, 2, http.StatusInternalServerError)
	c := newTestClient(t, mock, 25)

	seq := c.Builds().IterFor("acme", "deploy", nil)

	count := 0
	for seq.Next(context.Background()) {
		count++
	}
	assert.Equal(t, 25, count)

	var pageErr *pagination.PageError
	require.ErrorAs(t, seq.Err(), &pageErr)
	assert.Equal(t, 2, pageErr.Page)

	var statusErr *client.StatusError
	require.ErrorAs(t, seq.Err(), &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, client.ErrorClassServer, client.ClassifyError(seq.Err()))

	// Terminated sequences never fetch again.
	before := mock.GetRequestCount()
	assert.False(t, seq.Next(context.Background()))
	assert.Equal(t, before, mock.GetRequestCount())
}

func TestSequence_AllReportsFailure(t *testing.T) {
	mock := newMock(t)
	mock.FailPage("/organizations", 1, http.StatusForbidden)
	require.NoError(t, mock.SetCollection("/organizations", organizations(5)))
	c := newTestClient(t, mock, 25)

	var items int
	var lastErr error
	for _, err := range c.Organizations().Iter().All(context.Background()) {
		if err != nil {
			lastErr = err
			continue
		}
		items++
	}

	assert.Zero(t, items)
	assert.Equal(t, client.ErrorClassClient, client.ClassifyError(lastErr))
}

func TestOrganizations_GetAndList(t *testing.T) {
	mock := newMock(t)
	require.NoError(t, mock.SetCollection("/organizations", organizations(3)))
	require.NoError(t, mock.SetObject("/organizations/acme", Organization{ID: "o1", Slug: "acme", Name: "Acme"}))
	c := newTestClient(t, mock, 25)
	ctx := context.Background()

	org, err := c.Organizations().Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)

	orgs, err := c.Organizations().List(ctx)
	require.NoError(t, err)
	assert.Len(t, orgs, 3)

	_, err = c.Organizations().Get(ctx, "missing")
	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestPipelines(t *testing.T) {
	mock := newMock(t)
	pipelines := []Pipeline{
		{ID: "p1", Slug: "deploy", Name: "Deploy", Provider: Provider{ID: "github"}},
		{ID: "p2", Slug: "test", Name: "Test", Steps: []Step{{Type: "script", Command: "make test"}}},
	}
	require.NoError(t, mock.SetCollection("/organizations/acme/pipelines", pipelines))
	require.NoError(t, mock.SetObject("/organizations/acme/pipelines/deploy", pipelines[0]))
	c := newTestClient(t, mock, 25)
	ctx := context.Background()

	got, err := c.Pipelines().Get(ctx, "acme", "deploy")
	require.NoError(t, err)
	assert.Equal(t, "github", got.Provider.ID)

	list, err := c.Pipelines().List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "make test", list[1].Steps[0].Command)

	all, err := pagination.Collect(ctx, c.Pipelines().IterFor("acme"))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBuilds_Filters(t *testing.T) {
	mock := newMock(t)
	path := "/organizations/acme/pipelines/deploy/builds"
	require.NoError(t, mock.SetCollection(path, builds(2)))
	c := newTestClient(t, mock, 25)
	ctx := context.Background()

	opts := &BuildListOptions{Branch: "main", State: BuildFailed, Commit: "abc123"}

	_, err := c.Builds().List(ctx, "acme", "deploy", opts)
	require.NoError(t, err)
	req := mock.LastRequest()
	assert.Equal(t, []string{"main"}, req.Query["branch"])
	assert.Equal(t, []string{"failed"}, req.Query["state"])
	assert.Equal(t, []string{"abc123"}, req.Query["commit"])
	assert.NotContains(t, req.Query, "page")

	_, err = pagination.Collect(ctx, c.Builds().IterFor("acme", "deploy", opts))
	require.NoError(t, err)
	req = mock.LastRequest()
	assert.Equal(t, []string{"main"}, req.Query["branch"])
	assert.Equal(t, []string{"1"}, req.Query["page"])

	_, err = c.Builds().List(ctx, "acme", "deploy", &BuildListOptions{Branch: "dev"})
	require.NoError(t, err)
	req = mock.LastRequest()
	assert.NotContains(t, req.Query, "state")
	assert.NotContains(t, req.Query, "commit")
}

func TestBuilds_Logs(t *testing.T) {
	mock := newMock(t)
	require.NoError(t, mock.SetObject("/organizations/acme/pipelines/deploy/builds/42/jobs/job-1/log", Log{
		Content: "hello\n",
		Size:    6,
		URL:     "https://api.buildkite.com/v2/organizations/acme/pipelines/deploy/builds/42/jobs/job-1/log",
	}))
	c := newTestClient(t, mock, 25)

	log, err := c.Builds().Logs(context.Background(), "acme", "deploy", "42", "job-1")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", log.Content)
	assert.Equal(t, 6, log.Size)
}

func TestIterBuilds_CustomRecordType(t *testing.T) {
	type buildSummary struct {
		Number int    `json:"number"`
		State  string `json:"state"`
	}

	mock := newMock(t)
	require.NoError(t, mock.SetCollection("/organizations/acme/pipelines/deploy/builds", builds(3)))
	c := newTestClient(t, mock, 2)

	got, err := pagination.Collect(context.Background(), IterBuilds[buildSummary](c.Builds(), "acme", "deploy", nil))
	require.NoError(t, err)

	assert.Equal(t, []buildSummary{{1, "passed"}, {2, "passed"}, {3, "passed"}}, got)
}

func TestIterOrganizations_RawRecords(t *testing.T) {
	mock := newMock(t)
	require.NoError(t, mock.SetCollection("/organizations", organizations(2)))
	c := newTestClient(t, mock, 25)

	got, err := pagination.Collect(context.Background(), IterOrganizations[json.RawMessage](c.Organizations()))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, string(got[0]), `"slug":"org-0"`)
}

func TestAgents(t *testing.T) {
	mock := newMock(t)
	agents := []Agent{
		{ID: "a1", Name: "agent-1", ConnectionState: ConnectionConnected, MetaData: []string{"queue=default"}},
		{ID: "a2", Name: "agent-2", ConnectionState: ConnectionDisconnected},
	}
	require.NoError(t, mock.SetCollection("/organizations/acme/agents", agents))
	require.NoError(t, mock.SetObject("/organizations/acme/agents/a1", agents[0]))
	mock.SetResponse("/organizations/acme/agents/a1/stop", testutil.MockResponse{StatusCode: http.StatusNoContent})
	c := newTestClient(t, mock, 25)
	ctx := context.Background()

	agent, err := c.Agents().Get(ctx, "acme", "a1")
	require.NoError(t, err)
	assert.Equal(t, ConnectionConnected, agent.ConnectionState)
	assert.Equal(t, []string{"queue=default"}, agent.MetaData)

	list, err := c.Agents().List(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, c.Agents().Stop(ctx, "acme", "a1", true))
	req := mock.LastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/organizations/acme/agents/a1/stop", req.Path)
	assert.JSONEq(t, `{"force":true}`, string(req.Body))
}

func TestAgents_StopFailure(t *testing.T) {
	mock := newMock(t)
	mock.SetResponse("/organizations/acme/agents/a1/stop", testutil.MockResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Body:       `{"message":"Agent is not connected"}`,
	})
	c := newTestClient(t, mock, 25)

	err := c.Agents().Stop(context.Background(), "acme", "a1", false)

	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "Agent is not connected", statusErr.Message)
	assert.JSONEq(t, `{"force":false}`, string(mock.LastRequest().Body))
}

func TestUnauthorizedToken(t *testing.T) {
	mock := newMock(t)
	require.NoError(t, mock.SetCollection("/organizations", organizations(1)))

	cfg := DefaultConfig("wrong-token", "bk-test/1.0")
	cfg.Client.BaseURL = mock.BaseURL()
	cfg.Client.RateLimit = 0
	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.Organizations().List(context.Background())

	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestBuildListOptions_NilQuery(t *testing.T) {
	var opts *BuildListOptions
	assert.Nil(t, opts.query())
	assert.Empty(t, (&BuildListOptions{}).query())
}

func TestSequence_EndsWhenRateLimitCritical(t *testing.T) {
	mock := newMock(t)
	path := "/organizations/acme/pipelines/deploy/builds"
	require.NoError(t, mock.SetCollection(path, builds(60)))
	mock.SetRateLimit(2, 200, 60)
	c := newTestClient(t, mock, 25)

	seq := c.Builds().IterFor("acme", "deploy", nil)
	got, err := pagination.Collect(context.Background(), seq)

	assert.Len(t, got, 25)
	assert.ErrorIs(t, err, client.ErrRateLimited)
	assert.Equal(t, []int{1}, mock.PageRequests(path), "blocked page must not reach the server")
}
