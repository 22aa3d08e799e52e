package buildkite

import (
	"context"
	"net/url"

	"github.com/Sternrassler/buildkite-client/pkg/client"
	"github.com/Sternrassler/buildkite-client/pkg/pagination"
)

// AgentService accesses the agents of an organization.
type AgentService struct {
	client *Client
}

type stopAgentRequest struct {
	Force bool `json:"force"`
}

func agentPath(org, id string) string {
	return orgPath(org) + "/agents/" + url.PathEscape(id)
}

// List returns the first page of agents of org.
func (s *AgentService) List(ctx context.Context, org string) ([]Agent, error) {
	return client.Get[[]Agent](ctx, s.client.transport, orgPath(org)+"/agents", nil)
}

// Get returns a single agent.
func (s *AgentService) Get(ctx context.Context, org, id string) (*Agent, error) {
	a, err := client.Get[Agent](ctx, s.client.transport, agentPath(org, id), nil)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Stop asks an agent to stop. With force the agent cancels its running job;
// otherwise it finishes the job first.
func (s *AgentService) Stop(ctx context.Context, org, id string, force bool) error {
	s.client.logger.Info().
		Str("org", org).
		Str("agent_id", id).
		Bool("force", force).
		Msg("Stopping agent")

	return s.client.transport.Put(ctx, agentPath(org, id)+"/stop", stopAgentRequest{Force: force})
}

// IterFor returns a lazy sequence over every agent of org.
func (s *AgentService) IterFor(org string) *pagination.Sequence[Agent] {
	return IterAgents[Agent](s, org)
}

// IterAgents iterates the agents of org decoded into a caller-chosen type.
func IterAgents[T any](s *AgentService, org string) *pagination.Sequence[T] {
	return newSequence[T](s.client, "agents", orgPath(org)+"/agents", nil)
}
