package buildkite

import (
	"context"

	"github.com/Sternrassler/buildkite-client/pkg/client"
	"github.com/Sternrassler/buildkite-client/pkg/pagination"
)

// PipelineService accesses the pipelines of an organization.
type PipelineService struct {
	client *Client
}

// List returns the first page of pipelines of org.
func (s *PipelineService) List(ctx context.Context, org string) ([]Pipeline, error) {
	return client.Get[[]Pipeline](ctx, s.client.transport, orgPath(org)+"/pipelines", nil)
}

// Get returns the pipeline with the given slug.
func (s *PipelineService) Get(ctx context.Context, org, slug string) (*Pipeline, error) {
	p, err := client.Get[Pipeline](ctx, s.client.transport, pipelinePath(org, slug), nil)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IterFor returns a lazy sequence over every pipeline of org.
func (s *PipelineService) IterFor(org string) *pagination.Sequence[Pipeline] {
	return IterPipelines[Pipeline](s, org)
}

// IterPipelines iterates the pipelines of org decoded into a caller-chosen type.
func IterPipelines[T any](s *PipelineService, org string) *pagination.Sequence[T] {
	return newSequence[T](s.client, "pipelines", orgPath(org)+"/pipelines", nil)
}
