package buildkite

import (
	"context"

	"github.com/Sternrassler/buildkite-client/pkg/client"
	"github.com/Sternrassler/buildkite-client/pkg/pagination"
)

// OrganizationService accesses the organizations visible to the token.
type OrganizationService struct {
	client *Client
}

// List returns the first page of organizations.
func (s *OrganizationService) List(ctx context.Context) ([]Organization, error) {
	return client.Get[[]Organization](ctx, s.client.transport, "/organizations", nil)
}

// Get returns the organization with the given slug.
func (s *OrganizationService) Get(ctx context.Context, org string) (*Organization, error) {
	o, err := client.Get[Organization](ctx, s.client.transport, orgPath(org), nil)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Iter returns a lazy sequence over every organization.
func (s *OrganizationService) Iter() *pagination.Sequence[Organization] {
	return IterOrganizations[Organization](s)
}

// IterOrganizations iterates organizations decoded into a caller-chosen type.
func IterOrganizations[T any](s *OrganizationService) *pagination.Sequence[T] {
	return newSequence[T](s.client, "organizations", "/organizations", nil)
}
