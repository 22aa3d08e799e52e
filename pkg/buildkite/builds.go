package buildkite

import (
	"context"
	"net/url"

	"github.com/Sternrassler/buildkite-client/pkg/client"
	"github.com/Sternrassler/buildkite-client/pkg/pagination"
)

// BuildListOptions filter build listings. Empty fields are not sent.
type BuildListOptions struct {
	Branch string
	State  BuildState
	Commit string
}

func (o *BuildListOptions) query() url.Values {
	if o == nil {
		return nil
	}

	query := url.Values{}
	if o.Branch != "" {
		query.Set("branch", o.Branch)
	}
	if o.State != "" {
		query.Set("state", string(o.State))
	}
	if o.Commit != "" {
		query.Set("commit", o.Commit)
	}
	return query
}

// BuildService accesses the builds of a pipeline.
type BuildService struct {
	client *Client
}

// List returns the first page of builds of a pipeline.
func (s *BuildService) List(ctx context.Context, org, pipeline string, opts *BuildListOptions) ([]Build, error) {
	return client.Get[[]Build](ctx, s.client.transport, pipelinePath(org, pipeline)+"/builds", opts.query())
}

// Logs returns the log output of a job. build is the build number.
func (s *BuildService) Logs(ctx context.Context, org, pipeline, build, job string) (*Log, error) {
	path := pipelinePath(org, pipeline) + "/builds/" + url.PathEscape(build) + "/jobs/" + url.PathEscape(job) + "/log"

	l, err := client.Get[Log](ctx, s.client.transport, path, nil)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// IterFor returns a lazy sequence over every build of a pipeline.
func (s *BuildService) IterFor(org, pipeline string, opts *BuildListOptions) *pagination.Sequence[Build] {
	return IterBuilds[Build](s, org, pipeline, opts)
}

// IterBuilds iterates builds decoded into a caller-chosen type.
func IterBuilds[T any](s *BuildService, org, pipeline string, opts *BuildListOptions) *pagination.Sequence[T] {
	return newSequence[T](s.client, "builds", pipelinePath(org, pipeline)+"/builds", opts.query())
}
