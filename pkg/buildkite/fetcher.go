package buildkite

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Sternrassler/buildkite-client/pkg/client"
	"github.com/Sternrassler/buildkite-client/pkg/pagination"
)

// resourceFetcher fetches one page of a Buildkite collection endpoint.
// Each call is a single GET; the page body must be a JSON array of T.
type resourceFetcher[T any] struct {
	client   *client.Client
	path     string
	query    url.Values
	pageSize int
}

// FetchPage implements pagination.PageFetcher.
func (f *resourceFetcher[T]) FetchPage(ctx context.Context, page int) ([]T, error) {
	query := url.Values{}
	for key, values := range f.query {
		query[key] = append([]string(nil), values...)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(f.pageSize))

	return client.Get[[]T](ctx, f.client, f.path, query)
}

// newSequence builds a lazy sequence over the collection at path. The server
// page size and the short-page detection size are always the same value.
func newSequence[T any](c *Client, name, path string, query url.Values) *pagination.Sequence[T] {
	fetcher := &resourceFetcher[T]{
		client:   c.transport,
		path:     path,
		query:    query,
		pageSize: c.pageSize,
	}

	return pagination.New[T](fetcher, pagination.Config{
		PageSize: c.pageSize,
		Name:     name,
	})
}

func orgPath(org string) string {
	return "/organizations/" + url.PathEscape(org)
}

func pipelinePath(org, pipeline string) string {
	return orgPath(org) + "/pipelines/" + url.PathEscape(pipeline)
}
