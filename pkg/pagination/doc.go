// Package pagination turns page-oriented Buildkite listing endpoints into lazy,
// single-pass sequences of typed records.
//
// Buildkite list endpoints take a 1-based page query parameter and return a
// JSON array with no total-count or next-page metadata. The only end-of-data
// signal is a page shorter than the requested page size, so a Sequence keeps
// fetching while pages come back full and stops on the first short page.
//
// Example usage:
//
//	fetcher := pagination.PageFetcherFunc[Build](func(ctx context.Context, page int) ([]Build, error) {
//		return fetchBuildsPage(ctx, page)
//	})
//	seq := pagination.New[Build](fetcher, pagination.DefaultConfig())
//	for seq.Next(ctx) {
//		build := seq.Item()
//		// ...
//	}
//	if err := seq.Err(); err != nil {
//		// iteration stopped on a failed page fetch
//	}
//
// Or with range-over-func:
//
//	for build, err := range seq.All(ctx) {
//		if err != nil {
//			return err
//		}
//		// ...
//	}
//
// The sequence:
//   - Fetches page 1 on the first step, then one page per PageSize items
//   - Stops on an empty or short page
//   - Stops on the first failed fetch and keeps the error for Err
//   - Never retries, caches, or prefetches pages
//   - Is not safe for concurrent use; build one per consumer
package pagination
