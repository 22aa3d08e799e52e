package pagination

import (
	"context"
	"fmt"
)

// PageFetcher fetches a single page of a listing endpoint.
//
// Implementations perform exactly one request per call and return the items
// in server order. page is 1-based. Any transport, status or decode failure is
// returned as-is.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) ([]T, error)
}

// PageFetcherFunc adapts a plain function to the PageFetcher interface.
type PageFetcherFunc[T any] func(ctx context.Context, page int) ([]T, error)

// FetchPage calls f(ctx, page).
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, page int) ([]T, error) {
	return f(ctx, page)
}

// PageError records which page fetch ended a sequence.
type PageError struct {
	Page int
	Err  error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PageError) Unwrap() error {
	return e.Err
}
