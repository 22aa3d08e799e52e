package pagination

import (
	"context"
	"iter"

	"github.com/Sternrassler/buildkite-client/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 25

// Config holds sequence configuration.
type Config struct {
	// PageSize is the number of records per page. A page shorter than this
	// ends the sequence.
	PageSize int

	// Name labels log lines and metrics (e.g. "builds").
	Name string
}

// DefaultConfig returns the configuration used by every Buildkite resource.
func DefaultConfig() Config {
	return Config{
		PageSize: DefaultPageSize,
		Name:     "default",
	}
}

// Cursor is the iteration position of a Sequence.
type Cursor struct {
	// Page is the page that the next fetch will request.
	Page int
	// Index is the position within the current page of the next record.
	Index int
}

// Sequence lazily yields the records of a paginated endpoint one at a time.
//
// A Sequence is single-pass: once it has ended, a new one must be built to
// iterate again. It holds no resources besides the buffered page, so callers
// may stop iterating at any point.
type Sequence[T any] struct {
	fetcher PageFetcher[T]
	config  Config
	logger  zerolog.Logger

	cursor Cursor
	page   []T
	item   T
	done   bool
	err    error
}

// New creates a sequence positioned before the first record of page 1.
func New[T any](fetcher PageFetcher[T], config Config) *Sequence[T] {
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.Name == "" {
		config.Name = "default"
	}

	return &Sequence[T]{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger("pagination").With().Str("sequence", config.Name).Logger(),
		cursor:  Cursor{Page: 1, Index: 0},
	}
}

// Next advances to the next record, fetching a new page when the current one
// has been consumed. It returns false when the sequence has ended, either on
// a short page or on a failed fetch; Err tells the two apart.
func (s *Sequence[T]) Next(ctx context.Context) bool {
	if s.done {
		return false
	}

	idx := s.cursor.Index

	if idx == 0 {
		s.logger.Debug().Int("page", s.cursor.Page).Msg("Fetching page")

		items, err := s.fetcher.FetchPage(ctx, s.cursor.Page)
		if err != nil {
			s.err = &PageError{Page: s.cursor.Page, Err: err}
			s.finish("error")
			PagesFetched.WithLabelValues(s.config.Name, "error").Inc()
			s.logger.Warn().
				Err(err).
				Int("page", s.cursor.Page).
				Msg("Page fetch failed - ending sequence")
			return false
		}

		PagesFetched.WithLabelValues(s.config.Name, "ok").Inc()
		s.page = items
		s.cursor.Page++
	}

	s.cursor.Index = (s.cursor.Index + 1) % s.config.PageSize

	if len(s.page) > idx {
		s.item = s.page[idx]
		ItemsYielded.WithLabelValues(s.config.Name).Inc()
		return true
	}

	s.logger.Debug().
		Int("page", s.cursor.Page-1).
		Int("page_len", len(s.page)).
		Msg("Short page - sequence complete")
	s.finish("short_page")
	return false
}

// finish marks the sequence ended and drops the buffered page.
func (s *Sequence[T]) finish(reason string) {
	var zero T
	s.done = true
	s.page = nil
	s.item = zero
	SequencesTerminated.WithLabelValues(s.config.Name, reason).Inc()
}

// Item returns the record produced by the last successful call to Next.
func (s *Sequence[T]) Item() T {
	return s.item
}

// Err returns the fetch error that ended the sequence, or nil if the sequence
// is still running or ended on a short page. The error is a *PageError.
func (s *Sequence[T]) Err() error {
	return s.err
}

// Done reports whether the sequence has ended.
func (s *Sequence[T]) Done() bool {
	return s.done
}

// Cursor returns the current iteration position.
func (s *Sequence[T]) Cursor() Cursor {
	return s.cursor
}

// All returns an iterator over the remaining records. Each record is yielded
// with a nil error; if the sequence ends on a failed fetch, a final zero value
// is yielded together with that error.
func (s *Sequence[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for s.Next(ctx) {
			if !yield(s.item, nil) {
				return
			}
		}
		if s.err != nil {
			var zero T
			yield(zero, s.err)
		}
	}
}

// Collect drains seq into a slice. On a failed fetch it returns the records
// gathered so far together with the error.
func Collect[T any](ctx context.Context, seq *Sequence[T]) ([]T, error) {
	var items []T
	for seq.Next(ctx) {
		items = append(items, seq.Item())
	}
	return items, seq.Err()
}
