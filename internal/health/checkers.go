package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Errors reported by the built-in checkers.
var (
	ErrNotIndexed   = errors.New("search indexes have not been built")
	ErrStaleIndex   = errors.New("search indexes are older than the stored dataset")
	ErrInconsistent = errors.New("graph has edge violations")
	ErrMemoryLimit  = errors.New("resident memory above limit")
)

// IndexStatus describes the search index state.
type IndexStatus struct {
	Indexed bool
	Stale   bool
}

// IndexChecker fails until the indexes are built and whenever the dataset
// has changed since the last rebuild.
func IndexChecker(status func() IndexStatus) Checker {
	return Checker{
		Name: "index",
		Check: func(context.Context) error {
			s := status()
			switch {
			case !s.Indexed:
				return ErrNotIndexed
			case s.Stale:
				return ErrStaleIndex
			}
			return nil
		},
	}
}

// GraphChecker fails when violations reports a non-zero count.
func GraphChecker(violations func() int) Checker {
	return Checker{
		Name: "graph",
		Check: func(context.Context) error {
			if n := violations(); n > 0 {
				return fmt.Errorf("%w: %d", ErrInconsistent, n)
			}
			return nil
		},
	}
}

// MemoryChecker fails when rss exceeds limit bytes. A zero limit disables
// the check.
func MemoryChecker(limit uint64, rss func() uint64) Checker {
	return Checker{
		Name: "memory",
		Check: func(context.Context) error {
			if limit == 0 {
				return nil
			}
			if cur := rss(); cur > limit {
				return fmt.Errorf("%w: %s > %s", ErrMemoryLimit, humanize.IBytes(cur), humanize.IBytes(limit))
			}
			return nil
		},
	}
}
