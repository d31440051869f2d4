package api

import (
	"iter"
	"sync/atomic"

	apierrors "github.com/diogo/megamente/internal/errors"
)

// once wraps seq so it can be ranged over a single time. Later attempts
// yield ErrStreamConsumed instead of issuing a second request.
func once(seq iter.Seq2[string, error]) iter.Seq2[string, error] {
	var used atomic.Bool
	return func(yield func(string, error) bool) {
		if used.Swap(true) {
			yield("", apierrors.ErrStreamConsumed)
			return
		}
		seq(yield)
	}
}
