package potential

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weinianhe/SaveGramps/internal/expr"
)

// errFound cancels sibling branches once one of them reaches the target.
var errFound = errors.New("potential: found")

// SearchParallel gives the same verdict as Search but explores each top-level
// candidate in its own goroutine. The first success cancels the others.
// It returns ctx's error if ctx ends before a verdict is reached.
//
// A branch that panics (zero divisor) does not stop its siblings. If another
// branch reaches the target the result is true; otherwise the panic is
// re-raised in the caller. Search, walking branches in order, panics as soon
// as it meets the bad branch, so for such pools the two can disagree.
func SearchParallel(ctx context.Context, placedNums []int, placedOps []expr.Operator, poolNums []int, poolOps []expr.Operator, target int) (bool, Stats, error) {
	start := time.Now()
	s, root := newSearch(placedNums, placedOps, poolNums, poolOps, target)

	if err := ctx.Err(); err != nil {
		return false, Stats{}, err
	}
	if s.matches(root) {
		return true, Stats{Nodes: 1, Duration: time.Since(start)}, nil
	}

	var total atomic.Int64
	total.Add(1)
	var found atomic.Bool
	var (
		panicOnce sync.Once
		panicVal  any
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, child := range s.expand(root) {
		child := child
		g.Go(func() (err error) {
			// Evaluation panics (zero divisor, unknown operator) belong to the caller.
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { panicVal = r })
					err = nil
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			var nodes int
			ok, err := s.run(gctx, child, &nodes)
			total.Add(int64(nodes))
			if err != nil {
				return err
			}
			if ok {
				found.Store(true)
				return errFound
			}
			return nil
		})
	}
	err := g.Wait()

	stats := Stats{Nodes: int(total.Load()), Duration: time.Since(start)}
	if found.Load() {
		return true, stats, nil
	}
	if panicVal != nil {
		panic(panicVal)
	}
	if err != nil {
		return false, stats, err
	}
	return false, stats, nil
}
