// internal/potential/search.go
//
// Feasibility ("potential") search for a round.
//
// Given the tokens a player has already placed and the full hand for the round,
// the search decides whether any completion drawn from the unused tokens folds
// (left to right, see package expr) to the target.
//
// Search order:
//   - A node whose placed sequence already evaluates to the target is a success;
//     the hand does not have to be used up.
//   - While fewer tokens are placed than the hand holds, the next token kind is
//     chosen from the counts alone: a number when len(numbers)-1 < len(ops),
//     otherwise an operator.
//   - Each distinct unused value of that kind is tried in hand order.
//
// The traversal is an explicit depth-first stack. Every frame owns its slices,
// so sibling branches never alias each other.

package potential

import (
	"context"
	"time"

	"github.com/weinianhe/SaveGramps/internal/expr"
)

// Stats captures the cost of a search.
type Stats struct {
	Nodes    int
	Duration time.Duration
}

// frame is one partial expression plus the tokens still unused by it.
type frame struct {
	nums    []int
	ops     []expr.Operator
	remNums []int
	remOps  []expr.Operator
}

// searcher holds the per-call constants.
type searcher struct {
	poolNums int
	poolOps  int
	target   int
}

// ctxCheckEvery bounds how many nodes are visited between ctx checks.
const ctxCheckEvery = 1024

// HasPotential reports whether placed can still be extended to reach target
// using the unused part of the hand.
func HasPotential(placedNums []int, placedOps []expr.Operator, poolNums []int, poolOps []expr.Operator, target int) bool {
	ok, _ := Search(placedNums, placedOps, poolNums, poolOps, target)
	return ok
}

// Search is HasPotential with node statistics.
func Search(placedNums []int, placedOps []expr.Operator, poolNums []int, poolOps []expr.Operator, target int) (bool, Stats) {
	start := time.Now()
	s, root := newSearch(placedNums, placedOps, poolNums, poolOps, target)
	var nodes int
	// Background is never cancelled, so the error is always nil.
	ok, _ := s.run(context.Background(), root, &nodes)
	return ok, Stats{Nodes: nodes, Duration: time.Since(start)}
}

func newSearch(placedNums []int, placedOps []expr.Operator, poolNums []int, poolOps []expr.Operator, target int) (*searcher, frame) {
	s := &searcher{poolNums: len(poolNums), poolOps: len(poolOps), target: target}
	root := frame{
		nums:    append([]int(nil), placedNums...),
		ops:     append([]expr.Operator(nil), placedOps...),
		remNums: Remaining(poolNums, placedNums),
		remOps:  Remaining(poolOps, placedOps),
	}
	return s, root
}

// run walks the subtree rooted at root depth-first and stops at the first hit.
func (s *searcher) run(ctx context.Context, root frame, nodes *int) (bool, error) {
	stack := []frame{root}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		*nodes++
		if *nodes%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}

		if s.matches(f) {
			return true, nil
		}
		children := s.expand(f)
		// Push in reverse so the first candidate is explored first.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return false, nil
}

func (s *searcher) matches(f frame) bool {
	v, ok := expr.Evaluate(f.nums, f.ops)
	return ok && v == s.target
}

// expand returns the children of f, one per distinct candidate value.
func (s *searcher) expand(f frame) []frame {
	if len(f.nums) >= s.poolNums && len(f.ops) >= s.poolOps {
		return nil
	}
	var out []frame
	if len(f.nums)-1 < len(f.ops) {
		seen := make(map[int]struct{}, len(f.remNums))
		for i, n := range f.remNums {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, frame{
				nums:    with(f.nums, n),
				ops:     f.ops,
				remNums: without(f.remNums, i),
				remOps:  f.remOps,
			})
		}
		return out
	}
	var seen [4]bool
	for i, op := range f.remOps {
		if op.Valid() {
			if seen[op] {
				continue
			}
			seen[op] = true
		}
		out = append(out, frame{
			nums:    f.nums,
			ops:     with(f.ops, op),
			remNums: f.remNums,
			remOps:  without(f.remOps, i),
		})
	}
	return out
}
