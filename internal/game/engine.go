// internal/game/engine.go
//
// Round engine for a single Grandpa's Brain round.
// Responsibilities:
//   - Create rounds from an Expected (hand + answer) built elsewhere.
//   - Accept placed numbers/operators, checking them against the unused hand.
//   - Evaluate the running expression and decide termination:
//     won when it equals the answer, lost when no completion can reach it.
//
// Notes:
//   - Evaluation and the potential verdict are cached and only recomputed after a
//     mutation (the dirty flag). A new round starts dirty.
//   - The potential search is skipped until Threshold tokens have been placed;
//     until then the round is assumed winnable.
//   - A Round is not safe for concurrent use; callers serialize access.
package game

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/weinianhe/SaveGramps/internal/expr"
	"github.com/weinianhe/SaveGramps/internal/potential"
)

// DefaultThreshold is the number of placed tokens before the potential search runs.
const DefaultThreshold = 3

// SearchFunc decides whether the placed tokens can still reach target.
type SearchFunc func(placedNums []int, placedOps []expr.Operator, poolNums []int, poolOps []expr.Operator, target int) (bool, potential.Stats)

// Round holds the state of one round.
type Round struct {
	id        string
	expected  Expected
	response  Response
	threshold int
	search    SearchFunc

	dirty     bool
	result    *int
	potential bool
	lastStats potential.Stats

	state State
	last  Termination
}

// Option configures a Round.
type Option func(*Round)

// WithThreshold sets the number of placed tokens before the potential search runs.
// Negative values are treated as zero.
func WithThreshold(n int) Option {
	return func(r *Round) {
		if n < 0 {
			n = 0
		}
		r.threshold = n
	}
}

// WithID overrides the random round ID.
func WithID(id string) Option {
	return func(r *Round) {
		if id != "" {
			r.id = id
		}
	}
}

// WithSearch replaces the sequential potential search.
func WithSearch(fn SearchFunc) Option {
	return func(r *Round) {
		if fn != nil {
			r.search = fn
		}
	}
}

// New constructs a round for the given target. The hand is copied.
func New(expected Expected, opts ...Option) *Round {
	r := &Round{
		id:        randomID(),
		expected:  Expected{Hand: expected.Hand.Clone(), Answer: expected.Answer},
		threshold: DefaultThreshold,
		search:    potential.Search,
		dirty:     true,
		potential: true,
		state:     StateInProgress,
		last:      Termination{Cond: CondNone},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// AddNumber places a number from the unused hand.
func (r *Round) AddNumber(n int) error {
	if r.state != StateInProgress {
		return ErrRoundFinished
	}
	if count(r.expected.Hand.Numbers, n) <= count(r.response.Numbers, n) {
		return ErrTokenUnavailable
	}
	r.response.Numbers = append(r.response.Numbers, n)
	r.dirty = true
	return nil
}

// AddOperator places an operator from the unused hand.
func (r *Round) AddOperator(op expr.Operator) error {
	if r.state != StateInProgress {
		return ErrRoundFinished
	}
	if count(r.expected.Hand.Operators, op) <= count(r.response.Operators, op) {
		return ErrTokenUnavailable
	}
	r.response.Operators = append(r.response.Operators, op)
	r.dirty = true
	return nil
}

// CheckTermination evaluates the round and reports whether it is over.
//
// State transitions:
//   - Running result equals the answer → StateWon, CondNormal.
//   - Otherwise, once Threshold tokens are placed, no completion reaching the
//     answer → StateLost, CondImpossible, MsgNoPotential.
//   - Otherwise the round stays in progress.
//
// Calling it again without a mutation returns the same Termination.
func (r *Round) CheckTermination() Termination {
	if r.state != StateInProgress {
		return r.last
	}
	if r.dirty {
		r.result = nil
		if v, ok := expr.Evaluate(r.response.Numbers, r.response.Operators); ok {
			r.result = &v
		}
	}
	if r.result != nil && *r.result == r.expected.Answer {
		r.dirty = false
		r.state = StateWon
		r.last = Termination{Terminated: true, Cond: CondNormal}
		return r.last
	}
	if r.dirty {
		if r.Placed() < r.threshold {
			r.potential = true
		} else {
			r.potential, r.lastStats = r.search(
				r.response.Numbers, r.response.Operators,
				r.expected.Hand.Numbers, r.expected.Hand.Operators,
				r.expected.Answer,
			)
		}
		r.dirty = false
	}
	if !r.potential {
		r.state = StateLost
		r.last = Termination{Terminated: true, Cond: CondImpossible, Message: MsgNoPotential}
		return r.last
	}
	r.last = Termination{Cond: CondNone}
	return r.last
}

// ID returns the round identifier.
func (r *Round) ID() string { return r.id }

// State returns the current lifecycle state.
func (r *Round) State() State { return r.state }

// Threshold returns the placed-token count at which the potential search starts.
func (r *Round) Threshold() int { return r.threshold }

// Expected returns a copy of the round's target.
func (r *Round) Expected() Expected {
	return Expected{Hand: r.expected.Hand.Clone(), Answer: r.expected.Answer}
}

// Response returns a copy of the placed tokens.
func (r *Round) Response() Response {
	return Response{
		Numbers:   append([]int(nil), r.response.Numbers...),
		Operators: append([]expr.Operator(nil), r.response.Operators...),
	}
}

// Placed is the number of tokens placed so far.
func (r *Round) Placed() int { return len(r.response.Numbers) + len(r.response.Operators) }

// Remaining returns the unused part of the hand.
func (r *Round) Remaining() Hand {
	return Hand{
		Numbers:   potential.Remaining(r.expected.Hand.Numbers, r.response.Numbers),
		Operators: potential.Remaining(r.expected.Hand.Operators, r.response.Operators),
	}
}

// Result returns the last evaluated value; ok is false while the expression is
// incomplete or before the first CheckTermination.
func (r *Round) Result() (int, bool) {
	if r.result == nil {
		return 0, false
	}
	return *r.result, true
}

// Expression renders the placed tokens, e.g. "5 + 3".
func (r *Round) Expression() string {
	return expr.Format(r.response.Numbers, r.response.Operators)
}

// LastSearch reports the cost of the most recent potential search.
func (r *Round) LastSearch() potential.Stats { return r.lastStats }

func count[T comparable](s []T, v T) int {
	n := 0
	for _, x := range s {
		if x == v {
			n++
		}
	}
	return n
}

// randomID returns a compact 16‑hex‑char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
