// internal/game/types.go
//
// Core type definitions for a Grandpa's Brain round.
// Defines:
//   - Hand: the fixed multiset of numbers and operators dealt for a round.
//   - Expected: the hand plus the target answer (built by a generator).
//   - Response: the tokens the player has placed so far.
//   - State / Condition / Termination: round outcome reporting.

package game

import (
	"errors"

	"github.com/weinianhe/SaveGramps/internal/expr"
)

// Hand is the multiset of tokens a player may draw from.
// Order is insertion order; availability is counted, not positional.
type Hand struct {
	Numbers   []int           `json:"numbers"`
	Operators []expr.Operator `json:"operators"`
}

// Size is the total number of tokens in the hand.
func (h Hand) Size() int { return len(h.Numbers) + len(h.Operators) }

// Clone returns a deep copy of h.
func (h Hand) Clone() Hand {
	return Hand{
		Numbers:   append([]int(nil), h.Numbers...),
		Operators: append([]expr.Operator(nil), h.Operators...),
	}
}

// Expected is the round's target: the dealt hand and the answer to reach.
type Expected struct {
	Hand   Hand `json:"hand"`
	Answer int  `json:"answer"`
}

// Response is the player's expression, built by appending tokens.
type Response struct {
	Numbers   []int           `json:"numbers"`
	Operators []expr.Operator `json:"operators"`
}

// State is the coarse lifecycle of a round.
type State string

const (
	StateInProgress State = "playing"
	StateWon        State = "won"
	StateLost       State = "lost"
)

// Condition says why a round terminated.
type Condition string

const (
	CondNone       Condition = "none"
	CondNormal     Condition = "normal"
	CondImpossible Condition = "impossible"
)

// MsgNoPotential is reported when no completion can reach the answer.
const MsgNoPotential = "NO POTENTIAL"

// Termination is the result of CheckTermination.
type Termination struct {
	Terminated bool      `json:"terminated"`
	Cond       Condition `json:"condition"`
	Message    string    `json:"message"`
}

var (
	// ErrRoundFinished is returned when a token is added after the round ended.
	ErrRoundFinished = errors.New("round finished")
	// ErrTokenUnavailable is returned when the hand has no unused copy of a token.
	ErrTokenUnavailable = errors.New("token not in hand")
)
