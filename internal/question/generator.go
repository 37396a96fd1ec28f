// internal/question/generator.go
//
// Question generation: deals a hand and picks an answer that the hand can reach.
//
// The answer is always built by folding an actual interleaving of the dealt
// tokens, so every generated round is winnable. Numbers are drawn from
// [Min, Max] with Min >= 1, which keeps zero divisors out of the hand.
package question

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/weinianhe/SaveGramps/internal/expr"
	"github.com/weinianhe/SaveGramps/internal/game"
)

// Generator produces the target for the next round.
type Generator interface {
	Next(ctx context.Context) (game.Expected, error)
}

// Config controls the shape of a dealt hand.
type Config struct {
	Numbers   int // count of numbers in the hand
	Operators int // count of operators in the hand
	Min       int // smallest number (>= 1)
	Max       int // largest number
}

// DefaultConfig deals four numbers 1..9 and three operators.
func DefaultConfig() Config {
	return Config{Numbers: 4, Operators: 3, Min: 1, Max: 9}
}

// ErrBadConfig is returned for hands that cannot be dealt.
var ErrBadConfig = errors.New("question: invalid config")

// Validate checks the config for a dealable hand.
func (c Config) Validate() error {
	switch {
	case c.Numbers < 1:
		return fmt.Errorf("%w: need at least one number", ErrBadConfig)
	case c.Operators < 0:
		return fmt.Errorf("%w: negative operator count", ErrBadConfig)
	case c.Min < 1:
		return fmt.Errorf("%w: min must be >= 1", ErrBadConfig)
	case c.Max < c.Min:
		return fmt.Errorf("%w: max < min", ErrBadConfig)
	}
	return nil
}

// exactTries bounds the reshuffles spent looking for exact divisions.
const exactTries = 16

// Random deals hands from a seeded source. Safe for concurrent use.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
	cfg Config
}

// NewRandom returns a generator seeded with seed. The same seed and config
// always produce the same sequence of rounds.
func NewRandom(seed int64, cfg Config) (*Random, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Random{rng: rand.New(rand.NewSource(seed)), cfg: cfg}, nil
}

// Next deals a hand and derives its answer.
func (g *Random) Next(ctx context.Context) (game.Expected, error) {
	if err := ctx.Err(); err != nil {
		return game.Expected{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	h := game.Hand{
		Numbers:   make([]int, g.cfg.Numbers),
		Operators: make([]expr.Operator, g.cfg.Operators),
	}
	for i := range h.Numbers {
		h.Numbers[i] = g.cfg.Min + g.rng.Intn(g.cfg.Max-g.cfg.Min+1)
	}
	for i := range h.Operators {
		h.Operators[i] = expr.Operators[g.rng.Intn(len(expr.Operators))]
	}

	var answer int
	for try := 0; try < exactTries; try++ {
		v, exact := g.fold(h)
		answer = v
		if exact {
			break
		}
	}
	return game.Expected{Hand: h, Answer: answer}, nil
}

// fold evaluates a random interleaving of h. exact is false when a division
// along the way truncated.
func (g *Random) fold(h game.Hand) (int, bool) {
	k := len(h.Numbers) - 1
	if len(h.Operators) < k {
		k = len(h.Operators)
	}
	nums := append([]int(nil), h.Numbers...)
	ops := append([]expr.Operator(nil), h.Operators...)
	g.rng.Shuffle(len(nums), func(i, j int) { nums[i], nums[j] = nums[j], nums[i] })
	g.rng.Shuffle(len(ops), func(i, j int) { ops[i], ops[j] = ops[j], ops[i] })

	acc, exact := nums[0], true
	for i := 0; i < k; i++ {
		if ops[i] == expr.Divide && acc%nums[i+1] != 0 {
			exact = false
		}
		acc = expr.Apply(acc, nums[i+1], ops[i])
	}
	return acc, exact
}

// Fixed always returns the same target.
type Fixed struct {
	Expected game.Expected
}

// Next returns a copy of the fixed target.
func (f Fixed) Next(ctx context.Context) (game.Expected, error) {
	if err := ctx.Err(); err != nil {
		return game.Expected{}, err
	}
	return game.Expected{Hand: f.Expected.Hand.Clone(), Answer: f.Expected.Answer}, nil
}
