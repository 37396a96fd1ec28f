// internal/expr/eval.go
//
// Strict left-to-right evaluation of a number/operator sequence.
//
// Notes:
//   - There is no precedence: 2 * 3 + 4 is ((2 * 3) + 4) and 2 + 3 * 4 is ((2 + 3) * 4).
//   - A sequence is only evaluable when len(ops) == len(numbers)-1; anything else
//     is "incomplete" and reported through the ok flag, not an error.
//   - Divide is Go integer division (truncates toward zero). A zero divisor panics
//     in the runtime and is left to propagate.

package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Evaluate folds numbers left to right using ops.
// ok is false when the operator count does not match the number count.
func Evaluate(numbers []int, ops []Operator) (result int, ok bool) {
	if len(ops) != len(numbers)-1 {
		return 0, false
	}
	result = numbers[0]
	for i := 1; i < len(numbers); i++ {
		result = Apply(result, numbers[i], ops[i-1])
	}
	return result, true
}

// Apply performs a single step: a op b.
// It panics on an operator outside the known set.
func Apply(a, b int, op Operator) int {
	switch op {
	case Add:
		return a + b
	case Subtract:
		return a - b
	case Multiply:
		return a * b
	case Divide:
		return a / b
	}
	panic(fmt.Sprintf("expr: unknown operator %d", int(op)))
}

// Format renders the tokens interleaved, e.g. "2 * 3 + 4".
// Trailing operators (one more than numbers allow) are rendered too so that a
// partially built expression still reads naturally.
func Format(numbers []int, ops []Operator) string {
	var b strings.Builder
	for i, n := range numbers {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(n))
		if i < len(ops) {
			b.WriteByte(' ')
			b.WriteString(ops[i].String())
		}
	}
	for i := len(numbers); i < len(ops); i++ {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(ops[i].String())
	}
	return b.String()
}
