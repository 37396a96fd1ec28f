// internal/expr/operator.go
//
// Operator type for the left-to-right arithmetic used by the game.
// Defines:
//   - Operator: one of Add/Subtract/Multiply/Divide.
//   - ParseOperator: accepts a symbol ("+") or a name ("times").
//   - JSON encoding as the operator symbol.

package expr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Operator is a binary arithmetic operator placed between two numbers.
type Operator int

const (
	Add Operator = iota
	Subtract
	Multiply
	Divide
)

// Operators lists every valid operator in declaration order.
var Operators = []Operator{Add, Subtract, Multiply, Divide}

// ErrUnknownOperator is returned by ParseOperator for unrecognised input.
var ErrUnknownOperator = errors.New("unknown operator")

// Valid reports whether op is one of the four known operators.
func (op Operator) Valid() bool { return op >= Add && op <= Divide }

// String returns the operator symbol.
func (op Operator) String() string {
	switch op {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// ParseOperator maps a symbol or a name to an Operator.
// Names are case-insensitive; "minus" and "times" are accepted alongside
// "subtract" and "multiply".
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "+", "add", "plus":
		return Add, nil
	case "-", "subtract", "minus":
		return Subtract, nil
	case "*", "x", "×", "multiply", "times":
		return Multiply, nil
	case "/", "÷", "divide":
		return Divide, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

// MarshalJSON encodes the operator as its symbol.
func (op Operator) MarshalJSON() ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperator, int(op))
	}
	return json.Marshal(op.String())
}

// UnmarshalJSON accepts anything ParseOperator accepts.
func (op *Operator) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseOperator(s)
	if err != nil {
		return err
	}
	*op = v
	return nil
}
