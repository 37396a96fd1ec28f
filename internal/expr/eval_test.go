package expr

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		numbers []int
		ops     []Operator
		want    int
		wantOK  bool
	}{
		{"single number", []int{7}, nil, 7, true},
		{"no precedence times first", []int{2, 3, 4}, []Operator{Multiply, Add}, 10, true},
		{"no precedence add first", []int{2, 3, 4}, []Operator{Add, Multiply}, 20, true},
		{"subtract", []int{5, 3}, []Operator{Subtract}, 2, true},
		{"negative intermediate", []int{1, 4, 2}, []Operator{Subtract, Multiply}, -6, true},
		{"divide exact", []int{8, 2}, []Operator{Divide}, 4, true},
		{"divide truncates", []int{7, 2}, []Operator{Divide}, 3, true},
		{"divide truncates toward zero", []int{1, 8, 2}, []Operator{Subtract, Divide}, -3, true},
		{"empty", nil, nil, 0, false},
		{"operator without number", nil, []Operator{Add}, 0, false},
		{"missing operator", []int{1, 2}, nil, 0, false},
		{"trailing operator", []int{1, 2}, []Operator{Add, Add}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Evaluate(tt.numbers, tt.ops)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Evaluate(%v, %v) = (%d, %v), want (%d, %v)", tt.numbers, tt.ops, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	nums := []int{9, 3, 4, 2}
	ops := []Operator{Divide, Multiply, Subtract}
	first, _ := Evaluate(nums, ops)
	for i := 0; i < 10; i++ {
		if got, _ := Evaluate(nums, ops); got != first {
			t.Fatalf("run %d: got %d, want %d", i, got, first)
		}
	}
	if first != 10 {
		t.Fatalf("expected 10, got %d", first)
	}
}

func TestApplyUnknownOperatorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown operator")
		}
	}()
	Apply(1, 2, Operator(42))
}

func TestEvaluateDivideByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for division by zero")
		}
	}()
	Evaluate([]int{1, 0}, []Operator{Divide})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		numbers []int
		ops     []Operator
		want    string
	}{
		{nil, nil, ""},
		{[]int{2}, nil, "2"},
		{[]int{2}, []Operator{Multiply}, "2 *"},
		{[]int{2, 3, 4}, []Operator{Multiply, Add}, "2 * 3 + 4"},
		{nil, []Operator{Subtract}, "-"},
	}
	for _, tt := range tests {
		if got := Format(tt.numbers, tt.ops); got != tt.want {
			t.Errorf("Format(%v, %v) = %q, want %q", tt.numbers, tt.ops, got, tt.want)
		}
	}
}

func TestParseOperator(t *testing.T) {
	tests := []struct {
		in   string
		want Operator
	}{
		{"+", Add}, {"add", Add},
		{"-", Subtract}, {"Minus", Subtract},
		{"*", Multiply}, {"times", Multiply},
		{"/", Divide}, {" divide ", Divide},
	}
	for _, tt := range tests {
		got, err := ParseOperator(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseOperator(%q) = (%v, %v), want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseOperator("%"); !errors.Is(err, ErrUnknownOperator) {
		t.Fatalf("expected ErrUnknownOperator, got %v", err)
	}
}

func TestOperatorJSON(t *testing.T) {
	b, err := json.Marshal([]Operator{Add, Divide})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["+","/"]` {
		t.Fatalf("unexpected encoding %s", b)
	}
	var ops []Operator
	if err := json.Unmarshal([]byte(`["times","-"]`), &ops); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(ops) != 2 || ops[0] != Multiply || ops[1] != Subtract {
		t.Fatalf("unexpected ops %v", ops)
	}
	if _, err := json.Marshal(Operator(9)); err == nil {
		t.Fatal("expected error marshalling invalid operator")
	}
}
