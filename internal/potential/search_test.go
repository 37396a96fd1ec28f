package potential

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/weinianhe/SaveGramps/internal/expr"
)

type searchCase struct {
	name       string
	placedNums []int
	placedOps  []expr.Operator
	poolNums   []int
	poolOps    []expr.Operator
	target     int
	want       bool
}

var searchCases = []searchCase{
	{
		name:       "placed already equals target",
		placedNums: []int{7},
		poolNums:   []int{7, 1, 2},
		poolOps:    []expr.Operator{expr.Add, expr.Multiply},
		target:     7,
		want:       true,
	},
	{
		name:     "unreachable from empty",
		poolNums: []int{1, 1},
		poolOps:  []expr.Operator{expr.Add},
		target:   5,
		want:     false,
	},
	{
		name:     "reachable without using the whole hand",
		poolNums: []int{2, 3, 4},
		poolOps:  []expr.Operator{expr.Multiply, expr.Add},
		target:   6,
		want:     true,
	},
	{
		name:     "reachable only with every token",
		poolNums: []int{2, 3, 4},
		poolOps:  []expr.Operator{expr.Add, expr.Multiply},
		target:   20,
		want:     true,
	},
	{
		name:       "duplicate left in hand after placing one copy",
		placedNums: []int{3},
		poolNums:   []int{3, 3},
		poolOps:    []expr.Operator{expr.Add},
		target:     6,
		want:       true,
	},
	{
		name:     "single copy cannot be used twice",
		poolNums: []int{5},
		poolOps:  []expr.Operator{expr.Add},
		target:   10,
		want:     false,
	},
	{
		name:       "every token placed and wrong",
		placedNums: []int{1, 2},
		placedOps:  []expr.Operator{expr.Add},
		poolNums:   []int{1, 2},
		poolOps:    []expr.Operator{expr.Add},
		target:     4,
		want:       false,
	},
	{
		name:       "every token placed and not evaluable",
		placedNums: []int{1, 2},
		poolNums:   []int{1, 2},
		target:     3,
		want:       false,
	},
	{
		name:   "empty placed and empty pool",
		target: 0,
		want:   false,
	},
	{
		name:       "operator comes next",
		placedNums: []int{8},
		poolNums:   []int{8, 2},
		poolOps:    []expr.Operator{expr.Divide, expr.Subtract},
		target:     6,
		want:       true,
	},
	{
		name:     "truncating division",
		poolNums: []int{2, 8},
		poolOps:  []expr.Operator{expr.Divide},
		target:   0,
		want:     true,
	},
	{
		name:       "dead end after a bad prefix",
		placedNums: []int{1},
		placedOps:  []expr.Operator{expr.Subtract},
		poolNums:   []int{1, 9},
		poolOps:    []expr.Operator{expr.Subtract, expr.Add},
		target:     10,
		want:       false,
	},
}

func TestHasPotential(t *testing.T) {
	for _, tt := range searchCases {
		t.Run(tt.name, func(t *testing.T) {
			got := HasPotential(tt.placedNums, tt.placedOps, tt.poolNums, tt.poolOps, tt.target)
			if got != tt.want {
				t.Errorf("HasPotential(%v, %v, %v, %v, %d) = %v, want %v",
					tt.placedNums, tt.placedOps, tt.poolNums, tt.poolOps, tt.target, got, tt.want)
			}
		})
	}
}

func TestSearchParallelAgrees(t *testing.T) {
	for _, tt := range searchCases {
		t.Run(tt.name, func(t *testing.T) {
			got, st, err := SearchParallel(context.Background(), tt.placedNums, tt.placedOps, tt.poolNums, tt.poolOps, tt.target)
			if err != nil {
				t.Fatalf("SearchParallel: %v", err)
			}
			if got != tt.want {
				t.Errorf("SearchParallel = %v, want %v", got, tt.want)
			}
			if st.Nodes < 1 {
				t.Errorf("expected at least one node, got %d", st.Nodes)
			}
		})
	}
}

func TestSearchParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := SearchParallel(ctx, nil, nil, []int{1, 2}, []expr.Operator{expr.Add}, 3)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSearchParallelPropagatesPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected division by zero to reach the caller")
		}
	}()
	_, _, _ = SearchParallel(context.Background(), nil, nil, []int{4, 0}, []expr.Operator{expr.Divide}, 99)
}

func TestSearchParallelPrefersSolutionOverPanic(t *testing.T) {
	// The 4 branch divides by zero; the 2 branch matches the target at once.
	ok, _, err := SearchParallel(context.Background(), nil, nil, []int{4, 0, 2}, []expr.Operator{expr.Divide}, 2)
	if err != nil {
		t.Fatalf("SearchParallel: %v", err)
	}
	if !ok {
		t.Fatal("expected potential from the 2 branch")
	}
}

func TestSearchStats(t *testing.T) {
	ok, st := Search(nil, nil, []int{1, 1}, []expr.Operator{expr.Subtract}, 99)
	if ok {
		t.Fatal("expected no potential")
	}
	// root, [1], [1 -], [1 - 1]; the duplicate 1 is only tried once.
	if st.Nodes != 4 {
		t.Fatalf("expected 4 nodes, got %d", st.Nodes)
	}
}

func TestSearchDoesNotMutateInputs(t *testing.T) {
	placed := []int{3}
	pool := []int{3, 3, 4}
	ops := []expr.Operator{expr.Add, expr.Multiply}
	HasPotential(placed, nil, pool, ops, 1000)
	if !reflect.DeepEqual(placed, []int{3}) || !reflect.DeepEqual(pool, []int{3, 3, 4}) ||
		!reflect.DeepEqual(ops, []expr.Operator{expr.Add, expr.Multiply}) {
		t.Fatalf("inputs mutated: placed=%v pool=%v ops=%v", placed, pool, ops)
	}
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name   string
		pool   []int
		placed []int
		want   []int
	}{
		{"removes one occurrence", []int{3, 3, 4}, []int{3}, []int{3, 4}},
		{"removes both occurrences", []int{3, 3, 4}, []int{3, 3}, []int{4}},
		{"ignores absent items", []int{1, 2}, []int{5}, []int{1, 2}},
		{"empty placed", []int{1, 2}, nil, []int{1, 2}},
		{"everything placed", []int{2, 1}, []int{1, 2}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Remaining(tt.pool, tt.placed)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Remaining(%v, %v) = %v, want %v", tt.pool, tt.placed, got, tt.want)
			}
		})
	}
}
