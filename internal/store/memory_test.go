package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/weinianhe/SaveGramps/internal/expr"
	"github.com/weinianhe/SaveGramps/internal/game"
)

func TestMemoryStoreSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := game.New(game.Expected{Answer: 1}, game.WithID("abc"))

	if _, err := s.Get(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Get(ctx, "abc")
	if err != nil || got != r {
		t.Fatalf("get: %v %v", got, err)
	}
	if err := s.Delete(ctx, "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreUpdateSerializes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	nums := make([]int, 50)
	for i := range nums {
		nums[i] = 1
	}
	r := game.New(game.Expected{Hand: game.Hand{Numbers: nums, Operators: []expr.Operator{}}, Answer: -1})
	_ = s.Save(ctx, r)

	var wg sync.WaitGroup
	for i := 0; i < len(nums); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, r.ID(), func(r *game.Round) error { return r.AddNumber(1) })
		}()
	}
	wg.Wait()

	if r.Placed() != len(nums) {
		t.Fatalf("expected %d placed, got %d", len(nums), r.Placed())
	}
	err := s.Update(ctx, r.ID(), func(r *game.Round) error { return r.AddNumber(1) })
	if !errors.Is(err, game.ErrTokenUnavailable) {
		t.Fatalf("expected ErrTokenUnavailable from callback, got %v", err)
	}
	if err := s.Update(ctx, "missing", func(*game.Round) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
