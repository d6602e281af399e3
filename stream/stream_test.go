package stream

import (
	"context"
	"slices"
	"strings"
	"testing"
)

func divideByTwo(n int) int {
	return n / 2
}

func isNonZero(n int) bool {
	return n != 0
}

func TestStream1(t *testing.T) {
	data := []int{0, 2, 4, 6, 8}
	ctx := context.Background()
	myStream := Slice(ctx, data)
	result := Collect(ctx,
		Transform(ctx, divideByTwo,
			Filter(ctx, isNonZero,
				myStream)))

	if !slices.Equal([]int{1, 2, 3, 4}, result) {
		t.Errorf("Expected [1, 2, 3, 4], got %v", result)
	}
}

func TestNDJSON(t *testing.T) {
	ctx := context.Background()
	in := strings.NewReader("[1,2]\n[3,4]\n[5]\n")
	frames, errs := NDJSON[[]int](ctx, in)
	result := Collect(ctx, Transform(ctx, func(f []int) int { return len(f) }, frames))
	if err := <-errs; err != nil {
		t.Fatal(err)
	}
	if !slices.Equal([]int{2, 2, 1}, result) {
		t.Errorf("Expected [2, 2, 1], got %v", result)
	}
}

func TestNDJSONStopsOnError(t *testing.T) {
	ctx := context.Background()
	in := strings.NewReader("[1,2]\n{oops\n[3,4]\n")
	frames, errs := NDJSON[[]int](ctx, in)
	result := Collect(ctx, frames)
	if err := <-errs; err == nil {
		t.Fatal("expected decode error")
	}
	if len(result) != 1 {
		t.Errorf("Expected 1 element before the error, got %d", len(result))
	}
}

func TestCollectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := Collect(ctx, Slice(context.Background(), []int{1, 2, 3}))
	if len(result) != 0 {
		t.Errorf("Expected nothing after cancel, got %v", result)
	}
}
