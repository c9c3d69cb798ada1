package stream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "stream closed early")
		return v
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for value")
	}
	var zero T
	return zero
}

func assertClosed[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "expected closed stream")
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for close")
	}
}

func TestOfAndMap(t *testing.T) {
	ctx := context.Background()
	out := Map(ctx, Of(21), func(v int) int { return v * 2 })

	assert.Equal(t, 42, recv(t, out))
	assertClosed(t, out)
}

func TestEmpty(t *testing.T) {
	assertClosed(t, Empty[int]())
}

func TestCombineLatest2_WaitsForBothThenEmitsOnEach(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := make(chan int)
	b := make(chan string)
	out := CombineLatest2(ctx, a, b, func(x int, y string) string { return fmt.Sprintf("%d%s", x, y) })

	a <- 1
	a <- 2
	b <- "x"
	assert.Equal(t, "2x", recv(t, out))

	b <- "y"
	assert.Equal(t, "2y", recv(t, out))

	a <- 3
	assert.Equal(t, "3y", recv(t, out))

	close(a)
	close(b)
	assertClosed(t, out)
}

func TestCombineLatest2_ClosesWhenInputNeverEmits(t *testing.T) {
	ctx := context.Background()
	b := make(chan int)
	out := CombineLatest2(ctx, Empty[int](), b, func(x, y int) int { return x + y })

	assertClosed(t, out)
}

func TestCombineLatest2_OneShotInputKeepsLastValue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live := make(chan int)
	out := CombineLatest2(ctx, Of(10), live, func(x, y int) int { return x + y })

	live <- 1
	assert.Equal(t, 11, recv(t, out))
	live <- 2
	assert.Equal(t, 12, recv(t, out))
}

func TestCombineLatest3(t *testing.T) {
	ctx := context.Background()
	out := CombineLatest3(ctx, Of(1), Of(2), Of(3), func(a, b, c int) int { return a*100 + b*10 + c })

	assert.Equal(t, 123, recv(t, out))
	assertClosed(t, out)
}

func TestSwitchMap_CancelsPreviousInner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outer := make(chan string)
	cancelled := make(chan string, 4)

	out := SwitchMap(ctx, outer, func(innerCtx context.Context, key string) <-chan string {
		ch := make(chan string)
		go func() {
			defer close(ch)
			for i := 0; ; i++ {
				select {
				case ch <- fmt.Sprintf("%s%d", key, i):
				case <-innerCtx.Done():
					cancelled <- key
					return
				}
			}
		}()
		return ch
	})

	outer <- "a"
	assert.Equal(t, "a0", recv(t, out))
	assert.Equal(t, "a1", recv(t, out))

	outer <- "b"
	select {
	case key := <-cancelled:
		assert.Equal(t, "a", key)
	case <-time.After(1 * time.Second):
		t.Fatal("previous inner stream was not cancelled")
	}

	// a stale "a" value may already be in flight; the next fresh ones are "b".
	v := recv(t, out)
	if v[0] == 'a' {
		v = recv(t, out)
	}
	assert.Equal(t, byte('b'), v[0])
}

func TestSwitchMap_ClosesAfterOuterAndInnerFinish(t *testing.T) {
	ctx := context.Background()
	out := SwitchMap(ctx, Of(3), func(_ context.Context, n int) <-chan int {
		return Of(n * n)
	})

	assert.Equal(t, []int{9}, Collect(ctx, out))
}

func TestCollect_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	never := make(chan int)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	assert.Empty(t, Collect(ctx, never))
}
