// Package stream holds the channel combinators used to compose live
// listeners into view snapshots.
//
// Every stream is a receive-only channel owned by a producer goroutine. The
// producer closes the channel when its input is exhausted or when the
// context passed at construction is cancelled, so cancelling the root
// context tears down a whole pipeline.
package stream

import (
	"context"
)

// Of yields v once and closes.
func Of[T any](v T) <-chan T {
	ch := make(chan T, 1)
	ch <- v
	close(ch)
	return ch
}

// Empty closes immediately without yielding.
func Empty[T any]() <-chan T {
	ch := make(chan T)
	close(ch)
	return ch
}

// Map applies f to every value of in.
func Map[A, B any](ctx context.Context, in <-chan A, f func(A) B) <-chan B {
	out := make(chan B)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				if !send(ctx, out, f(v)) {
					return
				}
			}
		}
	}()
	return out
}

// CombineLatest2 emits f(a, b) with the latest value of each input every time
// either input emits, once both have emitted at least once. A combination
// that has not been consumed yet is replaced by a newer one. The stream
// closes when both inputs are closed, or as soon as one input closes without
// ever emitting.
func CombineLatest2[A, B, R any](ctx context.Context, a <-chan A, b <-chan B, f func(A, B) R) <-chan R {
	out := make(chan R)
	go func() {
		defer close(out)
		var (
			va         A
			vb         B
			hasA, hasB bool
			pending    R
			hasPending bool
		)
		for a != nil || b != nil || hasPending {
			var outCh chan<- R
			if hasPending {
				outCh = out
			}
			select {
			case <-ctx.Done():
				return
			case v, ok := <-a:
				if !ok {
					if !hasA {
						return
					}
					a = nil
					continue
				}
				va, hasA = v, true
			case v, ok := <-b:
				if !ok {
					if !hasB {
						return
					}
					b = nil
					continue
				}
				vb, hasB = v, true
			case outCh <- pending:
				hasPending = false
				continue
			}
			if hasA && hasB {
				pending, hasPending = f(va, vb), true
			}
		}
	}()
	return out
}

// CombineLatest3 is CombineLatest2 for three inputs.
func CombineLatest3[A, B, C, R any](ctx context.Context, a <-chan A, b <-chan B, c <-chan C, f func(A, B, C) R) <-chan R {
	type pair struct {
		a A
		b B
	}
	ab := CombineLatest2(ctx, a, b, func(x A, y B) pair { return pair{x, y} })
	return CombineLatest2(ctx, ab, c, func(p pair, z C) R { return f(p.a, p.b, z) })
}

// SwitchMap maps every outer value to an inner stream and forwards the
// values of the most recent inner stream only. The context handed to f is
// cancelled as soon as the next outer value arrives, which lets the previous
// inner producer release its listeners; an undelivered value of the previous
// inner stream is dropped.
func SwitchMap[A, R any](ctx context.Context, in <-chan A, f func(context.Context, A) <-chan R) <-chan R {
	out := make(chan R)
	go func() {
		defer close(out)
		var (
			inner      <-chan R
			pending    R
			hasPending bool
		)
		cancel := context.CancelFunc(func() {})
		defer func() { cancel() }()

		for in != nil || inner != nil || hasPending {
			var outCh chan<- R
			innerCh := inner
			if hasPending {
				outCh = out
				innerCh = nil
			}
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				cancel()
				var innerCtx context.Context
				innerCtx, cancel = context.WithCancel(ctx)
				inner = f(innerCtx, v)
				hasPending = false
			case r, ok := <-innerCh:
				if !ok {
					inner = nil
					continue
				}
				pending, hasPending = r, true
			case outCh <- pending:
				hasPending = false
			}
		}
	}()
	return out
}

// Collect drains in until it closes or ctx ends.
func Collect[T any](ctx context.Context, in <-chan T) []T {
	var out []T
	for {
		select {
		case <-ctx.Done():
			return out
		case v, ok := <-in:
			if !ok {
				return out
			}
			out = append(out, v)
		}
	}
}

func send[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
