// Package batch runs many independent read operations in fixed-size waves.
//
// Every operation inside a wave runs concurrently and the next wave starts
// only once the whole wave has settled. A failing operation never aborts the
// batch: its slot in the result list is Missing and every other slot is
// unaffected. Result i always belongs to operation i, so callers can
// correlate results with metadata built using the same index.
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omarshaarawi/superliga/internal/retry"
)

const DefaultBatchSize = 20

// Op is a single zero-argument read operation.
type Op[T any] func(ctx context.Context) (T, error)

type Options struct {
	// BatchSize is the maximum number of operations in flight. Values below
	// one fall back to DefaultBatchSize.
	BatchSize int
	// CallTimeout bounds each attempt of an operation. Zero disables it.
	CallTimeout time.Duration
	// Retry, when set, is applied to each operation before it is marked Missing.
	Retry *retry.Policy
	// OnResult is called once per operation with its final error (nil on
	// success). It is called from multiple goroutines.
	OnResult func(index int, err error)
}

// Result is either Ok(value) or Missing(err).
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

func Missing[T any](err error) Result[T] {
	if err == nil {
		err = fmt.Errorf("missing result")
	}
	return Result[T]{err: err}
}

// Get returns the value and whether the operation succeeded.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.ok
}

func (r Result[T]) IsMissing() bool {
	return !r.ok
}

// Err is the reason a result is missing, nil for Ok results.
func (r Result[T]) Err() error {
	return r.err
}

type Results[T any] []Result[T]

type Failure struct {
	Index int
	Label string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Label, f.Err)
}

// Failures lists every missing result. label names the operation at an index.
func (rs Results[T]) Failures(label func(index int) string) []Failure {
	var failures []Failure
	for i, r := range rs {
		if r.ok {
			continue
		}
		name := fmt.Sprintf("op %d", i)
		if label != nil {
			name = label(i)
		}
		failures = append(failures, Failure{Index: i, Label: name, Err: r.err})
	}
	return failures
}

func (rs Results[T]) Succeeded() int {
	n := 0
	for _, r := range rs {
		if r.ok {
			n++
		}
	}
	return n
}

// Run executes ops in waves of at most opts.BatchSize and returns one result
// per op, in input order.
func Run[T any](ctx context.Context, ops []Op[T], opts Options) Results[T] {
	size := opts.BatchSize
	if size < 1 {
		size = DefaultBatchSize
	}

	results := make(Results[T], len(ops))
	for start := 0; start < len(ops); start += size {
		end := min(start+size, len(ops))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = call(ctx, ops[i], opts)
				if opts.OnResult != nil {
					opts.OnResult(i, results[i].err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	return results
}

func call[T any](ctx context.Context, op Op[T], opts Options) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Missing[T](fmt.Errorf("operation panicked: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return Missing[T](err)
	}

	var value T
	attempt := func(ctx context.Context) error {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if opts.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, opts.CallTimeout)
		}
		defer cancel()

		v, err := op(callCtx)
		if err != nil {
			return err
		}
		value = v
		return nil
	}

	var err error
	if opts.Retry != nil {
		err = opts.Retry.Execute(ctx, attempt)
	} else {
		err = attempt(ctx)
	}
	if err != nil {
		return Missing[T](err)
	}
	return Ok(value)
}
