// Package workpool runs independent, indexed tasks on a bounded number of
// goroutines and joins their errors after all of them finish.
package workpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TaskError records which task failed.
type TaskError struct {
	Index int
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d: %v", e.Index, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Workers resolves a requested worker count; n <= 0 means GOMAXPROCS.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// Run calls fn for every index in [0, n) with at most workers tasks in
// flight. A failing task does not stop the others. Tasks not yet started
// when ctx is done are skipped and report ctx.Err(). The returned error
// joins one *TaskError per failed index, in index order.
func Run(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	errs := make([]error, n)

	var g errgroup.Group
	g.SetLimit(Workers(workers))
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = &TaskError{Index: i, Err: err}
				return nil
			}
			if err := fn(ctx, i); err != nil {
				errs[i] = &TaskError{Index: i, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Map is Run collecting one result per index. Results of failed tasks are
// left at their zero value.
func Map[T any](ctx context.Context, n, workers int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	out := make([]T, n)
	err := Run(ctx, n, workers, func(ctx context.Context, i int) error {
		v, err := fn(ctx, i)
		if err != nil {
			return err
		}
		out[i] = v
		return nil
	})
	return out, err
}
