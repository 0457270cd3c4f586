package cv

import (
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
	"slices"
)

var (
	ErrSplits = errors.New("cv: invalid number of splits")
	ErrGroups = errors.New("cv: invalid groups")
)

// Fold is one train/test partition of row indices. Both are sorted.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter generates folds over n rows. groups carries one label per row
// and may be nil for splitters that ignore it.
type Splitter interface {
	Split(n int, groups []int) (iter.Seq[Fold], error)
}

// RepeatedKFold shuffles the rows and cuts them into Splits folds, Repeats
// times with a fresh shuffle each time. The first n%Splits folds hold one
// extra row.
type RepeatedKFold struct {
	Splits  int
	Repeats int
	Seed    uint64
}

// Split implements Splitter.
func (k RepeatedKFold) Split(n int, _ []int) (iter.Seq[Fold], error) {
	if k.Splits < 2 || k.Splits > n {
		return nil, fmt.Errorf("%w: %d splits for %d rows", ErrSplits, k.Splits, n)
	}
	if k.Repeats < 1 {
		return nil, fmt.Errorf("%w: %d repeats", ErrSplits, k.Repeats)
	}

	return func(yield func(Fold) bool) {
		perm := make([]int, n)
		for r := range k.Repeats {
			rng := rand.New(rand.NewPCG(k.Seed, uint64(r)))
			for i := range perm {
				perm[i] = i
			}
			rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

			start := 0
			for f := range k.Splits {
				size := n / k.Splits
				if f < n%k.Splits {
					size++
				}
				if !yield(foldFrom(perm, start, start+size)) {
					return
				}
				start += size
			}
		}
	}, nil
}

// foldFrom tests perm[lo:hi] and trains on the rest.
func foldFrom(perm []int, lo, hi int) Fold {
	test := slices.Clone(perm[lo:hi])
	train := make([]int, 0, len(perm)-len(test))
	train = append(train, perm[:lo]...)
	train = append(train, perm[hi:]...)
	slices.Sort(test)
	slices.Sort(train)
	return Fold{Train: train, Test: test}
}

// LeaveOneGroupOut yields one fold per distinct group label, in increasing
// label order, testing on every row of that group.
type LeaveOneGroupOut struct{}

// Split implements Splitter.
func (LeaveOneGroupOut) Split(n int, groups []int) (iter.Seq[Fold], error) {
	if len(groups) != n {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrGroups, len(groups), n)
	}
	labels := slices.Compact(slices.Sorted(slices.Values(groups)))
	if len(labels) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 groups, got %d", ErrGroups, len(labels))
	}

	return func(yield func(Fold) bool) {
		for _, g := range labels {
			var f Fold
			for i, label := range groups {
				if label == g {
					f.Test = append(f.Test, i)
				} else {
					f.Train = append(f.Train, i)
				}
			}
			if !yield(f) {
				return
			}
		}
	}, nil
}
