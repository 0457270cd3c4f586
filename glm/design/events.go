package design

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var (
	ErrNoEvents     = errors.New("design: no events")
	ErrInvalidEvent = errors.New("design: invalid event")
	ErrEventsRun    = errors.New("design: events span more than one run")
)

// Event is one row of a trial table.
type Event struct {
	Condition  string
	Onset      float64 // seconds
	Duration   float64 // seconds
	Modulation float64
	Run        int // 1-based
}

// Events is a trial table. It may span several runs.
type Events []Event

// ForRun returns the events of run (1-based), in their original order.
func (e Events) ForRun(run int) Events {
	var out Events
	for _, ev := range e {
		if ev.Run == run {
			out = append(out, ev)
		}
	}
	return out
}

// Runs returns the sorted distinct run labels.
func (e Events) Runs() []int {
	runs := make([]int, 0, len(e))
	for _, ev := range e {
		runs = append(runs, ev.Run)
	}
	slices.Sort(runs)
	return slices.Compact(runs)
}

// Conditions returns the sorted distinct condition labels.
func (e Events) Conditions() []string {
	names := make([]string, 0, len(e))
	for _, ev := range e {
		names = append(names, ev.Condition)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Validate checks every event for a label, finite timing and a
// non-negative duration.
func (e Events) Validate() error {
	for i, ev := range e {
		switch {
		case ev.Condition == "":
			return fmt.Errorf("%w: event %d has no condition", ErrInvalidEvent, i)
		case math.IsNaN(ev.Onset) || math.IsInf(ev.Onset, 0):
			return fmt.Errorf("%w: event %d onset %v", ErrInvalidEvent, i, ev.Onset)
		case !(ev.Duration >= 0) || math.IsInf(ev.Duration, 0):
			return fmt.Errorf("%w: event %d duration %v", ErrInvalidEvent, i, ev.Duration)
		case math.IsNaN(ev.Modulation) || math.IsInf(ev.Modulation, 0):
			return fmt.Errorf("%w: event %d modulation %v", ErrInvalidEvent, i, ev.Modulation)
		case ev.Run < 1:
			return fmt.Errorf("%w: event %d run %d", ErrInvalidEvent, i, ev.Run)
		}
	}
	return nil
}

// singleRun returns the run label shared by all events.
func (e Events) singleRun() (int, error) {
	if len(e) == 0 {
		return 0, ErrNoEvents
	}
	run := e[0].Run
	for _, ev := range e[1:] {
		if ev.Run != run {
			return 0, fmt.Errorf("%w: %d and %d", ErrEventsRun, run, ev.Run)
		}
	}
	return run, nil
}

// SingleTrials returns a copy of events in which every event whose
// condition contains id is relabeled "<condition>_NNNN", numbered in onset
// order within its run. An empty id matches every event. Other events keep
// their label and stay pooled per condition.
func SingleTrials(events Events, id string) Events {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b Event) int {
		return cmp.Or(cmp.Compare(a.Run, b.Run), cmp.Compare(a.Onset, b.Onset))
	})

	counter := map[int]int{}
	for i, ev := range out {
		if !strings.Contains(ev.Condition, id) {
			continue
		}
		n := counter[ev.Run]
		out[i].Condition = fmt.Sprintf("%s_%04d", ev.Condition, n)
		counter[ev.Run] = n + 1
	}
	return out
}

// WithUnmodulated returns events plus one copy of every event under label
// with unit modulation.
func WithUnmodulated(events Events, label string) Events {
	out := slices.Grow(slices.Clone(events), len(events))
	for _, ev := range events {
		ev.Condition = label
		ev.Modulation = 1
		out = append(out, ev)
	}
	return out
}
