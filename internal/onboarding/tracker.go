package onboarding

import (
	"sync"

	"github.com/brickfund/platform/internal/model"
)

// Tracker holds the last observed steps for one user and reports transitions
// as new snapshots arrive. Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	steps []Step
}

func NewTracker() *Tracker {
	steps := make([]Step, len(Order))
	for i, id := range Order {
		steps[i] = Step{ID: id, Status: StatusLocked}
	}
	steps[0].Status = StatusActive
	return &Tracker{steps: steps}
}

// Observe folds a snapshot into the tracker and returns the steps whose
// status changed, in step order. A completed step stays completed even if a
// later snapshot no longer satisfies it; gating is recomputed on top.
func (t *Tracker) Observe(u *model.User) []Step {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make([]Step, len(Order))
	open := true
	for i, id := range Order {
		done := t.steps[i].Status == StatusCompleted || satisfied(id, u)
		switch {
		case !open:
			next[i] = Step{ID: id, Status: StatusLocked}
		case done:
			next[i] = Step{ID: id, Status: StatusCompleted}
		default:
			next[i] = Step{ID: id, Status: StatusActive}
			open = false
		}
	}

	var changed []Step
	for i := range next {
		if next[i].Status != t.steps[i].Status {
			changed = append(changed, next[i])
		}
	}
	t.steps = next
	return changed
}

// Steps returns a copy of the current step state.
func (t *Tracker) Steps() []Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Step(nil), t.steps...)
}

func (t *Tracker) Completed(id StepID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return StatusOf(t.steps, id) == StatusCompleted
}
