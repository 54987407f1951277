package onboarding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brickfund/platform/internal/model"
)

func TestPollStopsWhenIdentityCompletes(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (*model.User, error) {
		n := calls.Add(1)
		switch {
		case n >= 3:
			return withIdentity(&model.User{}), nil
		case n == 2:
			return &model.User{IDFrontImage: "front"}, nil
		default:
			return &model.User{}, nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	steps, err := Poll(ctx, NewTracker(), fetch, 5*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if StatusOf(steps, StepIdentity) != StatusCompleted {
		t.Errorf("identity = %s, want completed", StatusOf(steps, StepIdentity))
	}
	if StatusOf(steps, StepBasicInfo) != StatusActive {
		t.Errorf("basic_info = %s, want active", StatusOf(steps, StepBasicInfo))
	}
	if calls.Load() != 3 {
		t.Errorf("fetched %d times, want 3", calls.Load())
	}
}

func TestPollReturnsImmediatelyWhenAlreadyComplete(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (*model.User, error) {
		calls.Add(1)
		return withIdentity(&model.User{}), nil
	}

	_, err := Poll(context.Background(), NewTracker(), fetch, time.Hour, nil)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("fetched %d times, want 1", calls.Load())
	}
}

func TestPollFocusTriggersRecheck(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (*model.User, error) {
		if calls.Add(1) == 1 {
			return &model.User{}, nil
		}
		return withIdentity(&model.User{}), nil
	}

	focus := make(chan struct{}, 1)
	focus <- struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// The interval is far longer than the test timeout; only focus can finish it.
	steps, err := Poll(ctx, NewTracker(), fetch, time.Hour, focus)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if StatusOf(steps, StepIdentity) != StatusCompleted {
		t.Errorf("identity = %s, want completed", StatusOf(steps, StepIdentity))
	}
}

func TestPollCancelled(t *testing.T) {
	fetch := func(context.Context) (*model.User, error) {
		return &model.User{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	steps, err := Poll(ctx, NewTracker(), fetch, 5*time.Millisecond, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if StatusOf(steps, StepIdentity) != StatusActive {
		t.Errorf("identity = %s, want active", StatusOf(steps, StepIdentity))
	}
}

func TestPollFetchError(t *testing.T) {
	boom := errors.New("store down")
	fetch := func(context.Context) (*model.User, error) {
		return nil, boom
	}

	_, err := Poll(context.Background(), NewTracker(), fetch, time.Millisecond, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
