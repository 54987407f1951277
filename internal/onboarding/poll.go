package onboarding

import (
	"context"
	"time"

	"github.com/brickfund/platform/internal/model"
)

const DefaultPollInterval = 3 * time.Second

// FetchFunc loads a fresh user snapshot.
type FetchFunc func(ctx context.Context) (*model.User, error)

// Poll re-fetches the user on every tick and on every focus signal until the
// identity step completes or ctx is done. It returns the tracker's final
// steps. Fetch errors end the loop; the caller decides whether to retry.
// A nil or closed focus channel only disables focus re-checks.
func Poll(ctx context.Context, tracker *Tracker, fetch FetchFunc, interval time.Duration, focus <-chan struct{}) ([]Step, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	check := func() (bool, error) {
		u, err := fetch(ctx)
		if err != nil {
			return false, err
		}
		tracker.Observe(u)
		return tracker.Completed(StepIdentity), nil
	}

	done, err := check()
	if err != nil || done {
		return tracker.Steps(), err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return tracker.Steps(), ctx.Err()
		case <-ticker.C:
		case _, ok := <-focus:
			if !ok {
				focus = nil
				continue
			}
		}

		done, err = check()
		if err != nil || done {
			return tracker.Steps(), err
		}
	}
}
