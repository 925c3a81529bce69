package scheduler

import (
	"context"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is one candidate URL dispatched through the scheduler.
type Task struct {
	URL string
}

// Dispatch fans tasks out across the scheduler's global/per-host limits,
// running each through handle. A handler error is captured per-task by the
// caller (handle is expected to log and return nil); Dispatch itself only
// propagates context cancellation, ErrSkipDeadline for a task the deadline
// skipped, or a handler's returned error, matching errgroup's fail-fast
// semantics.
func Dispatch(ctx context.Context, s *Scheduler, deadline *Deadline, minRemaining time.Duration, tasks []Task, handle func(ctx context.Context, t Task) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		host := hostOf(t.URL)
		g.Go(func() error {
			return s.Run(gctx, host, deadline, minRemaining, func(taskCtx context.Context) error {
				return handle(taskCtx, t)
			})
		})
	}
	return g.Wait()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
