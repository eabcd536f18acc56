package poller

import (
	"context"
	"time"

	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 120 * time.Second

	msgTaskFailed  = "Task failed"
	msgTaskTimeout = "Task timeout"
)

type Options struct {
	Interval time.Duration
	Timeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Poller waits for a remote task to reach a terminal state with a
// fixed-interval synchronous loop.
type Poller struct {
	client   output.TaskClientPort
	progress output.ProgressPort
	logger   output.LoggerPort

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(client output.TaskClientPort, progress output.ProgressPort, logger output.LoggerPort) *Poller {
	return &Poller{
		client:   client,
		progress: progress,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait polls taskID until it finishes, fails, is stopped or the timeout
// elapses. Remote failures and the local timeout are reported in the
// WaitResult; only fetch errors and context cancellation return an error.
func (p *Poller) Wait(ctx context.Context, taskID string, opts Options) (*entity.WaitResult, error) {
	opts = opts.withDefaults()
	log := p.logger.WithField("task_id", taskID)

	start := p.now()
	polls := 0

	for {
		elapsed := p.now().Sub(start)
		if elapsed >= opts.Timeout {
			result := &entity.WaitResult{
				TaskID:  taskID,
				State:   entity.PollStateTimedOut,
				Error:   msgTaskTimeout,
				Polls:   polls,
				Elapsed: elapsed,
			}
			log.Warn("Task timed out", "polls", polls, "timeout", opts.Timeout.String())
			p.finished(ctx, result)
			return result, nil
		}

		details, err := p.client.GetTaskDetails(ctx, taskID)
		if err != nil {
			log.Error("Task status fetch failed", "error", err, "polls", polls)
			p.abandoned(ctx, taskID, err)
			return nil, err
		}
		polls++

		log.Debug("Task status", "status", details.Status, "polls", polls)
		if p.progress != nil {
			p.progress.TaskPolled(ctx, details)
		}

		switch details.Status {
		case entity.TaskStatusFinished:
			result := &entity.WaitResult{
				TaskID:  taskID,
				State:   entity.PollStateSucceeded,
				Status:  details.Status,
				Output:  details.Output,
				Polls:   polls,
				Elapsed: p.now().Sub(start),
			}
			log.Info("Task finished", "polls", polls, "elapsedMs", result.Elapsed.Milliseconds())
			p.finished(ctx, result)
			return result, nil

		case entity.TaskStatusFailed, entity.TaskStatusStopped:
			msg := details.Error
			if msg == "" {
				msg = msgTaskFailed
			}
			result := &entity.WaitResult{
				TaskID:  taskID,
				State:   entity.PollStateFailed,
				Status:  details.Status,
				Error:   msg,
				Polls:   polls,
				Elapsed: p.now().Sub(start),
			}
			log.Warn("Task failed", "status", details.Status, "error", msg)
			p.finished(ctx, result)
			return result, nil
		}

		wait := opts.Interval
		if remaining := opts.Timeout - p.now().Sub(start); remaining < wait {
			wait = remaining
		}
		if wait > 0 {
			if err := p.sleep(ctx, wait); err != nil {
				log.Warn("Polling canceled", "error", err)
				p.abandoned(ctx, taskID, err)
				return nil, err
			}
		}
	}
}

func (p *Poller) finished(ctx context.Context, result *entity.WaitResult) {
	if p.progress != nil {
		p.progress.TaskFinished(ctx, result)
	}
}

func (p *Poller) abandoned(ctx context.Context, taskID string, err error) {
	if p.progress != nil {
		p.progress.TaskAbandoned(ctx, taskID, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
