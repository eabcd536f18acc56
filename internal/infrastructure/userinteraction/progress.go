package userinteraction

import (
	"context"
	"io"
	"sync"

	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"

	"github.com/fatih/color"
)

var (
	_ output.ProgressPort = (*ConsoleProgress)(nil)
	_ output.ProgressPort = (MultiProgress)(nil)
)

// ConsoleProgress prints task status and the current step of every poll.
type ConsoleProgress struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleProgress(out io.Writer) *ConsoleProgress {
	if out == nil {
		out = color.Output
	}
	return &ConsoleProgress{out: out}
}

func (p *ConsoleProgress) TaskCreated(ctx context.Context, op, taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	color.New(color.FgCyan).Fprintf(p.out, "📋 Task created: %s (%s)\n", taskID, op)
}

func (p *ConsoleProgress) TaskPolled(ctx context.Context, details *entity.TaskDetails) {
	p.mu.Lock()
	defer p.mu.Unlock()

	color.New(color.Faint).Fprintf(p.out, "Task status: %s\n", details.Status)
	if goal, ok := details.CurrentGoal(); ok {
		color.New(color.FgBlue).Fprintf(p.out, "Current step: %s\n", truncate(goal, 200))
	}
}

func (p *ConsoleProgress) TaskFinished(ctx context.Context, result *entity.WaitResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch result.State {
	case entity.PollStateSucceeded:
		color.New(color.FgGreen).Fprintf(p.out, "✓ Task %s finished after %d polls\n", result.TaskID, result.Polls)
	default:
		color.New(color.FgRed).Fprintf(p.out, "❌ Task %s: %s\n", result.TaskID, result.Error)
	}
}

func (p *ConsoleProgress) TaskAbandoned(ctx context.Context, taskID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	color.New(color.FgRed).Fprintf(p.out, "❌ Task %s: polling stopped: %v\n", taskID, err)
}

// MultiProgress fans every event out to all observers in order.
type MultiProgress []output.ProgressPort

// NewMultiProgress drops nil observers and returns nil when none remain.
func NewMultiProgress(observers ...output.ProgressPort) output.ProgressPort {
	var m MultiProgress
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

func (m MultiProgress) TaskCreated(ctx context.Context, op, taskID string) {
	for _, o := range m {
		o.TaskCreated(ctx, op, taskID)
	}
}

func (m MultiProgress) TaskPolled(ctx context.Context, details *entity.TaskDetails) {
	for _, o := range m {
		o.TaskPolled(ctx, details)
	}
}

func (m MultiProgress) TaskFinished(ctx context.Context, result *entity.WaitResult) {
	for _, o := range m {
		o.TaskFinished(ctx, result)
	}
}

func (m MultiProgress) TaskAbandoned(ctx context.Context, taskID string, err error) {
	for _, o := range m {
		o.TaskAbandoned(ctx, taskID, err)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
