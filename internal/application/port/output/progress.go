package output

import (
	"context"

	"shopping-agent/internal/domain/entity"
)

// ProgressPort is the observability side channel of task polling.
// Observers are called on the polling goroutine and must not block.
type ProgressPort interface {
	TaskCreated(ctx context.Context, op, taskID string)
	TaskPolled(ctx context.Context, details *entity.TaskDetails)
	TaskFinished(ctx context.Context, result *entity.WaitResult)
	// TaskAbandoned ends polling without a WaitResult: the status fetch
	// failed or ctx was canceled.
	TaskAbandoned(ctx context.Context, taskID string, err error)
}
