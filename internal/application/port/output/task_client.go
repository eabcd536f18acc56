package output

import (
	"context"

	"shopping-agent/internal/domain/entity"
)

// OutputShape is the structured output a task is asked to produce.
type OutputShape interface {
	Name() string
	SchemaJSON() string
}

type TaskClientPort interface {
	CreateTask(ctx context.Context, instructions string, shape OutputShape) (string, error)
	GetTaskDetails(ctx context.Context, taskID string) (*entity.TaskDetails, error)
	StopTask(ctx context.Context, taskID string) (*entity.StopAck, error)
}

// ScreenshotSource lists and fetches the screenshots a remote task recorded.
type ScreenshotSource interface {
	ListScreenshots(ctx context.Context, taskID string) ([]string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}
