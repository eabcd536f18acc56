package output

import (
	"context"

	"shopping-agent/internal/domain/entity"
)

type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Temperature float32
	// JSON asks the model for a single JSON object reply.
	JSON bool
}

type ChatResponse struct {
	Message entity.Message
}
