package input

import (
	"context"

	"shopping-agent/internal/domain/entity"
)

type ChatHandler interface {
	Handle(ctx context.Context, message string) (*entity.ChatReply, error)
}
