package output

import (
	"context"

	"shopping-agent/internal/domain/entity"
)

type ReceiptStore interface {
	Save(ctx context.Context, receipt entity.Receipt) (string, error)
}
