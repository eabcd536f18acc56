package input

import (
	"context"

	"shopping-agent/internal/domain/entity"
)

// ShoppingAssistant never returns transport or remote errors from its
// operations: failures are reported inside the result types.
type ShoppingAssistant interface {
	Search(ctx context.Context, query string, maxResults int) *entity.SearchResult
	ComparePrices(ctx context.Context, productName string) []entity.Product
	Purchase(ctx context.Context, productURL string, user entity.UserInfo) *entity.PurchaseResult
	TrackOrder(ctx context.Context, orderID, storeURL string) *entity.TrackingInfo
	StopTask(ctx context.Context, taskID string) (*entity.StopAck, error)
	Summary() entity.ShoppingSummary
}
