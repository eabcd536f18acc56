package output

import "shopping-agent/internal/domain/entity"

type HistoryStore interface {
	AppendSearch(record entity.SearchRecord)
	AppendPurchase(record entity.PurchaseRecord)
	Searches() []entity.SearchRecord
	Purchases() []entity.PurchaseRecord
	Summary() entity.ShoppingSummary
}
