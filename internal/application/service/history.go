package service

import (
	"sync"

	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"
)

var _ output.HistoryStore = (*HistoryTracker)(nil)

// HistoryTracker keeps the in-memory, append-only shopping history of one
// assistant instance.
type HistoryTracker struct {
	mu        sync.RWMutex
	searches  []entity.SearchRecord
	purchases []entity.PurchaseRecord
}

func NewHistoryTracker() *HistoryTracker {
	return &HistoryTracker{}
}

func (h *HistoryTracker) AppendSearch(record entity.SearchRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.searches = append(h.searches, record)
}

func (h *HistoryTracker) AppendPurchase(record entity.PurchaseRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.purchases = append(h.purchases, record)
}

func (h *HistoryTracker) Searches() []entity.SearchRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]entity.SearchRecord, len(h.searches))
	copy(result, h.searches)
	return result
}

func (h *HistoryTracker) Purchases() []entity.PurchaseRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]entity.PurchaseRecord, len(h.purchases))
	copy(result, h.purchases)
	return result
}

// Summary aggregates the history. Purchases without an amount count as zero.
func (h *HistoryTracker) Summary() entity.ShoppingSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	summary := entity.ShoppingSummary{
		SearchesPerformed: len(h.searches),
		PurchasesMade:     len(h.purchases),
	}

	for _, p := range h.purchases {
		if p.Amount != nil {
			summary.TotalSpent += *p.Amount
		}
	}

	if n := len(h.searches); n > 0 {
		last := h.searches[n-1]
		summary.LastSearch = &last
	}
	if n := len(h.purchases); n > 0 {
		last := h.purchases[n-1]
		if last.Amount != nil {
			amount := *last.Amount
			last.Amount = &amount
		}
		summary.LastPurchase = &last
	}

	return summary
}
