package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopping-agent/internal/application/port/input"
	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"
)

var _ input.ChatHandler = (*Router)(nil)

var ErrEmptyMessage = errors.New("message required")

const (
	defaultMaxResults = 3

	msgGeneral = "I can help you search for products, check prices, track orders, or prepare purchases. What would you like to do?"
)

// Router answers free-form chat messages by mapping them to a shopping
// operation. It never completes a purchase on its own.
type Router struct {
	assistant  input.ShoppingAssistant
	llm        output.LLMPort
	logger     output.LoggerPort
	maxResults int
}

// New creates a Router. llm may be nil, in which case only keyword rules
// are used.
func New(assistant input.ShoppingAssistant, llm output.LLMPort, logger output.LoggerPort) *Router {
	return &Router{
		assistant:  assistant,
		llm:        llm,
		logger:     logger,
		maxResults: defaultMaxResults,
	}
}

func (r *Router) Handle(ctx context.Context, message string) (*entity.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	intent := r.classify(ctx, message)
	r.logger.Info("Handling chat message", "intent", intent.Type, "product", intent.Product)

	switch intent.Type {
	case entity.IntentSearch:
		return r.handleSearch(ctx, intent), nil
	case entity.IntentPriceCheck:
		return r.handlePriceCheck(ctx, intent), nil
	case entity.IntentPurchase:
		return r.handlePurchase(ctx, intent), nil
	case entity.IntentTrack:
		return r.handleTrack(ctx, intent), nil
	case entity.IntentSummary:
		return r.handleSummary(), nil
	default:
		return &entity.ChatReply{Intent: entity.IntentGeneral, Response: msgGeneral}, nil
	}
}

func (r *Router) handleSearch(ctx context.Context, intent entity.Intent) *entity.ChatReply {
	result := r.assistant.Search(ctx, intent.Product, r.maxResults)

	reply := &entity.ChatReply{Intent: intent.Type, Data: result}
	if len(result.Products) == 0 {
		reply.Response = fmt.Sprintf("I couldn't find any options for %s right now.", intent.Product)
		return reply
	}
	reply.Response = fmt.Sprintf("I found %d options for %s. Here are the top results...", len(result.Products), intent.Product)
	return reply
}

func (r *Router) handlePriceCheck(ctx context.Context, intent entity.Intent) *entity.ChatReply {
	products := r.assistant.ComparePrices(ctx, intent.Product)

	reply := &entity.ChatReply{Intent: intent.Type, Data: products}
	if len(products) == 0 {
		reply.Response = fmt.Sprintf("I couldn't compare prices for %s right now.", intent.Product)
		return reply
	}

	lowest, highest := products[0], products[len(products)-1]
	reply.Response = fmt.Sprintf("Price range for %s: $%.2f - $%.2f. Best offer: %s.",
		intent.Product, lowest.Price, highest.Price, lowest.Description)
	return reply
}

// handlePurchase proposes the best in-stock candidate; buying requires an
// explicit purchase request with the product URL.
func (r *Router) handlePurchase(ctx context.Context, intent entity.Intent) *entity.ChatReply {
	result := r.assistant.Search(ctx, intent.Product, r.maxResults)

	reply := &entity.ChatReply{Intent: intent.Type}
	candidate, ok := pickCandidate(result.Products)
	if !ok {
		reply.Response = fmt.Sprintf("I couldn't find %s to buy right now.", intent.Product)
		reply.Data = result
		return reply
	}

	reply.Response = fmt.Sprintf("I found %s for $%.2f. To buy it, send a purchase request with %s and your shipping details.",
		candidate.Name, candidate.Price, candidate.URL)
	reply.Data = map[string]any{
		"candidate": candidate,
		"results":   result,
	}
	return reply
}

func (r *Router) handleTrack(ctx context.Context, intent entity.Intent) *entity.ChatReply {
	reply := &entity.ChatReply{Intent: intent.Type}

	if intent.OrderID == "" {
		reply.Response = "Please tell me the order ID you want to track."
		return reply
	}
	if intent.StoreURL == "" {
		reply.Response = fmt.Sprintf("Which store is order %s from? Please include the store URL.", intent.OrderID)
		return reply
	}

	info := r.assistant.TrackOrder(ctx, intent.OrderID, intent.StoreURL)
	reply.Data = info

	if info.Error != "" {
		reply.Response = fmt.Sprintf("I couldn't track order %s: %s", intent.OrderID, info.Error)
		return reply
	}

	parts := []string{fmt.Sprintf("Order %s", intent.OrderID)}
	if info.Status != "" {
		parts = append(parts, "is "+info.Status)
	}
	if info.Location != "" {
		parts = append(parts, "at "+info.Location)
	}
	if info.EstimatedDelivery != "" {
		parts = append(parts, "(estimated delivery "+info.EstimatedDelivery+")")
	}
	reply.Response = strings.Join(parts, " ") + "."
	return reply
}

func (r *Router) handleSummary() *entity.ChatReply {
	summary := r.assistant.Summary()
	return &entity.ChatReply{
		Intent: entity.IntentSummary,
		Response: fmt.Sprintf("You've performed %d searches and made %d purchases, spending $%.2f in total.",
			summary.SearchesPerformed, summary.PurchasesMade, summary.TotalSpent),
		Data: summary,
	}
}

func pickCandidate(products []entity.SearchProduct) (entity.SearchProduct, bool) {
	if len(products) == 0 {
		return entity.SearchProduct{}, false
	}
	for _, p := range products {
		if p.InStock {
			return p, true
		}
	}
	return products[0], true
}
