package intent

import (
	"context"
	"errors"
	"testing"

	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"
	"shopping-agent/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssistant struct {
	searchResult *entity.SearchResult
	products     []entity.Product
	tracking     *entity.TrackingInfo
	summary      entity.ShoppingSummary

	searched  []string
	compared  []string
	tracked   [][2]string
	purchases int
}

func (f *fakeAssistant) Search(ctx context.Context, query string, maxResults int) *entity.SearchResult {
	f.searched = append(f.searched, query)
	if f.searchResult == nil {
		return &entity.SearchResult{Products: []entity.SearchProduct{}}
	}
	return f.searchResult
}

func (f *fakeAssistant) ComparePrices(ctx context.Context, productName string) []entity.Product {
	f.compared = append(f.compared, productName)
	return f.products
}

func (f *fakeAssistant) Purchase(ctx context.Context, productURL string, user entity.UserInfo) *entity.PurchaseResult {
	f.purchases++
	return &entity.PurchaseResult{}
}

func (f *fakeAssistant) TrackOrder(ctx context.Context, orderID, storeURL string) *entity.TrackingInfo {
	f.tracked = append(f.tracked, [2]string{orderID, storeURL})
	return f.tracking
}

func (f *fakeAssistant) StopTask(ctx context.Context, taskID string) (*entity.StopAck, error) {
	return &entity.StopAck{TaskID: taskID}, nil
}

func (f *fakeAssistant) Summary() entity.ShoppingSummary {
	return f.summary
}

type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &output.ChatResponse{Message: entity.Message{Role: entity.RoleAssistant, Content: f.reply}}, nil
}

func TestHandle_EmptyMessage(t *testing.T) {
	r := New(&fakeAssistant{}, nil, logger.NewNop())

	_, err := r.Handle(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestHandle_KeywordSearch(t *testing.T) {
	assistant := &fakeAssistant{searchResult: &entity.SearchResult{
		Products: []entity.SearchProduct{{Name: "A"}, {Name: "B"}},
	}}
	r := New(assistant, nil, logger.NewNop())

	reply, err := r.Handle(context.Background(), "Find me some wireless headphones")
	require.NoError(t, err)

	assert.Equal(t, entity.IntentSearch, reply.Intent)
	assert.Equal(t, []string{"headphones"}, assistant.searched)
	assert.Equal(t, "I found 2 options for headphones. Here are the top results...", reply.Response)
}

func TestHandle_PurchaseNeverBuys(t *testing.T) {
	assistant := &fakeAssistant{searchResult: &entity.SearchResult{
		Products: []entity.SearchProduct{
			{Name: "Out", Price: 10, URL: "u1"},
			{Name: "Chair X", Price: 199, URL: "https://shop.example/chair", InStock: true},
		},
	}}
	r := New(assistant, nil, logger.NewNop())

	reply, err := r.Handle(context.Background(), "I want to buy a gaming chair")
	require.NoError(t, err)

	assert.Equal(t, entity.IntentPurchase, reply.Intent)
	assert.Zero(t, assistant.purchases)
	assert.Contains(t, reply.Response, "Chair X")
	assert.Contains(t, reply.Response, "https://shop.example/chair")

	data, ok := reply.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Chair X", data["candidate"].(entity.SearchProduct).Name)
}

func TestHandle_PriceCheck(t *testing.T) {
	assistant := &fakeAssistant{products: []entity.Product{
		{Price: 99, Description: "From Walmart - In Stock"},
		{Price: 120, Description: "From Amazon - In Stock"},
	}}
	r := New(assistant, nil, logger.NewNop())

	reply, err := r.Handle(context.Background(), "How much does a monitor cost?")
	require.NoError(t, err)

	assert.Equal(t, entity.IntentPriceCheck, reply.Intent)
	assert.Equal(t, []string{"monitor"}, assistant.compared)
	assert.Equal(t, "Price range for monitor: $99.00 - $120.00. Best offer: From Walmart - In Stock.", reply.Response)
}

func TestHandle_Track(t *testing.T) {
	assistant := &fakeAssistant{tracking: &entity.TrackingInfo{Status: "shipped", Location: "Memphis"}}
	r := New(assistant, nil, logger.NewNop())

	reply, err := r.Handle(context.Background(), "Track order ORD-12345 at https://shop.example/orders")
	require.NoError(t, err)

	assert.Equal(t, entity.IntentTrack, reply.Intent)
	require.Len(t, assistant.tracked, 1)
	assert.Equal(t, [2]string{"ORD-12345", "https://shop.example/orders"}, assistant.tracked[0])
	assert.Equal(t, "Order ORD-12345 is shipped at Memphis.", reply.Response)
}

func TestHandle_TrackAsksForMissingDetails(t *testing.T) {
	assistant := &fakeAssistant{}
	r := New(assistant, nil, logger.NewNop())

	reply, err := r.Handle(context.Background(), "what's my order status?")
	require.NoError(t, err)
	assert.Equal(t, "Please tell me the order ID you want to track.", reply.Response)

	reply, err = r.Handle(context.Background(), "track order 112-4455")
	require.NoError(t, err)
	assert.Contains(t, reply.Response, "Which store is order 112-4455 from?")
	assert.Empty(t, assistant.tracked)
}

func TestHandle_Summary(t *testing.T) {
	assistant := &fakeAssistant{summary: entity.ShoppingSummary{SearchesPerformed: 2, PurchasesMade: 1, TotalSpent: 49.99}}
	r := New(assistant, nil, logger.NewNop())

	reply, err := r.Handle(context.Background(), "How much have I spent so far?")
	require.NoError(t, err)

	assert.Equal(t, entity.IntentSummary, reply.Intent)
	assert.Equal(t, "You've performed 2 searches and made 1 purchases, spending $49.99 in total.", reply.Response)
}

func TestHandle_General(t *testing.T) {
	r := New(&fakeAssistant{}, nil, logger.NewNop())

	reply, err := r.Handle(context.Background(), "hello there")
	require.NoError(t, err)

	assert.Equal(t, entity.IntentGeneral, reply.Intent)
	assert.Equal(t, msgGeneral, reply.Response)
}

func TestHandle_UsesLLMClassification(t *testing.T) {
	llm := &fakeLLM{reply: "Sure!\n```json\n{\"intent\":\"price_check\",\"product\":\"Sony WH-1000XM5\"}\n```"}
	assistant := &fakeAssistant{}
	r := New(assistant, llm, logger.NewNop())

	reply, err := r.Handle(context.Background(), "is the sony xm5 worth it")
	require.NoError(t, err)

	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, entity.IntentPriceCheck, reply.Intent)
	assert.Equal(t, []string{"Sony WH-1000XM5"}, assistant.compared)
}

func TestHandle_LLMFallbackToKeywords(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"llm error", &fakeLLM{err: errors.New("rate limited")}},
		{"no json", &fakeLLM{reply: "I think they want to search"}},
		{"unknown intent", &fakeLLM{reply: `{"intent":"dance"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := &fakeAssistant{}
			r := New(assistant, tt.llm, logger.NewNop())

			reply, err := r.Handle(context.Background(), "search for a laptop")
			require.NoError(t, err)

			assert.Equal(t, entity.IntentSearch, reply.Intent)
			assert.Equal(t, []string{"laptop"}, assistant.searched)
		})
	}
}

func TestExtractProduct(t *testing.T) {
	assert.Equal(t, "coffee maker", extractProduct("Find a Coffee Maker please"))
	assert.Equal(t, "mechanical keyboard", extractProduct("search for a mechanical keyboard!"))
	assert.Equal(t, fallbackProduct, extractProduct("find me some"))
}

func TestExtractOrderID(t *testing.T) {
	assert.Equal(t, "ORD-1", extractOrderID("track order #ORD-1"))
	assert.Equal(t, "42", extractOrderID("order id: 42 please"))
	assert.Equal(t, "A1B2C3", extractOrderID("where is A1B2C3"))
	assert.Empty(t, extractOrderID("track my order status"))
}
