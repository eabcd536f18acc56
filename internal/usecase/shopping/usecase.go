package shopping

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"shopping-agent/internal/application/port/input"
	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"
	"shopping-agent/internal/infrastructure/prompts"
	"shopping-agent/internal/usecase/poller"

	"github.com/google/uuid"
)

var _ input.ShoppingAssistant = (*Assistant)(nil)

const (
	DefaultMaxResults      = 5
	DefaultPurchaseTimeout = 180 * time.Second

	opSearch   = "search"
	opCompare  = "compare_prices"
	opPurchase = "purchase"
	opTrack    = "track_order"

	msgPurchaseFailed = "Purchase failed"
	msgTrackFailed    = "Could not track order"

	stopTimeout = 10 * time.Second
)

var DefaultStores = []string{"Amazon", "Best Buy", "Walmart", "Target"}

type Config struct {
	SearchMaxResults int
	PollInterval     time.Duration
	Timeout          time.Duration
	PurchaseTimeout  time.Duration
	// StopOnTimeout asks the remote service to stop a task the poller gave up on.
	StopOnTimeout bool
	Stores        []string
}

func DefaultConfig() Config {
	return Config{
		SearchMaxResults: DefaultMaxResults,
		PollInterval:     poller.DefaultInterval,
		Timeout:          poller.DefaultTimeout,
		PurchaseTimeout:  DefaultPurchaseTimeout,
		Stores:           DefaultStores,
	}
}

// Waiter blocks until a remote task reaches a terminal state.
type Waiter interface {
	Wait(ctx context.Context, taskID string, opts poller.Options) (*entity.WaitResult, error)
}

// Assistant runs shopping operations as remote browser tasks.
type Assistant struct {
	cfg      Config
	client   output.TaskClientPort
	waiter   Waiter
	history  output.HistoryStore
	progress output.ProgressPort
	logger   output.LoggerPort

	receipts    output.ReceiptStore
	screenshots output.ScreenshotSource

	now func() time.Time
}

func New(
	cfg Config,
	client output.TaskClientPort,
	waiter Waiter,
	history output.HistoryStore,
	progress output.ProgressPort,
	logger output.LoggerPort,
) *Assistant {
	if cfg.SearchMaxResults <= 0 {
		cfg.SearchMaxResults = DefaultMaxResults
	}
	if cfg.PurchaseTimeout <= 0 {
		cfg.PurchaseTimeout = DefaultPurchaseTimeout
	}
	if len(cfg.Stores) == 0 {
		cfg.Stores = DefaultStores
	}

	return &Assistant{
		cfg:      cfg,
		client:   client,
		waiter:   waiter,
		history:  history,
		progress: progress,
		logger:   logger,
		now:      time.Now,
	}
}

// WithReceipts enables saving the last task screenshot of every successful
// purchase.
func (a *Assistant) WithReceipts(store output.ReceiptStore, screenshots output.ScreenshotSource) *Assistant {
	a.receipts = store
	a.screenshots = screenshots
	return a
}

func (a *Assistant) Search(ctx context.Context, query string, maxResults int) *entity.SearchResult {
	result, err := a.trySearch(ctx, query, maxResults)
	if err != nil {
		a.logger.Error("Search failed", "query", query, "error", err)
		return &entity.SearchResult{Products: []entity.SearchProduct{}}
	}
	return result
}

func (a *Assistant) trySearch(ctx context.Context, query string, maxResults int) (*entity.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = a.cfg.SearchMaxResults
	}
	a.logger.Info("Searching products", "query", query, "maxResults", maxResults)

	instructions, err := a.render(opSearch, prompts.SearchInstructions, map[string]any{
		"query":       query,
		"max_results": maxResults,
	})
	if err != nil {
		return nil, err
	}

	start := a.now()
	res, err := a.run(ctx, opSearch, instructions, SearchShape, a.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	products, total, err := decodeSearch(res.Output, maxResults)
	if err != nil {
		return nil, decodeError(opSearch, err)
	}

	result := &entity.SearchResult{
		Products:     products,
		SearchTime:   a.now().Sub(start),
		TotalResults: total,
	}

	a.history.AppendSearch(entity.SearchRecord{
		ID:           uuid.NewString(),
		Query:        query,
		Timestamp:    a.now(),
		ResultsCount: len(products),
	})

	a.logger.Info("Search completed", "query", query, "products", len(products), "total", total)
	return result, nil
}

func (a *Assistant) ComparePrices(ctx context.Context, productName string) []entity.Product {
	products, err := a.tryComparePrices(ctx, productName)
	if err != nil {
		a.logger.Error("Price comparison failed", "product", productName, "error", err)
		return []entity.Product{}
	}
	return products
}

func (a *Assistant) tryComparePrices(ctx context.Context, productName string) ([]entity.Product, error) {
	a.logger.Info("Comparing prices", "product", productName, "stores", len(a.cfg.Stores))

	instructions, err := a.render(opCompare, prompts.CompareInstructions, map[string]any{
		"product": productName,
		"stores":  a.cfg.Stores,
	})
	if err != nil {
		return nil, err
	}

	res, err := a.run(ctx, opCompare, instructions, ComparisonShape, a.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	offers, err := decodeComparison(res.Output)
	if err != nil {
		return nil, decodeError(opCompare, err)
	}

	products := make([]entity.Product, 0, len(offers))
	for _, o := range offers {
		products = append(products, entity.Product{
			Name:        productName,
			Price:       o.Total,
			URL:         o.URL,
			Description: fmt.Sprintf("From %s - %s", o.Store, o.Availability),
			InStock:     inStock(o.Availability),
		})
	}

	slices.SortStableFunc(products, func(x, y entity.Product) int {
		switch {
		case x.Price < y.Price:
			return -1
		case x.Price > y.Price:
			return 1
		}
		return 0
	})

	return products, nil
}

func (a *Assistant) Purchase(ctx context.Context, productURL string, user entity.UserInfo) *entity.PurchaseResult {
	result, err := a.tryPurchase(ctx, productURL, user)
	if err != nil {
		a.logger.Error("Purchase failed", "url", productURL, "error", err)

		var opErr *entity.OperationError
		if errors.As(err, &opErr) && unfinished(opErr.Kind) {
			msg := opErr.Message
			if msg == "" {
				msg = msgPurchaseFailed
			}
			return &entity.PurchaseResult{ErrorMessage: msg}
		}
		return &entity.PurchaseResult{ErrorMessage: err.Error()}
	}
	return result
}

func (a *Assistant) tryPurchase(ctx context.Context, productURL string, user entity.UserInfo) (*entity.PurchaseResult, error) {
	a.logger.Warn("Purchase automation initiated: this would complete a real purchase in production", "url", productURL)

	instructions, err := a.render(opPurchase, prompts.PurchaseInstructions, map[string]any{
		"url":     productURL,
		"name":    user.Name,
		"address": user.Address,
		"email":   user.Email,
	})
	if err != nil {
		return nil, err
	}

	res, err := a.run(ctx, opPurchase, instructions, PurchaseShape, a.cfg.PurchaseTimeout)
	if err != nil {
		return nil, err
	}

	result, err := decodePurchase(res.Output)
	if err != nil {
		return nil, decodeError(opPurchase, err)
	}

	if !result.Success {
		a.logger.Warn("Purchase reported unsuccessful", "url", productURL, "message", result.ErrorMessage)
		return result, nil
	}

	a.history.AppendPurchase(entity.PurchaseRecord{
		ID:        uuid.NewString(),
		OrderID:   result.OrderID,
		Amount:    result.TotalPaid,
		Timestamp: a.now(),
		URL:       productURL,
	})
	a.logger.Info("Purchase completed", "orderID", result.OrderID, "url", productURL)

	a.saveReceipt(ctx, res.TaskID, productURL, result)
	return result, nil
}

func (a *Assistant) TrackOrder(ctx context.Context, orderID, storeURL string) *entity.TrackingInfo {
	info, err := a.tryTrackOrder(ctx, orderID, storeURL)
	if err != nil {
		a.logger.Error("Order tracking failed", "orderID", orderID, "error", err)

		if kind, _ := entity.KindOf(err); unfinished(kind) {
			return &entity.TrackingInfo{Error: msgTrackFailed}
		}
		return &entity.TrackingInfo{Error: err.Error()}
	}
	return info
}

func (a *Assistant) tryTrackOrder(ctx context.Context, orderID, storeURL string) (*entity.TrackingInfo, error) {
	a.logger.Info("Tracking order", "orderID", orderID, "store", storeURL)

	instructions, err := a.render(opTrack, prompts.TrackInstructions, map[string]any{
		"order_id":  orderID,
		"store_url": storeURL,
	})
	if err != nil {
		return nil, err
	}

	res, err := a.run(ctx, opTrack, instructions, TrackingShape, a.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	info, err := decodeTracking(res.Output)
	if err != nil {
		return nil, decodeError(opTrack, err)
	}
	return info, nil
}

func (a *Assistant) StopTask(ctx context.Context, taskID string) (*entity.StopAck, error) {
	ack, err := a.client.StopTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("stop task %s: %w", taskID, err)
	}
	a.logger.Info("Task stopped", "taskID", taskID)
	return ack, nil
}

func (a *Assistant) Summary() entity.ShoppingSummary {
	return a.history.Summary()
}

// run creates a task and waits for it. The returned error is always an
// *entity.OperationError.
func (a *Assistant) run(ctx context.Context, op, instructions string, shape *OutputShape, timeout time.Duration) (*entity.WaitResult, error) {
	taskID, err := a.client.CreateTask(ctx, instructions, shape)
	if err != nil {
		return nil, callError(op, err)
	}

	a.logger.Info("Task created", "op", op, "taskID", taskID)
	if a.progress != nil {
		a.progress.TaskCreated(ctx, op, taskID)
	}

	res, err := a.waiter.Wait(ctx, taskID, poller.Options{
		Interval: a.cfg.PollInterval,
		Timeout:  timeout,
	})
	if err != nil {
		return nil, callError(op, err)
	}

	switch res.State {
	case entity.PollStateSucceeded:
		return res, nil
	case entity.PollStateTimedOut:
		if a.cfg.StopOnTimeout {
			a.stopAfterTimeout(ctx, taskID)
		}
		return res, &entity.OperationError{Op: op, Kind: entity.ErrorKindTimeout, Message: res.Error}
	default:
		return res, &entity.OperationError{Op: op, Kind: entity.ErrorKindRemoteFailure, Message: res.Error}
	}
}

func (a *Assistant) stopAfterTimeout(ctx context.Context, taskID string) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()

	if _, err := a.client.StopTask(stopCtx, taskID); err != nil {
		a.logger.Warn("Failed to stop timed out task", "taskID", taskID, "error", err)
		return
	}
	a.logger.Info("Stopped timed out task", "taskID", taskID)
}

func (a *Assistant) saveReceipt(ctx context.Context, taskID, productURL string, result *entity.PurchaseResult) {
	if a.receipts == nil {
		return
	}

	receipt := entity.Receipt{
		OrderID:      result.OrderID,
		TaskID:       taskID,
		ProductURL:   productURL,
		TotalPaid:    result.TotalPaid,
		DeliveryDate: result.DeliveryDate,
		CreatedAt:    a.now(),
	}
	if receipt.OrderID == "" {
		receipt.OrderID = taskID
	}

	if a.screenshots != nil {
		urls, err := a.screenshots.ListScreenshots(ctx, taskID)
		if err != nil {
			a.logger.Warn("Failed to list task screenshots", "taskID", taskID, "error", err)
		} else if len(urls) > 0 {
			img, err := a.screenshots.Download(ctx, urls[len(urls)-1])
			if err != nil {
				a.logger.Warn("Failed to download screenshot", "taskID", taskID, "error", err)
			} else {
				receipt.Image = img
			}
		}
	}

	path, err := a.receipts.Save(ctx, receipt)
	if err != nil {
		a.logger.Warn("Failed to save receipt", "orderID", receipt.OrderID, "error", err)
		return
	}
	a.logger.Info("Receipt saved", "orderID", receipt.OrderID, "path", path)
}

func (a *Assistant) render(op, template string, values map[string]any) (string, error) {
	out, err := prompts.Render(template, values)
	if err != nil {
		return "", &entity.OperationError{Op: op, Kind: entity.ErrorKindDecode, Message: "render instructions", Err: err}
	}
	return out, nil
}

// unfinished reports whether the remote task itself did not complete, as
// opposed to a local transport or decode problem.
func unfinished(kind entity.ErrorKind) bool {
	return kind == entity.ErrorKindRemoteFailure || kind == entity.ErrorKindTimeout
}

func callError(op string, err error) *entity.OperationError {
	kind := entity.ErrorKindTransport
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = entity.ErrorKindCanceled
	}
	return &entity.OperationError{Op: op, Kind: kind, Message: err.Error(), Err: err}
}

func decodeError(op string, err error) *entity.OperationError {
	return &entity.OperationError{
		Op:      op,
		Kind:    entity.ErrorKindDecode,
		Message: strings.TrimSpace(err.Error()),
		Err:     err,
	}
}
