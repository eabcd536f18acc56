package shopping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"shopping-agent/internal/domain/entity"

	"github.com/ysmood/gson"
)

var errEmptyOutput = errors.New("task finished without output")

// normalizeOutput returns the task output as a JSON document. The remote
// service sends either a structured value or the same value encoded as a
// JSON string.
func normalizeOutput(raw json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errEmptyOutput
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("unwrap string output: %w", err)
		}
		inner := bytes.TrimSpace([]byte(s))
		if len(inner) == 0 || bytes.Equal(inner, []byte("null")) {
			return nil, errEmptyOutput
		}
		if !json.Valid(inner) {
			return nil, fmt.Errorf("string output is not JSON: %q", truncate(s, 120))
		}
		return inner, nil
	}

	if !json.Valid(trimmed) {
		return nil, errors.New("output is not valid JSON")
	}
	return trimmed, nil
}

// readOutput normalizes raw and checks its structure against shape. Scalar
// fields of the wrong type are left for the field readers to default.
func readOutput(raw json.RawMessage, shape *OutputShape) (gson.JSON, error) {
	doc, err := normalizeOutput(raw)
	if err != nil {
		return gson.JSON{}, err
	}
	if _, err := shape.Check(doc); err != nil {
		return gson.JSON{}, err
	}
	return gson.New(doc), nil
}

func str(j gson.JSON, key string) string {
	if v, ok := j.Get(key).Val().(string); ok {
		return v
	}
	return ""
}

func text(j gson.JSON, key string) string {
	return stripMarkup(str(j, key))
}

// num also accepts prices written as text, like "$1,299.99".
func num(j gson.JSON, key string) (float64, bool) {
	switch v := j.Get(key).Val().(type) {
	case float64:
		return v, true
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// count reads a non-negative whole number, clamped to math.MaxInt32.
func count(j gson.JSON, key string) (int, bool) {
	v, ok := num(j, key)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	switch {
	case v < 0:
		return 0, true
	case v > math.MaxInt32:
		return math.MaxInt32, true
	}
	return int(v), true
}

func numOrZero(j gson.JSON, key string) float64 {
	v, _ := num(j, key)
	return v
}

func optNum(j gson.JSON, key string) *float64 {
	if v, ok := num(j, key); ok {
		return &v
	}
	return nil
}

func boolean(j gson.JSON, key string) bool {
	v, _ := j.Get(key).Val().(bool)
	return v
}

// decodeSearch returns at most maxResults products and the total count the
// service reported, or the uncapped product count when it reported none.
func decodeSearch(raw json.RawMessage, maxResults int) ([]entity.SearchProduct, int, error) {
	j, err := readOutput(raw, SearchShape)
	if err != nil {
		return nil, 0, err
	}

	items := j.Get("products").Arr()
	total := len(items)
	if v, ok := count(j, "total_results"); ok {
		total = v
	}

	products := make([]entity.SearchProduct, 0, min(len(items), maxResults))
	for _, item := range items {
		if len(products) == maxResults {
			break
		}
		products = append(products, entity.SearchProduct{
			Name:        text(item, "name"),
			Price:       numOrZero(item, "price"),
			URL:         str(item, "url"),
			Description: text(item, "description"),
			Rating:      optNum(item, "rating"),
			InStock:     boolean(item, "in_stock"),
		})
	}

	return products, total, nil
}

// storeOffer is one row of a price comparison before it becomes a Product.
type storeOffer struct {
	Store        string
	Total        float64
	URL          string
	Availability string
}

func decodeComparison(raw json.RawMessage) ([]storeOffer, error) {
	j, err := readOutput(raw, ComparisonShape)
	if err != nil {
		return nil, err
	}

	items := j.Get("comparisons").Arr()
	offers := make([]storeOffer, 0, len(items))
	for _, item := range items {
		total, ok := num(item, "total")
		if !ok {
			total = numOrZero(item, "price") + numOrZero(item, "shipping")
		}
		offers = append(offers, storeOffer{
			Store:        text(item, "store"),
			Total:        total,
			URL:          str(item, "url"),
			Availability: text(item, "availability"),
		})
	}

	return offers, nil
}

func decodePurchase(raw json.RawMessage) (*entity.PurchaseResult, error) {
	j, err := readOutput(raw, PurchaseShape)
	if err != nil {
		return nil, err
	}

	return &entity.PurchaseResult{
		Success:      boolean(j, "success"),
		OrderID:      str(j, "order_id"),
		TotalPaid:    optNum(j, "total_paid"),
		DeliveryDate: str(j, "delivery_date"),
		ErrorMessage: str(j, "error_message"),
	}, nil
}

func decodeTracking(raw json.RawMessage) (*entity.TrackingInfo, error) {
	j, err := readOutput(raw, TrackingShape)
	if err != nil {
		return nil, err
	}

	details := make(map[string]any)
	for k, v := range j.Map() {
		details[k] = v.Val()
	}

	return &entity.TrackingInfo{
		Status:            str(j, "status"),
		Location:          str(j, "location"),
		EstimatedDelivery: str(j, "estimated_delivery"),
		TrackingNumber:    str(j, "tracking_number"),
		Details:           details,
	}, nil
}

// inStock treats availability text as positive only when it says "in stock"
// without a negation.
func inStock(availability string) bool {
	a := strings.ToLower(availability)
	if strings.Contains(a, "out of stock") || strings.Contains(a, "not in stock") {
		return false
	}
	return strings.Contains(a, "in stock")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
