package shopping

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"shopping-agent/internal/application/port/output"

	"github.com/xeipuuv/gojsonschema"
)

var _ output.OutputShape = (*OutputShape)(nil)

// OutputShape describes the structured output requested from a task. The
// same schema is sent to the remote service and used to check its reply.
// Fields are optional and nullable: absent values and scalar fields of the
// wrong type are default-filled on decode. A document whose structure does
// not match (root, list or list item of the wrong type) is a decode error.
type OutputShape struct {
	name       string
	raw        string
	compiled   *gojsonschema.Schema
	containers map[string]bool
}

func mustOutputShape(name string, schema map[string]any) *OutputShape {
	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("output shape %s: %v", name, err))
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("output shape %s: %v", name, err))
	}

	containers := make(map[string]bool)
	if props, ok := schema["properties"].(map[string]any); ok {
		for key, prop := range props {
			if p, ok := prop.(map[string]any); ok && p["items"] != nil {
				containers[key] = true
			}
		}
	}

	return &OutputShape{
		name:       name,
		raw:        string(data),
		compiled:   compiled,
		containers: containers,
	}
}

func (s *OutputShape) Name() string {
	return s.name
}

func (s *OutputShape) SchemaJSON() string {
	return s.raw
}

// Validate rejects any deviation from the shape.
func (s *OutputShape) Validate(doc []byte) error {
	fieldIssues, err := s.Check(doc)
	if err != nil {
		return err
	}
	if len(fieldIssues) > 0 {
		return fmt.Errorf("%s output does not match shape: %s", s.name, strings.Join(fieldIssues, "; "))
	}
	return nil
}

// Check fails only on structural mismatches. Scalar fields of the wrong
// type are returned as issues; decoding default-fills them.
func (s *OutputShape) Check(doc []byte) ([]string, error) {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate %s output: %w", s.name, err)
	}
	if result.Valid() {
		return nil, nil
	}

	var fieldIssues, structural []string
	for _, e := range result.Errors() {
		if s.isScalarField(e) {
			fieldIssues = append(fieldIssues, e.String())
		} else {
			structural = append(structural, e.String())
		}
	}
	if len(structural) > 0 {
		return nil, fmt.Errorf("%s output does not match shape: %s", s.name, strings.Join(structural, "; "))
	}
	return fieldIssues, nil
}

// isScalarField reports whether e is a type mismatch of a named field that
// is not a list, e.g. "price" or "products.1.price".
func (s *OutputShape) isScalarField(e gojsonschema.ResultError) bool {
	if e.Type() != "invalid_type" {
		return false
	}
	segments := strings.Split(e.Field(), ".")
	last := segments[len(segments)-1]
	if last == "" || last == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		return false
	}
	if _, err := strconv.Atoi(last); err == nil {
		return false
	}
	return !(len(segments) == 1 && s.containers[last])
}

func object(properties map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}}
}

func nullableArray(items map[string]any) map[string]any {
	return map[string]any{
		"type":  []string{"array", "null"},
		"items": items,
	}
}

var (
	SearchShape = mustOutputShape("search", object(map[string]any{
		"products": nullableArray(object(map[string]any{
			"name":        nullable("string"),
			"price":       nullable("number"),
			"url":         nullable("string"),
			"description": nullable("string"),
			"rating":      nullable("number"),
			"in_stock":    nullable("boolean"),
		})),
		"total_results": nullable("integer"),
	}))

	ComparisonShape = mustOutputShape("comparison", object(map[string]any{
		"comparisons": nullableArray(object(map[string]any{
			"store":        nullable("string"),
			"price":        nullable("number"),
			"shipping":     nullable("number"),
			"total":        nullable("number"),
			"url":          nullable("string"),
			"availability": nullable("string"),
		})),
	}))

	PurchaseShape = mustOutputShape("purchase", object(map[string]any{
		"success":       nullable("boolean"),
		"order_id":      nullable("string"),
		"total_paid":    nullable("number"),
		"delivery_date": nullable("string"),
		"error_message": nullable("string"),
	}))

	TrackingShape = mustOutputShape("tracking", object(map[string]any{
		"status":             nullable("string"),
		"location":           nullable("string"),
		"estimated_delivery": nullable("string"),
		"tracking_number":    nullable("string"),
	}))
)
