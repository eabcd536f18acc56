package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"
	"shopping-agent/internal/infrastructure/prompts"
)

const fallbackProduct = "general item"

var knownProducts = []string{"headphones", "laptop", "coffee maker", "gaming chair", "monitor"}

var keywordRules = []struct {
	intent   entity.IntentType
	keywords []string
}{
	{entity.IntentSearch, []string{"search", "find"}},
	{entity.IntentTrack, []string{"track", "order status", "where is my order"}},
	{entity.IntentPurchase, []string{"buy", "purchase"}},
	{entity.IntentPriceCheck, []string{"price", "cost", "compare"}},
	{entity.IntentSummary, []string{"summary", "history", "spent"}},
}

var fillerWords = map[string]bool{
	"search": true, "find": true, "buy": true, "purchase": true, "price": true,
	"prices": true, "cost": true, "costs": true, "compare": true, "for": true,
	"me": true, "a": true, "an": true, "the": true, "some": true, "please": true,
	"i": true, "want": true, "to": true, "need": true, "of": true, "on": true,
	"how": true, "much": true, "is": true, "does": true, "what": true,
	"can": true, "you": true, "could": true, "would": true, "like": true,
	"check": true, "get": true, "new": true,
}

var (
	urlPattern     = regexp.MustCompile(`https?://[^\s,]+`)
	orderIDPattern = regexp.MustCompile(`(?i)\b(?:order\s*(?:id|#|number)?\s*[:#]?\s*)([A-Za-z0-9-]*\d[A-Za-z0-9-]*)\b`)
	digitsPattern  = regexp.MustCompile(`\b[A-Za-z]*\d[A-Za-z0-9-]{2,}\b`)
)

// classify asks the model for the intent and falls back to keyword rules on
// any model error or unusable reply.
func (r *Router) classify(ctx context.Context, message string) entity.Intent {
	if r.llm != nil {
		intent, err := r.classifyWithLLM(ctx, message)
		if err == nil {
			return r.complete(intent, message)
		}
		r.logger.Warn("LLM intent classification failed, using keywords", "error", err)
	}
	return r.complete(classifyByKeywords(message), message)
}

func (r *Router) classifyWithLLM(ctx context.Context, message string) (entity.Intent, error) {
	resp, err := r.llm.Chat(ctx, output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: prompts.IntentPrompt},
			{Role: entity.RoleUser, Content: message},
		},
		Temperature: 0.0,
		JSON:        true,
	})
	if err != nil {
		return entity.Intent{}, fmt.Errorf("llm request failed: %w", err)
	}

	intent, err := parseIntentResponse(resp.Message.Content)
	if err != nil {
		return entity.Intent{}, err
	}

	r.logger.Debug("Intent classified", "intent", intent.Type, "product", intent.Product)
	return intent, nil
}

func parseIntentResponse(response string) (entity.Intent, error) {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return entity.Intent{}, fmt.Errorf("no JSON found in response")
	}

	var intent entity.Intent
	if err := json.Unmarshal([]byte(response[start:end+1]), &intent); err != nil {
		return entity.Intent{}, fmt.Errorf("failed to parse JSON: %w", err)
	}

	intent.Type = entity.IntentType(strings.ToLower(strings.TrimSpace(string(intent.Type))))
	if !knownIntent(intent.Type) {
		return entity.Intent{}, fmt.Errorf("unknown intent %q", intent.Type)
	}
	return intent, nil
}

func knownIntent(t entity.IntentType) bool {
	switch t {
	case entity.IntentSearch, entity.IntentPriceCheck, entity.IntentPurchase,
		entity.IntentTrack, entity.IntentSummary, entity.IntentGeneral:
		return true
	}
	return false
}

func classifyByKeywords(message string) entity.Intent {
	lower := strings.ToLower(message)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return entity.Intent{Type: rule.intent}
			}
		}
	}
	return entity.Intent{Type: entity.IntentGeneral}
}

// complete fills what the classifier left empty from the message itself.
func (r *Router) complete(intent entity.Intent, message string) entity.Intent {
	intent.Query = message

	switch intent.Type {
	case entity.IntentSearch, entity.IntentPurchase, entity.IntentPriceCheck:
		if strings.TrimSpace(intent.Product) == "" || strings.EqualFold(intent.Product, "product name if any") {
			intent.Product = extractProduct(message)
		}
	case entity.IntentTrack:
		if intent.OrderID == "" {
			intent.OrderID = extractOrderID(message)
		}
		if intent.StoreURL == "" {
			intent.StoreURL = urlPattern.FindString(message)
		}
	}
	return intent
}

func extractProduct(message string) string {
	lower := strings.ToLower(message)
	for _, p := range knownProducts {
		if strings.Contains(lower, p) {
			return p
		}
	}

	var words []string
	for _, w := range strings.Fields(lower) {
		w = strings.Trim(w, ".,!?;:'\"")
		if w == "" || fillerWords[w] {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return fallbackProduct
	}
	return strings.Join(words, " ")
}

func extractOrderID(message string) string {
	withoutURLs := urlPattern.ReplaceAllString(message, " ")
	if m := orderIDPattern.FindStringSubmatch(withoutURLs); m != nil {
		return m[1]
	}
	return digitsPattern.FindString(withoutURLs)
}
