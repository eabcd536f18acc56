package prompts

import (
	"fmt"
	"sort"
	"strings"

	lcprompts "github.com/tmc/langchaingo/prompts"
)

// Render fills a Go-template instruction with values. Every key of values is
// declared as an input variable, and a missing variable is an error.
func Render(template string, values map[string]any) (string, error) {
	inputVars := make([]string, 0, len(values))
	for k := range values {
		inputVars = append(inputVars, k)
	}
	sort.Strings(inputVars)

	tmpl := lcprompts.NewPromptTemplate(template, inputVars)
	out, err := tmpl.Format(values)
	if err != nil {
		return "", fmt.Errorf("render instructions: %w", err)
	}
	return strings.TrimSpace(out), nil
}
