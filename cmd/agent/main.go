package main

import (
	"errors"
	"fmt"
	"os"

	"shopping-agent/internal/infrastructure/config"
)

func main() {
	if err := rootCMD.Execute(); err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintln(os.Stderr, "❌ Please set BROWSER_USE_API_KEY environment variable")
		} else {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		}
		os.Exit(1)
	}
}
