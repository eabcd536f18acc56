package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"shopping-agent/internal/application/port/output"
	"shopping-agent/internal/domain/entity"
	"shopping-agent/internal/infrastructure/screenshot"
)

var _ output.ReceiptStore = (*Store)(nil)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store keeps purchase receipts as files: <order>.json plus an optional
// <order>.jpg with the last screenshot of the purchase task.
type Store struct {
	dir    string
	logger output.LoggerPort
}

func NewStore(dir string, logger output.LoggerPort) *Store {
	return &Store{dir: dir, logger: logger}
}

// Save returns the path of the written JSON file.
func (s *Store) Save(ctx context.Context, receipt entity.Receipt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := fileName(receipt.OrderID)
	if name == "" {
		return "", errors.New("receipt has no order id")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create receipts dir: %w", err)
	}

	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode receipt: %w", err)
	}

	jsonPath := filepath.Join(s.dir, name+".json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}

	if len(receipt.Image) > 0 {
		if err := s.saveImage(filepath.Join(s.dir, name+".jpg"), receipt.Image); err != nil {
			s.logger.Warn("Receipt image skipped", "orderID", receipt.OrderID, "error", err)
		}
	}

	return jsonPath, nil
}

func (s *Store) saveImage(path string, raw []byte) error {
	shot, err := screenshot.Downscale(raw)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write receipt image: %w", err)
	}
	return nil
}

func fileName(orderID string) string {
	name := unsafeChars.ReplaceAllString(orderID, "_")
	if name == "." || name == ".." {
		return ""
	}
	return name
}
