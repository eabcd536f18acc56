package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const DefaultAppEnv = "dev"

// Loaded describes which env files were applied.
type Loaded struct {
	AppEnv string
	Files  []string
}

// Load reads <dir>/.env without overriding the process environment, then
// <dir>/.env.<APP_ENV> with override. Missing files are skipped.
func Load(dir string) (*Loaded, error) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = DefaultAppEnv
	}

	loaded := &Loaded{AppEnv: appEnv}

	base := filepath.Join(dir, ".env")
	if err := godotenv.Load(base); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", base, err)
		}
	} else {
		loaded.Files = append(loaded.Files, base)
	}

	envFile := filepath.Join(dir, fmt.Sprintf(".env.%s", appEnv))
	if err := godotenv.Overload(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	} else {
		loaded.Files = append(loaded.Files, envFile)
	}

	return loaded, nil
}
