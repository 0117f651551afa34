package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logx "boostbot/pkg/logx"
)

// Store is the audit sink. Implementations must be safe for concurrent
// use.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}

// Open constructs a store from config. A disabled driver ("" or "none")
// returns (nil, nil); callers treat a nil store as "no audit".
func Open(cfg Config, log logx.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none":
		return nil, nil
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// preparePath validates the configured path and creates its parent
// directory. Every driver writes to a single file, so the check lives
// here rather than repeated per driver.
func preparePath(driver, raw string) (string, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return "", fmt.Errorf("storage: %s driver requires a path", driver)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	return path, nil
}
