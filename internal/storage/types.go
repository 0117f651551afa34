package storage

import (
	"errors"
	"time"
)

// ErrDisabled is returned by store methods when the receiver is nil or
// already closed.
var ErrDisabled = errors.New("storage: disabled")

// Config selects and configures the audit driver.
type Config struct {
	// Driver is one of "", "none", "file", "sqlite".
	// Empty and "none" disable storage entirely.
	Driver string `json:"driver" yaml:"driver"`

	// Path is the target file. For the file driver it is the JSONL file
	// itself; for sqlite it is the database file.
	Path string `json:"path" yaml:"path"`

	// BusyTimeout applies to sqlite only.
	BusyTimeout time.Duration `json:"-" yaml:"-"`
}

// Entry is one delivered (or attempted) notification.
type Entry struct {
	At     time.Time `json:"at"`
	Kind   string    `json:"kind"`
	Key    string    `json:"key,omitempty"`
	ChatID int64     `json:"chat_id"`
	Chars  int       `json:"chars"`
}
