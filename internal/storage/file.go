package storage

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	logx "boostbot/pkg/logx"
)

// fileStore appends one JSON object per line. Lines are never rewritten
// or compacted; rotation is left to the operator.
type fileStore struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	done bool
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path, err := preparePath("file", cfg.Path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	log.Debug("audit file opened", logx.String("path", path))
	return &fileStore{f: f, enc: json.NewEncoder(f)}, nil
}

func (s *fileStore) Append(_ context.Context, e Entry) error {
	if s == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return ErrDisabled
	}
	return s.enc.Encode(e)
}

func (s *fileStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	return s.f.Close()
}
