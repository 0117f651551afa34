//go:build !sqlite
// +build !sqlite

package storage

import (
	"errors"

	logx "boostbot/pkg/logx"
)

func openSQLite(Config, logx.Logger) (Store, error) {
	return nil, errors.New("storage: sqlite driver not built in (rebuild with -tags sqlite)")
}
