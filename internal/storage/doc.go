// Package storage provides an optional append-only audit trail of
// delivered notifications. It is write-only at runtime: nothing in the
// bot reads entries back, the data exists for operators to inspect.
package storage
