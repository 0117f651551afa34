// Package logx is the bot's thin structured-logging layer over zerolog.
//
// Components hold a value-type Logger with typed Field constructors; the
// Service behind it owns the sinks (pretty console, JSON, optional file)
// and can swap level and outputs at runtime via Apply, which is what the
// config hot reload uses.
package logx
