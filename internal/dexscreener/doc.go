// Package dexscreener is a small typed client for the public DexScreener
// HTTP API: the token-boosts feed and the per-token pairs endpoint.
package dexscreener
