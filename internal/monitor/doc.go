// Package monitor polls the DexScreener token-boosts feed, deduplicates
// boost events for the lifetime of the process and hands rendered
// notifications to the notifier.
//
// A boost is identified by chainId + tokenAddress. The first time a key is
// observed the monitor enriches it via the pairs endpoint and queues exactly
// one notification; later sightings of the same key are ignored no matter
// how the amounts change.
package monitor
