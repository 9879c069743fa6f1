// Package ratelimit defines the rate limiting strategy interface and
// implements the available algorithms:
//
//   - Fixed Window: counts requests per client identity in discrete,
//     non-overlapping time buckets of fixed length
//
// The strategy is selected once at startup by its configured name and is
// fixed for the process lifetime. Identities are keyed by client IP.
package ratelimit
