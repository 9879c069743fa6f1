// Package healthcheck implements periodic active health checking for the
// upstream pool. Each cycle probes every configured upstream over a fresh
// TCP connection and applies the full result vector to the pool in one
// atomic update.
package healthcheck
