// Package redis provides connection and health-check helpers for the
// Redis-backed idempotent event store.
//
// Connect retries until the server is ready or attempts are exhausted;
// Healthcheck plugs into the operational readiness probe.
package redis
