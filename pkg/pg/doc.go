// Package pg provides PostgreSQL connection, migration and health-check
// helpers for the durable notification storage.
//
// Connect retries with a linear ramp, Migrate applies goose migrations
// through the pgx pool, and Healthcheck plugs into the operational
// readiness probe.
package pg
