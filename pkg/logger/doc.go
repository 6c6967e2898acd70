// Package logger builds configured slog.Logger instances and provides
// shared attribute helpers used across the notification pipeline.
//
// Every component in the pipeline accepts a *slog.Logger through a
// functional option and falls back to slog.Default(), so wiring a logger
// once in main is enough:
//
//	log := logger.New(logger.WithEnvironment(cfg.Env, "notifierd"))
//	logger.SetAsDefault(log)
//
// The attribute helpers keep log record keys consistent between the bus,
// the dispatcher, the processor and the delivery service, which matters
// when tracing one event across all four.
package logger
