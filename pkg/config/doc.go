// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each concern of the pipeline (bus, processor, dispatcher, delivery,
// postgres, redis, http) declares its own Config struct with `env:` tags
// and loads it independently; parsed configs are cached per type for the
// process lifetime.
package config
