// Package ops serves the operational HTTP surface of the notification
// pipeline: health and metrics snapshots, manual retry and recovery
// controls for the dispatcher, and the notification pull API clients use
// when they miss a realtime push.
package ops
