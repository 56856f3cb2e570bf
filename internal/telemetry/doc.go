// Package telemetry streams live activity to web clients as Server-Sent
// Events: transmitted commands, randomizer state changes and heartbeats.
// Recent events are buffered so that reconnecting clients can resume with
// Last-Event-ID.
package telemetry
