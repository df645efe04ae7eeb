// Package engine defines the contract for the underlying queue engine —
// the external collaborator that provides durable storage, at-least-once
// delivery, retry, and scheduling primitives.
//
// Foreman does not implement a durable engine. It registers workers and
// schedules against anything satisfying the Engine interface and forwards
// dispatch requests to it. The memory subpackage provides a non-durable
// implementation for development and tests.
package engine
