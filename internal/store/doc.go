// Package store holds the task and user tables in memory.
//
// Store has no locking of its own. Every method assumes the caller has
// exclusive access; the gate package provides it for the running server.
package store
