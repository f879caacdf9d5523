// Package gate serialises all access to the store and its snapshot.
//
// A Gate owns one *store.Store and one snapshot.Persistence. Every method
// holds a single sync.Mutex for its whole duration, reads included. Mutating
// methods save the snapshot before releasing the lock, so no two saves
// interleave and a reader never observes a state that is not the one being
// written.
//
// A failed save is logged, counted and returned wrapped in ErrPersist. The
// in-memory mutation stays applied and the Gate keeps serving.
//
// After each applied mutation the Gate publishes an events.Event. Publishing
// never blocks the Gate.
package gate
