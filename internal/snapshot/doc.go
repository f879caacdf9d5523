// Package snapshot persists a full image of the store.
//
// Persistence is the capability the gate depends on:
//
//	Save(Image) error   - overwrite the stored image wholesale
//	Load() (Image, error) - read it back; any failure wraps ErrAbsent
//
// File keeps the image as one JSON document:
//
//	{"version":1,"tasks":{"1":{...}},"users":{"1":{...}}}
//
// Writes go to a temp file in the target directory which is fsynced and then
// renamed over the target, so a failed save leaves the previous snapshot in
// place. Documents without a version field are read as version 1.
//
// Memory is an in-process Persistence used by tests.
package snapshot
