// Package kv abstracts the session's durable key-value store. Values are
// plain strings, JSON-encoded where structured. Write failures are logged
// and swallowed: in-memory state stays authoritative for the rest of the
// session.
package kv

import "context"

// Store is the minimal key-value contract the session layer needs.
type Store interface {
	// Get returns the stored value, or "" with ok=false when the key is
	// missing or the read failed.
	Get(ctx context.Context, key string) (value string, ok bool)
	// Set stores a value. Failures are the implementation's to absorb.
	Set(ctx context.Context, key, value string)
	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string)
}
