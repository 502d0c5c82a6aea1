// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords go through bcrypt (store only the hash, verify user input against
// it). Refresh and recovery artifacts that need equality lookups in the
// database go through HMAC-SHA256, which is deterministic for a given secret
// and therefore indexable.
package hash
