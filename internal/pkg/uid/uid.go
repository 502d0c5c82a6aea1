// Package uid provides ID generators behind small interfaces.
//
// NumberID backs database primary keys (snowflake). StringID backs opaque
// artifacts: correlation IDs (UUID v7) and refresh/challenge handles
// (ObjectIDGenerator, 32 random-ish bytes hex-encoded).
package uid

// NumberID generates int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
