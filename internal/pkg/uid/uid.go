// Package uid generates identifiers: numeric row IDs (snowflake), UUIDv7
// strings for correlation and object keys, and opaque 32-byte token IDs.
package uid

// NumberID produces unique, roughly time-ordered int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID produces unique string identifiers.
type StringID interface {
	Generate() string
}
