// Package validator checks request and domain structs against their
// `validate` tags. Business code depends on Validator; the go-playground
// implementation lives in this package.
package validator

// Validator validates a struct and returns a descriptive error on failure.
type Validator interface {
	Validate(data any) error
}
