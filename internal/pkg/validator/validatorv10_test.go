package validator

import (
	"errors"
	"testing"
)

type signupPayload struct {
	Username string `validate:"required,email"`
	Password string `validate:"required,password"`
	FullName string `validate:"omitempty,max=100,alphaspace"`
	Title    string `validate:"omitempty,notblank"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	t.Run("Valid", func(t *testing.T) {
		err := v.Validate(signupPayload{Username: "ana@quill.dev", Password: "longenough", FullName: "Ana María"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("FieldErrorsAreSnakeCase", func(t *testing.T) {
		// Act
		err := v.Validate(signupPayload{Username: "nope", Password: "short", FullName: "R2D2", Title: "   "})

		// Assert
		var verr V10ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("err = %T, want V10ValidationError", err)
		}
		for _, key := range []string{"username", "password", "full_name", "title"} {
			if verr.Values()[key] == "" {
				t.Fatalf("missing message for %q in %v", key, verr.Values())
			}
		}
		if got := verr.Values()["password"]; got != "Password must be 8-72 characters" {
			t.Fatalf("password message = %q", got)
		}
	})

	t.Run("ErrorString", func(t *testing.T) {
		if got := (V10ValidationError{}).Error(); got != "validation error" {
			t.Fatalf("empty error string = %q", got)
		}
		if got := (V10ValidationError{"a": "b"}).Error(); got != `{"a":"b"}` {
			t.Fatalf("error string = %q", got)
		}
	})
}
