package usecase

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/hash"
)

func TestSignup(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		out, err := h.uc.Signup(context.Background(), SignupInput{
			Username: "  Alice@Quill.dev ",
			Password: "Secr3t!Pass",
			Name:     "Alice",
		})

		// Assert
		if err != nil {
			t.Fatalf("Signup() error = %v", err)
		}
		if out.User.Username != "alice@quill.dev" || out.AccessToken == "" || out.RefreshToken == "" {
			t.Fatalf("unexpected output %+v", out)
		}
		if stored := h.repo.creds[out.User.ID]; stored == "" || stored == "Secr3t!Pass" {
			t.Fatalf("credential not derived: %q", stored)
		}
		if ok, _ := h.enforcer.Enforce(subject(out.User.ID), "blog", "write"); !ok {
			t.Fatal("new user should be granted the user role")
		}
		if len(h.mq.registered) != 1 || h.mq.registered[0].UserID != out.User.ID {
			t.Fatalf("registered events = %+v", h.mq.registered)
		}
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		h := newHarness(t)
		h.signup(t, "bob@quill.dev", "Secr3t!Pass", "Bob")

		_, err := h.uc.Signup(context.Background(), SignupInput{Username: "BOB@quill.dev", Password: "Another1!"})

		assertCode(t, err, goerror.CodeConflict)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		h := newHarness(t)

		tests := []struct {
			name string
			in   SignupInput
		}{
			{"NotEmail", SignupInput{Username: "bob", Password: "Secr3t!Pass"}},
			{"ShortPassword", SignupInput{Username: "bob@quill.dev", Password: "short"}},
			{"LongName", SignupInput{Username: "bob@quill.dev", Password: "Secr3t!Pass", Name: strings.Repeat("a", 101)}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := h.uc.Signup(context.Background(), tt.in)
				assertCode(t, err, goerror.CodeInvalidInput)
			})
		}
	})

	t.Run("PublishFailureDoesNotFailSignup", func(t *testing.T) {
		h := newHarness(t)
		h.mq.err = errBoom

		if _, err := h.uc.Signup(context.Background(), SignupInput{Username: "c@quill.dev", Password: "Secr3t!Pass"}); err != nil {
			t.Fatalf("Signup() error = %v", err)
		}
	})

	t.Run("RepoError", func(t *testing.T) {
		h := newHarness(t)
		h.repo.fail["NewUser"] = errBoom

		_, err := h.uc.Signup(context.Background(), SignupInput{Username: "d@quill.dev", Password: "Secr3t!Pass"})

		assertCode(t, err, goerror.CodeInternal)
	})
}

func TestSignin(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "alice@quill.dev", "Secr3t!Pass", "Alice")

	t.Run("Success", func(t *testing.T) {
		out, err := h.uc.Signin(context.Background(), SigninInput{Username: "ALICE@quill.dev", Password: "Secr3t!Pass"})
		if err != nil {
			t.Fatalf("Signin() error = %v", err)
		}
		if out.User.Name != "Alice" || out.AccessToken == "" {
			t.Fatalf("unexpected output %+v", out)
		}
	})

	t.Run("SameErrorForUnknownUserAndWrongPassword", func(t *testing.T) {
		_, errWrong := h.uc.Signin(context.Background(), SigninInput{Username: "alice@quill.dev", Password: "WrongPass"})
		_, errUnknown := h.uc.Signin(context.Background(), SigninInput{Username: "nobody@quill.dev", Password: "Secr3t!Pass"})

		assertCode(t, errWrong, goerror.CodeUnauthorized)
		assertCode(t, errUnknown, goerror.CodeUnauthorized)
		if errWrong.Error() != errUnknown.Error() {
			t.Fatalf("messages differ: %q vs %q", errWrong, errUnknown)
		}
	})

	t.Run("UnknownUserStillDerives", func(t *testing.T) {
		// Arrange
		h.cred.verified = nil

		// Act
		_, err := h.uc.Signin(context.Background(), SigninInput{Username: "ghost@quill.dev", Password: "Secr3t!Pass"})

		// Assert
		assertCode(t, err, goerror.CodeUnauthorized)
		if len(h.cred.verified) != 1 || h.cred.verified[0] != dummyCredential {
			t.Fatalf("verified = %q, want one run against the dummy credential", h.cred.verified)
		}

		salt, key, _ := strings.Cut(dummyCredential, ":")
		rawSalt, errSalt := base64.StdEncoding.DecodeString(salt)
		rawKey, errKey := base64.StdEncoding.DecodeString(key)
		if errSalt != nil || errKey != nil || len(rawSalt) != hash.PBKDF2SaltLength || len(rawKey) != hash.PBKDF2KeyLength {
			t.Fatalf("dummy credential is malformed: salt=%d key=%d", len(rawSalt), len(rawKey))
		}
	})

	t.Run("CorruptCredentialIsUnauthorized", func(t *testing.T) {
		for id := range h.repo.users {
			h.repo.creds[id] = "not-a-valid-credential"
		}

		_, err := h.uc.Signin(context.Background(), SigninInput{Username: "alice@quill.dev", Password: "Secr3t!Pass"})

		assertCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Run("RotateThenReuseRevokesAll", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		first := h.signup(t, "alice@quill.dev", "Secr3t!Pass", "Alice")

		// Act
		rotated, err := h.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: first.RefreshToken})
		if err != nil {
			t.Fatalf("RefreshToken() error = %v", err)
		}
		_, errReuse := h.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: first.RefreshToken})
		_, errNew := h.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: rotated.RefreshToken})

		// Assert
		if rotated.RefreshToken == first.RefreshToken || rotated.AccessToken == "" {
			t.Fatalf("token not rotated: %+v", rotated)
		}
		assertCode(t, errReuse, goerror.CodeUnauthorized)
		assertCode(t, errNew, goerror.CodeUnauthorized)
	})

	t.Run("Expired", func(t *testing.T) {
		h := newHarness(t)
		out := h.signup(t, "alice@quill.dev", "Secr3t!Pass", "Alice")
		for _, rt := range h.repo.tokens {
			rt.ExpiresAt = testNow.Add(-time.Second)
		}

		_, err := h.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: out.RefreshToken})

		assertCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("Unknown", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "never-issued"})

		assertCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("Empty", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.uc.RefreshToken(context.Background(), RefreshTokenInput{})

		assertCode(t, err, goerror.CodeInvalidInput)
	})
}

func TestLogout(t *testing.T) {
	t.Run("RevokesAndDenies", func(t *testing.T) {
		h := newHarness(t)
		out := h.signup(t, "alice@quill.dev", "Secr3t!Pass", "Alice")
		ctx := h.authCtx(t, out.AccessToken)

		if err := h.uc.Logout(ctx, LogoutInput{RefreshToken: out.RefreshToken}); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}

		if len(h.denylist.denied) != 1 {
			t.Fatalf("denied = %v", h.denylist.denied)
		}
		for _, ttl := range h.denylist.denied {
			if ttl != 15*time.Minute {
				t.Fatalf("ttl = %v, want remaining token lifetime", ttl)
			}
		}
		_, err := h.uc.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: out.RefreshToken})
		assertCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("Anonymous", func(t *testing.T) {
		h := newHarness(t)

		err := h.uc.Logout(context.Background(), LogoutInput{RefreshToken: "x"})

		assertCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("DenylistFailure", func(t *testing.T) {
		h := newHarness(t)
		out := h.signup(t, "alice@quill.dev", "Secr3t!Pass", "Alice")
		h.denylist.err = errBoom

		err := h.uc.Logout(h.authCtx(t, out.AccessToken), LogoutInput{RefreshToken: out.RefreshToken})

		assertCode(t, err, goerror.CodeInternal)
	})
}
