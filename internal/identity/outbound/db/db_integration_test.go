//go:build integration

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/migrations/pgtest"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
)

func TestDBAgainstPostgres(t *testing.T) {
	pool := pgtest.NewPool(t)
	repo := NewDB(pool, instrument.NewNoop())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	alice := entity.User{ID: 1, Username: "alice@quill.dev", Name: "Alice", CreatedAt: now, UpdatedAt: now}
	bob := entity.User{ID: 2, Username: "bob@quill.dev", Name: "Bob", CreatedAt: now, UpdatedAt: now}

	t.Run("NewUser", func(t *testing.T) {
		if err := repo.NewUser(ctx, alice, "salt:key"); err != nil {
			t.Fatalf("NewUser(alice): %v", err)
		}
		if err := repo.NewUser(ctx, bob, "salt:key2"); err != nil {
			t.Fatalf("NewUser(bob): %v", err)
		}

		dup := alice
		dup.ID = 3
		dup.Username = "ALICE@quill.dev"
		if err := repo.NewUser(ctx, dup, "x"); !errors.Is(err, goerror.ErrConflict) {
			t.Fatalf("duplicate username err = %v, want ErrConflict", err)
		}
		if _, err := repo.GetUserByID(ctx, 3); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("failed insert left a user row: %v", err)
		}
	})

	t.Run("Credential", func(t *testing.T) {
		cred, err := repo.GetUserCredential(ctx, "Alice@Quill.dev")
		if err != nil || cred.Password != "salt:key" || cred.ID != alice.ID {
			t.Fatalf("credential = %+v, %v", cred, err)
		}
	})

	t.Run("FollowAndProfile", func(t *testing.T) {
		created, err := repo.CreateFollow(ctx, entity.Follow{FollowerID: bob.ID, FollowingID: alice.ID, CreatedAt: now})
		if err != nil || !created {
			t.Fatalf("first follow = %v, %v", created, err)
		}
		created, err = repo.CreateFollow(ctx, entity.Follow{FollowerID: bob.ID, FollowingID: alice.ID, CreatedAt: now})
		if err != nil || created {
			t.Fatalf("second follow = %v, %v", created, err)
		}

		p, err := repo.GetUserProfile(ctx, alice.ID, bob.ID)
		if err != nil || p.FollowerCount != 1 || !p.IsFollowing {
			t.Fatalf("profile = %+v, %v", p, err)
		}

		followers, total, err := repo.GetFollowers(ctx, entity.FollowListFilter{UserID: alice.ID, Limit: 10})
		if err != nil || total != 1 || followers[0].ID != bob.ID {
			t.Fatalf("followers = %+v total=%d err=%v", followers, total, err)
		}

		if err := repo.DeleteFollow(ctx, bob.ID, alice.ID); err != nil {
			t.Fatalf("DeleteFollow: %v", err)
		}
	})

	t.Run("UserListSearch", func(t *testing.T) {
		users, total, err := repo.GetUserList(ctx, entity.UserListFilter{Search: "BO", Limit: 10})
		if err != nil || total != 1 || users[0].ID != bob.ID {
			t.Fatalf("users = %+v total=%d err=%v", users, total, err)
		}

		_, total, err = repo.GetUserList(ctx, entity.UserListFilter{Limit: 10})
		if err != nil || total != 2 {
			t.Fatalf("total = %d, %v", total, err)
		}
	})

	t.Run("RefreshTokenRotation", func(t *testing.T) {
		if err := repo.CreateRefreshToken(ctx, entity.RefreshToken{ID: 10, UserID: alice.ID, Token: "h1", ExpiresAt: now.Add(time.Hour)}); err != nil {
			t.Fatalf("CreateRefreshToken: %v", err)
		}

		ro := entity.RotateRefreshToken{OldID: 10, NewID: 11, UserID: alice.ID, NewToken: "h2", NewExpiresAt: now.Add(time.Hour)}
		if err := repo.RotateRefreshToken(ctx, ro); err != nil {
			t.Fatalf("RotateRefreshToken: %v", err)
		}

		ro.NewID, ro.NewToken = 12, "h3"
		if err := repo.RotateRefreshToken(ctx, ro); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("second rotation err = %v, want ErrNotFound", err)
		}

		old, err := repo.GetUserRefreshToken(ctx, "h1")
		if err != nil || !old.Revoked || !old.Rotated() || *old.ReplacedByID != 11 || old.Username != alice.Username {
			t.Fatalf("old token = %+v, %v", old, err)
		}
	})

	t.Run("PatchPasswordRevokesTokens", func(t *testing.T) {
		pass := "salt:new"
		if err := repo.PatchUser(ctx, entity.UserPatch{ID: alice.ID, Password: &pass}); err != nil {
			t.Fatalf("PatchUser: %v", err)
		}

		rt, err := repo.GetUserRefreshToken(ctx, "h2")
		if err != nil || !rt.Revoked {
			t.Fatalf("token after password change = %+v, %v", rt, err)
		}

		taken := bob.Username
		if err := repo.PatchUser(ctx, entity.UserPatch{ID: alice.ID, Username: &taken}); !errors.Is(err, goerror.ErrConflict) {
			t.Fatalf("username collision err = %v", err)
		}
		if err := repo.UpdateUserAvatar(ctx, 999, "x"); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("avatar on missing user err = %v", err)
		}
	})
}
