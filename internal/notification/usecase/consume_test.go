package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/quill/internal/notification/entity"
)

func only(t *testing.T, repo *fakeRepoDB) entity.Notification {
	t.Helper()
	if len(repo.items) != 1 {
		t.Fatalf("stored %d notifications, want 1", len(repo.items))
	}
	for _, n := range repo.items {
		return n
	}
	return entity.Notification{}
}

func TestConsumeUserRegistered(t *testing.T) {
	t.Run("StoresWelcomeAndSendsEmail", func(t *testing.T) {
		// Arrange
		h := newHarness(t, false)

		// Act
		err := h.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{
			UserID: 7, Username: "alice@quill.dev", Name: "Alice",
		})

		// Assert
		if err != nil {
			t.Fatalf("ConsumeUserRegistered() error = %v", err)
		}
		n := only(t, h.repo)
		if n.UserID != 7 || n.Kind != entity.KindWelcome || n.Title != "Welcome to Quill" || !n.CreatedAt.Equal(testNow) {
			t.Fatalf("notification = %+v", n)
		}
		if len(h.mail.welcome) != 1 || h.mail.welcome[0].To != "alice@quill.dev" || h.mail.welcome[0].WebURL != "https://quill.test/" {
			t.Fatalf("welcome mail = %+v", h.mail.welcome)
		}
	})

	t.Run("NameFallsBackToUsername", func(t *testing.T) {
		h := newHarness(t, false)
		if err := h.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{UserID: 7, Username: "alice@quill.dev"}); err != nil {
			t.Fatalf("error = %v", err)
		}
		if got := only(t, h.repo).Data.GetString("name"); got != "alice@quill.dev" {
			t.Fatalf("name = %q", got)
		}
	})

	t.Run("InvalidPayloadIsDropped", func(t *testing.T) {
		h := newHarness(t, false)
		if err := h.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{UserID: 7, Username: "not-an-email"}); err != nil {
			t.Fatalf("error = %v, want nil so the message is acked", err)
		}
		if len(h.repo.items) != 0 || len(h.mail.welcome) != 0 {
			t.Fatal("invalid payload must not produce side effects")
		}
	})

	t.Run("StoreFailureIsRetried", func(t *testing.T) {
		h := newHarness(t, false)
		h.repo.fail["CreateNotification"] = errBoom
		err := h.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{UserID: 7, Username: "alice@quill.dev"})
		if !errors.Is(err, errBoom) {
			t.Fatalf("err = %v, want errBoom", err)
		}
		if len(h.mail.welcome) != 0 {
			t.Fatal("email must wait for the stored notification")
		}
	})

	t.Run("MailFailureIsLogged", func(t *testing.T) {
		h := newHarness(t, false)
		h.mail.err = errBoom
		if err := h.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{UserID: 7, Username: "alice@quill.dev"}); err != nil {
			t.Fatalf("error = %v", err)
		}
		only(t, h.repo)
	})
}

func TestConsumeActivity(t *testing.T) {
	followed := ConsumeUserFollowedInput{FollowerID: 2, FollowerName: "Bob", FollowingID: 1, FollowingEmail: "alice@quill.dev"}
	liked := ConsumeBlogLikedInput{BlogID: 10, BlogTitle: "Hello", AuthorID: 1, AuthorEmail: "alice@quill.dev", ActorID: 2, ActorName: "Bob"}
	commented := ConsumeBlogCommentedInput{BlogID: 10, BlogTitle: "Hello", CommentID: 100, Excerpt: "nice", AuthorID: 1, AuthorEmail: "alice@quill.dev", ActorID: 2, ActorName: "Bob"}

	tests := []struct {
		name     string
		consume  func(uc *Usecase) error
		kind     entity.Kind
		body     string
		dataKey  string
		dataWant string
		link     string
	}{
		{
			name:     "UserFollowed",
			consume:  func(uc *Usecase) error { return uc.ConsumeUserFollowed(context.Background(), followed) },
			kind:     entity.KindFollow,
			body:     "Bob started following you.",
			dataKey:  "actor_id",
			dataWant: "2",
			link:     "https://quill.test/profile/2",
		},
		{
			name:     "BlogLiked",
			consume:  func(uc *Usecase) error { return uc.ConsumeBlogLiked(context.Background(), liked) },
			kind:     entity.KindLike,
			body:     `Bob liked "Hello"`,
			dataKey:  "blog_id",
			dataWant: "10",
			link:     "https://quill.test/blog/10",
		},
		{
			name:     "BlogCommented",
			consume:  func(uc *Usecase) error { return uc.ConsumeBlogCommented(context.Background(), commented) },
			kind:     entity.KindComment,
			body:     `Bob commented on "Hello": nice`,
			dataKey:  "comment_id",
			dataWant: "100",
			link:     "https://quill.test/blog/10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true)

			if err := tt.consume(h.uc); err != nil {
				t.Fatalf("consume error = %v", err)
			}

			n := only(t, h.repo)
			if n.UserID != 1 || n.Kind != tt.kind || n.Body != tt.body {
				t.Fatalf("notification = %+v", n)
			}
			if got := n.Data.GetString(tt.dataKey); got != tt.dataWant {
				t.Fatalf("data[%s] = %q, want %q", tt.dataKey, got, tt.dataWant)
			}
			if len(h.mail.activity) != 1 || h.mail.activity[0].LinkURL != tt.link || h.mail.activity[0].AppName != "Quill" {
				t.Fatalf("activity mail = %+v", h.mail.activity)
			}
		})
	}

	t.Run("EmailDisabled", func(t *testing.T) {
		h := newHarness(t, false)
		if err := h.uc.ConsumeBlogLiked(context.Background(), liked); err != nil {
			t.Fatalf("error = %v", err)
		}
		only(t, h.repo)
		if len(h.mail.activity) != 0 {
			t.Fatalf("activity mail sent while disabled: %+v", h.mail.activity)
		}
	})

	t.Run("InvalidPayloadIsDropped", func(t *testing.T) {
		h := newHarness(t, true)
		bad := liked
		bad.AuthorEmail = ""
		if err := h.uc.ConsumeBlogLiked(context.Background(), bad); err != nil {
			t.Fatalf("error = %v", err)
		}
		if len(h.repo.items) != 0 {
			t.Fatal("invalid payload stored")
		}
	})
}
