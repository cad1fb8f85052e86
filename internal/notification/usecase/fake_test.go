package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/quill/internal/notification/entity"
	"github.com/shandysiswandi/quill/internal/pkg/clock"
	"github.com/shandysiswandi/quill/internal/pkg/config"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/jwt"
	"github.com/shandysiswandi/quill/internal/pkg/validator"
)

var errBoom = errors.New("boom")

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testConfig = `
app:
  name: Quill
  web_url: https://quill.test
modules:
  notification:
    email_activity: %s
`

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return 500 + s.n
}

type fakeRepoDB struct {
	items map[int64]entity.Notification
	fail  map[string]error
}

func (f *fakeRepoDB) CreateNotification(_ context.Context, n entity.Notification) error {
	if err := f.fail["CreateNotification"]; err != nil {
		return err
	}
	f.items[n.ID] = n
	return nil
}

func (f *fakeRepoDB) owned(userID int64, unreadOnly bool) []entity.Notification {
	var out []entity.Notification
	for _, n := range f.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead()) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeRepoDB) GetInbox(_ context.Context, filter entity.InboxFilter) ([]entity.Notification, int64, error) {
	if err := f.fail["GetInbox"]; err != nil {
		return nil, 0, err
	}
	all := f.owned(filter.UserID, filter.UnreadOnly)
	lo := min(int(filter.Offset), len(all))
	hi := min(lo+int(filter.Limit), len(all))
	return all[lo:hi], int64(len(all)), nil
}

func (f *fakeRepoDB) CountUnread(_ context.Context, userID int64) (int64, error) {
	if err := f.fail["CountUnread"]; err != nil {
		return 0, err
	}
	return int64(len(f.owned(userID, true))), nil
}

func (f *fakeRepoDB) MarkRead(_ context.Context, userID, id int64, at time.Time) error {
	if err := f.fail["MarkRead"]; err != nil {
		return err
	}
	n, ok := f.items[id]
	if !ok || n.UserID != userID {
		return goerror.ErrNotFound
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	f.items[id] = n
	return nil
}

func (f *fakeRepoDB) MarkAllRead(_ context.Context, userID int64, at time.Time) (int64, error) {
	if err := f.fail["MarkAllRead"]; err != nil {
		return 0, err
	}
	var count int64
	for _, n := range f.owned(userID, true) {
		n.ReadAt = &at
		f.items[n.ID] = n
		count++
	}
	return count, nil
}

func (f *fakeRepoDB) DeleteNotification(_ context.Context, userID, id int64) error {
	if err := f.fail["DeleteNotification"]; err != nil {
		return err
	}
	n, ok := f.items[id]
	if !ok || n.UserID != userID {
		return goerror.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeMail struct {
	welcome  []WelcomeEmail
	activity []ActivityEmail
	err      error
}

func (f *fakeMail) SendWelcome(_ context.Context, msg WelcomeEmail) error {
	if f.err != nil {
		return f.err
	}
	f.welcome = append(f.welcome, msg)
	return nil
}

func (f *fakeMail) SendActivity(_ context.Context, msg ActivityEmail) error {
	if f.err != nil {
		return f.err
	}
	f.activity = append(f.activity, msg)
	return nil
}

type harness struct {
	uc   *Usecase
	repo *fakeRepoDB
	mail *fakeMail
}

func newHarness(t *testing.T, emailActivity bool) *harness {
	t.Helper()

	flag := "false"
	if emailActivity {
		flag = "true"
	}
	cfg, err := config.NewViperFromBytes("yaml", []byte(fmt.Sprintf(testConfig, flag)))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	h := &harness{
		repo: &fakeRepoDB{items: map[int64]entity.Notification{}, fail: map[string]error{}},
		mail: &fakeMail{},
	}
	h.uc = New(Dependency{
		RepoDB:     h.repo,
		RepoMail:   h.mail,
		Config:     cfg,
		UID:        &seqID{},
		Clock:      clock.Fixed(testNow),
		Validator:  v,
		Instrument: instrument.NewNoop(),
	})

	return h
}

func as(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID})
}

func (h *harness) seed(id, userID int64, read bool) {
	n := entity.Notification{ID: id, UserID: userID, Kind: entity.KindLike, Title: "New like", CreatedAt: testNow}
	if read {
		at := testNow.Add(-time.Hour)
		n.ReadAt = &at
	}
	h.repo.items[id] = n
}

func assertCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	if !goerror.IsCode(err, code) {
		t.Fatalf("err = %v, want code %s", err, code)
	}
}
