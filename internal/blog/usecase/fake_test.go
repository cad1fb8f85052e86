package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/shandysiswandi/quill/internal/blog/entity"
	"github.com/shandysiswandi/quill/internal/migrations"
	"github.com/shandysiswandi/quill/internal/pkg/clock"
	"github.com/shandysiswandi/quill/internal/pkg/config"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/idempotency"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/jwt"
	"github.com/shandysiswandi/quill/internal/pkg/storage"
	"github.com/shandysiswandi/quill/internal/pkg/validator"
)

var errBoom = errors.New("boom")

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testConfig = `
modules:
  blog:
    idempotency_ttl_hours: 24
    cover_max_size_bytes: 1024
`

const (
	aliceID int64 = 1
	bobID   int64 = 2
	modID   int64 = 3
	eveID   int64 = 4
)

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return 1000 + s.n
}

type fixedString string

func (f fixedString) Generate() string { return string(f) }

// fakeRepoDB is an in-memory repoDB. fail makes the named method return the
// given error.
type fakeRepoDB struct {
	mu       sync.Mutex
	authors  map[int64]entity.Author
	blogs    map[int64]entity.Blog
	likes    map[[2]int64]time.Time
	comments map[int64]entity.Comment
	follows  map[[2]int64]bool
	fail     map[string]error
}

func newFakeRepoDB() *fakeRepoDB {
	return &fakeRepoDB{
		authors: map[int64]entity.Author{
			aliceID: {ID: aliceID, Name: "Alice", Username: "alice@quill.dev"},
			bobID:   {ID: bobID, Name: "", Username: "bob@quill.dev"},
			modID:   {ID: modID, Name: "Mod", Username: "mod@quill.dev"},
			eveID:   {ID: eveID, Name: "Eve", Username: "eve@quill.dev"},
		},
		blogs:    map[int64]entity.Blog{},
		likes:    map[[2]int64]time.Time{},
		comments: map[int64]entity.Comment{},
		follows:  map[[2]int64]bool{},
		fail:     map[string]error{},
	}
}

func (f *fakeRepoDB) err(method string) error { return f.fail[method] }

func (f *fakeRepoDB) detail(b entity.Blog, viewerID int64) entity.BlogDetail {
	d := entity.BlogDetail{Blog: b, Author: f.authors[b.AuthorID]}
	for k := range f.likes {
		if k[0] == b.ID {
			d.LikeCount++
			if k[1] == viewerID {
				d.LikedByMe = true
			}
		}
	}
	for _, c := range f.comments {
		if c.BlogID == b.ID {
			d.CommentCount++
		}
	}
	return d
}

func window[T any](all []T, offset int64, limit int32) []T {
	if offset >= int64(len(all)) {
		return nil
	}
	end := min(offset+int64(limit), int64(len(all)))
	return all[offset:end]
}

func (f *fakeRepoDB) GetBlog(_ context.Context, id int64) (*entity.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetBlog"); err != nil {
		return nil, err
	}
	b, ok := f.blogs[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &b, nil
}

func (f *fakeRepoDB) GetBlogDetail(_ context.Context, id, viewerID int64) (*entity.BlogDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetBlogDetail"); err != nil {
		return nil, err
	}
	b, ok := f.blogs[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	d := f.detail(b, viewerID)
	return &d, nil
}

func (f *fakeRepoDB) GetBlogList(_ context.Context, filter entity.BlogListFilter) ([]entity.BlogDetail, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetBlogList"); err != nil {
		return nil, 0, err
	}
	var all []entity.BlogDetail
	for _, b := range f.blogs {
		if !b.Published && !filter.IncludeDrafts {
			continue
		}
		if filter.AuthorID != 0 && b.AuthorID != filter.AuthorID {
			continue
		}
		if filter.FollowerID != 0 && !f.follows[[2]int64{filter.FollowerID, b.AuthorID}] {
			continue
		}
		all = append(all, f.detail(b, filter.ViewerID))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return window(all, filter.Offset, filter.Limit), int64(len(all)), nil
}

func (f *fakeRepoDB) GetAuthor(_ context.Context, id int64) (*entity.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetAuthor"); err != nil {
		return nil, err
	}
	a, ok := f.authors[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &a, nil
}

func (f *fakeRepoDB) GetComment(_ context.Context, id int64) (*entity.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetComment"); err != nil {
		return nil, err
	}
	c, ok := f.comments[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &c, nil
}

func (f *fakeRepoDB) GetCommentList(_ context.Context, filter entity.CommentListFilter) ([]entity.Comment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetCommentList"); err != nil {
		return nil, 0, err
	}
	var all []entity.Comment
	for _, c := range f.comments {
		if c.BlogID == filter.BlogID {
			c.Author = f.authors[c.AuthorID]
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, filter.Offset, filter.Limit), int64(len(all)), nil
}

func (f *fakeRepoDB) CreateBlog(_ context.Context, blog entity.Blog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("CreateBlog"); err != nil {
		return err
	}
	f.blogs[blog.ID] = blog
	return nil
}

func (f *fakeRepoDB) CreateLike(_ context.Context, like entity.Like) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("CreateLike"); err != nil {
		return false, err
	}
	key := [2]int64{like.BlogID, like.UserID}
	if _, ok := f.likes[key]; ok {
		return false, nil
	}
	f.likes[key] = like.CreatedAt
	return true, nil
}

func (f *fakeRepoDB) CreateComment(_ context.Context, comment entity.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("CreateComment"); err != nil {
		return err
	}
	comment.Author = entity.Author{}
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeRepoDB) PatchBlog(_ context.Context, patch entity.BlogPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("PatchBlog"); err != nil {
		return err
	}
	b, ok := f.blogs[patch.ID]
	if !ok {
		return goerror.ErrNotFound
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Content != nil {
		b.Content = *patch.Content
	}
	if patch.Published != nil {
		b.Published = *patch.Published
	}
	b.UpdatedAt = patch.UpdatedAt
	f.blogs[b.ID] = b
	return nil
}

func (f *fakeRepoDB) UpdateBlogCover(_ context.Context, id int64, coverURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("UpdateBlogCover"); err != nil {
		return err
	}
	b, ok := f.blogs[id]
	if !ok {
		return goerror.ErrNotFound
	}
	b.CoverURL = coverURL
	f.blogs[id] = b
	return nil
}

func (f *fakeRepoDB) UpdateComment(_ context.Context, comment entity.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("UpdateComment"); err != nil {
		return err
	}
	c, ok := f.comments[comment.ID]
	if !ok {
		return goerror.ErrNotFound
	}
	c.Content = comment.Content
	c.UpdatedAt = comment.UpdatedAt
	f.comments[c.ID] = c
	return nil
}

func (f *fakeRepoDB) DeleteBlog(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("DeleteBlog"); err != nil {
		return err
	}
	delete(f.blogs, id)
	for k := range f.likes {
		if k[0] == id {
			delete(f.likes, k)
		}
	}
	for cid, c := range f.comments {
		if c.BlogID == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

func (f *fakeRepoDB) DeleteLike(_ context.Context, blogID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("DeleteLike"); err != nil {
		return err
	}
	delete(f.likes, [2]int64{blogID, userID})
	return nil
}

func (f *fakeRepoDB) DeleteComment(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("DeleteComment"); err != nil {
		return err
	}
	delete(f.comments, id)
	return nil
}

type fakeMessaging struct {
	mu        sync.Mutex
	liked     []BlogLikedEvent
	commented []BlogCommentedEvent
	err       error
}

func (f *fakeMessaging) PublishBlogLiked(_ context.Context, msg BlogLikedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liked = append(f.liked, msg)
	return f.err
}

func (f *fakeMessaging) PublishBlogCommented(_ context.Context, msg BlogCommentedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commented = append(f.commented, msg)
	return f.err
}

// fakeIdempotency mirrors the redis tracker: completed keys reject replays
// and failed runs release the key.
type fakeIdempotency struct {
	mu    sync.Mutex
	state map[string]idempotency.State
	keys  []string
}

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	switch f.state[key] {
	case idempotency.StateInProgress:
		f.mu.Unlock()
		return idempotency.ErrAlreadyInProgress
	case idempotency.StateCompleted:
		f.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	f.state[key] = idempotency.StateInProgress
	f.mu.Unlock()

	err := fn(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		delete(f.state, key)
		return err
	}
	f.state[key] = idempotency.StateCompleted
	return nil
}

type harness struct {
	uc      *Usecase
	repo    *fakeRepoDB
	mq      *fakeMessaging
	idemp   *fakeIdempotency
	storage *storage.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	m, err := model.NewModelFromString(migrations.CasbinModel)
	if err != nil {
		t.Fatalf("casbin model: %v", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		t.Fatalf("casbin: %v", err)
	}
	for _, p := range [][]string{
		{"user", "blog", "write"},
		{"user", "comment", "write"},
		{"moderator", "blog", "moderate"},
		{"moderator", "comment", "moderate"},
	} {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			t.Fatalf("policy: %v", err)
		}
	}
	for _, g := range [][]string{{"1", "user"}, {"2", "user"}, {"3", "user"}, {"3", "moderator"}} {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			t.Fatalf("grouping: %v", err)
		}
	}

	h := &harness{
		repo:    newFakeRepoDB(),
		mq:      &fakeMessaging{},
		idemp:   &fakeIdempotency{state: map[string]idempotency.State{}},
		storage: storage.NewMemory("https://cdn.quill.test"),
	}

	h.uc = New(Dependency{
		RepoDB:        h.repo,
		RepoMessaging: h.mq,
		Idempotency:   h.idemp,
		Validator:     v,
		Config:        cfg,
		Storage:       h.storage,
		UID:           &seqID{},
		UUID:          fixedString("cover-uuid"),
		Clock:         clock.Fixed(testNow),
		Instrument:    instrument.NewNoop(),
		Enforcer:      enforcer,
	})

	return h
}

// as returns a context authenticated as userID, the way the router leaves it.
func as(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID})
}

// seedBlog stores a post directly in the fake repository.
func (h *harness) seedBlog(id, authorID int64, published bool) entity.Blog {
	b := entity.Blog{
		ID:        id,
		AuthorID:  authorID,
		Title:     "A seeded post",
		Content:   "Seeded content long enough",
		Published: published,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	h.repo.blogs[id] = b
	return b
}

func assertCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	if !goerror.IsCode(err, code) {
		t.Fatalf("err = %v, want code %s", err, code)
	}
}
