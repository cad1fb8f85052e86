package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/shandysiswandi/quill/internal/identity/entity"
	"github.com/shandysiswandi/quill/internal/migrations"
	"github.com/shandysiswandi/quill/internal/pkg/clock"
	"github.com/shandysiswandi/quill/internal/pkg/config"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/hash"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/jwt"
	"github.com/shandysiswandi/quill/internal/pkg/storage"
	"github.com/shandysiswandi/quill/internal/pkg/validator"
)

var errBoom = errors.New("boom")

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testConfig = `
modules:
  identity:
    refresh_token_ttl_days: 7
    avatar_max_size_bytes: 1024
`

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

type seqString struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (s *seqString) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.prefix + strings.Repeat("x", s.n)
}

// fakeRepoDB is an in-memory repoDB. fail makes the named method return the
// given error.
type fakeRepoDB struct {
	mu      sync.Mutex
	users   map[int64]entity.User
	creds   map[int64]string
	tokens  map[string]*entity.RefreshToken
	follows map[[2]int64]time.Time
	blogs   map[int64]int64
	fail    map[string]error
}

func newFakeRepoDB() *fakeRepoDB {
	return &fakeRepoDB{
		users:   map[int64]entity.User{},
		creds:   map[int64]string{},
		tokens:  map[string]*entity.RefreshToken{},
		follows: map[[2]int64]time.Time{},
		blogs:   map[int64]int64{},
		fail:    map[string]error{},
	}
}

func (f *fakeRepoDB) err(method string) error { return f.fail[method] }

func (f *fakeRepoDB) byUsername(username string) (entity.User, bool) {
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			return u, true
		}
	}
	return entity.User{}, false
}

func (f *fakeRepoDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (f *fakeRepoDB) GetUserByUsername(_ context.Context, username string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetUserByUsername"); err != nil {
		return nil, err
	}
	u, ok := f.byUsername(username)
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (f *fakeRepoDB) GetUserCredential(_ context.Context, username string) (*entity.UserCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetUserCredential"); err != nil {
		return nil, err
	}
	u, ok := f.byUsername(username)
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &entity.UserCredential{User: u, Password: f.creds[u.ID]}, nil
}

func (f *fakeRepoDB) GetUserProfile(_ context.Context, id, viewerID int64) (*entity.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetUserProfile"); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	p := entity.UserProfile{User: u, BlogCount: f.blogs[id]}
	for k := range f.follows {
		if k[1] == id {
			p.FollowerCount++
		}
		if k[0] == id {
			p.FollowingCount++
		}
	}
	if viewerID != 0 && viewerID != id {
		_, p.IsFollowing = f.follows[[2]int64{viewerID, id}]
	}
	return &p, nil
}

func (f *fakeRepoDB) GetUserList(_ context.Context, filter entity.UserListFilter) ([]entity.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetUserList"); err != nil {
		return nil, 0, err
	}

	var all []entity.User
	for _, u := range f.users {
		q := strings.ToLower(filter.Search)
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Username), q) {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, filter.Offset, filter.Limit), int64(len(all)), nil
}

func window[T any](all []T, offset int64, limit int32) []T {
	if offset >= int64(len(all)) {
		return nil
	}
	end := min(offset+int64(limit), int64(len(all)))
	return all[offset:end]
}

func (f *fakeRepoDB) GetUserRefreshToken(_ context.Context, token string) (*entity.UserRefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("GetUserRefreshToken"); err != nil {
		return nil, err
	}
	rt, ok := f.tokens[token]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &entity.UserRefreshToken{RefreshToken: *rt, Username: f.users[rt.UserID].Username}, nil
}

func (f *fakeRepoDB) follow(filter entity.FollowListFilter, followers bool) []entity.FollowUser {
	var out []entity.FollowUser
	for k, at := range f.follows {
		switch {
		case followers && k[1] == filter.UserID:
			out = append(out, entity.FollowUser{User: f.users[k[0]], FollowedAt: at})
		case !followers && k[0] == filter.UserID:
			out = append(out, entity.FollowUser{User: f.users[k[1]], FollowedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRepoDB) GetFollowers(_ context.Context, filter entity.FollowListFilter) ([]entity.FollowUser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.follow(filter, true)
	return window(all, filter.Offset, filter.Limit), int64(len(all)), f.err("GetFollowers")
}

func (f *fakeRepoDB) GetFollowing(_ context.Context, filter entity.FollowListFilter) ([]entity.FollowUser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.follow(filter, false)
	return window(all, filter.Offset, filter.Limit), int64(len(all)), f.err("GetFollowing")
}

func (f *fakeRepoDB) NewUser(_ context.Context, user entity.User, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("NewUser"); err != nil {
		return err
	}
	if _, ok := f.byUsername(user.Username); ok {
		return goerror.ErrConflict
	}
	f.users[user.ID] = user
	f.creds[user.ID] = hash
	return nil
}

func (f *fakeRepoDB) CreateRefreshToken(_ context.Context, in entity.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("CreateRefreshToken"); err != nil {
		return err
	}
	f.tokens[in.Token] = &in
	return nil
}

func (f *fakeRepoDB) CreateFollow(_ context.Context, in entity.Follow) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("CreateFollow"); err != nil {
		return false, err
	}
	key := [2]int64{in.FollowerID, in.FollowingID}
	if _, ok := f.follows[key]; ok {
		return false, nil
	}
	f.follows[key] = in.CreatedAt
	return true, nil
}

func (f *fakeRepoDB) PatchUser(_ context.Context, patch entity.UserPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("PatchUser"); err != nil {
		return err
	}
	u, ok := f.users[patch.ID]
	if !ok {
		return goerror.ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Password != nil {
		f.creds[u.ID] = *patch.Password
		for _, rt := range f.tokens {
			if rt.UserID == u.ID {
				rt.Revoked = true
			}
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepoDB) UpdateUserAvatar(_ context.Context, id int64, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("UpdateUserAvatar"); err != nil {
		return err
	}
	u := f.users[id]
	u.AvatarURL = avatarURL
	f.users[id] = u
	return nil
}

func (f *fakeRepoDB) RotateRefreshToken(_ context.Context, ro entity.RotateRefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("RotateRefreshToken"); err != nil {
		return err
	}
	for _, rt := range f.tokens {
		if rt.ID == ro.OldID && !rt.Revoked {
			rt.Revoked = true
			rt.ReplacedByID = &ro.NewID
			f.tokens[ro.NewToken] = &entity.RefreshToken{ID: ro.NewID, UserID: ro.UserID, Token: ro.NewToken, ExpiresAt: ro.NewExpiresAt}
			return nil
		}
	}
	return goerror.ErrNotFound
}

func (f *fakeRepoDB) RevokeRefreshToken(_ context.Context, userID int64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("RevokeRefreshToken"); err != nil {
		return err
	}
	rt, ok := f.tokens[token]
	if !ok || rt.UserID != userID {
		return goerror.ErrNotFound
	}
	rt.Revoked = true
	return nil
}

func (f *fakeRepoDB) RevokeAllRefreshToken(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("RevokeAllRefreshToken"); err != nil {
		return err
	}
	for _, rt := range f.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

func (f *fakeRepoDB) DeleteFollow(_ context.Context, followerID, followingID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("DeleteFollow"); err != nil {
		return err
	}
	delete(f.follows, [2]int64{followerID, followingID})
	return nil
}

type fakeMessaging struct {
	mu         sync.Mutex
	registered []UserRegisteredEvent
	followed   []UserFollowedEvent
	err        error
}

func (f *fakeMessaging) PublishUserRegistered(_ context.Context, msg UserRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, msg)
	return f.err
}

func (f *fakeMessaging) PublishUserFollowed(_ context.Context, msg UserFollowedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followed = append(f.followed, msg)
	return f.err
}

type fakeDenylist struct {
	denied map[string]time.Duration
	err    error
}

func (f *fakeDenylist) Add(_ context.Context, jti string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.denied[jti] = ttl
	return nil
}

type harness struct {
	uc       *Usecase
	repo     *fakeRepoDB
	mq       *fakeMessaging
	denylist *fakeDenylist
	storage  *storage.Memory
	enforcer *casbin.Enforcer
	jwt      *jwt.Symmetric
	hmac     hash.Hash
	cred     *countingHash
}

// countingHash records every stored value handed to Verify.
type countingHash struct {
	inner hash.Hash

	mu       sync.Mutex
	verified []string
}

func (c *countingHash) Verify(hashed, str string) bool {
	c.mu.Lock()
	c.verified = append(c.verified, hashed)
	c.mu.Unlock()
	return c.inner.Verify(hashed, str)
}

func (c *countingHash) Hash(str string) ([]byte, error) {
	return c.inner.Hash(str)
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

	pbkdf2, err := hash.NewPBKDF2()
	if err != nil {
		t.Fatalf("pbkdf2: %v", err)
	}

	clk := clock.Fixed(testNow)
	signer, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(strings.Repeat("k", jwt.MinSecretLength)),
		Issuer:     "quill",
		Audiences:  []string{"quill-web"},
		TTLMinutes: 15 * time.Minute,
		Clock:      clk,
		UUID:       &seqString{prefix: "jti-"},
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	m, err := model.NewModelFromString(migrations.CasbinModel)
	if err != nil {
		t.Fatalf("casbin model: %v", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		t.Fatalf("casbin: %v", err)
	}
	for _, p := range [][]string{{"user", "blog", "write"}, {"user", "comment", "write"}, {"moderator", "blog", "moderate"}} {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			t.Fatalf("policy: %v", err)
		}
	}

	h := &harness{
		repo:     newFakeRepoDB(),
		mq:       &fakeMessaging{},
		denylist: &fakeDenylist{denied: map[string]time.Duration{}},
		storage:  storage.NewMemory("https://cdn.quill.test"),
		enforcer: enforcer,
		jwt:      signer,
		hmac:     hash.NewHMACSHA256("refresh-secret"),
		cred:     &countingHash{inner: pbkdf2},
	}

	h.uc = New(Dependency{
		RepoDB:        h.repo,
		RepoMessaging: h.mq,
		Denylist:      h.denylist,
		Validator:     v,
		Config:        cfg,
		Storage:       h.storage,
		HMAC:          h.hmac,
		Credential:    h.cred,
		UID:           &seqID{},
		UUID:          &seqString{prefix: "uuid-"},
		TokenID:       &seqString{prefix: "rt-"},
		Clock:         clk,
		JWT:           signer,
		Instrument:    instrument.NewNoop(),
		Enforcer:      enforcer,
	})

	return h
}

// signup registers a user through the usecase and returns the token output.
func (h *harness) signup(t *testing.T, username, password, name string) *TokenOutput {
	t.Helper()
	out, err := h.uc.Signup(context.Background(), SignupInput{Username: username, Password: password, Name: name})
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return out
}

// authCtx verifies an access token and stores the claims the way the router does.
func (h *harness) authCtx(t *testing.T, accessToken string) context.Context {
	t.Helper()
	clm, err := h.jwt.Verify(accessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	return jwt.SetAuth(context.Background(), clm)
}

func assertCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	if !goerror.IsCode(err, code) {
		t.Fatalf("err = %v, want code %s", err, code)
	}
}
