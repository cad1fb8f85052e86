package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shandysiswandi/quill/internal/pkg/config"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
	"github.com/shandysiswandi/quill/internal/pkg/jwt"
	"github.com/shandysiswandi/quill/internal/pkg/validator"
)

type fakeJWT struct {
	claims map[string]jwt.Claims
}

func (f *fakeJWT) Generate(int64, string) (string, error) { return "", nil }

func (f *fakeJWT) Verify(token string) (jwt.Claims, error) {
	clm, ok := f.claims[token]
	if !ok {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return clm, nil
}

func (f *fakeJWT) TTL() time.Duration { return time.Minute }

type fakeDenylist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeDenylist) Contains(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func claimsFor(uid int64, jti string) jwt.Claims {
	clm := jwt.Claims{UserID: uid}
	clm.ID = jti
	return clm
}

func newTestRouter(t *testing.T, deny *fakeDenylist, yaml string) *Router {
	t.Helper()

	var cfg config.Config
	if yaml != "" {
		v, err := config.NewViperFromBytes("yaml", []byte(yaml))
		if err != nil {
			t.Fatalf("config: %v", err)
		}
		cfg = v
	}

	return NewRouter(Config{
		Config: cfg,
		UUID:   fixedID("generated-cid"),
		JWT: &fakeJWT{claims: map[string]jwt.Claims{
			"good":    claimsFor(7, "jti-good"),
			"revoked": claimsFor(8, "jti-revoked"),
		}},
		Denylist: deny,
		PublicEndpoints: map[string][]string{
			http.MethodGet: {"/public/:id"},
		},
	})
}

func do(r http.Handler, method, target, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

type pagedResponse struct {
	Items []string `json:"items"`
}

func (pagedResponse) Message() string      { return "listed" }
func (pagedResponse) StatusCode() int      { return http.StatusCreated }
func (pagedResponse) Meta() map[string]any { return map[string]any{"page": 1} }

func TestEnvelopes(t *testing.T) {
	deny := &fakeDenylist{}
	r := newTestRouter(t, deny, "")

	r.GET("/ok", func(*Request) (any, error) { return pagedResponse{Items: []string{"a"}}, nil })
	r.DELETE("/empty", func(*Request) (any, error) { return nil, nil })
	r.POST("/business", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("blog not found", goerror.CodeNotFound)
	})
	r.POST("/validation", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(validator.V10ValidationError{"title": "title is required"})
	})
	r.POST("/fields", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(nil, "following_id", "cannot follow yourself")
	})
	r.GET("/plain", func(*Request) (any, error) { return nil, errors.New("boom") })

	t.Run("Success", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/ok", "good", nil)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decode(t, rec)
		if body["message"] != "listed" || body["meta"].(map[string]any)["page"] != float64(1) {
			t.Fatalf("body = %v", body)
		}
	})

	t.Run("NoContent", func(t *testing.T) {
		rec := do(r, http.MethodDelete, "/empty", "good", nil)
		if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
			t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
		}
	})

	tests := []struct {
		name   string
		path   string
		method string
		status int
		field  string
	}{
		{"Business", "/business", http.MethodPost, http.StatusNotFound, ""},
		{"Validation", "/validation", http.MethodPost, http.StatusUnprocessableEntity, "title"},
		{"Fields", "/fields", http.MethodPost, http.StatusUnprocessableEntity, "following_id"},
		{"Unclassified", "/plain", http.MethodGet, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, tt.method, tt.path, "good", nil)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.field != "" {
				errs, _ := decode(t, rec)["error"].(map[string]any)
				if _, ok := errs[tt.field]; !ok {
					t.Fatalf("error map %v missing %q", errs, tt.field)
				}
			}
		})
	}

	t.Run("NotFoundRoute", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/nope", "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestAuthentication(t *testing.T) {
	deny := &fakeDenylist{revoked: map[string]bool{"jti-revoked": true}}
	r := newTestRouter(t, deny, "")

	whoami := func(req *Request) (any, error) {
		clm := jwt.GetAuth(req.Context())
		if clm == nil {
			return map[string]any{"uid": 0}, nil
		}
		return map[string]any{"uid": clm.UserID}, nil
	}
	r.GET("/private", whoami)
	r.GET("/public/:id", whoami)

	uidOf := func(t *testing.T, rec *httptest.ResponseRecorder) float64 {
		t.Helper()
		return decode(t, rec)["data"].(map[string]any)["uid"].(float64)
	}

	tests := []struct {
		name    string
		path    string
		token   string
		status  int
		wantUID float64
	}{
		{"PrivateNoToken", "/private", "", http.StatusUnauthorized, -1},
		{"PrivateBadToken", "/private", "junk", http.StatusUnauthorized, -1},
		{"PrivateRevoked", "/private", "revoked", http.StatusUnauthorized, -1},
		{"PrivateValid", "/private", "good", http.StatusOK, 7},
		{"PublicAnonymous", "/public/1", "", http.StatusOK, 0},
		{"PublicBadTokenIsAnonymous", "/public/1", "junk", http.StatusOK, 0},
		{"PublicRevokedIsAnonymous", "/public/1", "revoked", http.StatusOK, 0},
		{"PublicValidAttachesClaims", "/public/1", "good", http.StatusOK, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodGet, tt.path, tt.token, nil)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.wantUID >= 0 && uidOf(t, rec) != tt.wantUID {
				t.Fatalf("uid = %v, want %v", uidOf(t, rec), tt.wantUID)
			}
		})
	}

	t.Run("DenylistFailure", func(t *testing.T) {
		deny.err = errors.New("redis down")
		t.Cleanup(func() { deny.err = nil })

		rec := do(r, http.MethodGet, "/private", "good", nil)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestMaintenanceAndCorrelation(t *testing.T) {
	r := newTestRouter(t, &fakeDenylist{}, "app:\n  maintenance:\n    endpoints: /down\n")
	r.GET("/down", func(*Request) (any, error) { return "unreachable", nil })
	r.GET("/up", func(*Request) (any, error) { return "ok", nil })

	t.Run("Blocked", func(t *testing.T) {
		if rec := do(r, http.MethodGet, "/down", "good", nil); rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("GeneratedCorrelationID", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/up", "good", nil)
		if got := rec.Header().Get(HeaderCorrelationID); got != "generated-cid" {
			t.Fatalf("cid = %q", got)
		}
	})

	t.Run("InboundRequestID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/up", nil)
		req.Header.Set("Authorization", "Bearer good")
		req.Header.Set(HeaderRequestID, "  from-proxy  ")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if got := rec.Header().Get(HeaderCorrelationID); got != "from-proxy" {
			t.Fatalf("cid = %q", got)
		}
	})
}

func TestRecoverer(t *testing.T) {
	r := newTestRouter(t, &fakeDenylist{}, "")
	r.GET("/panic", func(*Request) (any, error) { panic("kaboom") })

	rec := do(r, http.MethodGet, "/panic", "good", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequestHelpers(t *testing.T) {
	r := newTestRouter(t, &fakeDenylist{}, "")

	type payload struct {
		Title string `json:"title"`
	}

	r.POST("/blog/:id", func(req *Request) (any, error) {
		id, err := req.GetParamInt64("id")
		if err != nil {
			return nil, err
		}
		page, err := req.GetQueryInt32("page")
		if err != nil {
			return nil, err
		}
		following, err := req.GetQueryBool("following")
		if err != nil {
			return nil, err
		}
		var p payload
		if err := req.DecodeBody(&p); err != nil {
			return nil, err
		}
		return map[string]any{"id": id, "page": page, "following": following, "title": p.Title}, nil
	})

	t.Run("Valid", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/blog/42?page=3&following=true", "good", bytes.NewBufferString(`{"title":"hello"}`))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		data := decode(t, rec)["data"].(map[string]any)
		if data["id"] != float64(42) || data["page"] != float64(3) || data["following"] != true || data["title"] != "hello" {
			t.Fatalf("data = %v", data)
		}
	})

	for name, target := range map[string]string{
		"BadParam": "/blog/abc",
		"BadPage":  "/blog/1?page=x",
		"BadBool":  "/blog/1?following=maybe",
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(r, http.MethodPost, target, "good", bytes.NewBufferString(`{"title":"x"}`))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
		})
	}

	for name, body := range map[string]string{
		"UnknownField": `{"title":"x","extra":1}`,
		"TrailingJSON": `{"title":"x"}{}`,
		"NotJSON":      `title=x`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/blog/1", "good", bytes.NewBufferString(body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
		})
	}
}

func TestStreamSingleFile(t *testing.T) {
	r := newTestRouter(t, &fakeDenylist{}, "")
	r.PUT("/avatar", func(req *Request) (any, error) {
		part, err := req.StreamSingleFile("avatar")
		if err != nil {
			return nil, err
		}
		defer part.Close()

		data, err := io.ReadAll(part)
		if err != nil {
			return nil, goerror.NewServer(err)
		}
		return map[string]any{"size": len(data), "name": part.FileName()}, nil
	})

	build := func(field string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		_ = mw.WriteField("note", "skipped")
		fw, _ := mw.CreateFormFile(field, "me.png")
		_, _ = fw.Write([]byte("pngdata"))
		_ = mw.Close()
		return &buf, mw.FormDataContentType()
	}

	t.Run("Found", func(t *testing.T) {
		body, ct := build("avatar")
		req := httptest.NewRequest(http.MethodPut, "/avatar", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		data := decode(t, rec)["data"].(map[string]any)
		if data["size"] != float64(len("pngdata")) || data["name"] != "me.png" {
			t.Fatalf("data = %v", data)
		}
	})

	t.Run("MissingField", func(t *testing.T) {
		body, ct := build("other")
		req := httptest.NewRequest(http.MethodPut, "/avatar", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("NotMultipart", func(t *testing.T) {
		rec := do(r, http.MethodPut, "/avatar", "good", bytes.NewBufferString("{}"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}
