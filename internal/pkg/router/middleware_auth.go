package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/quill/internal/pkg/jwt"
)

func bearerToken(r *http.Request) (string, bool) {
	p := strings.Fields(r.Header.Get("Authorization"))
	if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
		return "", false
	}
	return p[1], true
}

// middlewareAuthentication requires a valid, non-revoked bearer token on
// every route except public ones. Public routes still attach the caller's
// claims when a valid token is sent, and treat a bad token as anonymous.
func middlewareAuthentication(verifier jwt.JWT, denylist Denylist, public map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, isPublic := public[r.Method][matchedRoutePath(r)]

			token, ok := bearerToken(r)
			if !ok {
				if isPublic {
					next.ServeHTTP(w, r)
					return
				}
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				if isPublic {
					next.ServeHTTP(w, r)
					return
				}
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			if denylist != nil {
				revoked, err := denylist.Contains(r.Context(), claims.ID)
				if err != nil {
					slog.ErrorContext(r.Context(), "failed to check token denylist", "jti", claims.ID, "error", err)
					writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
					return
				}
				if revoked {
					if isPublic {
						next.ServeHTTP(w, r)
						return
					}
					writeJSON(w, errorResponse{Message: "Token has been revoked"}, http.StatusUnauthorized)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
