package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/brickfund/platform/internal/ctxkeys"
	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/service"
)

// Authorizer answers role questions against the user store, so role changes
// apply to sessions issued before them.
type Authorizer interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

// Exact paths reachable without a session.
var publicPaths = map[string]bool{
	"/":         true,
	"/login":    true,
	"/register": true,
	"/contact":  true,
	"/privacy":  true,
	"/terms":    true,
	"/health":   true,
	"/metrics":  true,

	"/favicon.ico":              true,
	"/robots.txt":               true,
	"/sitemap.xml":              true,
	"/api/user/upload-identity": true,
}

// Path prefixes reachable without a session.
var publicPrefixes = []string{
	"/api/auth/",
	"/api/projects",
	"/api/pages/",
	"/api/contact",
	"/projects",
	"/verify-identity/",
	"/assets/",
}

func isPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isAdminAPI(path string) bool {
	return strings.HasPrefix(path, "/api/admin/") || path == "/api/admin"
}

func isAdminUI(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/admin/")
}

func isAPI(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// Session decodes the auth cookie into a ctxkeys.Identity and gates paths:
//
//   - public paths pass through with or without a session
//   - admin API paths need a session whose user is an admin in the store (403 otherwise)
//   - admin pages redirect to login without a session, to /dashboard without the role
//   - other API paths pass through; RequireAuth answers 401 per handler
//   - other pages redirect to /login?redirect=<path>, clearing any stale cookie
func Session(authService *service.AuthService, authorizer Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, stale := readIdentity(authService, r)
			if stale {
				authService.ClearJWTCookie(w)
			}
			if identity != nil {
				r = r.WithContext(ctxkeys.WithIdentity(r.Context(), identity))
			}

			path := r.URL.Path
			switch {
			case isPublic(path):
				next.ServeHTTP(w, r)

			case isAdminAPI(path):
				if identity == nil || !hasRole(r.Context(), authorizer, identity, model.RoleAdmin) {
					writeJSONError(w, http.StatusForbidden, "forbidden")
					return
				}
				next.ServeHTTP(w, r)

			case isAdminUI(path):
				if identity == nil {
					redirectToLogin(w, r, authService)
					return
				}
				if !hasRole(r.Context(), authorizer, identity, model.RoleAdmin) {
					http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r)

			case isAPI(path):
				next.ServeHTTP(w, r)

			default:
				if identity == nil {
					redirectToLogin(w, r, authService)
					return
				}
				next.ServeHTTP(w, r)
			}
		})
	}
}

// readIdentity returns the cookie's identity. stale is true when a cookie
// was sent but could not be used.
func readIdentity(authService *service.AuthService, r *http.Request) (*ctxkeys.Identity, bool) {
	cookie, err := r.Cookie(service.AuthCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	claims, err := authService.VerifyJWT(cookie.Value)
	if err != nil {
		return nil, true
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, true
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &ctxkeys.Identity{UserID: userID, Email: email, Role: role}, false
}

func hasRole(ctx context.Context, authorizer Authorizer, identity *ctxkeys.Identity, role string) bool {
	ok, err := authorizer.HasRole(ctx, identity.UserID, role)
	if err != nil {
		slog.Error("role check failed", "error", err, "user_id", identity.UserID)
		return false
	}
	return ok
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, authService *service.AuthService) {
	authService.ClearJWTCookie(w)
	target := "/login?redirect=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// RequireAuth answers 401 when the request carries no session identity.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.IdentityFrom(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(map[string]string{"message": message})
	if err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
