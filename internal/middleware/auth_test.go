package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brickfund/platform/internal/ctxkeys"
	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/service"
)

// roles is an Authorizer backed by a map of user id to role.
type roles map[string]string

func (r roles) HasRole(_ context.Context, userID, role string) (bool, error) {
	return r[userID] == role, nil
}

func newAuthService() *service.AuthService {
	return service.NewAuthService(nil, nil, "test-secret-test-secret-test-secret", time.Hour, false, "")
}

func sessionCookie(t *testing.T, auth *service.AuthService, id, role string) *http.Cookie {
	t.Helper()
	token, _, err := auth.GenerateJWT(&model.User{ID: id, Email: id + "@x.com", Role: role})
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: service.AuthCookieName, Value: token}
}

func TestSession(t *testing.T) {
	auth := newAuthService()
	store := roles{"admin1": model.RoleAdmin, "user1": model.RoleUser}

	var seen *ctxkeys.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxkeys.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Session(auth, store)(next)

	// A JWT claiming admin for a user the store knows as a plain user
	forged := sessionCookie(t, auth, "user1", model.RoleAdmin)

	tests := []struct {
		name         string
		path         string
		cookie       *http.Cookie
		wantStatus   int
		wantLocation string
		wantIdentity string
	}{
		{"public anonymous", "/api/projects", nil, http.StatusOK, "", ""},
		{"public with session", "/", sessionCookie(t, auth, "user1", model.RoleUser), http.StatusOK, "", "user1"},
		{"upload is public", "/api/user/upload-identity", nil, http.StatusOK, "", ""},
		{"admin api anonymous", "/api/admin/users", nil, http.StatusForbidden, "", ""},
		{"admin api plain user", "/api/admin/users", sessionCookie(t, auth, "user1", model.RoleUser), http.StatusForbidden, "", ""},
		{"admin api role re-checked", "/api/admin/users", forged, http.StatusForbidden, "", ""},
		{"admin api admin", "/api/admin/users/42", sessionCookie(t, auth, "admin1", model.RoleAdmin), http.StatusOK, "", "admin1"},
		{"admin ui anonymous", "/admin", nil, http.StatusSeeOther, "/login?redirect=%2Fadmin", ""},
		{"admin ui plain user", "/admin/users", sessionCookie(t, auth, "user1", model.RoleUser), http.StatusSeeOther, "/dashboard", ""},
		{"api passes through", "/api/user/profile", nil, http.StatusOK, "", ""},
		{"ui anonymous", "/dashboard?tab=kyc", nil, http.StatusSeeOther, "/login?redirect=%2Fdashboard%3Ftab%3Dkyc", ""},
		{"ui with session", "/dashboard", sessionCookie(t, auth, "user1", model.RoleUser), http.StatusOK, "", "user1"},
		{"ui stale cookie", "/dashboard", &http.Cookie{Name: service.AuthCookieName, Value: "garbage"}, http.StatusSeeOther, "/login?redirect=%2Fdashboard", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("location = %q, want %q", loc, tt.wantLocation)
			}
			if tt.wantIdentity != "" && (seen == nil || seen.UserID != tt.wantIdentity) {
				t.Errorf("identity = %+v, want %s", seen, tt.wantIdentity)
			}
			if tt.wantStatus == http.StatusForbidden && !strings.Contains(rec.Body.String(), `"message"`) {
				t.Errorf("body = %q, want JSON message", rec.Body.String())
			}
		})
	}
}

func TestSessionClearsStaleCookie(t *testing.T) {
	handler := Session(newAuthService(), roles{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.AddCookie(&http.Cookie{Name: service.AuthCookieName, Value: "expired"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != service.AuthCookieName || cookies[0].MaxAge >= 0 {
		t.Errorf("cookies = %+v, want cleared auth cookie", cookies)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/user/profile", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req = req.WithContext(ctxkeys.WithIdentity(req.Context(), &ctxkeys.Identity{UserID: "u1"}))
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("signed in: status = %d, want 204", rec.Code)
	}
}
