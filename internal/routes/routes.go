package routes

import (
	"net/http"

	"github.com/brickfund/platform/internal/app"
	"github.com/brickfund/platform/internal/handler"
	"github.com/brickfund/platform/internal/metrics"
	"github.com/brickfund/platform/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.VerificationService)
	user := handler.NewUserHandler(app.UserService)
	verification := handler.NewVerificationHandler(app.VerificationService)
	admin := handler.NewAdminHandler(app.AdminService)
	content := handler.NewContentHandler(app.CatalogService, app.LegalService, app.EmailService)
	seo := handler.NewSEOHandler(app.SitemapService, app.Cfg.AppURL)
	health := handler.NewHealthHandler(app.DB)
	web := handler.NewWebHandler(app.Cfg.WebDir)

	rateLimit := middleware.RateLimit(app.RateLimiter, app.Proxies)
	uploadRateLimit := middleware.RateLimit(app.UploadRateLimiter, app.Proxies)
	requireAuth := middleware.RequireAuth

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	// SEO
	mux.HandleFunc("GET /robots.txt", seo.Robots)
	mux.HandleFunc("GET /sitemap.xml", seo.Sitemap)

	// Content
	mux.HandleFunc("GET /api/projects", content.Projects)
	mux.HandleFunc("GET /api/projects/{slug}", content.Project)
	mux.HandleFunc("GET /api/pages/{slug}", content.Page)
	mux.HandleFunc("POST /api/contact", rateLimit(content.Contact))

	// Auth (credential endpoints rate limited)
	mux.HandleFunc("POST /api/auth/register", rateLimit(auth.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimit(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/auth/verify/{token}", auth.VerifyEmail)
	mux.HandleFunc("GET /api/auth/verify-token/{token}", auth.VerifyHandoffToken)

	// Identity upload from the second device; the body token is the credential
	mux.HandleFunc("POST /api/user/upload-identity", uploadRateLimit(verification.UploadIdentity))

	// ============================================================================
	// SIGNED-IN ROUTES (/api/user/*)
	// ============================================================================

	mux.HandleFunc("GET /api/user/profile", requireAuth(user.Profile))
	mux.HandleFunc("PUT /api/user/profile", requireAuth(user.UpdateProfile))
	mux.HandleFunc("PUT /api/user/address", requireAuth(user.UpdateAddress))
	mux.HandleFunc("PUT /api/user/phone", requireAuth(user.UpdatePhone))
	mux.HandleFunc("PUT /api/user/marital-status", requireAuth(user.UpdateMaritalStatus))
	mux.HandleFunc("PUT /api/user/nationality", requireAuth(user.UpdateNationality))
	mux.HandleFunc("PUT /api/user/personal-data", requireAuth(user.UpdatePersonalData))
	mux.HandleFunc("PUT /api/user/regulatory-info", requireAuth(user.UpdateRegulatoryInfo))
	mux.HandleFunc("GET /api/user/settings", requireAuth(user.Settings))
	mux.HandleFunc("PUT /api/user/settings", requireAuth(user.UpdateSettings))
	mux.HandleFunc("PUT /api/user/password", requireAuth(user.ChangePassword))

	// Verification hand-off and onboarding
	mux.HandleFunc("GET /api/user/verification-qr", requireAuth(verification.QRCode))
	mux.HandleFunc("GET /api/user/onboarding", requireAuth(verification.Onboarding))
	mux.HandleFunc("GET /api/user/verification-status", requireAuth(verification.Status))

	// ============================================================================
	// ADMIN ROUTES (/api/admin/*, role checked by the session gate)
	// ============================================================================

	mux.HandleFunc("GET /api/admin/users", admin.ListUsers)
	mux.HandleFunc("GET /api/admin/users/{id}", admin.User)
	mux.HandleFunc("PUT /api/admin/users/{id}", requireAuth(admin.UpdateUser))
	mux.HandleFunc("DELETE /api/admin/users/{id}", requireAuth(admin.DeleteUser))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// Web client, or JSON 404
	mux.HandleFunc("/{path...}", web.Serve)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.SecurityHeaders(app.Cfg.CookieSecure),
		middleware.CORS(app.Cfg.TrustedOrigins),
		middleware.OriginCheck(app.Cfg.AppURL, app.Cfg.TrustedOrigins),
		middleware.Session(app.AuthService, app.UserService),
		metrics.Middleware, // innermost: reads the pattern the mux matched
	)

	return handler
}
