package app

import (
	"context"
	"fmt"

	"github.com/brickfund/platform/internal/config"
	"github.com/brickfund/platform/internal/db"
	"github.com/brickfund/platform/internal/middleware"
	"github.com/brickfund/platform/internal/repository"
	"github.com/brickfund/platform/internal/service"
	"github.com/brickfund/platform/internal/storage"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Cfg                 *config.Config
	DB                  *sqlx.DB
	UserRepository      repository.UserRepository
	Storage             storage.Storage
	RateLimiter         *middleware.RateLimiter // register, login, contact
	UploadRateLimiter   *middleware.RateLimiter // identity uploads
	Proxies             *middleware.ProxyTrust
	AuthService         *service.AuthService
	UserService         *service.UserService
	EmailService        *service.EmailService
	VerificationService *service.VerificationService
	AdminService        *service.AdminService
	CatalogService      *service.CatalogService
	LegalService        *service.LegalService
	SitemapService      *service.SitemapService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Storage is optional; identity images stay inline without it
	var fileStorage storage.Storage
	if cfg.StorageEnabled() {
		s3Storage, err := storage.New(ctx, cfg)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		fileStorage = s3Storage
	}

	mailer := service.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom, cfg.IsDevelopment())

	return Assemble(cfg, database, fileStorage, mailer), nil
}

// Assemble wires repositories and services over an open database.
func Assemble(cfg *config.Config, database *sqlx.DB, fileStorage storage.Storage, mailer service.Mailer) *App {
	// Repositories
	userRepository := repository.NewUserRepository(database)

	// Services
	emailService := service.NewEmailService(mailer, cfg.AppURL, cfg.AppName, cfg.SupportEmail)
	authService := service.NewAuthService(
		userRepository,
		emailService,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.CookieSecure,
		cfg.AdminEmail,
	)
	userService := service.NewUserService(userRepository, authService, fileStorage)
	verificationService := service.NewVerificationService(userRepository, fileStorage, service.VerificationConfig{
		AppURL:       cfg.AppURL,
		QRRenderURL:  cfg.QRRenderURL,
		TokenTTL:     cfg.HandoffTokenTTL,
		PollInterval: cfg.HandoffPollInterval,
		WaitMax:      cfg.HandoffWaitMax,
	})
	adminService := service.NewAdminService(userRepository, fileStorage)
	catalogService := service.NewCatalogService(cfg.ContentPath)
	legalService := service.NewLegalService(cfg.ContentPath)
	sitemapService := service.NewSitemapService(catalogService, cfg.AppURL)

	return &App{
		Cfg:                 cfg,
		DB:                  database,
		UserRepository:      userRepository,
		Storage:             fileStorage,
		RateLimiter:         middleware.NewRateLimiter(cfg.RateLimitAuth, cfg.RateLimitWindow),
		UploadRateLimiter:   middleware.NewRateLimiter(cfg.RateLimitUpload, cfg.RateLimitWindow),
		Proxies:             middleware.NewProxyTrust(cfg.TrustedProxies),
		AuthService:         authService,
		UserService:         userService,
		EmailService:        emailService,
		VerificationService: verificationService,
		AdminService:        adminService,
		CatalogService:      catalogService,
		LegalService:        legalService,
		SitemapService:      sitemapService,
	}
}

func (a *App) Close() error {
	for _, limiter := range []*middleware.RateLimiter{a.RateLimiter, a.UploadRateLimiter} {
		if limiter != nil {
			limiter.Stop()
		}
	}
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
