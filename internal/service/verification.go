package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/brickfund/platform/internal/metrics"
	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/onboarding"
	"github.com/brickfund/platform/internal/repository"
	"github.com/brickfund/platform/internal/storage"
	"github.com/brickfund/platform/internal/validation"
	"github.com/google/uuid"
)

type VerificationConfig struct {
	AppURL       string
	QRRenderURL  string
	TokenTTL     time.Duration // 0: tokens never expire
	PollInterval time.Duration
	WaitMax      time.Duration
}

// VerificationService runs the identity document hand-off: a desktop
// session gets a link bound to a bearer token, and a second device uploads
// both sides of the document with that token alone.
type VerificationService struct {
	userRepository repository.UserRepository
	storage        storage.Storage // nil: images stored inline as data URIs
	cfg            VerificationConfig
	now            func() time.Time
}

func NewVerificationService(userRepository repository.UserRepository, fileStorage storage.Storage, cfg VerificationConfig) *VerificationService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = onboarding.DefaultPollInterval
	}
	return &VerificationService{
		userRepository: userRepository,
		storage:        fileStorage,
		cfg:            cfg,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type Handoff struct {
	Token           string `json:"-"`
	VerificationURL string `json:"verificationUrl"`
	QRURL           string `json:"qrUrl"`
}

// HandoffLink returns the user's hand-off link, creating the token on first
// use. Concurrent first calls agree on a single token.
func (s *VerificationService) HandoffLink(ctx context.Context, userID string) (*Handoff, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.VerificationQRCode != nil && !s.expired(user) {
		metrics.HandoffEvents.WithLabelValues("token_reused").Inc()
		return s.handoff(*user.VerificationQRCode)
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate hand-off token: %w", err)
	}

	now := s.now()
	var staleBefore *time.Time
	if s.cfg.TokenTTL > 0 {
		cutoff := now.Add(-s.cfg.TokenTTL)
		staleBefore = &cutoff
	}

	created, err := s.userRepository.SetHandoffToken(ctx, userID, token, now, staleBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to store hand-off token: %w", err)
	}
	if created {
		metrics.HandoffEvents.WithLabelValues("token_issued").Inc()
		slog.Info("hand-off token issued", "user_id", userID)
		return s.handoff(token)
	}

	// Another request stored its token first
	user, err = s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.VerificationQRCode == nil {
		return nil, fmt.Errorf("hand-off token missing after conditional write")
	}
	return s.handoff(*user.VerificationQRCode)
}

func (s *VerificationService) handoff(token string) (*Handoff, error) {
	link := fmt.Sprintf("%s/verify-identity/%s", s.cfg.AppURL, token)

	qr, err := url.Parse(s.cfg.QRRenderURL)
	if err != nil {
		return nil, fmt.Errorf("invalid QR render URL: %w", err)
	}
	q := qr.Query()
	q.Set("data", link)
	qr.RawQuery = q.Encode()

	return &Handoff{Token: token, VerificationURL: link, QRURL: qr.String()}, nil
}

func (s *VerificationService) expired(user *model.User) bool {
	if s.cfg.TokenTTL <= 0 || user.VerificationQRIssuedAt == nil {
		return false
	}
	return user.VerificationQRIssuedAt.Before(s.now().Add(-s.cfg.TokenTTL))
}

// ResolveToken finds the user a hand-off token belongs to.
func (s *VerificationService) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidHandoffToken
	}

	user, err := s.userRepository.ByHandoffToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidHandoffToken
		}
		return nil, err
	}
	if s.expired(user) {
		return nil, ErrInvalidHandoffToken
	}
	return user, nil
}

type UploadInput struct {
	Token     string `json:"token"`
	Side      string `json:"side"`
	ImageData string `json:"imageData"`
}

type UploadResult struct {
	Side             string `json:"side"`
	IdentityVerified bool   `json:"identityVerified"`
}

// UploadIdentity stores one side of the identity document. Uploading the
// same side again replaces the previous image.
func (s *VerificationService) UploadIdentity(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.Token == "" || in.Side == "" || in.ImageData == "" {
		return nil, invalid("token, side and imageData are required")
	}
	if !model.ValidSide(in.Side) {
		return nil, invalid("side must be %q or %q", model.SideFront, model.SideBack)
	}

	img, err := validation.ParseImageDataURI(in.ImageData)
	if err != nil {
		return nil, invalidErr(err)
	}

	user, err := s.ResolveToken(ctx, in.Token)
	if err != nil {
		return nil, err
	}

	ref := in.ImageData
	if s.storage != nil {
		ref = fmt.Sprintf("private/identity/%s/%s-%s%s", user.ID, in.Side, uuid.New().String(), img.Extension)
		err = s.storage.Save(ctx, ref, bytes.NewReader(img.Data), img.MimeType)
		if err != nil {
			return nil, fmt.Errorf("failed to store identity image: %w", err)
		}
	}

	var update repository.UserUpdate
	if in.Side == model.SideFront {
		update.IDFrontImage = &ref
	} else {
		update.IDBackImage = &ref
	}

	err = s.userRepository.Update(ctx, user.ID, update)
	if err != nil {
		return nil, err
	}

	previous := user.IdentityImage(in.Side)
	s.deleteStored(ctx, user.ID, previous)

	metrics.HandoffEvents.WithLabelValues("upload_" + in.Side).Inc()
	slog.Info("identity image uploaded", "user_id", user.ID, "side", in.Side, "bytes", len(img.Data))

	front, back := user.IDFrontImage, user.IDBackImage
	if in.Side == model.SideFront {
		front = ref
	} else {
		back = ref
	}
	return &UploadResult{Side: in.Side, IdentityVerified: front != "" && back != ""}, nil
}

// deleteStored removes an object-storage image, logging failures.
func (s *VerificationService) deleteStored(ctx context.Context, userID, ref string) {
	if s.storage == nil || ref == "" || isDataURI(ref) {
		return
	}
	err := s.storage.Delete(ctx, ref)
	if err != nil {
		slog.Warn("failed to delete identity image", "error", err, "user_id", userID)
	}
}

type OnboardingState struct {
	Steps            []onboarding.Step `json:"steps"`
	Current          onboarding.StepID `json:"current"`
	IdentityVerified bool              `json:"identityVerified"`
}

func newOnboardingState(steps []onboarding.Step) *OnboardingState {
	return &OnboardingState{
		Steps:            steps,
		Current:          onboarding.Current(steps),
		IdentityVerified: onboarding.StatusOf(steps, onboarding.StepIdentity) == onboarding.StatusCompleted,
	}
}

// Onboarding derives the user's step state from the stored record.
func (s *VerificationService) Onboarding(ctx context.Context, userID string) (*OnboardingState, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newOnboardingState(onboarding.Derive(user)), nil
}

// WaitForIdentity polls the store until both document sides are present,
// ctx is done, or the configured wait bound passes. Running out of time is
// not an error; the latest state is returned.
func (s *VerificationService) WaitForIdentity(ctx context.Context, userID string) (*OnboardingState, error) {
	if s.cfg.WaitMax > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.WaitMax)
		defer cancel()
	}

	fetch := func(ctx context.Context) (*model.User, error) {
		return s.userRepository.ByID(ctx, userID)
	}

	steps, err := onboarding.Poll(ctx, onboarding.NewTracker(), fetch, s.cfg.PollInterval, nil)
	// A fetch cut short by the deadline surfaces as a driver error
	if err != nil && ctx.Err() == nil {
		return nil, err
	}
	return newOnboardingState(steps), nil
}
