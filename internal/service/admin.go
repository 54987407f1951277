package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/repository"
	"github.com/brickfund/platform/internal/storage"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type AdminService struct {
	userRepository repository.UserRepository
	storage        storage.Storage
}

func NewAdminService(userRepository repository.UserRepository, fileStorage storage.Storage) *AdminService {
	return &AdminService{
		userRepository: userRepository,
		storage:        fileStorage,
	}
}

// UserRow is one line of the admin user table.
type UserRow struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	EmailVerified    bool      `json:"emailVerified"`
	IdentityVerified bool      `json:"identityVerified"`
	CreatedAt        time.Time `json:"createdAt"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type UserPage struct {
	Users      []UserRow  `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// ListUsers pages through users, newest first. page starts at 1; out of
// range page and limit values fall back to defaults.
func (s *AdminService) ListUsers(ctx context.Context, page, limit int, search string) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	users, total, err := s.userRepository.List(ctx, repository.ListParams{
		Search: search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, UserRow{
			ID:               u.ID,
			Name:             u.Name,
			Email:            u.Email,
			Role:             u.Role,
			EmailVerified:    u.EmailVerifiedAt != nil,
			IdentityVerified: u.IdentityVerified,
			CreatedAt:        u.CreatedAt,
		})
	}

	return &UserPage{
		Users: rows,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

func (s *AdminService) User(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resolveImageURLs(ctx, s.storage, user)
	return user, nil
}

// UpdateRole sets a user's role. Admins cannot demote themselves.
func (s *AdminService) UpdateRole(ctx context.Context, actorID, id, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, invalid("role must be %q or %q", model.RoleUser, model.RoleAdmin)
	}
	if actorID == id && role != model.RoleAdmin {
		return nil, ErrSelfDemotion
	}

	err := s.userRepository.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	slog.Info("user role changed", "user_id", id, "role", role, "by", actorID)
	return s.User(ctx, id)
}

// DeleteUser hard-deletes a user. Stored identity images are removed
// best-effort afterwards.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfDelete
	}

	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.userRepository.Delete(ctx, id)
	if err != nil {
		return err
	}

	if s.storage != nil {
		for _, ref := range []string{user.IDFrontImage, user.IDBackImage} {
			if ref == "" || isDataURI(ref) {
				continue
			}
			err := s.storage.Delete(ctx, ref)
			if err != nil {
				slog.Warn("failed to delete identity image", "error", err, "user_id", id)
			}
		}
	}

	slog.Info("user deleted", "user_id", id, "by", actorID)
	return nil
}
