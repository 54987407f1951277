package testutil

import (
	"strings"
	"time"

	"github.com/brickfund/platform/internal/model"
	"github.com/google/uuid"
)

// NewUser builds an unsaved, unverified user with a fixed password hash.
func NewUser(email string) *model.User {
	now := time.Now().UTC()
	settings := model.DefaultSettings()
	return &model.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		Name:         strings.Split(email, "@")[0],
		PasswordHash: "$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinv",
		Role:         model.RoleUser,
		Settings:     &settings,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
