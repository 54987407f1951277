package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/repository"
	"github.com/brickfund/platform/internal/storage"
	"github.com/brickfund/platform/internal/validation"
)

type UserService struct {
	userRepository repository.UserRepository
	authService    *AuthService
	storage        storage.Storage // nil: identity images stay inline
}

func NewUserService(userRepository repository.UserRepository, authService *AuthService, fileStorage storage.Storage) *UserService {
	return &UserService{
		userRepository: userRepository,
		authService:    authService,
		storage:        fileStorage,
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	return s.userRepository.ByID(ctx, id)
}

// HasRole re-reads the role from the store. A missing user has no role.
func (s *UserService) HasRole(ctx context.Context, userID, role string) (bool, error) {
	current, err := s.userRepository.Role(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return current == role, nil
}

// Profile returns the caller's user document with stored identity images
// replaced by short-lived URLs.
func (s *UserService) Profile(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resolveImageURLs(ctx, s.storage, user)
	return user, nil
}

// resolveImageURLs rewrites object keys to presigned URLs. Inline data URIs
// are left alone.
func resolveImageURLs(ctx context.Context, fileStorage storage.Storage, user *model.User) {
	if fileStorage == nil {
		return
	}
	for _, ref := range []*string{&user.IDFrontImage, &user.IDBackImage} {
		if *ref == "" || isDataURI(*ref) {
			continue
		}
		url, err := fileStorage.URL(ctx, *ref)
		if err != nil {
			slog.Warn("failed to presign identity image", "error", err, "user_id", user.ID)
			continue
		}
		*ref = url
	}
}

func isDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

type ProfileInput struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
}

// UpdateProfile changes name, email and avatar. An email held by another
// user fails with ErrEmailAlreadyExists.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*model.User, error) {
	if in.Name == nil && in.Email == nil && in.Avatar == nil {
		return nil, invalid("name, email or avatar is required")
	}

	var update repository.UserUpdate

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		err := validation.ValidateName(name)
		if err != nil {
			return nil, invalidErr(err)
		}
		update.Name = &name
	}

	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		err := validation.ValidateEmail(email)
		if err != nil {
			return nil, invalidErr(err)
		}

		existing, err := s.userRepository.ByEmail(ctx, email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil && existing.ID != id {
			return nil, ErrEmailAlreadyExists
		}
		update.Email = &email
	}

	if in.Avatar != nil {
		avatar := strings.TrimSpace(*in.Avatar)
		err := validateAvatar(avatar)
		if err != nil {
			return nil, err
		}
		update.Avatar = &avatar
	}

	err := s.userRepository.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	return s.Profile(ctx, id)
}

// validateAvatar accepts "", an http(s) URL, or an image data URI.
func validateAvatar(avatar string) error {
	switch {
	case avatar == "":
		return nil
	case isDataURI(avatar):
		_, err := validation.ParseImageDataURI(avatar)
		if err != nil {
			return invalidErr(err)
		}
		return nil
	case strings.HasPrefix(avatar, "https://") || strings.HasPrefix(avatar, "http://"):
		if len(avatar) > 2048 {
			return invalid("avatar URL is too long")
		}
		return nil
	default:
		return invalid("avatar must be an image URL or data URI")
	}
}

func (s *UserService) UpdateAddress(ctx context.Context, id string, in model.Address) (*model.Address, error) {
	addr := model.Address{
		Street:  strings.TrimSpace(in.Street),
		Region:  strings.TrimSpace(in.Region),
		Commune: strings.TrimSpace(in.Commune),
	}
	err := validation.Required("street", addr.Street, "region", addr.Region, "commune", addr.Commune)
	if err != nil {
		return nil, invalidErr(err)
	}

	err = s.userRepository.Update(ctx, id, repository.UserUpdate{Address: &addr})
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func (s *UserService) UpdatePhone(ctx context.Context, id, phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	err := validation.ValidatePhone(phone)
	if err != nil {
		return "", invalidErr(err)
	}

	err = s.userRepository.Update(ctx, id, repository.UserUpdate{Phone: &phone})
	if err != nil {
		return "", err
	}
	return phone, nil
}

// The personal info writers below read the stored object, change their own
// fields and write the whole object back. Concurrent writers can lose updates.

func (s *UserService) UpdateMaritalStatus(ctx context.Context, id, status string) (*model.PersonalInfo, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, invalid("maritalStatus is required")
	}
	if len(status) > 50 {
		return nil, invalid("maritalStatus is too long")
	}

	return s.updatePersonalInfo(ctx, id, func(info *model.PersonalInfo) {
		info.MaritalStatus = status
	})
}

func (s *UserService) UpdateNationality(ctx context.Context, id string, nationality *bool) (*model.PersonalInfo, error) {
	if nationality == nil {
		return nil, invalid("nationality is required")
	}
	value := *nationality

	return s.updatePersonalInfo(ctx, id, func(info *model.PersonalInfo) {
		info.Nationality = &value
	})
}

type PersonalDataInput struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	SecondLastName string `json:"secondLastName"`
	Gender         string `json:"gender"`
	BirthDate      string `json:"birthDate"`
	IDExpiryDate   string `json:"idExpiryDate"`
}

// UpdatePersonalData replaces the name, gender and date fields, keeping the
// stored marital status and nationality.
func (s *UserService) UpdatePersonalData(ctx context.Context, id string, in PersonalDataInput) (*model.PersonalInfo, error) {
	in = PersonalDataInput{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		SecondLastName: strings.TrimSpace(in.SecondLastName),
		Gender:         strings.TrimSpace(in.Gender),
		BirthDate:      strings.TrimSpace(in.BirthDate),
		IDExpiryDate:   strings.TrimSpace(in.IDExpiryDate),
	}

	err := validation.Required("firstName", in.FirstName, "lastName", in.LastName, "birthDate", in.BirthDate)
	if err != nil {
		return nil, invalidErr(err)
	}
	err = validation.ValidateDate("birthDate", in.BirthDate)
	if err != nil {
		return nil, invalidErr(err)
	}
	err = validation.ValidateDate("idExpiryDate", in.IDExpiryDate)
	if err != nil {
		return nil, invalidErr(err)
	}

	return s.updatePersonalInfo(ctx, id, func(info *model.PersonalInfo) {
		info.FirstName = in.FirstName
		info.LastName = in.LastName
		info.SecondLastName = in.SecondLastName
		info.Gender = in.Gender
		info.BirthDate = in.BirthDate
		info.IDExpiryDate = in.IDExpiryDate
	})
}

func (s *UserService) updatePersonalInfo(ctx context.Context, id string, mutate func(*model.PersonalInfo)) (*model.PersonalInfo, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	info := model.PersonalInfo{}
	if user.PersonalInfo != nil {
		info = *user.PersonalInfo
	}
	mutate(&info)

	err = s.userRepository.Update(ctx, id, repository.UserUpdate{PersonalInfo: &info})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

type RegulatoryInput struct {
	IllicitActivities  *bool    `json:"illicitActivities"`
	PoliticallyExposed *bool    `json:"politicallyExposed"`
	FundOrigins        []string `json:"fundOrigins"`
}

func (s *UserService) UpdateRegulatoryInfo(ctx context.Context, id string, in RegulatoryInput) (*model.RegulatoryInfo, error) {
	if in.IllicitActivities == nil || in.PoliticallyExposed == nil {
		return nil, invalid("illicitActivities and politicallyExposed are required")
	}

	var origins []string
	for _, origin := range in.FundOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return nil, invalid("at least one fund origin is required")
	}

	info := model.RegulatoryInfo{
		IllicitActivities:  *in.IllicitActivities,
		PoliticallyExposed: *in.PoliticallyExposed,
		FundOrigins:        origins,
	}

	err := s.userRepository.Update(ctx, id, repository.UserUpdate{RegulatoryInfo: &info})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Settings returns the stored settings, or the defaults when none are saved.
func (s *UserService) Settings(ctx context.Context, id string) (*model.Settings, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Settings == nil {
		settings := model.DefaultSettings()
		return &settings, nil
	}
	return user.Settings, nil
}

type NotificationsPatch struct {
	Opportunities *bool `json:"opportunities"`
	Updates       *bool `json:"updates"`
	Newsletter    *bool `json:"newsletter"`
}

type SettingsPatch struct {
	Notifications *NotificationsPatch `json:"notifications"`
	Language      *string             `json:"language"`
	Theme         *string             `json:"theme"`
}

var (
	supportedLanguages = map[string]bool{"es": true, "en": true}
	supportedThemes    = map[string]bool{"light": true, "dark": true, "system": true}
)

// UpdateSettings merges patch over the stored settings. Notification flags
// are merged one by one, so a partial patch keeps the other flags.
func (s *UserService) UpdateSettings(ctx context.Context, id string, patch SettingsPatch) (*model.Settings, error) {
	if patch.Notifications == nil && patch.Language == nil && patch.Theme == nil {
		return nil, invalid("no settings to update")
	}
	if patch.Language != nil && !supportedLanguages[*patch.Language] {
		return nil, invalid("unsupported language: %s", *patch.Language)
	}
	if patch.Theme != nil && !supportedThemes[*patch.Theme] {
		return nil, invalid("unsupported theme: %s", *patch.Theme)
	}

	current, err := s.Settings(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := *current

	if patch.Language != nil {
		merged.Language = *patch.Language
	}
	if patch.Theme != nil {
		merged.Theme = *patch.Theme
	}
	if n := patch.Notifications; n != nil {
		if n.Opportunities != nil {
			merged.Notifications.Opportunities = *n.Opportunities
		}
		if n.Updates != nil {
			merged.Notifications.Updates = *n.Updates
		}
		if n.Newsletter != nil {
			merged.Notifications.Newsletter = *n.Newsletter
		}
	}

	err = s.userRepository.Update(ctx, id, repository.UserUpdate{Settings: &merged})
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

// ChangePassword re-checks the current password before storing the new hash.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return invalid("currentPassword and newPassword are required")
	}
	err := validation.ValidatePassword(newPassword)
	if err != nil {
		return invalidErr(err)
	}

	user, err := s.userRepository.ByIDWithPassword(ctx, id)
	if err != nil {
		return err
	}

	err = s.authService.ComparePassword(currentPassword, user.PasswordHash)
	if err != nil {
		return ErrWrongPassword
	}

	hash, err := s.authService.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepository.UpdatePassword(ctx, id, hash)
	if err != nil {
		return err
	}

	slog.Info("password changed", "user_id", id)
	return nil
}
