package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrEmailAlreadyExists       = errors.New("email already exists")
	ErrEmailNotVerified         = errors.New("email not verified")
	ErrInvalidVerificationToken = errors.New("invalid or already used verification link")
	ErrWrongPassword            = errors.New("current password is incorrect")
	ErrInvalidHandoffToken      = errors.New("invalid or expired verification link")
	ErrSelfDemotion             = errors.New("you cannot remove your own admin role")
	ErrSelfDelete               = errors.New("you cannot delete your own account")
	ErrProjectNotFound          = errors.New("project not found")
	ErrPageNotFound             = errors.New("page not found")
)

// ValidationError carries a message that is safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func invalidErr(err error) error {
	return &ValidationError{Message: err.Error()}
}
