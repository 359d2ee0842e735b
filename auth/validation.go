package auth

import (
	"net/mail"
	"strings"

	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/users"
)

const maxNameLength = 100

// Validator holds the input rules for email/password sign-up and sign-in.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.NewValidationError("email", InvalidEmailErr.Error())
	}
	return nil
}

func (v *Validator) ValidateSignUp(req SignUpRequest) error {
	if err := v.ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return apperrors.NewValidationError("password", err.Error())
	}
	if len(req.Name) > maxNameLength {
		return apperrors.NewValidationError("name", NameTooLongErr.Error())
	}
	return nil
}

func (v *Validator) ValidateSignIn(email, password string) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return apperrors.NewValidationError("password", "password is required")
	}
	return nil
}
