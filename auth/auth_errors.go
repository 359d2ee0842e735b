package auth

import "errors"

var (
	InvalidEmailErr    = errors.New("invalid email address")
	NameTooLongErr     = errors.New("name is too long")
	UnverifiedEmailErr = errors.New("google account email is not verified")
)
