package config

import "time"

type AuthConfig interface {
	GetSessionExpiry() time.Duration
	GetSessionUpdateAge() time.Duration
	GetSessionTokenLength() int
	GetAuthFlowTimeout() time.Duration
	GetSecureCookies() bool
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetSessionExpiry() time.Duration {
	return 7 * 24 * time.Hour
}

// GetSessionUpdateAge is how old a session must be before a request extends it.
func (Auth) GetSessionUpdateAge() time.Duration {
	return 24 * time.Hour
}

func (Auth) GetSessionTokenLength() int {
	return 32
}

func (Auth) GetAuthFlowTimeout() time.Duration {
	return 10 * time.Minute
}

func (Auth) GetSecureCookies() bool {
	return EnvVars{}.GetEnv() != "DEV"
}
