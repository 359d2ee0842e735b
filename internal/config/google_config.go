package config

const googleIssuerURL = "https://accounts.google.com"

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleIssuerURL() string
	GetGoogleRedirectURL() string
	GoogleEnabled() bool
}

type Google struct{}

var _ GoogleConfig = Google{}

func (Google) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (Google) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func (Google) GetGoogleIssuerURL() string {
	return GetEnv("GOOGLE_ISSUER_URL", googleIssuerURL)
}

func (Google) GetGoogleRedirectURL() string {
	return EnvVars{}.GetBaseURL() + "/api/auth/callback/google"
}

func (g Google) GoogleEnabled() bool {
	return g.GetGoogleClientID() != "" && g.GetGoogleClientSecret() != ""
}
