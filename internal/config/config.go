package config

type Config interface {
	EnvConfig
	CorsConfig
	AuthConfig
	GoogleConfig
	TelephonyConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogFile() string
	GetDatabaseURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Auth
	Google
	Telephony
}

func New() Config {
	return mainConfig{}
}
