package config

import (
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
)

const (
	AccountSIDVar     = "TWILIO_ACCOUNT_SID"
	APIKeyVar         = "TWIML_API_KEY"
	APISecretVar      = "TWILIO_API_KEY_SECRET"
	AppSIDVar         = "TWIML_APP_SID"
	PhoneNumberVar    = "TWILIO_PHONE_NUMBER"
	telephonyAPIVar   = "TWILIO_API_URL"
	holdMusicVar      = "HOLD_MUSIC_URL"
	conferenceWaitVar = "CONFERENCE_WAIT_URL"
	defaultClientVar  = "DEFAULT_CLIENT_IDENTITY"

	defaultTelephonyAPIURL = "https://api.twilio.com/2010-04-01"
	defaultHoldMusicURL    = "http://com.twilio.music.classical.s3.amazonaws.com/BusyStrings.wav"
	defaultConferenceWait  = "http://twimlets.com/holdmusic?Bucket=com.twilio.music.classical"
)

type TelephonyConfig interface {
	GetAccountSID() string
	GetAPIKey() string
	GetAPISecret() string
	GetAppSID() string
	GetPhoneNumber() string
	GetBaseURL() string
	GetTelephonyAPIURL() string
	GetHoldMusicURL() string
	GetConferenceWaitURL() string
	GetDefaultClientIdentity() string
}

type Telephony struct {
	EnvVars
}

var _ TelephonyConfig = Telephony{}

func (Telephony) GetAccountSID() string {
	return GetEnv(AccountSIDVar, "")
}

func (Telephony) GetAPIKey() string {
	return GetEnv(APIKeyVar, "")
}

func (Telephony) GetAPISecret() string {
	return GetEnv(APISecretVar, "")
}

func (Telephony) GetAppSID() string {
	return GetEnv(AppSIDVar, "")
}

// GetPhoneNumber returns the origination number used as caller ID for phone legs.
func (Telephony) GetPhoneNumber() string {
	return GetEnv(PhoneNumberVar, "")
}

func (Telephony) GetTelephonyAPIURL() string {
	return strings.TrimSuffix(GetEnv(telephonyAPIVar, defaultTelephonyAPIURL), "/")
}

func (Telephony) GetHoldMusicURL() string {
	return GetEnv(holdMusicVar, defaultHoldMusicURL)
}

func (Telephony) GetConferenceWaitURL() string {
	return GetEnv(conferenceWaitVar, defaultConferenceWait)
}

func (Telephony) GetDefaultClientIdentity() string {
	return GetEnv(defaultClientVar, "")
}

type requirement struct {
	name   string
	value  func(TelephonyConfig) string
	prefix string
	label  string
}

var (
	accountSIDReq = requirement{AccountSIDVar, TelephonyConfig.GetAccountSID, "AC", "Account SID"}
	apiKeyReq     = requirement{APIKeyVar, TelephonyConfig.GetAPIKey, "SK", "API Key"}
	apiSecretReq  = requirement{APISecretVar, TelephonyConfig.GetAPISecret, "", ""}
	appSIDReq     = requirement{AppSIDVar, TelephonyConfig.GetAppSID, "AP", "TwiML App SID"}
	phoneReq      = requirement{PhoneNumberVar, TelephonyConfig.GetPhoneNumber, "", ""}
)

// ValidateTokenConfig checks everything needed to mint a client access token.
func ValidateTokenConfig(c TelephonyConfig) error {
	return validate(c, accountSIDReq, apiKeyReq, apiSecretReq, appSIDReq)
}

// ValidateCallConfig checks everything needed to originate or update calls through the REST API.
func ValidateCallConfig(c TelephonyConfig) error {
	return validate(c, accountSIDReq, apiKeyReq, apiSecretReq, phoneReq)
}

// validate reports every missing name first. Prefix checks only run once all values are present.
func validate(c TelephonyConfig, reqs ...requirement) error {
	cfgErr := &apperrors.ConfigError{}
	for _, r := range reqs {
		if r.value(c) == "" {
			cfgErr.Missing = append(cfgErr.Missing, r.name)
		}
	}
	if len(cfgErr.Missing) > 0 {
		return cfgErr
	}
	for _, r := range reqs {
		if r.prefix != "" && !strings.HasPrefix(r.value(c), r.prefix) {
			cfgErr.Invalid = append(cfgErr.Invalid, fmt.Sprintf("Invalid %s format. Should start with '%s'", r.label, r.prefix))
		}
	}
	if len(cfgErr.Invalid) > 0 {
		return cfgErr
	}
	return nil
}
