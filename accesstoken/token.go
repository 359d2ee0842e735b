// Package accesstoken mints short-lived client access tokens that let a browser or
// softphone device register with the voice provider.
package accesstoken

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-voice-server/internal/config"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
)

const (
	// TTL is fixed; clients fetch a new token rather than extend one.
	TTL = time.Hour

	contentType = "twilio-fpa;v=1"
)

// NowTimeFunc is overridable in tests.
var NowTimeFunc = time.Now

type Token struct {
	JWT       string    `json:"token"`
	Identity  string    `json:"identity"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type IncomingGrant struct {
	Allow bool `json:"allow"`
}

type OutgoingGrant struct {
	ApplicationSID string `json:"application_sid"`
}

type VoiceGrant struct {
	Incoming IncomingGrant `json:"incoming"`
	Outgoing OutgoingGrant `json:"outgoing"`
}

type Grants struct {
	Identity string     `json:"identity"`
	Voice    VoiceGrant `json:"voice"`
}

// Claims is the provider's access token payload.
type Claims struct {
	Grants Grants `json:"grants"`
	jwtlib.RegisteredClaims
}

// Issuer mints tokens from configuration read on every call, so credential rotation
// takes effect without a restart.
type Issuer struct {
	config config.TelephonyConfig
}

func NewIssuer(cfg config.TelephonyConfig) *Issuer {
	return &Issuer{config: cfg}
}

// Issue validates the identity and configuration, then signs a token that allows
// incoming calls to identity and outgoing calls through the configured application.
func (i *Issuer) Issue(identity string) (*Token, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, apperrors.ErrInvalidIdentity
	}
	if err := config.ValidateTokenConfig(i.config); err != nil {
		return nil, err
	}

	apiKey := i.config.GetAPIKey()
	issuedAt := NowTimeFunc().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(TTL)

	claims := Claims{
		Grants: Grants{
			Identity: identity,
			Voice: VoiceGrant{
				Incoming: IncomingGrant{Allow: true},
				Outgoing: OutgoingGrant{ApplicationSID: i.config.GetAppSID()},
			},
		},
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        fmt.Sprintf("%s-%d", apiKey, issuedAt.Unix()),
			Issuer:    apiKey,
			Subject:   i.config.GetAccountSID(),
			IssuedAt:  jwtlib.NewNumericDate(issuedAt),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	token.Header["cty"] = contentType
	signed, err := token.SignedString([]byte(i.config.GetAPISecret()))
	if err != nil {
		return nil, fmt.Errorf("[accesstoken Issue] sign: %w", err)
	}

	return &Token{
		JWT:       signed,
		Identity:  identity,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse verifies a token signed with secret and returns its claims.
func Parse(signed, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(signed, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwtlib.WithTimeFunc(NowTimeFunc))
	if err != nil {
		return nil, fmt.Errorf("[accesstoken Parse] %w", err)
	}
	return claims, nil
}
