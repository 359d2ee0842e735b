// Package google runs the OpenID Connect authorization code flow against Google.
package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-voice-server/auth/oauthflow"
	"github.com/jrsteele09/go-voice-server/internal/config"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/internal/utils"
	"golang.org/x/oauth2"
)

// Identity is the verified subset of ID token claims used to sign a user in.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type Provider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	flows        oauthflow.Repo
	flowTimeout  time.Duration
	nowTime      func() time.Time
}

// NewProvider performs OIDC discovery against the configured issuer.
func NewProvider(ctx context.Context, cfg config.GoogleConfig, authCfg config.AuthConfig, flows oauthflow.Repo) (*Provider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.GetGoogleIssuerURL())
	if err != nil {
		return nil, fmt.Errorf("[google NewProvider] discovery: %w", err)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.GetGoogleClientID(),
		ClientSecret: cfg.GetGoogleClientSecret(),
		RedirectURL:  cfg.GetGoogleRedirectURL(),
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &Provider{
		oauth2Config: oauth2Config,
		verifier:     provider.Verifier(&oidc.Config{ClientID: oauth2Config.ClientID}),
		flows:        flows,
		flowTimeout:  authCfg.GetAuthFlowTimeout(),
		nowTime:      time.Now,
	}, nil
}

// AuthCodeURL starts a flow and returns the URL to redirect the browser to.
func (p *Provider) AuthCodeURL(returnURL string) (string, error) {
	state, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}
	nonce, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()

	if err := p.flows.Upsert(state, &oauthflow.FlowState{
		CodeVerifier: verifier,
		Nonce:        nonce,
		ReturnURL:    safeReturnURL(returnURL),
		CreatedAt:    p.nowTime(),
	}); err != nil {
		return "", fmt.Errorf("[google AuthCodeURL] store flow: %w", err)
	}

	return p.oauth2Config.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
		oidc.Nonce(nonce),
	), nil
}

// Exchange redeems the callback code and returns the verified identity and the return URL
// recorded when the flow started.
func (p *Provider) Exchange(ctx context.Context, state, code string) (*Identity, string, error) {
	flow, err := p.flows.Take(state)
	if err != nil {
		return nil, "", err
	}
	if p.nowTime().Sub(flow.CreatedAt) > p.flowTimeout {
		return nil, "", apperrors.ErrInvalidState
	}

	token, err := p.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(flow.CodeVerifier))
	if err != nil {
		return nil, "", fmt.Errorf("[google Exchange] token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, "", fmt.Errorf("[google Exchange] no id_token in response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, "", fmt.Errorf("[google Exchange] verify id token: %w", err)
	}

	var claims struct {
		Nonce         string `json:"nonce"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, "", fmt.Errorf("[google Exchange] claims: %w", err)
	}
	if claims.Nonce != flow.Nonce {
		return nil, "", apperrors.ErrInvalidNonce
	}

	return &Identity{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, flow.ReturnURL, nil
}

// safeReturnURL only allows local paths so the callback cannot become an open redirect.
func safeReturnURL(u string) string {
	if !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") {
		return ""
	}
	return u
}
