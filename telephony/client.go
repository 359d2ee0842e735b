// Package telephony is a client for the voice provider's REST call API.
package telephony

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-voice-server/internal/config"
	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const (
	defaultTimeout = 30 * time.Second
	defaultAPIURL  = "https://api.twilio.com/2010-04-01"
)

// Call status callback events.
var DefaultStatusEvents = []string{"initiated", "ringing", "answered", "completed"}

// API is the subset of the provider REST API this server uses.
type API interface {
	CreateCall(ctx context.Context, params CreateCallParams) (*Call, error)
	UpdateCall(ctx context.Context, callSID string, params UpdateCallParams) (*Call, error)
}

type CreateCallParams struct {
	To                   string
	From                 string
	Twiml                string
	StatusCallback       string
	StatusCallbackEvents []string
	Timeout              int
}

// UpdateCallParams redirects a live call to new instructions.
type UpdateCallParams struct {
	Twiml  string
	Status string // "completed" hangs up
}

// Call is the provider's call resource.
type Call struct {
	SID       string `json:"sid"`
	To        string `json:"to"`
	From      string `json:"from"`
	Status    string `json:"status"`
	Direction string `json:"direction"`
}

type Credentials struct {
	AccountSID string
	APIKey     string
	APISecret  string
}

var _ API = (*Client)(nil)

// Client calls the provider through the twilio-go REST client, authenticating with an
// API key pair scoped to AccountSID.
type Client struct {
	rest *twilio.RestClient
}

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*clientOptions)

// WithBaseURL points the client at another API root, such as a regional edge or a test server.
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

func NewClient(creds Credentials, opts ...ClientOption) (*Client, error) {
	o := clientOptions{
		baseURL:    defaultAPIURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.httpClient
	if o.baseURL != defaultAPIURL {
		base, err := url.Parse(o.baseURL)
		if err != nil || base.Host == "" {
			return nil, fmt.Errorf("[telephony NewClient] invalid base url %q", o.baseURL)
		}
		next := hc.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		hc = &http.Client{
			Timeout:   hc.Timeout,
			Transport: &rebaseTransport{base: base, next: next},
		}
	}

	base := &twclient.Client{
		Credentials: twclient.NewCredentials(creds.APIKey, creds.APISecret),
		HTTPClient:  hc,
	}
	base.SetAccountSid(creds.AccountSID)
	return &Client{rest: twilio.NewRestClientWithParams(twilio.ClientParams{Client: base})}, nil
}

// NewFromConfig validates call configuration before building a client, so a missing
// credential is reported as a configuration error and never reaches the provider.
func NewFromConfig(cfg config.TelephonyConfig) (API, error) {
	if err := config.ValidateCallConfig(cfg); err != nil {
		return nil, err
	}
	return NewClient(Credentials{
		AccountSID: cfg.GetAccountSID(),
		APIKey:     cfg.GetAPIKey(),
		APISecret:  cfg.GetAPISecret(),
	}, WithBaseURL(cfg.GetTelephonyAPIURL()))
}

// CreateCall places an outbound call. The SDK call takes no context, so ctx is only
// checked before sending; the HTTP client timeout bounds the request itself.
func (c *Client) CreateCall(ctx context.Context, params CreateCallParams) (*Call, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("[telephony CreateCall] %w", err)
	}

	p := &openapi.CreateCallParams{}
	p.SetTo(params.To)
	p.SetFrom(params.From)
	p.SetTwiml(params.Twiml)
	if params.Timeout > 0 {
		p.SetTimeout(params.Timeout)
	}
	if params.StatusCallback != "" {
		p.SetStatusCallback(params.StatusCallback)
		p.SetStatusCallbackMethod(http.MethodPost)
		p.SetStatusCallbackEvent(params.StatusCallbackEvents)
	}

	resp, err := c.rest.Api.CreateCall(p)
	if err != nil {
		return nil, mapError("CreateCall", err)
	}
	return callFrom(resp), nil
}

func (c *Client) UpdateCall(ctx context.Context, callSID string, params UpdateCallParams) (*Call, error) {
	if callSID == "" {
		return nil, fmt.Errorf("[telephony UpdateCall] call sid is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("[telephony UpdateCall] %w", err)
	}

	p := &openapi.UpdateCallParams{}
	if params.Twiml != "" {
		p.SetTwiml(params.Twiml)
	}
	if params.Status != "" {
		p.SetStatus(params.Status)
	}

	resp, err := c.rest.Api.UpdateCall(callSID, p)
	if err != nil {
		return nil, mapError("UpdateCall", err)
	}
	return callFrom(resp), nil
}

func callFrom(resp *openapi.ApiV2010Call) *Call {
	return &Call{
		SID:       deref(resp.Sid),
		To:        deref(resp.To),
		From:      deref(resp.From),
		Status:    deref(resp.Status),
		Direction: deref(resp.Direction),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// rebaseTransport rewrites the SDK's fixed API host and version prefix onto base.
type rebaseTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.base.Scheme
	r.URL.Host = t.base.Host
	r.URL.Path = strings.TrimSuffix(t.base.Path, "/") + strings.TrimPrefix(req.URL.Path, "/2010-04-01")
	r.Host = t.base.Host
	return t.next.RoundTrip(r)
}
