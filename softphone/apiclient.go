package softphone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-voice-server/conference"
	"github.com/pkg/errors"
)

// RemoteError is a non-2xx response from the voice server.
type RemoteError struct {
	Status  int
	Message string
	Details string
}

func (e *RemoteError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Details)
	}
	return e.Message
}

// APIClient is a Backend talking to the voice server over HTTP with a session token.
type APIClient struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
}

var _ Backend = (*APIClient)(nil)

type APIClientOption func(*APIClient)

func WithHTTPClient(hc *http.Client) APIClientOption {
	return func(c *APIClient) {
		c.httpClient = hc
	}
}

func NewAPIClient(baseURL, sessionToken string, opts ...APIClientOption) *APIClient {
	c := &APIClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		sessionToken: sessionToken,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *APIClient) Token(ctx context.Context, identity string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/api/voice/token", map[string]string{"identity": identity}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *APIClient) Hold(ctx context.Context, callSID string, hold bool) error {
	body := map[string]any{"callSid": callSID, "hold": hold}
	return c.post(ctx, "/api/voice/hold", body, nil)
}

func (c *APIClient) Forward(ctx context.Context, callSID, forwardTo string) error {
	body := map[string]string{"callSid": callSID, "forwardTo": forwardTo}
	return c.post(ctx, "/api/voice/forward", body, nil)
}

func (c *APIClient) CreateConference(ctx context.Context, name string, participants []string) (*conference.Result, error) {
	body := map[string]any{"participants": participants, "conferenceName": name}
	var result conference.Result
	if err := c.post(ctx, "/api/voice/conference", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) AddParticipant(ctx context.Context, name, participant string) (*conference.AddResult, error) {
	body := map[string]string{"conferenceName": name, "participant": participant}
	var result conference.AddResult
	if err := c.post(ctx, "/api/voice/conference/add", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "[APIClient post] encode")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "[APIClient post] request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[APIClient post] %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &RemoteError{Status: resp.StatusCode, Message: apiErr.Error, Details: apiErr.Details}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "[APIClient post] decode %s", path)
	}
	return nil
}
