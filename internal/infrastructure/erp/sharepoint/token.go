package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/procuregate/gateway/internal/domain/document"
)

// tokenSlack is subtracted from the reported token lifetime so a token
// is never used right at its expiry.
const tokenSlack = 30 * time.Second

// tokenSource fetches client-credentials tokens and caches the current
// one per adapter instance.
type tokenSource struct {
	config     *Config
	httpClient *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newTokenSource(config *Config, httpClient *http.Client) *tokenSource {
	return &tokenSource{config: config, httpClient: httpClient}
}

// accessToken returns the cached token, fetching a fresh one when none
// is held or the held one is about to expire.
func (s *tokenSource) accessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expires) {
		return s.token, nil
	}

	tokenURL := fmt.Sprintf("%s/%s/oauth2/v2.0/token", s.config.LoginBaseURL, s.config.TenantID)
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.config.ClientID},
		"client_secret": {s.config.ClientSecret},
		"scope":         {"https://graph.microsoft.com/.default"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("sharepoint: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", document.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("sharepoint: failed to read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: token endpoint returned HTTP %d", document.ErrBackendAuthFailed, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: malformed token response: %v", document.ErrBackendInvalidReply, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: token response carried no access token", document.ErrBackendAuthFailed)
	}

	s.token = payload.AccessToken
	s.expires = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second).Add(-tokenSlack)
	return s.token, nil
}
