package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/procuregate/gateway/internal/domain/document"
)

// maxResponseSize is the maximum allowed reply size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Errors for Graph lookups
var (
	ErrSiteNotFound = errors.New("sharepoint: site not found")
	ErrListNotFound = errors.New("sharepoint: list not found")
)

// listItem is one list item with its expanded field map
type listItem struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// graphClient issues authenticated Graph API calls
type graphClient struct {
	config     *Config
	tokens     *tokenSource
	httpClient *http.Client
}

func newGraphClient(config *Config, httpClient *http.Client) *graphClient {
	return &graphClient{
		config:     config,
		tokens:     newTokenSource(config, httpClient),
		httpClient: httpClient,
	}
}

// resolveSiteID resolves the configured hostname and site name to a
// site id.
func (c *graphClient) resolveSiteID(ctx context.Context) (string, error) {
	requestURL := fmt.Sprintf("%s/sites/%s:/sites/%s", c.config.GraphBaseURL, c.config.Hostname, c.config.SiteName)
	var site struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodGet, requestURL, nil, &site); err != nil {
		return "", err
	}
	if site.ID == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrSiteNotFound, c.config.Hostname, c.config.SiteName)
	}
	return site.ID, nil
}

// resolveListID finds a list by name on the given site
func (c *graphClient) resolveListID(ctx context.Context, siteID, listName string) (string, error) {
	requestURL := fmt.Sprintf("%s/sites/%s/lists", c.config.GraphBaseURL, siteID)
	var lists struct {
		Value []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"value"`
	}
	if err := c.doJSON(ctx, http.MethodGet, requestURL, nil, &lists); err != nil {
		return "", err
	}
	for _, list := range lists.Value {
		if list.Name == listName {
			return list.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrListNotFound, listName)
}

// createListItem creates a list item and returns its id
func (c *graphClient) createListItem(ctx context.Context, siteID, listID string, fields map[string]any) (string, error) {
	requestURL := fmt.Sprintf("%s/sites/%s/lists/%s/items", c.config.GraphBaseURL, siteID, listID)
	payload := map[string]any{"fields": fields}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, requestURL, payload, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// queryItemsByFilter returns the items whose given field equals the
// given value.
func (c *graphClient) queryItemsByFilter(ctx context.Context, siteID, listID, field, value string) ([]listItem, error) {
	filter := url.QueryEscape(fmt.Sprintf("fields/%s eq '%s'", field, value))
	requestURL := fmt.Sprintf("%s/sites/%s/lists/%s/items?expand=fields&$filter=%s",
		c.config.GraphBaseURL, siteID, listID, filter)
	var items struct {
		Value []listItem `json:"value"`
	}
	if err := c.doJSON(ctx, http.MethodGet, requestURL, nil, &items); err != nil {
		return nil, err
	}
	return items.Value, nil
}

// updateItemFields patches fields on an existing list item
func (c *graphClient) updateItemFields(ctx context.Context, siteID, listID, itemID string, fields map[string]any) error {
	requestURL := fmt.Sprintf("%s/sites/%s/lists/%s/items/%s/fields", c.config.GraphBaseURL, siteID, listID, itemID)
	return c.doJSON(ctx, http.MethodPatch, requestURL, fields, nil)
}

// doJSON issues one authenticated request with an optional JSON body
// and decodes the JSON reply into out when out is non-nil.
func (c *graphClient) doJSON(ctx context.Context, method, requestURL string, in, out any) error {
	token, err := c.tokens.accessToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("sharepoint: failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return fmt.Errorf("sharepoint: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", document.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	replyBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("sharepoint: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d: %s", document.ErrBackendRequestFailed, resp.StatusCode, string(replyBody))
	}

	if out != nil && len(replyBody) > 0 {
		if err := json.Unmarshal(replyBody, out); err != nil {
			return fmt.Errorf("%w: %v", document.ErrBackendInvalidReply, err)
		}
	}
	return nil
}
