package shipserv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procuregate/gateway/internal/domain/document"
)

// maxResponseSize is the maximum allowed reply size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// tokenSlack is subtracted from the reported token lifetime so a token
// is never used right at its expiry.
const tokenSlack = 30 * time.Second

// quoteValidityDays is how long an outbound quote stays valid when the
// backend supplied no expiry.
const quoteValidityDays = 90

// Filters narrows a document listing
type Filters struct {
	// DocType filters by document type when set
	DocType string
	// SubmittedDate filters by submission date when set
	SubmittedDate string
}

// DocumentSummary is one entry of a document listing
type DocumentSummary struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ReferenceNumber string `json:"referenceNumber"`
	SubmittedDate   string `json:"submittedDate"`
}

// Client talks to the marketplace portal's order management API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClient creates a portal client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}, nil
}

// GetDocument reads one document and reshapes it into canonical form
func (c *Client) GetDocument(ctx context.Context, id string) (*document.CanonicalDocument, error) {
	requestURL := fmt.Sprintf("%s/order-management/documents/%s", c.config.BaseURL, url.PathEscape(id))
	body, err := c.doJSON(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := toCanonical(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("portal document fetched",
		zap.String("document_id", doc.ID),
		zap.String("document_type", doc.Type.String()),
		zap.Int("line_items", len(doc.LineItems)))

	return doc, nil
}

// ListDocuments lists documents, optionally narrowed by type and
// submission date. The portal answers either a paged object or a bare
// array; both shapes are accepted.
func (c *Client) ListDocuments(ctx context.Context, filters Filters) ([]DocumentSummary, error) {
	query := url.Values{}
	if filters.DocType != "" {
		query.Set("documentType", filters.DocType)
	}
	if filters.SubmittedDate != "" {
		query.Set("submittedDate", filters.SubmittedDate)
	}
	requestURL := c.config.BaseURL + "/order-management/documents"
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	body, err := c.doJSON(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	var paged struct {
		Content []DocumentSummary `json:"content"`
	}
	if err := json.Unmarshal(body, &paged); err == nil && paged.Content != nil {
		return paged.Content, nil
	}
	var plain []DocumentSummary
	if err := json.Unmarshal(body, &plain); err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrBackendInvalidReply, err)
	}
	return plain, nil
}

// SendDocument pushes a backend reply up to the portal. The stored
// portal snapshot is the base; the id moves to the type-dependent
// reference field, the backend's totals and terms replace the stored
// ones, and the document goes out marked exported.
func (c *Client) SendDocument(ctx context.Context, fetch *document.FetchResult) ([]byte, error) {
	doc := map[string]any{}
	if fetch.PortalData != nil && len(fetch.PortalData.Raw) > 0 {
		if err := json.Unmarshal(fetch.PortalData.Raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: stored portal snapshot: %v", document.ErrBackendInvalidReply, err)
		}
	}

	docType := fetch.Custom.Type
	if docType == "" {
		docType = document.TypeQuote
	}

	portalID := fetch.PortalDocumentID
	if portalID == "" {
		if id, ok := doc["id"].(string); ok {
			portalID = id
		}
	}

	// The portal keys a reply to its request through a type-dependent
	// reference field; the bare id must not survive the move.
	switch docType {
	case document.TypeQuote:
		doc["requestForQuoteId"] = portalID
		delete(doc, "id")
		delete(doc, "requisitionId")
		delete(doc, "quoteId")
		delete(doc, "purchaseOrderId")
	case document.TypePurchaseOrderConfirmation:
		doc["purchaseOrderId"] = portalID
		delete(doc, "id")
	}

	now := c.now().UTC()
	doc["type"] = docType.String()
	doc["discountCost"] = numeric(fetch.Custom.DiscountCost)
	doc["subCost"] = numeric(fetch.Custom.SubCost)
	doc["cost"] = numeric(fetch.Custom.Cost)
	if fetch.Custom.TermsAndConditions != "" {
		doc["termsAndConditions"] = fetch.Custom.TermsAndConditions
	}
	if fetch.Custom.PaymentTerms != "" {
		doc["paymentTerms"] = fetch.Custom.PaymentTerms
	}
	if fetch.Custom.FetchedOn != "" {
		doc["createdDate"] = fetch.Custom.FetchedOn
	} else {
		doc["createdDate"] = now.Format(time.RFC3339)
	}
	doc["submittedDate"] = now.Format("2006-01-02T15:04:05")
	doc["quoteExpiryDate"] = now.AddDate(0, 0, quoteValidityDays).Format("2006-01-02T15:04:05")

	items := make([]map[string]any, 0, len(fetch.LineItems))
	for i := range fetch.LineItems {
		items = append(items, itemToWire(&fetch.LineItems[i]))
	}
	doc["lineItems"] = items
	doc["exported"] = true

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("shipserv: failed to encode document: %w", err)
	}

	body, err := c.doJSON(ctx, http.MethodPost, c.config.BaseURL+"/order-management/documents", payload)
	if err != nil {
		return nil, err
	}

	c.logger.Info("document sent to portal",
		zap.String("portal_document_id", portalID),
		zap.String("document_type", docType.String()),
		zap.Int("line_items", len(items)))

	return body, nil
}

// MarkExported flags a document as exported on the portal
func (c *Client) MarkExported(ctx context.Context, id string) error {
	requestURL := fmt.Sprintf("%s/order-management/documents/%s/mark-as-exported", c.config.BaseURL, url.PathEscape(id))
	if _, err := c.doJSON(ctx, http.MethodPost, requestURL, nil); err != nil {
		return err
	}
	c.logger.Info("document marked as exported", zap.String("document_id", id))
	return nil
}

// accessToken returns the cached OAuth2 token, fetching a fresh one
// when none is held or the held one is about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	payload, _ := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.config.ClientID,
		"client_secret": c.config.ClientSecret,
	})
	tokenURL := c.config.BaseURL + "/authentication/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("shipserv: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", document.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("shipserv: failed to read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: token endpoint returned HTTP %d", document.ErrBackendAuthFailed, resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("%w: malformed token response: %v", document.ErrBackendInvalidReply, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: token response carried no access token", document.ErrBackendAuthFailed)
	}

	c.token = token.AccessToken
	c.expires = c.now().Add(time.Duration(token.ExpiresIn) * time.Second).Add(-tokenSlack)
	return c.token, nil
}

// doJSON issues one authenticated request and returns the reply body
func (c *Client) doJSON(ctx context.Context, method, requestURL string, payload []byte) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("shipserv: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Version", "v2.1")
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	replyBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shipserv: failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", document.ErrBackendRecordNotFound, requestURL)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", document.ErrBackendRequestFailed, resp.StatusCode)
	}
	return replyBody, nil
}

// numeric converts a backend cost string to a wire number, falling back
// to zero on anything unparseable.
func numeric(value string) float64 {
	if value == "" {
		return 0
	}
	if v, err := decimal.NewFromString(value); err == nil {
		return v.InexactFloat64()
	}
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return v
	}
	return 0
}
