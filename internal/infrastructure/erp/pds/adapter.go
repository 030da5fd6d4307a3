package pds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/procuregate/gateway/internal/domain/document"
)

// maxResponseSize is the maximum allowed reply size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Adapter forwards canonical documents to a plain REST backend. The
// document goes out as-is; the backend owns any further shaping.
type Adapter struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAdapter creates a REST adapter
func NewAdapter(config *Config, logger *zap.Logger) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// Capabilities returns the operation set this adapter registers
func (a *Adapter) Capabilities() document.Capabilities {
	return document.Capabilities{
		Send:  a.Send,
		Fetch: a.Fetch,
	}
}

// Send posts the canonical document as JSON. The backend's reply may
// carry the id it filed the document under.
func (a *Adapter) Send(ctx context.Context, doc *document.CanonicalDocument) (*document.SendResult, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("pds: failed to encode document: %w", err)
	}

	body, err := a.doRequest(ctx, http.MethodPost, a.config.BaseURL+"/api/documents", bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}

	var reply struct {
		ID              string `json:"id"`
		ReferenceNumber string `json:"referenceNumber"`
	}
	if len(body) > 0 {
		// A reply without the expected shape is tolerated; the backend
		// acknowledged the document either way.
		_ = json.Unmarshal(body, &reply)
	}

	a.logger.Info("document sent",
		zap.String("document_id", doc.ID),
		zap.String("document_type", doc.Type.String()),
		zap.String("cross_system_id", reply.ID))

	return &document.SendResult{
		CrossSystemID: reply.ID,
		RecordCount:   1,
		DisplayNumber: reply.ReferenceNumber,
		Processed:     true,
	}, nil
}

// Fetch reads a document back by type and id
func (a *Adapter) Fetch(ctx context.Context, crossSystemID string, docType document.DocumentType) (*document.FetchResult, error) {
	if !docType.IsValid() {
		return nil, fmt.Errorf("%w: %s", document.ErrUnknownDocumentType, docType)
	}

	requestURL := fmt.Sprintf("%s/api/%s/%s", a.config.BaseURL, docType, crossSystemID)
	body, err := a.doRequest(ctx, http.MethodGet, requestURL, nil, "")
	if err != nil {
		return nil, err
	}

	var doc document.CanonicalDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrBackendInvalidReply, err)
	}
	doc.Recalculate()

	result := &document.FetchResult{
		Type:             docType,
		PortalDocumentID: doc.ID,
		CrossSystemID:    crossSystemID,
		LineItems:        doc.LineItems,
		Custom: document.CustomFields{
			Type:               docType,
			FetchedOn:          time.Now().UTC().Format(time.RFC3339),
			BackendDocumentID:  crossSystemID,
			DiscountPercentage: doc.DiscountPercentage.String(),
			SubCost:            doc.SubCost().String(),
			Cost:               doc.Cost().String(),
			TermsAndConditions: doc.TermsAndConditions,
			PaymentTerms:       doc.PaymentTerms,
			FreightCost:        doc.FreightCost.String(),
		},
	}

	a.logger.Info("document fetched",
		zap.String("cross_system_id", crossSystemID),
		zap.String("document_type", docType.String()),
		zap.Int("line_items", len(result.LineItems)))

	return result, nil
}

// doRequest issues one authenticated request and returns the reply body
func (a *Adapter) doRequest(ctx context.Context, method, requestURL string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("pds: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.Token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	replyBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("pds: failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", document.ErrBackendRecordNotFound, requestURL)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", document.ErrBackendRequestFailed, resp.StatusCode)
	}
	return replyBody, nil
}
