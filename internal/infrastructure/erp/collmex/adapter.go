package collmex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/procuregate/gateway/internal/domain/document"
)

// maxResponseSize is the maximum allowed reply size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// recordCountPattern extracts the processed record count from the
// backend's German status message.
var recordCountPattern = regexp.MustCompile(`Es wurden (\d+) Datensätze verarbeitet`)

// Adapter talks to the flat-record data exchange endpoint. Documents go
// out as semicolon separated records over HTTP and come back the same
// way; the side channel supplies the portal snapshot for fetches.
type Adapter struct {
	config     *Config
	codec      *codec
	httpClient *http.Client
	side       document.SideChannel
	logger     *zap.Logger
}

// NewAdapter creates a flat-record adapter. The side channel is
// optional; without one fetches carry no portal snapshot.
func NewAdapter(config *Config, side document.SideChannel, logger *zap.Logger) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		config: config,
		codec:  newCodec(config),
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		side:   side,
		logger: logger,
	}, nil
}

// Capabilities returns the operation set this adapter registers
func (a *Adapter) Capabilities() document.Capabilities {
	return document.Capabilities{
		Send: a.Send,
		SendByType: map[document.DocumentType]document.SendFunc{
			document.TypeRequestForQuote: a.Send,
			document.TypePurchaseOrder:   a.Send,
		},
		FetchByType: map[document.DocumentType]document.FetchFunc{
			document.TypeRequestForQuote: a.Fetch,
			document.TypeQuote:           a.Fetch,
			document.TypePurchaseOrder:   a.Fetch,
		},
	}
}

// Send serializes the document and posts it to the data exchange
// endpoint. The reply's NEW_OBJECT_ID line yields the cross-system id,
// the MESSAGE line the processed record count.
func (a *Adapter) Send(ctx context.Context, doc *document.CanonicalDocument) (*document.SendResult, error) {
	wire, processed, err := a.codec.Serialize(doc)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("document serialized",
		zap.String("document_id", doc.ID),
		zap.Int("line_items", len(processed.LineItems)))

	body, err := a.doRequest(ctx, wire)
	if err != nil {
		return nil, err
	}

	result := &document.SendResult{}
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "NEW_OBJECT_ID"):
			parts := strings.Split(line, ";")
			if len(parts) < 2 {
				return nil, fmt.Errorf("%w: malformed NEW_OBJECT_ID line", document.ErrBackendInvalidReply)
			}
			result.CrossSystemID = parts[1]
		case strings.HasPrefix(line, "MESSAGE"):
			if m := recordCountPattern.FindStringSubmatch(line); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					result.RecordCount = n
				}
			}
		}
	}
	result.Processed = result.RecordCount > 0 || result.CrossSystemID != ""

	a.logger.Info("document sent",
		zap.String("document_id", doc.ID),
		zap.String("document_type", doc.Type.String()),
		zap.String("cross_system_id", result.CrossSystemID),
		zap.Int("record_count", result.RecordCount))

	return result, nil
}

// Fetch reads a record set back from the backend and reshapes it to
// canonical line items. The portal snapshot is merged in when the side
// channel has one; its absence is not an error.
func (a *Adapter) Fetch(ctx context.Context, crossSystemID string, docType document.DocumentType) (*document.FetchResult, error) {
	tc, err := configFor(docType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, docType)
	}

	wire := fmt.Sprintf("LOGIN;%s;%s\n%s;%s", a.config.Login, a.config.Password, tc.Command, crossSystemID)
	body, err := a.doRequest(ctx, wire)
	if err != nil {
		return nil, err
	}

	payload, err := a.codec.Deserialize(string(body), docType)
	if err != nil {
		return nil, err
	}

	result := &document.FetchResult{
		Type:          tc.ResponseType,
		CrossSystemID: crossSystemID,
		LineItems:     payload.LineItems,
		Custom: document.CustomFields{
			Type:               tc.ResponseType,
			FetchedOn:          time.Now().UTC().Format(time.RFC3339),
			BackendDocumentID:  crossSystemID,
			DiscountPercentage: payload.DiscountPercentage.String(),
			DiscountCost:       payload.SubCost().Mul(payload.DiscountPercentage).Div(hundred).Round(2).String(),
			SubCost:            payload.SubCost().String(),
			Cost:               payload.Cost().String(),
			TermsAndConditions: payload.TermsAndConditions,
			FreightCost:        payload.FreightCost.String(),
		},
	}

	if a.side != nil {
		portalData, err := a.side.Lookup(ctx, crossSystemID, docType)
		if err != nil {
			a.logger.Warn("side channel lookup failed",
				zap.String("cross_system_id", crossSystemID),
				zap.Error(err))
		} else if portalData != nil {
			result.PortalData = portalData
			result.PortalDocumentID = portalData.PortalDocumentID
			result.Custom.PaymentTerms = portalData.PaymentTerms
		}
	}

	a.logger.Info("document fetched",
		zap.String("cross_system_id", crossSystemID),
		zap.String("document_type", docType.String()),
		zap.Int("line_items", len(result.LineItems)))

	return result, nil
}

// doRequest posts a wire payload as text/csv and returns the reply body
func (a *Adapter) doRequest(ctx context.Context, wire string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIURL, strings.NewReader(wire))
	if err != nil {
		return nil, fmt.Errorf("collmex: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("collmex: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", document.ErrBackendRequestFailed, resp.StatusCode)
	}

	return body, nil
}
