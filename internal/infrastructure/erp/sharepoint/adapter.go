package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/procuregate/gateway/internal/domain/document"
)

// defaultERPNumber is the placeholder stored when a document has not
// been claimed by a backend yet.
const defaultERPNumber = "NNNNNNN"

// portalDataField is the header field the document snapshot is stored
// under.
const portalDataField = "PortalDataJson"

// Adapter writes documents into two Graph API lists, a header list and
// a line item list, and doubles as the side channel other backends use
// to recover the portal snapshot of a document they hold an id for.
type Adapter struct {
	config *Config
	client *graphClient
	logger *zap.Logger
}

// NewAdapter creates a Graph list adapter
func NewAdapter(config *Config, logger *zap.Logger) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	httpClient := &http.Client{
		Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
	}
	return &Adapter{
		config: config,
		client: newGraphClient(config, httpClient),
		logger: logger,
	}, nil
}

// Capabilities returns the operation set this adapter registers
func (a *Adapter) Capabilities() document.Capabilities {
	return document.Capabilities{
		Send: a.Send,
	}
}

// Send creates one header list item for the document, then one line
// item per position linked back to the header. The full document JSON
// goes into the header so later lookups can recover it.
func (a *Adapter) Send(ctx context.Context, doc *document.CanonicalDocument) (*document.SendResult, error) {
	erpNr := doc.CrossSystemID
	if erpNr == "" {
		erpNr = defaultERPNumber
	}

	siteID, err := a.client.resolveSiteID(ctx)
	if err != nil {
		return nil, err
	}
	headerListID, err := a.client.resolveListID(ctx, siteID, a.config.HeaderList)
	if err != nil {
		return nil, err
	}
	itemListID, err := a.client.resolveListID(ctx, siteID, a.config.ItemList)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("sharepoint: failed to encode document: %w", err)
	}

	headerFields := map[string]any{
		"Title":               doc.ReferenceNumber,
		"DokumentDatum":       shortDate(doc.CreatedDate),
		"Dokumentnr":          doc.ReferenceNumber,
		"Referenznr":          doc.Subject,
		"Kunde":               doc.Buyer.Name,
		"Dokumenttyp":         doc.Type.String(),
		"Spezifikation":       doc.Subject,
		"LieferantDokumentNr": "",
		"NachrichtenID":       doc.ID,
		"Customer":            doc.Buyer.Name,
		"CustomerID":          doc.Buyer.TNID,
		"vesselName":          doc.Vessel.Name,
		"vesselID":            doc.Vessel.IMONumber,
		"RFQID":               doc.ID,
		"currency":            doc.Currency.Code,
		"subject":             doc.Subject,
		portalDataField:       string(raw),
	}
	headerFields[a.config.filterField(doc.Type)] = erpNr

	headerID, err := a.client.createListItem(ctx, siteID, headerListID, headerFields)
	if err != nil {
		return nil, err
	}

	created := 0
	for i := range doc.LineItems {
		item := &doc.LineItems[i]
		fields := map[string]any{
			"Title":       fmt.Sprintf("%s-%s-%d", erpNr, headerID, item.Number),
			"Position":    item.Number,
			"Artikelnr":   partCode(item),
			"Artikeltext": item.Description,
			"Menge":       item.Quantity.InexactFloat64(),
			"UnitPrice":   item.UnitPrice.InexactFloat64(),
			"Langtext":    composeLongText(item),
			"AnfrageID":   headerRef(headerID),
		}
		if _, err := a.client.createListItem(ctx, siteID, itemListID, fields); err != nil {
			// A failed position does not roll back the header; the
			// remaining positions are still written.
			a.logger.Warn("line item not created",
				zap.String("document_id", doc.ID),
				zap.Int("position", item.Number),
				zap.Error(err))
			continue
		}
		created++
	}

	a.logger.Info("document sent",
		zap.String("document_id", doc.ID),
		zap.String("document_type", doc.Type.String()),
		zap.String("header_item_id", headerID),
		zap.Int("line_items", created))

	return &document.SendResult{
		CrossSystemID: headerID,
		RecordCount:   1 + created,
		Processed:     true,
	}, nil
}

// Lookup finds the header item whose type-keyed filter field equals the
// cross-system id and recovers the stored document snapshot. A missing
// item or snapshot yields (nil, nil).
func (a *Adapter) Lookup(ctx context.Context, crossSystemID string, docType document.DocumentType) (*document.PortalData, error) {
	siteID, err := a.client.resolveSiteID(ctx)
	if err != nil {
		return nil, err
	}
	headerListID, err := a.client.resolveListID(ctx, siteID, a.config.HeaderList)
	if err != nil {
		return nil, err
	}

	field := a.config.filterField(docType)
	items, err := a.client.queryItemsByFilter(ctx, siteID, headerListID, field, crossSystemID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		a.logger.Debug("no portal snapshot stored",
			zap.String("cross_system_id", crossSystemID),
			zap.String("filter_field", field))
		return nil, nil
	}

	raw, _ := items[0].Fields[portalDataField].(string)
	if raw == "" {
		return nil, nil
	}

	var doc document.CanonicalDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		// The snapshot is opaque to callers that only need the raw text
		a.logger.Warn("stored snapshot is not valid JSON",
			zap.String("cross_system_id", crossSystemID))
		return &document.PortalData{Raw: []byte(raw)}, nil
	}

	return &document.PortalData{
		PortalDocumentID:   doc.ID,
		ReferenceNumber:    doc.ReferenceNumber,
		PaymentTerms:       doc.PaymentTerms,
		TermsAndConditions: doc.TermsAndConditions,
		Raw:                []byte(raw),
	}, nil
}

// shortDate trims a portal timestamp to its date part
func shortDate(value string) string {
	if len(value) > 10 {
		return value[:10]
	}
	return value
}

// partCode returns the primary part identifier of an item
func partCode(item *document.LineItem) string {
	if item.PartCode != "" {
		return item.PartCode
	}
	if len(item.PartIdentification) > 0 {
		return item.PartIdentification[0].PartCode
	}
	return ""
}

// composeLongText joins the item comment with its equipment reference
// data into the long text field.
func composeLongText(item *document.LineItem) string {
	text := item.Comment
	eq := item.Equipment
	if eq != (document.EquipmentSection{}) {
		text = strings.TrimSpace(fmt.Sprintf("%s %s %s %s %s %s",
			text, eq.AccountNumber, eq.Name, eq.Manufacturer, eq.ModelNumber, eq.SerialNumber))
	}
	return text
}

// headerRef converts a header item id to the numeric reference the
// line item list expects, keeping the string form when the id is not
// numeric.
func headerRef(headerID string) any {
	if n, err := strconv.Atoi(headerID); err == nil {
		return n
	}
	return headerID
}
