package collmex

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/procuregate/gateway/internal/domain/document"
)

var hundred = decimal.NewFromInt(100)

// wireDateFormats are tried in order when normalizing a portal date
// to the YYYYMMDD wire format.
var wireDateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
	"01/02/2006",
	"02/01/2006",
	"20060102",
}

// formatWireDate normalizes a portal date string to YYYYMMDD. The wire
// format cannot carry an empty date, so an absent or unparsable value
// falls back to the current UTC date rather than failing the document.
func formatWireDate(value string, now func() time.Time) string {
	if value != "" {
		for _, layout := range wireDateFormats {
			if t, err := time.Parse(layout, value); err == nil {
				return t.Format("20060102")
			}
		}
	}
	return now().UTC().Format("20060102")
}

// formatWireDecimal renders a decimal with two places and a comma as
// the decimal separator, as the wire format requires.
func formatWireDecimal(v decimal.Decimal) string {
	return strings.Replace(v.StringFixed(2), ".", ",", 1)
}

// parseWireDecimal parses a comma-decimal wire value. Unparsable input
// reads as zero; zero quantities and prices surface as declined items
// rather than a failed fetch.
func parseWireDecimal(s string) decimal.Decimal {
	v, _ := parseWireDecimalStrict(s)
	return v
}

// parseWireDecimalStrict also reports whether the value parsed, for
// callers that must keep a previous value on bad input.
func parseWireDecimalStrict(s string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(s), ",", ".", 1))
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// flattenBreaks replaces line breaks with the pipe character. The wire
// format is line-oriented, so field text must stay on one line.
func flattenBreaks(s string) string {
	r := strings.NewReplacer("\r\n", "|", "\n", "|", "\r", "|")
	return r.Replace(s)
}

// composeDescription builds the single wire description field from the
// item text, part identifiers, equipment details and comment, joined
// by " | ". The composed text is a stable wire contract: the relational
// backend matches lines against it on updates.
func composeDescription(item *document.LineItem) string {
	description := ""
	if item.Description != "" {
		description = flattenBreaks(item.Description)
	}

	var partDetails []string
	for _, pid := range item.PartIdentification {
		switch {
		case pid.PartType != "" && pid.PartCode != "":
			partDetails = append(partDetails, fmt.Sprintf("%s: %s", pid.PartType, pid.PartCode))
		case pid.PartCode != "":
			partDetails = append(partDetails, fmt.Sprintf("Part: %s", pid.PartCode))
		}
	}
	if len(partDetails) > 0 {
		partText := strings.Join(partDetails, " | ")
		if description != "" {
			description = description + " | " + partText
		} else {
			description = partText
		}
	}

	var equipDetails []string
	eq := item.Equipment
	if eq.Name != "" {
		equipDetails = append(equipDetails, "Equipment: "+eq.Name)
	}
	if eq.AccountNumber != "" {
		equipDetails = append(equipDetails, "Account: "+eq.AccountNumber)
	}
	if eq.SerialNumber != "" {
		equipDetails = append(equipDetails, "Serial: "+eq.SerialNumber)
	}
	if eq.Manufacturer != "" {
		equipDetails = append(equipDetails, "Manufacturer: "+eq.Manufacturer)
	}
	if eq.ModelNumber != "" {
		equipDetails = append(equipDetails, "Model: "+eq.ModelNumber)
	}
	if eq.DepartmentType != "" {
		equipDetails = append(equipDetails, "Department: "+eq.DepartmentType)
	}
	if len(equipDetails) > 0 {
		equipText := flattenBreaks(strings.Join(equipDetails, " | "))
		if description != "" {
			description = description + " | " + equipText
		} else {
			description = equipText
		}
	}

	if item.Comment != "" {
		commentText := "Comment: " + flattenBreaks(item.Comment)
		if description != "" {
			description = description + " | " + commentText
		} else {
			description = commentText
		}
	}

	return description
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// ProcessedItem mirrors one serialized line item back to the caller
type ProcessedItem struct {
	Number               int
	Description          string
	FormattedDescription string
	UnitOfMeasure        string
	Quantity             decimal.Decimal
	UnitPrice            decimal.Decimal
}

// ProcessedDocument reports what a serialization actually wrote
type ProcessedDocument struct {
	DocumentID   string
	DocumentType document.DocumentType
	CustomerRef  string
	DocumentDate string
	Currency     string
	LineItems    []ProcessedItem
}

// codec translates between the canonical document and the semicolon
// separated wire format.
type codec struct {
	config *Config
	now    func() time.Time
}

func newCodec(config *Config) *codec {
	return &codec{config: config, now: time.Now}
}

// Serialize renders a canonical document into the wire payload: one
// login line, then one combined header+detail record per line item.
func (c *codec) Serialize(doc *document.CanonicalDocument) (string, *ProcessedDocument, error) {
	tc, err := configFor(doc.Type)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", err, doc.Type)
	}

	documentID := doc.CrossSystemID
	if documentID == "" {
		// Negative id instructs the backend to create a new record
		documentID = "-10000"
	}
	currency := doc.Currency.Code
	if currency == "" {
		currency = "EUR"
	}
	documentDate := formatWireDate(doc.SubmittedDate, c.now)

	var headerLine string
	switch doc.Type {
	case document.TypeRequestForQuote, document.TypeQuote:
		headerLine = fmt.Sprintf(
			"%s;%s;;0;%s;%s;;;;;;;;;;;;;;;;;;;;;;0;%s;;%s;%s;%s"+
				";0;0,00;;\"%s\";\"%s\";;0;;1;0;0;0,00;;0 Neu;;0;0,00;0,00;;;;;;;;;;;;;;;;;;0",
			tc.RecordType, documentID, c.config.CompanyID, c.config.CustomerID,
			documentDate, c.config.PaymentTerms, currency, c.config.PriceGroup,
			c.config.OfferText, c.config.EndText,
		)
	case document.TypePurchaseOrder:
		headerLine = fmt.Sprintf(
			"%s;%s;;0;%s;%s;;;;;;;;;;;;;;;;;;;;;;0;%s;%s;;%s;%s;%s"+
				";0;%s;;\"%s\";\"%s\";;1;1;0;0 Neu;1;0;0;;0,00;;;;0;%s;0,00;;;;;;;;;;;;;;;;;0",
			tc.RecordType, documentID, c.config.CompanyID, c.config.CustomerID,
			doc.ReferenceNumber, documentDate, c.config.PaymentTerms, currency, c.config.PriceGroup,
			formatWireDecimal(doc.DiscountPercentage),
			c.config.OrderText, c.config.EndText,
			formatWireDecimal(doc.FreightCost),
		)
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedType, doc.Type)
	}

	processed := &ProcessedDocument{
		DocumentID:   documentID,
		DocumentType: doc.Type,
		CustomerRef:  doc.ReferenceNumber,
		DocumentDate: documentDate,
		Currency:     currency,
	}

	lines := []string{fmt.Sprintf("LOGIN;%s;%s", c.config.Login, c.config.Password)}

	for i := range doc.LineItems {
		item := &doc.LineItems[i]
		formatted := composeDescription(item)
		uom := item.UnitOfMeasure
		if uom == "" {
			uom = "PCE"
		}

		var itemLine string
		switch doc.Type {
		case document.TypeRequestForQuote, document.TypeQuote:
			itemLine = fmt.Sprintf("%s;;%d %s;%s;%s;%s;1;0,00;;0;0;0;0;;;;;;",
				headerLine, item.Number, formatted, uom,
				formatWireDecimal(item.Quantity), formatWireDecimal(item.UnitPrice))
		case document.TypePurchaseOrder:
			itemLine = fmt.Sprintf("%s;;%d %s;%s;%s;%s;;1;%s;;0;0;0;0;0;0;;;;;;0;0;;;;;",
				headerLine, item.Number, formatted, uom,
				formatWireDecimal(item.Quantity), formatWireDecimal(item.UnitPrice),
				formatWireDecimal(item.DiscountPercentage))
		}

		lines = append(lines, itemLine)
		processed.LineItems = append(processed.LineItems, ProcessedItem{
			Number:               item.Number,
			Description:          item.Description,
			FormattedDescription: formatted,
			UnitOfMeasure:        uom,
			Quantity:             item.Quantity,
			UnitPrice:            item.UnitPrice,
		})
	}

	return strings.Join(lines, "\n"), processed, nil
}

// ---------------------------------------------------------------------------
// Deserialization
// ---------------------------------------------------------------------------

// WirePayload is a fetched record set parsed back into canonical shape
type WirePayload struct {
	LineItems []document.LineItem
	// DiscountPercentage is the document-level discount, read from the
	// last kept record
	DiscountPercentage decimal.Decimal
	// TermsAndConditions is read from the last kept record
	TermsAndConditions string
	// FreightCost is read from the last kept record
	FreightCost decimal.Decimal
}

// Deserialize parses a semicolon separated reply for the given document
// type. Rows with the wrong record tag or too few columns are skipped.
// Item numbers are reassigned as a 1-based running counter; header
// fields are taken from the last kept row with a readable discount.
func (c *codec) Deserialize(raw string, docType document.DocumentType) (*WirePayload, error) {
	tc, err := configFor(docType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, docType)
	}
	fields := tc.Fields
	minWidth := fields.max() + 1

	reader := csv.NewReader(strings.NewReader(raw))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrBackendInvalidReply, err)
	}

	payload := &WirePayload{}
	itemNumber := 1

	for _, row := range rows {
		if len(row) < minWidth {
			continue
		}
		if row[0] != tc.RecordType {
			continue
		}

		item := document.LineItem{
			Number:             itemNumber,
			PartCode:           row[fields.PartCode],
			Description:        row[fields.Description],
			UnitOfMeasure:      row[fields.UnitOfMeasure],
			Quantity:           parseWireDecimal(row[fields.Quantity]),
			UnitPrice:          parseWireDecimal(row[fields.UnitPrice]),
			DiscountPercentage: parseWireDecimal(row[fields.DiscountPercentage]),
		}
		item.Recalculate()
		payload.LineItems = append(payload.LineItems, item)
		itemNumber++

		// Header fields repeat on every record; the last row with a
		// readable total discount wins. A row whose discount column
		// does not parse leaves the previous discount and terms alone.
		if disc, ok := parseWireDecimalStrict(row[fields.TotalDiscountPercentage]); ok {
			payload.DiscountPercentage = disc
			payload.TermsAndConditions = row[fields.TermsAndConditions]
		}
		payload.FreightCost = parseWireDecimal(row[fields.FreightCost])
	}

	return payload, nil
}

// SubCost sums the extended line costs before document discount and
// freight.
func (p *WirePayload) SubCost() decimal.Decimal {
	sub := decimal.Zero
	for i := range p.LineItems {
		item := &p.LineItems[i]
		sub = sub.Add(item.Quantity.Mul(item.UnitPrice).Sub(item.DiscountCost))
	}
	return sub
}

// Cost applies the document discount and freight to the sub cost
func (p *WirePayload) Cost() decimal.Decimal {
	sub := p.SubCost()
	disc := sub.Mul(p.DiscountPercentage).Div(decimal.NewFromInt(100)).Round(2)
	return sub.Sub(disc).Add(p.FreightCost)
}
