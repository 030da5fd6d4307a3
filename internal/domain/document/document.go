package document

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Document Errors
// ---------------------------------------------------------------------------

var (
	// Document errors
	ErrUnknownDocumentType = errors.New("document: unknown document type")
	ErrNotDispatchable     = errors.New("document: document is missing id or type")

	// Backend errors
	ErrBackendNotFound       = errors.New("document: integration not found")
	ErrMissingCapability     = errors.New("document: backend does not support operation")
	ErrBackendNotConfigured  = errors.New("document: backend not configured")
	ErrBackendUnavailable    = errors.New("document: backend temporarily unavailable")
	ErrBackendRequestFailed  = errors.New("document: backend request failed")
	ErrBackendInvalidReply   = errors.New("document: invalid backend response")
	ErrBackendAuthFailed     = errors.New("document: backend authentication failed")
	ErrBackendRecordNotFound = errors.New("document: backend record not found")
)

// ---------------------------------------------------------------------------
// DocumentType identifies the kind of procurement document
// ---------------------------------------------------------------------------

// DocumentType identifies the kind of procurement document
type DocumentType string

const (
	// TypeRequestForQuote is a buyer's request for pricing
	TypeRequestForQuote DocumentType = "RequestForQuote"
	// TypeQuote is a supplier's priced response to a request for quote
	TypeQuote DocumentType = "Quote"
	// TypePurchaseOrder is a buyer's commitment to purchase
	TypePurchaseOrder DocumentType = "PurchaseOrder"
	// TypePurchaseOrderConfirmation is a supplier's response to a purchase order
	TypePurchaseOrderConfirmation DocumentType = "PurchaseOrderConfirmation"
	// TypeRequisition is an internal purchase request
	TypeRequisition DocumentType = "Requisition"
)

// IsValid returns true if the document type is valid
func (t DocumentType) IsValid() bool {
	switch t {
	case TypeRequestForQuote, TypeQuote, TypePurchaseOrder,
		TypePurchaseOrderConfirmation, TypeRequisition:
		return true
	default:
		return false
	}
}

// String returns the string representation of DocumentType
func (t DocumentType) String() string {
	return string(t)
}

// ResponseType returns the document type a backend produces in reply to
// a sent document. A request for quote comes back as a quote, a purchase
// order as a confirmation. Types without a reply map to themselves.
func (t DocumentType) ResponseType() DocumentType {
	switch t {
	case TypeRequestForQuote:
		return TypeQuote
	case TypePurchaseOrder:
		return TypePurchaseOrderConfirmation
	default:
		return t
	}
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Party identifies a trading partner on the marketplace
type Party struct {
	// TNID is the marketplace trading network id
	TNID string
	// Name is the display name
	Name string
}

// Currency holds the document currency
type Currency struct {
	Code string
}

// Vessel identifies the ship a requisition or order is destined for
type Vessel struct {
	Name      string
	IMONumber string
}

// CanonicalDocument is the portal-shaped document every backend
// transformation starts from and ends at. Dates are carried as the
// portal delivers them; normalization happens at the wire boundary.
type CanonicalDocument struct {
	// ID is the portal document id
	ID string
	// Type is the document type
	Type DocumentType
	// ReferenceNumber is the human-facing document number
	ReferenceNumber string
	// Subject is the document title
	Subject string
	// Comment is free text attached to the document
	Comment string
	// CreatedDate is the portal creation timestamp, as delivered
	CreatedDate string
	// SubmittedDate is the portal submission timestamp, as delivered
	SubmittedDate string
	// Currency is the document currency
	Currency Currency
	// Buyer is the purchasing party
	Buyer Party
	// Supplier is the supplying party
	Supplier Party
	// Vessel is the destination vessel, when present
	Vessel Vessel
	// TermsAndConditions is the supplier's terms text
	TermsAndConditions string
	// PaymentTerms is the payment terms text
	PaymentTerms string
	// DiscountPercentage is the document-level discount
	DiscountPercentage decimal.Decimal
	// FreightCost is the document-level freight charge
	FreightCost decimal.Decimal
	// CrossSystemID is the id assigned by a backend system.
	// Empty means no backend has claimed the document yet.
	CrossSystemID string
	// LineItems are the document positions, order preserved
	LineItems []LineItem
}

// Dispatchable returns nil when the document carries enough identity to
// be routed to a backend.
func (d *CanonicalDocument) Dispatchable() error {
	if d == nil || d.ID == "" || d.Type == "" {
		return ErrNotDispatchable
	}
	if !d.Type.IsValid() {
		return ErrUnknownDocumentType
	}
	return nil
}

// Recalculate rederives all line item costs. Wire-level cost fields are
// never trusted; this runs after every inbound transformation.
func (d *CanonicalDocument) Recalculate() {
	for i := range d.LineItems {
		d.LineItems[i].Recalculate()
	}
}

// SubCost returns the sum of all line item extended costs before
// document-level discount and freight.
func (d *CanonicalDocument) SubCost() decimal.Decimal {
	sub := decimal.Zero
	for i := range d.LineItems {
		sub = sub.Add(d.LineItems[i].TotalCost)
	}
	return sub
}

// Cost returns the document total: sub cost less the document discount,
// rounded to cents, plus freight.
func (d *CanonicalDocument) Cost() decimal.Decimal {
	sub := d.SubCost()
	disc := sub.Mul(d.DiscountPercentage).Div(decimal.NewFromInt(100)).Round(2)
	return sub.Sub(disc).Add(d.FreightCost)
}
