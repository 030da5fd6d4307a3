package document

import "context"

// ---------------------------------------------------------------------------
// Backend Port
// ---------------------------------------------------------------------------

// SendResult is what a backend reports after accepting a document
type SendResult struct {
	// CrossSystemID is the id the backend assigned, empty when the
	// backend does not issue ids
	CrossSystemID string
	// RecordCount is the number of records the backend processed
	RecordCount int
	// DisplayNumber is the backend's human-facing document number
	DisplayNumber string
	// Processed indicates the backend acknowledged the document
	Processed bool
}

// CustomFields carries backend-derived values attached to a fetched
// document when it is pushed back to the portal.
type CustomFields struct {
	Type               DocumentType
	FetchedOn          string
	BackendDocumentID  string
	DiscountPercentage string
	DiscountCost       string
	SubCost            string
	Cost               string
	TermsAndConditions string
	PaymentTerms       string
	FreightCost        string
}

// FetchResult is a document read back from a backend, reshaped to
// canonical line items plus the side-channel portal data it was
// originally sent with.
type FetchResult struct {
	// Type is the document type of the reply, e.g. a fetched request
	// for quote comes back as a quote
	Type DocumentType
	// PortalDocumentID is the portal id the reply belongs to
	PortalDocumentID string
	// CrossSystemID is the backend record id that was fetched
	CrossSystemID string
	// LineItems are the backend's positions in canonical shape
	LineItems []LineItem
	// Custom carries derived totals and terms for the portal
	Custom CustomFields
	// PortalData is the originally sent document, when a side channel
	// stored one
	PortalData *PortalData
}

// SendFunc pushes a canonical document into a backend
type SendFunc func(ctx context.Context, doc *CanonicalDocument) (*SendResult, error)

// FetchFunc reads a document back out of a backend
type FetchFunc func(ctx context.Context, crossSystemID string, docType DocumentType) (*FetchResult, error)

// Capabilities is the operation set a backend registers. Send is
// required; typed entries override the generic functions for their
// document type.
type Capabilities struct {
	// Send is the generic send operation, required
	Send SendFunc
	// SendByType overrides Send per document type
	SendByType map[DocumentType]SendFunc
	// Fetch is the generic fetch operation, optional
	Fetch FetchFunc
	// FetchByType overrides Fetch per document type
	FetchByType map[DocumentType]FetchFunc
}

// ---------------------------------------------------------------------------
// Side Channel Port
// ---------------------------------------------------------------------------

// PortalData is the portal document snapshot a side channel stored at
// send time, keyed by the backend cross-system id.
type PortalData struct {
	// PortalDocumentID is the original portal id
	PortalDocumentID string
	// ReferenceNumber is the portal document number
	ReferenceNumber string
	// PaymentTerms is the payment terms text at send time
	PaymentTerms string
	// TermsAndConditions is the terms text at send time
	TermsAndConditions string
	// Raw is the stored document JSON
	Raw []byte
}

// SideChannel looks up the portal snapshot for a backend record. The
// lookup key field depends on the document type. A missing snapshot is
// reported as (nil, nil), not as an error.
type SideChannel interface {
	Lookup(ctx context.Context, crossSystemID string, docType DocumentType) (*PortalData, error)
}
