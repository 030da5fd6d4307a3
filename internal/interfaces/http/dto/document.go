package dto

import (
	"github.com/shopspring/decimal"

	"github.com/procuregate/gateway/internal/domain/document"
)

// PartyResponse is a trading partner in API responses
type PartyResponse struct {
	TNID string `json:"tnId,omitempty"`
	Name string `json:"name,omitempty"`
}

// VesselResponse is the destination vessel in API responses
type VesselResponse struct {
	Name      string `json:"name,omitempty"`
	IMONumber string `json:"imoNumber,omitempty"`
}

// LineItemResponse is one document position in API responses.
// Decimal fields serialize as quoted strings so no precision is lost
// on the way out.
type LineItemResponse struct {
	Number             int             `json:"number"`
	PartCode           string          `json:"partCode,omitempty"`
	Description        string          `json:"description"`
	Comment            string          `json:"comment,omitempty"`
	UnitOfMeasure      string          `json:"unitOfMeasure,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	DiscountCost       decimal.Decimal `json:"discountCost"`
	TotalCost          decimal.Decimal `json:"totalCost"`
	Declined           bool            `json:"declined"`
	DeclinedReasonText string          `json:"declinedReasonText,omitempty"`
}

// DocumentResponse is a canonical document in API responses
type DocumentResponse struct {
	ID                 string             `json:"id"`
	Type               string             `json:"type"`
	ReferenceNumber    string             `json:"referenceNumber,omitempty"`
	Subject            string             `json:"subject,omitempty"`
	Comment            string             `json:"comment,omitempty"`
	CreatedDate        string             `json:"createdDate,omitempty"`
	SubmittedDate      string             `json:"submittedDate,omitempty"`
	CurrencyCode       string             `json:"currencyCode,omitempty"`
	Buyer              PartyResponse      `json:"buyer"`
	Supplier           PartyResponse      `json:"supplier"`
	Vessel             VesselResponse     `json:"vessel"`
	TermsAndConditions string             `json:"termsAndConditions,omitempty"`
	PaymentTerms       string             `json:"paymentTerms,omitempty"`
	CrossSystemID      string             `json:"crossSystemId,omitempty"`
	SubCost            decimal.Decimal    `json:"subCost"`
	Cost               decimal.Decimal    `json:"cost"`
	LineItems          []LineItemResponse `json:"lineItems"`
}

// FromCanonical maps a domain document to its response shape
func FromCanonical(doc *document.CanonicalDocument) DocumentResponse {
	items := make([]LineItemResponse, 0, len(doc.LineItems))
	for i := range doc.LineItems {
		li := &doc.LineItems[i]
		items = append(items, LineItemResponse{
			Number:             li.Number,
			PartCode:           li.PartCode,
			Description:        li.Description,
			Comment:            li.Comment,
			UnitOfMeasure:      li.UnitOfMeasure,
			Quantity:           li.Quantity,
			UnitPrice:          li.UnitPrice,
			DiscountPercentage: li.DiscountPercentage,
			DiscountCost:       li.DiscountCost,
			TotalCost:          li.TotalCost,
			Declined:           li.Declined,
			DeclinedReasonText: li.DeclinedReasonText,
		})
	}
	return DocumentResponse{
		ID:                 doc.ID,
		Type:               doc.Type.String(),
		ReferenceNumber:    doc.ReferenceNumber,
		Subject:            doc.Subject,
		Comment:            doc.Comment,
		CreatedDate:        doc.CreatedDate,
		SubmittedDate:      doc.SubmittedDate,
		CurrencyCode:       doc.Currency.Code,
		Buyer:              PartyResponse{TNID: doc.Buyer.TNID, Name: doc.Buyer.Name},
		Supplier:           PartyResponse{TNID: doc.Supplier.TNID, Name: doc.Supplier.Name},
		Vessel:             VesselResponse{Name: doc.Vessel.Name, IMONumber: doc.Vessel.IMONumber},
		TermsAndConditions: doc.TermsAndConditions,
		PaymentTerms:       doc.PaymentTerms,
		CrossSystemID:      doc.CrossSystemID,
		SubCost:            doc.SubCost(),
		Cost:               doc.Cost(),
		LineItems:          items,
	}
}

// DispatchOutcomeResponse is one backend's dispatch outcome
type DispatchOutcomeResponse struct {
	Success       bool   `json:"success"`
	CrossSystemID string `json:"crossSystemId,omitempty"`
	RecordCount   int    `json:"recordCount,omitempty"`
	DisplayNumber string `json:"displayNumber,omitempty"`
	Error         string `json:"error,omitempty"`
}
