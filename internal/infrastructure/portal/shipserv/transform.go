package shipserv

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/procuregate/gateway/internal/domain/document"
)

// ---------------------------------------------------------------------------
// Portal wire shapes
// ---------------------------------------------------------------------------

type wireParty struct {
	TNID string `json:"tnId"`
	Name string `json:"name"`
}

type wireVessel struct {
	Name      string `json:"name"`
	IMONumber string `json:"imoNumber"`
}

type wireCurrency struct {
	Code string `json:"code"`
}

type wirePartID struct {
	PartType string `json:"partType"`
	PartCode string `json:"partCode"`
}

type wireEquipment struct {
	Name           string `json:"name"`
	AccountNumber  string `json:"accountNumber"`
	SerialNumber   string `json:"serialNumber"`
	Manufacturer   string `json:"manufacturer"`
	ModelNumber    string `json:"modelNumber"`
	DepartmentType string `json:"departmentType"`
}

type wireLineItem struct {
	Number             int             `json:"number"`
	SupplierPartNumber string          `json:"supplierPartNumber"`
	Description        string          `json:"description"`
	Comment            string          `json:"comment"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitOfMeasure      string          `json:"unitOfMeasure"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	PartIdentification []wirePartID    `json:"partIdentification"`
	EquipmentSection   wireEquipment   `json:"equipmentSection"`
}

type wireDocument struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type"`
	Buyer              wireParty       `json:"buyer"`
	Supplier           wireParty       `json:"supplier"`
	Subject            string          `json:"subject"`
	Comment            string          `json:"comment"`
	ReferenceNumber    string          `json:"referenceNumber"`
	PaymentTerms       string          `json:"paymentTerms"`
	TermsAndConditions string          `json:"termsAndConditions"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	FreightCost        decimal.Decimal `json:"freightCost"`
	Vessel             wireVessel      `json:"vessel"`
	Currency           wireCurrency    `json:"currency"`
	CreatedDate        string          `json:"createdDate"`
	SubmittedDate      string          `json:"submittedDate"`
	LineItems          []wireLineItem  `json:"lineItems"`
}

// toCanonical decodes a portal document and reshapes it into the
// canonical form. All derived costs are recalculated; the portal's own
// cost figures are never trusted.
func toCanonical(raw []byte) (*document.CanonicalDocument, error) {
	var wire wireDocument
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrBackendInvalidReply, err)
	}

	doc := &document.CanonicalDocument{
		ID:                 wire.ID,
		Type:               document.DocumentType(wire.Type),
		ReferenceNumber:    wire.ReferenceNumber,
		Subject:            wire.Subject,
		Comment:            wire.Comment,
		CreatedDate:        wire.CreatedDate,
		SubmittedDate:      wire.SubmittedDate,
		Currency:           document.Currency{Code: wire.Currency.Code},
		Buyer:              document.Party{TNID: wire.Buyer.TNID, Name: wire.Buyer.Name},
		Supplier:           document.Party{TNID: wire.Supplier.TNID, Name: wire.Supplier.Name},
		Vessel:             document.Vessel{Name: wire.Vessel.Name, IMONumber: wire.Vessel.IMONumber},
		TermsAndConditions: wire.TermsAndConditions,
		PaymentTerms:       wire.PaymentTerms,
		DiscountPercentage: wire.DiscountPercentage,
		FreightCost:        wire.FreightCost,
	}

	for _, item := range wire.LineItems {
		li := document.LineItem{
			Number:             item.Number,
			Description:        item.Description,
			Comment:            item.Comment,
			UnitOfMeasure:      item.UnitOfMeasure,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			DiscountPercentage: item.DiscountPercentage,
			Equipment: document.EquipmentSection{
				Name:           item.EquipmentSection.Name,
				AccountNumber:  item.EquipmentSection.AccountNumber,
				SerialNumber:   item.EquipmentSection.SerialNumber,
				Manufacturer:   item.EquipmentSection.Manufacturer,
				ModelNumber:    item.EquipmentSection.ModelNumber,
				DepartmentType: item.EquipmentSection.DepartmentType,
			},
		}
		for _, part := range item.PartIdentification {
			li.PartIdentification = append(li.PartIdentification, document.PartID{
				PartType: part.PartType,
				PartCode: part.PartCode,
			})
		}
		if len(li.PartIdentification) > 0 {
			li.PartCode = li.PartIdentification[0].PartCode
		} else if item.SupplierPartNumber != "" {
			li.PartCode = item.SupplierPartNumber
		}
		doc.LineItems = append(doc.LineItems, li)
	}
	doc.Recalculate()

	return doc, nil
}

// itemToWire reshapes a canonical line item into the portal's item form
func itemToWire(item *document.LineItem) map[string]any {
	wire := map[string]any{
		"number":             item.Number,
		"description":        item.Description,
		"quantity":           item.Quantity.InexactFloat64(),
		"unitOfMeasure":      item.UnitOfMeasure,
		"unitPrice":          item.UnitPrice.InexactFloat64(),
		"discountPercentage": item.DiscountPercentage.InexactFloat64(),
		"discountCost":       item.DiscountCost.InexactFloat64(),
		"totalCost":          item.TotalCost.InexactFloat64(),
		"declined":           item.Declined,
	}
	if item.Comment != "" {
		wire["comment"] = item.Comment
	}
	if item.DeclinedReasonText != "" {
		wire["declinedReasonText"] = item.DeclinedReasonText
	}
	return wire
}
