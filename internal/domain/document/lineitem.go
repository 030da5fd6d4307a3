package document

import "github.com/shopspring/decimal"

// declinedReason is the fixed reason text for zero-quantity or
// zero-price positions.
const declinedReason = "Not available"

var hundred = decimal.NewFromInt(100)

// PartID is one identifier attached to a line item part
type PartID struct {
	// PartType is the identifier scheme, e.g. "IMPA" or "ISSA"
	PartType string
	// PartCode is the identifier value
	PartCode string
}

// EquipmentSection describes the piece of equipment a spare part
// belongs to
type EquipmentSection struct {
	Name           string
	AccountNumber  string
	SerialNumber   string
	Manufacturer   string
	ModelNumber    string
	DepartmentType string
}

// LineItem is one position of a procurement document. Quantity, unit
// price and discount percentage are the authoritative inputs; discount
// cost, total cost and the declined flag are always derived from them.
type LineItem struct {
	// Number is the 1-based position number
	Number int
	// PartCode is the primary part identifier
	PartCode string
	// Description is the position text
	Description string
	// Comment is free text attached to the position
	Comment string
	// PartIdentification holds additional part identifiers
	PartIdentification []PartID
	// Equipment describes the owning equipment, when present
	Equipment EquipmentSection
	// UnitOfMeasure is the quantity unit, e.g. "PCS"
	UnitOfMeasure string

	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal

	// DiscountCost is derived: round(UnitPrice * DiscountPercentage / 100, 2)
	DiscountCost decimal.Decimal
	// TotalCost is derived: Quantity * (UnitPrice - DiscountCost)
	TotalCost decimal.Decimal
	// Declined is derived: true when quantity or price is not positive
	Declined bool
	// DeclinedReasonText carries the reason when Declined is set
	DeclinedReasonText string
}

// Recalculate rederives DiscountCost, TotalCost and the declined state
// from quantity, unit price and discount percentage.
func (li *LineItem) Recalculate() {
	li.DiscountCost = li.UnitPrice.Mul(li.DiscountPercentage).Div(hundred).Round(2)
	li.TotalCost = li.Quantity.Mul(li.UnitPrice.Sub(li.DiscountCost))

	if li.Quantity.LessThanOrEqual(decimal.Zero) || li.UnitPrice.LessThanOrEqual(decimal.Zero) {
		li.Declined = true
		li.DeclinedReasonText = declinedReason
	} else {
		li.Declined = false
		li.DeclinedReasonText = ""
	}
}
