package document

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentType_IsValid(t *testing.T) {
	valid := []DocumentType{
		TypeRequestForQuote, TypeQuote, TypePurchaseOrder,
		TypePurchaseOrderConfirmation, TypeRequisition,
	}
	for _, dt := range valid {
		assert.True(t, dt.IsValid(), "%s should be valid", dt)
	}

	assert.False(t, DocumentType("Invoice").IsValid())
	assert.False(t, DocumentType("").IsValid())
	assert.False(t, DocumentType("quote").IsValid(), "type matching is case sensitive")
}

func TestDocumentType_ResponseType(t *testing.T) {
	assert.Equal(t, TypeQuote, TypeRequestForQuote.ResponseType())
	assert.Equal(t, TypePurchaseOrderConfirmation, TypePurchaseOrder.ResponseType())
	assert.Equal(t, TypeQuote, TypeQuote.ResponseType())
	assert.Equal(t, TypeRequisition, TypeRequisition.ResponseType())
}

func TestCanonicalDocument_Dispatchable(t *testing.T) {
	tests := []struct {
		name    string
		doc     *CanonicalDocument
		wantErr error
	}{
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrNotDispatchable,
		},
		{
			name:    "missing id",
			doc:     &CanonicalDocument{Type: TypeQuote},
			wantErr: ErrNotDispatchable,
		},
		{
			name:    "missing type",
			doc:     &CanonicalDocument{ID: "doc-1"},
			wantErr: ErrNotDispatchable,
		},
		{
			name:    "unknown type",
			doc:     &CanonicalDocument{ID: "doc-1", Type: "Invoice"},
			wantErr: ErrUnknownDocumentType,
		},
		{
			name: "valid",
			doc:  &CanonicalDocument{ID: "doc-1", Type: TypeQuote},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Dispatchable()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCanonicalDocument_Cost(t *testing.T) {
	doc := &CanonicalDocument{
		ID:                 "doc-1",
		Type:               TypeQuote,
		DiscountPercentage: d("10"),
		FreightCost:        d("25.00"),
		LineItems: []LineItem{
			{Number: 1, Quantity: d("2"), UnitPrice: d("100")},
			{Number: 2, Quantity: d("1"), UnitPrice: d("50")},
		},
	}
	doc.Recalculate()

	require.True(t, doc.SubCost().Equal(d("250")), "sub cost: got %s", doc.SubCost())
	// 250 - round(25.00, 2) + 25.00
	assert.True(t, doc.Cost().Equal(d("250.00")), "cost: got %s", doc.Cost())
}

func TestCanonicalDocument_Cost_DiscountRoundsBeforeSubtraction(t *testing.T) {
	doc := &CanonicalDocument{
		DiscountPercentage: d("3.33"),
		FreightCost:        decimal.Zero,
		LineItems: []LineItem{
			{Number: 1, Quantity: d("1"), UnitPrice: d("9.99")},
		},
	}
	doc.Recalculate()

	// sub = 9.99, discount = round(9.99*3.33/100, 2) = 0.33
	assert.True(t, doc.Cost().Equal(d("9.66")), "cost: got %s", doc.Cost())
}
