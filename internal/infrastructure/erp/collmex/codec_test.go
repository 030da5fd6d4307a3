package collmex

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procuregate/gateway/internal/domain/document"
)

func testConfig() *Config {
	cfg := &Config{
		APIURL:   "https://erp.example.com/exchange",
		Login:    "user",
		Password: "secret",
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

// buildRow builds a wire record with values placed at the layout
// positions of the given document type.
func buildRow(t *testing.T, docType document.DocumentType, partCode, description, uom, qty, price, discount, terms, totalDiscount, freight string) string {
	t.Helper()
	tc, err := configFor(docType)
	require.NoError(t, err)

	row := make([]string, tc.Fields.max()+1)
	row[0] = tc.RecordType
	row[tc.Fields.PartCode] = partCode
	row[tc.Fields.Description] = description
	row[tc.Fields.UnitOfMeasure] = uom
	row[tc.Fields.Quantity] = qty
	row[tc.Fields.UnitPrice] = price
	row[tc.Fields.DiscountPercentage] = discount
	row[tc.Fields.TermsAndConditions] = terms
	row[tc.Fields.TotalDiscountPercentage] = totalDiscount
	row[tc.Fields.FreightCost] = freight
	return strings.Join(row, ";")
}

func TestFormatWireDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"iso with zulu", "2025-03-29T10:00:00Z", "20250329"},
		{"iso with fraction", "2025-03-29T10:00:00.123Z", "20250329"},
		{"iso with offset", "2025-03-29T10:00:00+02:00", "20250329"},
		{"iso without offset", "2025-03-29T10:00:00", "20250329"},
		{"date only", "2025-03-29", "20250329"},
		{"german date", "29.03.2025", "20250329"},
		{"already wire format", "20250329", "20250329"},
		{"empty falls back to now", "", "20250615"},
		{"garbage falls back to now", "next tuesday", "20250615"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatWireDate(tt.input, fixedNow))
		})
	}
}

func TestFormatWireDecimal(t *testing.T) {
	assert.Equal(t, "0,00", formatWireDecimal(decimal.Zero))
	assert.Equal(t, "12,50", formatWireDecimal(d("12.5")))
	assert.Equal(t, "1234,57", formatWireDecimal(d("1234.567")))
	assert.Equal(t, "-3,00", formatWireDecimal(d("-3")))
}

func TestParseWireDecimal(t *testing.T) {
	assert.True(t, parseWireDecimal("12,50").Equal(d("12.5")))
	assert.True(t, parseWireDecimal("12.50").Equal(d("12.5")))
	assert.True(t, parseWireDecimal(" 7,00 ").Equal(d("7")))
	assert.True(t, parseWireDecimal("").IsZero(), "empty reads as zero")
	assert.True(t, parseWireDecimal("n/a").IsZero(), "garbage reads as zero")
}

func TestComposeDescription(t *testing.T) {
	tests := []struct {
		name string
		item document.LineItem
		want string
	}{
		{
			name: "description only",
			item: document.LineItem{Description: "Pump seal kit"},
			want: "Pump seal kit",
		},
		{
			name: "line breaks flattened",
			item: document.LineItem{Description: "Pump\r\nseal kit\nspare"},
			want: "Pump|seal kit|spare",
		},
		{
			name: "part identification with type",
			item: document.LineItem{
				Description: "Pump seal kit",
				PartIdentification: []document.PartID{
					{PartType: "IMPA", PartCode: "613412"},
				},
			},
			want: "Pump seal kit | IMPA: 613412",
		},
		{
			name: "part identification without type",
			item: document.LineItem{
				PartIdentification: []document.PartID{
					{PartCode: "613412"},
				},
			},
			want: "Part: 613412",
		},
		{
			name: "equipment details",
			item: document.LineItem{
				Description: "Seal",
				Equipment: document.EquipmentSection{
					Name:         "Main engine",
					SerialNumber: "SN-100",
					Manufacturer: "MAN",
				},
			},
			want: "Seal | Equipment: Main engine | Serial: SN-100 | Manufacturer: MAN",
		},
		{
			name: "comment appended last",
			item: document.LineItem{
				Description: "Seal",
				Comment:     "urgent\ndelivery",
			},
			want: "Seal | Comment: urgent|delivery",
		},
		{
			name: "empty item",
			item: document.LineItem{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, composeDescription(&tt.item))
		})
	}
}

func TestCodec_Serialize_RequestForQuote(t *testing.T) {
	c := newCodec(testConfig())
	c.now = fixedNow

	doc := &document.CanonicalDocument{
		ID:            "doc-1",
		Type:          document.TypeRequestForQuote,
		SubmittedDate: "2025-03-29T10:00:00Z",
		Currency:      document.Currency{Code: "USD"},
		LineItems: []document.LineItem{
			{Number: 1, Description: "Pump seal kit", UnitOfMeasure: "PCS", Quantity: d("2"), UnitPrice: d("10.5")},
			{Number: 2, Description: "Gasket", Quantity: d("1"), UnitPrice: d("3")},
		},
	}

	wire, processed, err := c.Serialize(doc)
	require.NoError(t, err)

	lines := strings.Split(wire, "\n")
	require.Len(t, lines, 3, "login line plus one record per item")
	assert.Equal(t, "LOGIN;user;secret", lines[0])

	assert.True(t, strings.HasPrefix(lines[1], "CMXQTN;-10000;"), "new documents use the negative create id")
	assert.Contains(t, lines[1], "20250329")
	assert.Contains(t, lines[1], ";USD;")
	assert.Contains(t, lines[1], "1 Pump seal kit;PCS;2,00;10,50;")
	assert.Contains(t, lines[2], "2 Gasket;PCE;1,00;3,00;", "missing unit of measure defaults to PCE")

	require.Len(t, processed.LineItems, 2)
	assert.Equal(t, "20250329", processed.DocumentDate)
	assert.Equal(t, "USD", processed.Currency)
}

func TestCodec_Serialize_PurchaseOrder(t *testing.T) {
	c := newCodec(testConfig())
	c.now = fixedNow

	doc := &document.CanonicalDocument{
		ID:                 "doc-2",
		Type:               document.TypePurchaseOrder,
		ReferenceNumber:    "PO-900",
		CrossSystemID:      "4711",
		SubmittedDate:      "2025-03-29",
		DiscountPercentage: d("5"),
		FreightCost:        d("30"),
		LineItems: []document.LineItem{
			{Number: 1, Description: "Filter", UnitOfMeasure: "PCS", Quantity: d("4"), UnitPrice: d("25"), DiscountPercentage: d("2.5")},
		},
	}

	wire, _, err := c.Serialize(doc)
	require.NoError(t, err)

	lines := strings.Split(wire, "\n")
	require.Len(t, lines, 2)

	assert.True(t, strings.HasPrefix(lines[1], "CMXORD-2;4711;"), "existing cross-system id is reused")
	assert.Contains(t, lines[1], ";PO-900;")
	assert.Contains(t, lines[1], ";5,00;", "document discount uses comma separator")
	assert.Contains(t, lines[1], ";30,00;", "freight uses comma separator")
	assert.Contains(t, lines[1], "1 Filter;PCS;4,00;25,00;;1;2,50;")
}

func TestCodec_Serialize_UnsupportedType(t *testing.T) {
	c := newCodec(testConfig())
	doc := &document.CanonicalDocument{ID: "doc-3", Type: document.TypeRequisition}

	_, _, err := c.Serialize(doc)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestCodec_Deserialize(t *testing.T) {
	c := newCodec(testConfig())

	raw := strings.Join([]string{
		buildRow(t, document.TypeRequestForQuote, "P-1", "Pump seal kit", "PCS", "2,00", "10,00", "10,00", "Net 30", "5,00", "12,00"),
		buildRow(t, document.TypeRequestForQuote, "P-2", "Gasket", "PCS", "0,00", "3,00", "0,00", "Net 60", "4,00", "12,00"),
	}, "\n")

	payload, err := c.Deserialize(raw, document.TypeRequestForQuote)
	require.NoError(t, err)
	require.Len(t, payload.LineItems, 2)

	first := payload.LineItems[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "P-1", first.PartCode)
	assert.True(t, first.Quantity.Equal(d("2")))
	assert.True(t, first.UnitPrice.Equal(d("10")))
	assert.True(t, first.DiscountCost.Equal(d("1.00")), "discount cost rederived from the wire values")
	assert.True(t, first.TotalCost.Equal(d("18.00")))
	assert.False(t, first.Declined)

	second := payload.LineItems[1]
	assert.Equal(t, 2, second.Number, "item numbers are a running counter")
	assert.True(t, second.Declined, "zero quantity declines the position")
	assert.Equal(t, "Not available", second.DeclinedReasonText)

	// Header fields come from the last kept row.
	assert.Equal(t, "Net 60", payload.TermsAndConditions)
	assert.True(t, payload.DiscountPercentage.Equal(d("4")))
	assert.True(t, payload.FreightCost.Equal(d("12")))

	// sub = 2*10 - 1.00 + 0*3 - 0 = 19; cost = 19 - round(19*4%, 2) + 12
	assert.True(t, payload.SubCost().Equal(d("19.00")), "sub cost: got %s", payload.SubCost())
	assert.True(t, payload.Cost().Equal(d("30.24")), "cost: got %s", payload.Cost())
}

func TestCodec_Deserialize_SkipsForeignAndShortRows(t *testing.T) {
	c := newCodec(testConfig())

	good := buildRow(t, document.TypeRequestForQuote, "P-1", "Seal", "PCS", "1,00", "5,00", "0,00", "", "0,00", "0,00")
	raw := strings.Join([]string{
		"MESSAGE;S;204021;Es wurden 1 Datensätze verarbeitet",
		"CMXQTN;too;short;row",
		good,
		"CMXORD-2" + strings.Repeat(";x", 80),
	}, "\n")

	payload, err := c.Deserialize(raw, document.TypeRequestForQuote)
	require.NoError(t, err)
	require.Len(t, payload.LineItems, 1, "short rows and foreign record tags are skipped")
	assert.Equal(t, "P-1", payload.LineItems[0].PartCode)
}

func TestCodec_SerializeDeserializeRoundTrip(t *testing.T) {
	c := newCodec(testConfig())
	c.now = fixedNow

	doc := &document.CanonicalDocument{
		ID:            "doc-7",
		Type:          document.TypeRequestForQuote,
		SubmittedDate: "2025-03-29",
		LineItems: []document.LineItem{
			{Number: 1, Description: "Pump seal kit", UnitOfMeasure: "PCS", Quantity: d("2"), UnitPrice: d("10.50")},
			{Number: 2, Description: "Gasket", Quantity: d("1"), UnitPrice: d("3.25")},
		},
	}

	wire, _, err := c.Serialize(doc)
	require.NoError(t, err)

	// The serialized records must parse back through the same layout
	// table: a shifted column in the header format would surface here.
	payload, err := c.Deserialize(wire, document.TypeRequestForQuote)
	require.NoError(t, err)
	require.Len(t, payload.LineItems, len(doc.LineItems), "every serialized record parses back")

	for i := range payload.LineItems {
		got := payload.LineItems[i]
		sent := doc.LineItems[i]
		assert.True(t, got.Quantity.Equal(sent.Quantity), "item %d quantity: got %s", i+1, got.Quantity)
		assert.True(t, got.UnitPrice.Equal(sent.UnitPrice), "item %d unit price: got %s", i+1, got.UnitPrice)
		assert.True(t, got.DiscountPercentage.IsZero(), "item %d discount: got %s", i+1, got.DiscountPercentage)
		assert.False(t, got.Declined)
	}
}

func TestCodec_Deserialize_KeepsLastGoodHeaderFields(t *testing.T) {
	c := newCodec(testConfig())

	raw := strings.Join([]string{
		buildRow(t, document.TypeRequestForQuote, "P-1", "Seal", "PCS", "1,00", "5,00", "0,00", "Net 30", "5,00", "2,00"),
		buildRow(t, document.TypeRequestForQuote, "P-2", "Gasket", "PCS", "1,00", "3,00", "0,00", "Net 90", "n/a", "4,00"),
	}, "\n")

	payload, err := c.Deserialize(raw, document.TypeRequestForQuote)
	require.NoError(t, err)
	require.Len(t, payload.LineItems, 2)

	// The trailer row's discount does not parse, so its discount and
	// terms are ignored; freight still follows the last row.
	assert.True(t, payload.DiscountPercentage.Equal(d("5")), "got %s", payload.DiscountPercentage)
	assert.Equal(t, "Net 30", payload.TermsAndConditions)
	assert.True(t, payload.FreightCost.Equal(d("4")), "got %s", payload.FreightCost)
}

func TestCodec_Deserialize_UnsupportedType(t *testing.T) {
	c := newCodec(testConfig())
	_, err := c.Deserialize("", document.TypeRequisition)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestCodec_Deserialize_LenientDecimals(t *testing.T) {
	c := newCodec(testConfig())

	raw := buildRow(t, document.TypeRequestForQuote, "P-1", "Seal", "PCS", "abc", "10,00", "xyz", "", "", "")
	payload, err := c.Deserialize(raw, document.TypeRequestForQuote)
	require.NoError(t, err)
	require.Len(t, payload.LineItems, 1)

	item := payload.LineItems[0]
	assert.True(t, item.Quantity.IsZero(), "unparsable quantity reads as zero")
	assert.True(t, item.DiscountPercentage.IsZero())
	assert.True(t, item.Declined, "zero quantity from a bad field declines the item")
}
