package collmex

import (
	"errors"

	"github.com/procuregate/gateway/internal/domain/document"
)

// Errors for collmex configuration
var (
	ErrConfigMissingURL      = errors.New("collmex: api url is required")
	ErrConfigMissingLogin    = errors.New("collmex: login is required")
	ErrConfigMissingPassword = errors.New("collmex: password is required")
	ErrUnsupportedType       = errors.New("collmex: unsupported document type")
)

// Config holds the connection and account settings for the flat-record
// data exchange endpoint.
type Config struct {
	// APIURL is the data exchange endpoint
	APIURL string
	// Login is the account login
	Login string
	// Password is the account password
	Password string
	// CompanyID is the submitting company record, id and name
	CompanyID string
	// CustomerID is the customer record documents are booked against
	CustomerID string
	// PaymentTerms is the payment terms record, id and name
	PaymentTerms string
	// PriceGroup is the price group record, id and name
	PriceGroup string
	// OfferText is the boilerplate opening text on quotations
	OfferText string
	// OrderText is the boilerplate opening text on sales orders
	OrderText string
	// EndText is the boilerplate closing text
	EndText string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Validate validates the configuration and fills account defaults
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return ErrConfigMissingURL
	}
	if c.Login == "" {
		return ErrConfigMissingLogin
	}
	if c.Password == "" {
		return ErrConfigMissingPassword
	}
	if c.CompanyID == "" {
		c.CompanyID = "1 Hamburg Factorship GmbH"
	}
	if c.CustomerID == "" {
		c.CustomerID = "99998"
	}
	if c.PaymentTerms == "" {
		c.PaymentTerms = "0 30 Tage ohne Abzug"
	}
	if c.PriceGroup == "" {
		c.PriceGroup = "0 Standard"
	}
	if c.OfferText == "" {
		c.OfferText = "We herewith offer according to Orgalime S2012-conditions."
	}
	if c.OrderText == "" {
		c.OrderText = "We herewith acknowledge your order, based on Orgalime-conditions S2012."
	}
	if c.EndText == "" {
		c.EndText = "Time of delivery: \n Terms of delivery: ex works \n Validity: 2 months after offer"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// fieldIndex holds the 0-based column positions of one record layout.
// The positions are fixed by the wire format and never defaulted.
type fieldIndex struct {
	PartCode                int
	Description             int
	UnitOfMeasure           int
	Quantity                int
	UnitPrice               int
	DiscountPercentage      int
	TermsAndConditions      int
	TotalDiscountPercentage int
	FreightCost             int
}

// max returns the highest column position in the layout
func (f fieldIndex) max() int {
	m := f.PartCode
	for _, v := range []int{
		f.Description, f.UnitOfMeasure, f.Quantity, f.UnitPrice,
		f.DiscountPercentage, f.TermsAndConditions,
		f.TotalDiscountPercentage, f.FreightCost,
	} {
		if v > m {
			m = v
		}
	}
	return m
}

// typeConfig binds a document type to its record tag, fetch command,
// reply type and column layout.
type typeConfig struct {
	RecordType   string
	Command      string
	ResponseType document.DocumentType
	Fields       fieldIndex
}

var quotationFields = fieldIndex{
	PartCode:                69,
	Description:             70,
	UnitOfMeasure:           71,
	Quantity:                72,
	UnitPrice:               73,
	DiscountPercentage:      75,
	TermsAndConditions:      37,
	TotalDiscountPercentage: 34,
	FreightCost:             49,
}

var typeConfigs = map[document.DocumentType]typeConfig{
	document.TypeQuote: {
		RecordType:   "CMXQTN",
		Command:      "QUOTATION_GET",
		ResponseType: document.TypeQuote,
		Fields:       quotationFields,
	},
	document.TypeRequestForQuote: {
		RecordType:   "CMXQTN",
		Command:      "QUOTATION_GET",
		ResponseType: document.TypeQuote,
		Fields:       quotationFields,
	},
	document.TypePurchaseOrder: {
		RecordType:   "CMXORD-2",
		Command:      "SALES_ORDER_GET",
		ResponseType: document.TypePurchaseOrderConfirmation,
		Fields: fieldIndex{
			PartCode:                72,
			Description:             73,
			UnitOfMeasure:           74,
			Quantity:                75,
			UnitPrice:               76,
			DiscountPercentage:      769,
			TermsAndConditions:      35,
			TotalDiscountPercentage: 38,
			FreightCost:             52,
		},
	},
}

// configFor returns the record layout for a document type. A missing
// entry is a configuration error, never defaulted.
func configFor(docType document.DocumentType) (typeConfig, error) {
	tc, ok := typeConfigs[docType]
	if !ok {
		return typeConfig{}, ErrUnsupportedType
	}
	return tc, nil
}
