package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procuregate/gateway/internal/domain/document"
	"github.com/procuregate/gateway/internal/infrastructure/erp/odoo"
)

// fakeOffers records calls and answers from canned values
type fakeOffers struct {
	result      *odoo.OfferResult
	sendErr     error
	gotDoc      *document.CanonicalDocument
	gotCustomer string

	offer      *odoo.Offer
	fetchErr   error
	gotOrderID int64
}

func (o *fakeOffers) SendOffer(_ context.Context, doc *document.CanonicalDocument, customerOverride string) (*odoo.OfferResult, error) {
	o.gotDoc = doc
	o.gotCustomer = customerOverride
	return o.result, o.sendErr
}

func (o *fakeOffers) FetchOffer(_ context.Context, orderID int64) (*odoo.Offer, error) {
	o.gotOrderID = orderID
	return o.offer, o.fetchErr
}

func newOfferRig(portal *fakePortal, offers *fakeOffers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewOfferHandler(portal, offers).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestOfferHandler_Create(t *testing.T) {
	portal := &fakePortal{doc: testDocument()}
	offers := &fakeOffers{
		result: &odoo.OfferResult{OrderID: 42, LineCount: 1, DisplayNumber: "S00042"},
	}
	engine := newOfferRig(portal, offers)

	w, envelope := doJSON(t, engine, http.MethodPost, "/api/v1/offers", gin.H{
		"documentId": "doc-1",
		"customer":   "Hanseatic Shipping GmbH",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "doc-1", offers.gotDoc.ID)
	assert.Equal(t, "Hanseatic Shipping GmbH", offers.gotCustomer)

	data := envelope["data"].(map[string]any)
	assert.Equal(t, 42.0, data["orderId"])
	assert.Equal(t, "S00042", data["displayNumber"])
	assert.Equal(t, false, data["updated"])
}

func TestOfferHandler_Create_MissingDocumentID(t *testing.T) {
	engine := newOfferRig(&fakePortal{}, &fakeOffers{})

	w, _ := doJSON(t, engine, http.MethodPost, "/api/v1/offers", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOfferHandler_Create_NoCustomer(t *testing.T) {
	portal := &fakePortal{doc: &document.CanonicalDocument{ID: "doc-1", Type: document.TypeQuote}}
	offers := &fakeOffers{sendErr: odoo.ErrNoCustomer}
	engine := newOfferRig(portal, offers)

	w, envelope := doJSON(t, engine, http.MethodPost, "/api/v1/offers", gin.H{
		"documentId": "doc-1",
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	errInfo := envelope["error"].(map[string]any)
	assert.Equal(t, "ERR_INTERNAL", errInfo["code"])
}

func TestOfferHandler_Get(t *testing.T) {
	offers := &fakeOffers{
		offer: &odoo.Offer{
			ID:            42,
			DisplayNumber: "S00042",
			Customer:      "Hanseatic Shipping",
			Lines: []odoo.OfferLine{
				{
					Description: "10 Pump seal kit",
					Quantity:    decimal.NewFromInt(2),
					UnitPrice:   decimal.NewFromFloat(6.5),
					TotalPrice:  decimal.NewFromInt(13),
				},
			},
		},
	}
	engine := newOfferRig(&fakePortal{}, offers)

	w, envelope := doJSON(t, engine, http.MethodGet, "/api/v1/offers/42", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), offers.gotOrderID)

	data := envelope["data"].(map[string]any)
	assert.Equal(t, "S00042", data["displayNumber"])
	lines := data["lines"].([]any)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, "10 Pump seal kit", line["description"])
	assert.Equal(t, "6.5", line["unitPrice"])
	assert.Equal(t, "13", line["totalPrice"])
}

func TestOfferHandler_Get_NonNumericID(t *testing.T) {
	engine := newOfferRig(&fakePortal{}, &fakeOffers{})

	w, _ := doJSON(t, engine, http.MethodGet, "/api/v1/offers/S00042", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOfferHandler_Get_NotFound(t *testing.T) {
	offers := &fakeOffers{fetchErr: document.ErrBackendRecordNotFound}
	engine := newOfferRig(&fakePortal{}, offers)

	w, envelope := doJSON(t, engine, http.MethodGet, "/api/v1/offers/99", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	errInfo := envelope["error"].(map[string]any)
	assert.Equal(t, "ERR_NOT_FOUND", errInfo["code"])
}
