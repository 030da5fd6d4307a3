package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/procuregate/gateway/internal/domain/document"
	"github.com/procuregate/gateway/internal/infrastructure/erp/odoo"
)

// OfferService creates and reads sale offers on the relational backend
type OfferService interface {
	SendOffer(ctx context.Context, doc *document.CanonicalDocument, customerOverride string) (*odoo.OfferResult, error)
	FetchOffer(ctx context.Context, orderID int64) (*odoo.Offer, error)
}

// OfferHandler handles sale offer endpoints
type OfferHandler struct {
	BaseHandler
	portal Portal
	offers OfferService
}

// NewOfferHandler creates a new OfferHandler
func NewOfferHandler(portal Portal, offers OfferService) *OfferHandler {
	return &OfferHandler{
		portal: portal,
		offers: offers,
	}
}

// RegisterRoutes registers offer routes
func (h *OfferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	offers := rg.Group("/offers")
	offers.POST("", h.Create)
	offers.GET("/:id", h.Get)
}

// CreateOfferRequest asks for a portal document to be turned into a
// sale offer. Customer overrides the buyer name as the offer customer.
type CreateOfferRequest struct {
	DocumentID string `json:"documentId" binding:"required"`
	Customer   string `json:"customer"`
}

// OfferResultResponse reports what happened to an offer
type OfferResultResponse struct {
	OrderID       int64  `json:"orderId"`
	LineCount     int    `json:"lineCount"`
	DisplayNumber string `json:"displayNumber"`
	Updated       bool   `json:"updated"`
}

// Create pulls the named portal document and writes it into the
// relational backend as a sale offer, reconciling into an existing
// order when the reference number points at one.
// POST /offers
func (h *OfferHandler) Create(c *gin.Context) {
	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	doc, err := h.portal.GetDocument(ctx, req.DocumentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.offers.SendOffer(ctx, doc, req.Customer)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, OfferResultResponse{
		OrderID:       result.OrderID,
		LineCount:     result.LineCount,
		DisplayNumber: result.DisplayNumber,
		Updated:       result.Updated,
	})
}

// OfferLineResponse is one offer line in API responses
type OfferLineResponse struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// OfferResponse is an offer read back from the backend
type OfferResponse struct {
	ID            int64               `json:"id"`
	DisplayNumber string              `json:"displayNumber"`
	Customer      string              `json:"customer"`
	Lines         []OfferLineResponse `json:"lines"`
}

// Get reads one offer back from the relational backend.
// GET /offers/:id
func (h *OfferHandler) Get(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.BadRequest(c, "offer id must be numeric")
		return
	}

	offer, err := h.offers.FetchOffer(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	lines := make([]OfferLineResponse, 0, len(offer.Lines))
	for _, line := range offer.Lines {
		lines = append(lines, OfferLineResponse{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.TotalPrice,
		})
	}
	h.Success(c, OfferResponse{
		ID:            offer.ID,
		DisplayNumber: offer.DisplayNumber,
		Customer:      offer.Customer,
		Lines:         lines,
	})
}
