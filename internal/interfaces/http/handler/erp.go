package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/procuregate/gateway/internal/domain/document"
)

// ERPHandler handles backend round-trip endpoints
type ERPHandler struct {
	BaseHandler
	portal     Portal
	dispatcher Dispatcher
}

// NewERPHandler creates a new ERPHandler
func NewERPHandler(portal Portal, dispatcher Dispatcher) *ERPHandler {
	return &ERPHandler{
		portal:     portal,
		dispatcher: dispatcher,
	}
}

// RegisterRoutes registers ERP routes
func (h *ERPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	erp := rg.Group("/erp")
	erp.POST("/fetch", h.Fetch)
}

// ERPFetchRequest asks for one backend record to be read back and
// pushed to the portal as the reply document.
type ERPFetchRequest struct {
	ERPName      string `json:"erpName" binding:"required"`
	DocumentID   string `json:"documentId" binding:"required"`
	DocumentType string `json:"documentType" binding:"required,doctype"`
}

// ERPFetchResponse reports one fetch-and-send round trip
type ERPFetchResponse struct {
	ERPName       string          `json:"erpName"`
	CrossSystemID string          `json:"crossSystemId"`
	DocumentType  string          `json:"documentType"`
	LineItems     int             `json:"lineItems"`
	PortalReply   json.RawMessage `json:"portalReply,omitempty"`
}

// Fetch reads a document out of the named backend and sends it to the
// portal. The reply carries the type the backend produced, e.g. a
// fetched request for quote goes up as a quote.
// POST /erp/fetch
func (h *ERPHandler) Fetch(c *gin.Context) {
	var req ERPFetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	docType := document.DocumentType(req.DocumentType)

	ctx := c.Request.Context()
	fetched, err := h.dispatcher.Fetch(ctx, req.ERPName, req.DocumentID, docType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	reply, err := h.portal.SendDocument(ctx, fetched)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ERPFetchResponse{
		ERPName:       req.ERPName,
		CrossSystemID: fetched.CrossSystemID,
		DocumentType:  fetched.Type.String(),
		LineItems:     len(fetched.LineItems),
		PortalReply:   json.RawMessage(reply),
	})
}
