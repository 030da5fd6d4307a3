package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/procuregate/gateway/internal/infrastructure/erp/sharepoint"
)

// Linker cross-references two documents in the list backend
type Linker interface {
	LinkDocuments(ctx context.Context, req sharepoint.LinkRequest) (*sharepoint.LinkResult, error)
}

// LinkHandler handles document linking endpoints
type LinkHandler struct {
	BaseHandler
	linker Linker
}

// NewLinkHandler creates a new LinkHandler
func NewLinkHandler(linker Linker) *LinkHandler {
	return &LinkHandler{linker: linker}
}

// RegisterRoutes registers link routes
func (h *LinkHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/links", h.Create)
}

// LinkDocumentsRequest asks for one document to be linked to another.
// The document map supplies the ids; the field names say where to find
// them and what to patch.
type LinkDocumentsRequest struct {
	Document      map[string]any `json:"document" binding:"required"`
	FilterField   string         `json:"filterField" binding:"required"`
	UpdateField   string         `json:"updateField" binding:"required"`
	SourceIDField string         `json:"sourceIdField" binding:"required"`
	TargetIDField string         `json:"targetIdField" binding:"required"`
}

// LinkDocumentsResponse reports one link attempt
type LinkDocumentsResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	ItemID  string `json:"itemId,omitempty"`
}

// Create links a document to the header item its target id points at.
// Failures during the link surface as statuses in a success envelope;
// only an invalid request is an HTTP error.
// POST /links
func (h *LinkHandler) Create(c *gin.Context) {
	var req LinkDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.linker.LinkDocuments(c.Request.Context(), sharepoint.LinkRequest{
		Document:      req.Document,
		FilterField:   req.FilterField,
		UpdateField:   req.UpdateField,
		SourceIDField: req.SourceIDField,
		TargetIDField: req.TargetIDField,
	})
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	h.Success(c, LinkDocumentsResponse{
		Status:  string(result.Status),
		Message: result.Message,
		ItemID:  result.ItemID,
	})
}
