package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/procuregate/gateway/internal/application/dispatch"
	"github.com/procuregate/gateway/internal/domain/document"
	"github.com/procuregate/gateway/internal/infrastructure/portal/shipserv"
	"github.com/procuregate/gateway/internal/interfaces/http/dto"
)

// Portal is the marketplace portal the gateway pulls documents from and
// pushes replies to.
type Portal interface {
	GetDocument(ctx context.Context, id string) (*document.CanonicalDocument, error)
	ListDocuments(ctx context.Context, filters shipserv.Filters) ([]shipserv.DocumentSummary, error)
	SendDocument(ctx context.Context, fetch *document.FetchResult) ([]byte, error)
	MarkExported(ctx context.Context, id string) error
}

// Dispatcher routes documents to registered backends
type Dispatcher interface {
	Dispatch(ctx context.Context, doc *document.CanonicalDocument, backends []string) (dispatch.Result, error)
	Fetch(ctx context.Context, backend, crossSystemID string, docType document.DocumentType) (*document.FetchResult, error)
}

// DocumentHandler handles portal document endpoints
type DocumentHandler struct {
	BaseHandler
	portal     Portal
	dispatcher Dispatcher
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(portal Portal, dispatcher Dispatcher) *DocumentHandler {
	return &DocumentHandler{
		portal:     portal,
		dispatcher: dispatcher,
	}
}

// RegisterRoutes registers document routes
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	docs.GET("", h.List)
	docs.GET("/:id", h.Get)
	docs.POST("/pull-first", h.PullFirst)
	docs.POST("/:id/export", h.Export)
}

// GetDocumentResponse is the reply of a single document fetch,
// optionally carrying per-backend dispatch outcomes.
type GetDocumentResponse struct {
	Document        dto.DocumentResponse                   `json:"document"`
	DispatchResults map[string]dto.DispatchOutcomeResponse `json:"dispatchResults,omitempty"`
}

// Get fetches one portal document and, when erpTargets names backends,
// dispatches it to each of them.
// GET /documents/:id?erpTargets=collmex,sharepoint
func (h *DocumentHandler) Get(c *gin.Context) {
	id := c.Param("id")

	doc, err := h.portal.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := GetDocumentResponse{}
	if targets := splitTargets(c.Query("erpTargets")); len(targets) > 0 {
		result, err := h.dispatcher.Dispatch(c.Request.Context(), doc, targets)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		resp.DispatchResults = outcomesToDTO(result)
	}

	// Mapped after the dispatch so a backend-assigned cross-system id
	// shows up on the returned document.
	resp.Document = dto.FromCanonical(doc)
	h.Success(c, resp)
}

// List lists portal documents, optionally narrowed by type and
// submission date.
// GET /documents?docType=RequestForQuote&submittedDate=2026-08-28
func (h *DocumentHandler) List(c *gin.Context) {
	docType := c.Query("docType")
	if docType != "" && !document.DocumentType(docType).IsValid() {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeValidation), dto.ErrCodeValidation, "unknown document type: "+docType)
		return
	}

	docs, err := h.portal.ListDocuments(c.Request.Context(), shipserv.Filters{
		DocType:       docType,
		SubmittedDate: c.Query("submittedDate"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"documents": docs, "count": len(docs)})
}

// PullFirstRequest asks for the first matching portal document to be
// pulled and routed.
type PullFirstRequest struct {
	DocType       string   `json:"docType" binding:"omitempty,doctype"`
	SubmittedDate string   `json:"submittedDate"`
	ERPTargets    []string `json:"erpTargets" binding:"required,min=1"`
}

// PullFirstResponse reports one pull-and-route run
type PullFirstResponse struct {
	Processed       bool                                   `json:"processed"`
	DocumentID      string                                 `json:"documentId,omitempty"`
	Document        *dto.DocumentResponse                  `json:"document,omitempty"`
	DispatchResults map[string]dto.DispatchOutcomeResponse `json:"dispatchResults,omitempty"`
	Exported        bool                                   `json:"exported"`
}

// PullFirst lists matching portal documents, routes the first one to
// the named backends, and marks it exported only when every backend
// accepted it. A partially failed dispatch leaves the document
// unexported so the next run picks it up again.
// POST /documents/pull-first
func (h *DocumentHandler) PullFirst(c *gin.Context) {
	var req PullFirstRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	docs, err := h.portal.ListDocuments(ctx, shipserv.Filters{
		DocType:       req.DocType,
		SubmittedDate: req.SubmittedDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if len(docs) == 0 {
		h.Success(c, PullFirstResponse{Processed: false})
		return
	}

	doc, err := h.portal.GetDocument(ctx, docs[0].ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.dispatcher.Dispatch(ctx, doc, req.ERPTargets)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	exported := false
	if allSucceeded(result) {
		if err := h.portal.MarkExported(ctx, doc.ID); err != nil {
			h.HandleError(c, err)
			return
		}
		exported = true
	}

	mapped := dto.FromCanonical(doc)
	h.Success(c, PullFirstResponse{
		Processed:       true,
		DocumentID:      doc.ID,
		Document:        &mapped,
		DispatchResults: outcomesToDTO(result),
		Exported:        exported,
	})
}

// Export marks one portal document as exported.
// POST /documents/:id/export
func (h *DocumentHandler) Export(c *gin.Context) {
	id := c.Param("id")
	if err := h.portal.MarkExported(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"documentId": id, "exported": true})
}

// splitTargets splits a comma-separated backend list, dropping empties
func splitTargets(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	targets := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			targets = append(targets, p)
		}
	}
	return targets
}

// allSucceeded reports whether every backend accepted the document
func allSucceeded(result dispatch.Result) bool {
	for _, outcome := range result {
		if !outcome.Success {
			return false
		}
	}
	return len(result) > 0
}

// outcomesToDTO maps dispatch outcomes to their response shape
func outcomesToDTO(result dispatch.Result) map[string]dto.DispatchOutcomeResponse {
	out := make(map[string]dto.DispatchOutcomeResponse, len(result))
	for name, outcome := range result {
		mapped := dto.DispatchOutcomeResponse{
			Success: outcome.Success,
			Error:   outcome.Error,
		}
		if outcome.Result != nil {
			mapped.CrossSystemID = outcome.Result.CrossSystemID
			mapped.RecordCount = outcome.Result.RecordCount
			mapped.DisplayNumber = outcome.Result.DisplayNumber
		}
		out[name] = mapped
	}
	return out
}
