package dispatch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/procuregate/gateway/internal/domain/document"
)

// ErrNoBackends indicates a dispatch named no target backends
var ErrNoBackends = errors.New("dispatch: no backends requested")

// Outcome is the per-backend result of a dispatch
type Outcome struct {
	// Success is true when the backend accepted the document
	Success bool
	// Result carries the backend's report on success
	Result *document.SendResult
	// Error carries the failure text on error
	Error string
}

// Result maps each requested backend name to its outcome. Exactly one
// entry exists per requested name.
type Result map[string]Outcome

// Service routes documents to registered backends
type Service struct {
	registry *Registry
	logger   *zap.Logger
}

// NewService creates a dispatch service
func NewService(registry *Registry, logger *zap.Logger) *Service {
	return &Service{
		registry: registry,
		logger:   logger,
	}
}

// Dispatch sends the document to each named backend in order. Backends
// run sequentially: a cross-system id assigned by one backend is
// written onto the document before the next backend sees it. One
// failing backend never aborts the others; its outcome records the
// failure and the loop continues.
func (s *Service) Dispatch(ctx context.Context, doc *document.CanonicalDocument, backends []string) (Result, error) {
	if err := doc.Dispatchable(); err != nil {
		return nil, err
	}
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	result := make(Result, len(backends))

	for _, name := range backends {
		send, err := s.registry.ResolveSend(name, doc.Type)
		if err != nil {
			s.logger.Warn("backend not registered",
				zap.String("backend", name),
				zap.String("document_id", doc.ID))
			result[name] = Outcome{Success: false, Error: "integration not found"}
			continue
		}

		sendResult, err := send(ctx, doc)
		if err != nil {
			s.logger.Error("backend send failed",
				zap.String("backend", name),
				zap.String("document_id", doc.ID),
				zap.String("document_type", doc.Type.String()),
				zap.Error(err))
			result[name] = Outcome{Success: false, Error: err.Error()}
			continue
		}

		if sendResult != nil && sendResult.CrossSystemID != "" {
			doc.CrossSystemID = sendResult.CrossSystemID
		}

		s.logger.Info("document dispatched",
			zap.String("backend", name),
			zap.String("document_id", doc.ID),
			zap.String("document_type", doc.Type.String()),
			zap.String("cross_system_id", doc.CrossSystemID))

		result[name] = Outcome{Success: true, Result: sendResult}
	}

	return result, nil
}

// Fetch reads a document back from a single named backend
func (s *Service) Fetch(ctx context.Context, backend, crossSystemID string, docType document.DocumentType) (*document.FetchResult, error) {
	if !docType.IsValid() {
		return nil, document.ErrUnknownDocumentType
	}

	fetch, err := s.registry.ResolveFetch(backend, docType)
	if err != nil {
		return nil, err
	}

	fetched, err := fetch(ctx, crossSystemID, docType)
	if err != nil {
		s.logger.Error("backend fetch failed",
			zap.String("backend", backend),
			zap.String("cross_system_id", crossSystemID),
			zap.String("document_type", docType.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("document fetched",
		zap.String("backend", backend),
		zap.String("cross_system_id", crossSystemID),
		zap.String("document_type", docType.String()),
		zap.Int("line_items", len(fetched.LineItems)))

	return fetched, nil
}
