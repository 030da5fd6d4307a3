package sharepoint

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// LinkStatus is the outcome of a link attempt. Callers dispatching
// across many documents need to tell "not linkable yet" from transport
// failure from success, so this is a taxonomy, not a boolean.
type LinkStatus string

const (
	// LinkStatusSuccess means the target record was patched
	LinkStatusSuccess LinkStatus = "success"
	// LinkStatusMissingIDs means the document carries no source or
	// target id to link with
	LinkStatusMissingIDs LinkStatus = "missing_ids"
	// LinkStatusTokenError means no access token could be fetched
	LinkStatusTokenError LinkStatus = "token_error"
	// LinkStatusSiteError means the site could not be resolved
	LinkStatusSiteError LinkStatus = "site_error"
	// LinkStatusListError means the header list could not be resolved
	LinkStatusListError LinkStatus = "list_error"
	// LinkStatusHTTPError means the target query failed
	LinkStatusHTTPError LinkStatus = "http_error"
	// LinkStatusError means the patch on the matched record failed
	LinkStatusError LinkStatus = "error"
)

// notFoundStatus names the missing target in the status itself
func notFoundStatus(targetID string) LinkStatus {
	return LinkStatus(targetID + "_not_found")
}

// LinkRequest asks for one document to be linked to another. The
// document map supplies the ids; the field names say where to find
// them and what to patch.
type LinkRequest struct {
	// Document is the raw document whose fields carry the ids
	Document map[string]any
	// FilterField is the header field the target is looked up by
	FilterField string
	// UpdateField is the header field patched on the matched target
	UpdateField string
	// SourceIDField names the document field holding the value to write
	SourceIDField string
	// TargetIDField names the document field holding the lookup value
	TargetIDField string
}

// LinkResult reports one link attempt
type LinkResult struct {
	// Status is the outcome
	Status LinkStatus
	// Message is a human-readable account of the outcome
	Message string
	// ItemID is the patched header item, set on success
	ItemID string
}

// LinkDocuments finds the header item whose filter field equals the
// document's target id and writes the document's source id into the
// update field of that item. Every failure mode maps to a distinct
// status; the error return is reserved for invalid requests.
func (a *Adapter) LinkDocuments(ctx context.Context, req LinkRequest) (*LinkResult, error) {
	if req.FilterField == "" || req.UpdateField == "" || req.SourceIDField == "" || req.TargetIDField == "" {
		return nil, fmt.Errorf("sharepoint: link request is missing field names")
	}

	sourceID := fieldString(req.Document, req.SourceIDField)
	targetID := fieldString(req.Document, req.TargetIDField)
	if sourceID == "" || targetID == "" {
		return &LinkResult{
			Status:  LinkStatusMissingIDs,
			Message: fmt.Sprintf("document carries no %s or %s", req.SourceIDField, req.TargetIDField),
		}, nil
	}

	if _, err := a.client.tokens.accessToken(ctx); err != nil {
		a.logger.Error("link token fetch failed", zap.Error(err))
		return &LinkResult{Status: LinkStatusTokenError, Message: err.Error()}, nil
	}

	siteID, err := a.client.resolveSiteID(ctx)
	if err != nil {
		a.logger.Error("link site resolution failed", zap.Error(err))
		return &LinkResult{Status: LinkStatusSiteError, Message: err.Error()}, nil
	}

	headerListID, err := a.client.resolveListID(ctx, siteID, a.config.HeaderList)
	if err != nil {
		a.logger.Error("link list resolution failed", zap.Error(err))
		return &LinkResult{Status: LinkStatusListError, Message: err.Error()}, nil
	}

	items, err := a.client.queryItemsByFilter(ctx, siteID, headerListID, req.FilterField, targetID)
	if err != nil {
		a.logger.Error("link target query failed",
			zap.String("target_id", targetID),
			zap.Error(err))
		return &LinkResult{Status: LinkStatusHTTPError, Message: err.Error()}, nil
	}
	if len(items) == 0 {
		return &LinkResult{
			Status:  notFoundStatus(targetID),
			Message: fmt.Sprintf("no item with %s = %s", req.FilterField, targetID),
		}, nil
	}

	itemID := items[0].ID
	patch := map[string]any{req.UpdateField: sourceID}
	if err := a.client.updateItemFields(ctx, siteID, headerListID, itemID, patch); err != nil {
		a.logger.Error("link patch failed",
			zap.String("item_id", itemID),
			zap.Error(err))
		return &LinkResult{Status: LinkStatusError, Message: err.Error()}, nil
	}

	a.logger.Info("documents linked",
		zap.String("item_id", itemID),
		zap.String("target_id", targetID),
		zap.String("source_id", sourceID),
		zap.String("update_field", req.UpdateField))

	return &LinkResult{Status: LinkStatusSuccess, ItemID: itemID}, nil
}

// fieldString reads a document field as a string, tolerating the
// numeric shapes JSON decoding produces.
func fieldString(doc map[string]any, field string) string {
	switch v := doc[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
