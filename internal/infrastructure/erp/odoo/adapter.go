package odoo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procuregate/gateway/internal/domain/document"
)

// ErrNoCustomer indicates the document names no party an order could
// be booked against.
var ErrNoCustomer = errors.New("odoo: no customer name available")

// OfferResult reports what happened to an offer. The order id and line
// count are only meaningful when the call succeeded; failures surface
// as errors, never as zeroed results.
type OfferResult struct {
	// OrderID is the backend order record id
	OrderID int64
	// LineCount is the number of order lines written
	LineCount int
	// DisplayNumber is the backend's order number, e.g. "S00042"
	DisplayNumber string
	// Updated is true when an existing order was reconciled instead
	// of a new one created
	Updated bool
}

// Offer is an order read back from the backend
type Offer struct {
	ID            int64
	DisplayNumber string
	Customer      string
	Lines         []OfferLine
}

// OfferLine is one order line in canonical shape
type OfferLine struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// orderLine is the wire shape of a sale.order.line record
type orderLine struct {
	ID        int64   `xmlrpc:"id"`
	Name      string  `xmlrpc:"name"`
	Sequence  int64   `xmlrpc:"sequence"`
	Qty       float64 `xmlrpc:"product_uom_qty"`
	PriceUnit float64 `xmlrpc:"price_unit"`
	Subtotal  float64 `xmlrpc:"price_subtotal"`
}

// Adapter books documents as sale orders over XML-RPC. Quotes whose
// reference already looks like a backend order number update that
// order in place; everything else creates a new one.
type Adapter struct {
	config      *Config
	rpc         *rpcClient
	refPatterns []*regexp.Regexp
	logger      *zap.Logger
}

// NewAdapter creates an XML-RPC order adapter
func NewAdapter(config *Config, logger *zap.Logger) (*Adapter, error) {
	patterns, err := config.Validate()
	if err != nil {
		return nil, err
	}
	rpc, err := newRPCClient(config)
	if err != nil {
		return nil, err
	}
	return &Adapter{config: config, rpc: rpc, refPatterns: patterns, logger: logger}, nil
}

// newAdapterWithCallers wires fake endpoints for tests
func newAdapterWithCallers(config *Config, common, object Caller, logger *zap.Logger) (*Adapter, error) {
	patterns, err := config.Validate()
	if err != nil {
		return nil, err
	}
	return &Adapter{
		config:      config,
		rpc:         &rpcClient{config: config, common: common, object: object},
		refPatterns: patterns,
		logger:      logger,
	}, nil
}

// Capabilities returns the operation set this adapter registers
func (a *Adapter) Capabilities() document.Capabilities {
	return document.Capabilities{
		Send: a.Send,
		SendByType: map[document.DocumentType]document.SendFunc{
			document.TypeQuote: a.Send,
		},
	}
}

// Send books the document as an offer and reports the order id as the
// cross-system id.
func (a *Adapter) Send(ctx context.Context, doc *document.CanonicalDocument) (*document.SendResult, error) {
	offer, err := a.SendOffer(ctx, doc, "")
	if err != nil {
		return nil, err
	}
	return &document.SendResult{
		CrossSystemID: strconv.FormatInt(offer.OrderID, 10),
		RecordCount:   offer.LineCount,
		DisplayNumber: offer.DisplayNumber,
		Processed:     true,
	}, nil
}

// SendOffer creates or updates a sale order for the document. The
// customer defaults to the document's buyer; customerOverride replaces
// it when set.
func (a *Adapter) SendOffer(ctx context.Context, doc *document.CanonicalDocument, customerOverride string) (*OfferResult, error) {
	customer := customerOverride
	if customer == "" {
		customer = doc.Buyer.Name
	}
	if customer == "" {
		return nil, ErrNoCustomer
	}

	partnerID, err := a.findOrCreatePartner(customer)
	if err != nil {
		return nil, err
	}

	if doc.Type == document.TypeQuote && a.matchesOrderRef(doc.ReferenceNumber) {
		result, err := a.updateExistingOrder(doc)
		if err == nil || !errors.Is(err, document.ErrBackendRecordNotFound) {
			return result, err
		}
		// The reference looked like an order number but no order
		// exists under it; fall through to creation.
		a.logger.Warn("no order found under reference, creating new offer",
			zap.String("reference", doc.ReferenceNumber))
	}

	return a.createOrder(doc, partnerID)
}

// matchesOrderRef reports whether the reference is recognized as a
// backend order number.
func (a *Adapter) matchesOrderRef(ref string) bool {
	if ref == "" {
		return false
	}
	for _, re := range a.refPatterns {
		if re.MatchString(ref) {
			return true
		}
	}
	return false
}

// findOrCreatePartner resolves a customer name to a partner id,
// creating the partner when no record matches.
func (a *Adapter) findOrCreatePartner(customer string) (int64, error) {
	var ids []int64
	domain := []any{[]any{[]any{"name", "like", customer}}}
	if err := a.rpc.executeKw("res.partner", "search", domain, nil, &ids); err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		return ids[0], nil
	}

	var id int64
	vals := []any{map[string]any{"name": customer}}
	if err := a.rpc.executeKw("res.partner", "create", vals, nil, &id); err != nil {
		return 0, err
	}
	a.logger.Info("customer created", zap.String("customer", customer), zap.Int64("partner_id", id))
	return id, nil
}

// composedLineName is the stable text identity of an order line
func composedLineName(item *document.LineItem) string {
	return fmt.Sprintf("%d %s", item.Number, item.Description)
}

// createOrder books a new sale order with nested order lines
func (a *Adapter) createOrder(doc *document.CanonicalDocument, partnerID int64) (*OfferResult, error) {
	orderLines := make([]any, 0, len(doc.LineItems))
	for i := range doc.LineItems {
		item := &doc.LineItems[i]
		qty := item.Quantity
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		orderLines = append(orderLines, []any{0, 0, map[string]any{
			"product_id":      a.config.ProductID,
			"product_uom_qty": qty.InexactFloat64(),
			"name":            composedLineName(item),
			"price_unit":      item.UnitPrice.InexactFloat64(),
		}})
	}

	vals := map[string]any{
		"partner_id": partnerID,
		"order_line": orderLines,
	}
	if doc.ReferenceNumber != "" {
		vals["client_order_ref"] = doc.ReferenceNumber
	}
	if doc.Comment != "" {
		vals["note"] = doc.Comment
	}

	var orderID int64
	if err := a.rpc.executeKw("sale.order", "create", []any{vals}, nil, &orderID); err != nil {
		return nil, err
	}

	displayNumber, err := a.readOrderName(orderID)
	if err != nil {
		// The order exists; a failed name read only costs the display
		// number.
		a.logger.Warn("could not read order name", zap.Int64("order_id", orderID), zap.Error(err))
	}

	a.logger.Info("offer created",
		zap.Int64("order_id", orderID),
		zap.String("display_number", displayNumber),
		zap.Int("lines", len(orderLines)))

	return &OfferResult{
		OrderID:       orderID,
		LineCount:     len(orderLines),
		DisplayNumber: displayNumber,
	}, nil
}

// updateExistingOrder reconciles the document's items against the
// lines of the order named by the document reference. Matched lines
// get the new unit price; unmatched items are appended as new lines.
func (a *Adapter) updateExistingOrder(doc *document.CanonicalDocument) (*OfferResult, error) {
	var orderIDs []int64
	domain := []any{[]any{[]any{"name", "=", doc.ReferenceNumber}}}
	if err := a.rpc.executeKw("sale.order", "search", domain, nil, &orderIDs); err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return nil, fmt.Errorf("%w: order '%s'", document.ErrBackendRecordNotFound, doc.ReferenceNumber)
	}
	orderID := orderIDs[0]

	var lines []orderLine
	lineDomain := []any{[]any{[]any{"order_id", "=", orderID}}}
	kwargs := map[string]any{"fields": []string{"id", "name", "sequence", "product_uom_qty", "price_unit"}}
	if err := a.rpc.executeKw("sale.order.line", "search_read", lineDomain, kwargs, &lines); err != nil {
		return nil, err
	}

	written := 0
	for i := range doc.LineItems {
		item := &doc.LineItems[i]
		line := matchLine(lines, item)
		if line != nil {
			update := []any{[]int64{line.ID}, map[string]any{
				"price_unit": item.UnitPrice.InexactFloat64(),
			}}
			var ok bool
			if err := a.rpc.executeKw("sale.order.line", "write", update, nil, &ok); err != nil {
				return nil, err
			}
			a.logger.Debug("order line updated",
				zap.Int64("line_id", line.ID),
				zap.String("name", line.Name))
		} else {
			qty := item.Quantity
			if qty.IsZero() {
				qty = decimal.NewFromInt(1)
			}
			vals := []any{map[string]any{
				"order_id":        orderID,
				"product_id":      a.config.ProductID,
				"product_uom_qty": qty.InexactFloat64(),
				"name":            composedLineName(item),
				"price_unit":      item.UnitPrice.InexactFloat64(),
			}}
			var newID int64
			if err := a.rpc.executeKw("sale.order.line", "create", vals, nil, &newID); err != nil {
				return nil, err
			}
			a.logger.Debug("order line appended",
				zap.Int64("line_id", newID),
				zap.String("name", composedLineName(item)))
		}
		written++
	}

	a.logger.Info("offer updated",
		zap.Int64("order_id", orderID),
		zap.String("display_number", doc.ReferenceNumber),
		zap.Int("lines", written))

	return &OfferResult{
		OrderID:       orderID,
		LineCount:     written,
		DisplayNumber: doc.ReferenceNumber,
		Updated:       true,
	}, nil
}

// matchLine finds the existing order line an incoming item refers to.
// Match priority: exact composed name, then sequence number, then bare
// description, then item number as a substring of the line name.
func matchLine(lines []orderLine, item *document.LineItem) *orderLine {
	composed := composedLineName(item)
	for i := range lines {
		if lines[i].Name == composed {
			return &lines[i]
		}
	}
	for i := range lines {
		if lines[i].Sequence == int64(item.Number) && item.Number > 0 {
			return &lines[i]
		}
	}
	if item.Description != "" {
		for i := range lines {
			if lines[i].Name == item.Description {
				return &lines[i]
			}
		}
	}
	if item.Number > 0 {
		number := strconv.Itoa(item.Number)
		for i := range lines {
			if strings.Contains(lines[i].Name, number) {
				return &lines[i]
			}
		}
	}
	return nil
}

// readOrderName reads the display number of an order
func (a *Adapter) readOrderName(orderID int64) (string, error) {
	var records []struct {
		ID   int64  `xmlrpc:"id"`
		Name string `xmlrpc:"name"`
	}
	args := []any{[]int64{orderID}}
	kwargs := map[string]any{"fields": []string{"name"}}
	if err := a.rpc.executeKw("sale.order", "read", args, kwargs, &records); err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: order %d", document.ErrBackendRecordNotFound, orderID)
	}
	return records[0].Name, nil
}

// FetchOffer reads an order and its lines back in canonical shape
func (a *Adapter) FetchOffer(ctx context.Context, orderID int64) (*Offer, error) {
	var orders []struct {
		ID      int64  `xmlrpc:"id"`
		Name    string `xmlrpc:"name"`
		Partner []any  `xmlrpc:"partner_id"`
	}
	args := []any{[]int64{orderID}}
	kwargs := map[string]any{"fields": []string{"name", "partner_id"}}
	if err := a.rpc.executeKw("sale.order", "read", args, kwargs, &orders); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: order %d", document.ErrBackendRecordNotFound, orderID)
	}

	var lines []orderLine
	lineDomain := []any{[]any{[]any{"order_id", "=", orderID}}}
	lineKwargs := map[string]any{"fields": []string{"id", "name", "sequence", "product_uom_qty", "price_unit", "price_subtotal"}}
	if err := a.rpc.executeKw("sale.order.line", "search_read", lineDomain, lineKwargs, &lines); err != nil {
		return nil, err
	}

	offer := &Offer{
		ID:            orders[0].ID,
		DisplayNumber: orders[0].Name,
	}
	// partner_id decodes as [id, display name]
	if len(orders[0].Partner) == 2 {
		if name, ok := orders[0].Partner[1].(string); ok {
			offer.Customer = name
		}
	}
	for _, line := range lines {
		offer.Lines = append(offer.Lines, OfferLine{
			Description: line.Name,
			Quantity:    decimal.NewFromFloat(line.Qty),
			UnitPrice:   decimal.NewFromFloat(line.PriceUnit),
			TotalPrice:  decimal.NewFromFloat(line.Subtotal),
		})
	}

	return offer, nil
}
