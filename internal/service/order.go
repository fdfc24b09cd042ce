package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyLines       = errors.New("items are required")
	ErrInvalidPayment   = errors.New("invalid payment_method")
	ErrInvalidOrderType = errors.New("invalid order_type")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrInvalidPrice     = errors.New("price must be non-negative")
	ErrInvalidTotal     = errors.New("total must be non-negative")
	ErrMissingName      = errors.New("name is required")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	MenuItemExists(ctx context.Context, id int64) (bool, error)
	ComboDealExists(ctx context.Context, id int64) (bool, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// RefKind discriminates what a cart line resolved to.
type RefKind int

const (
	// RefMenuItem references a standalone menu item.
	RefMenuItem RefKind = iota
	// RefComboDeal references a combo bundle.
	RefComboDeal
	// RefHistorical carries no live catalog reference; the line stands on
	// its snapshot fields alone.
	RefHistorical
)

// ItemRef is the resolved catalog reference of a cart line. At most one of
// the two reference kinds applies, which the tag enforces structurally.
type ItemRef struct {
	Kind RefKind
	ID   int64
}

// ResolveItemRef classifies a raw cart-line identifier.
//
// A plain integer (or integer-valued string) names a menu item. A token of
// the form "combo-<id>-<nonce>" names a combo deal; the nonce is a client
// artifact and is discarded. Anything else, including malformed combo
// tokens, resolves to a historical line rather than an error: one bad
// identifier must not abort an otherwise valid checkout.
func ResolveItemRef(raw string) ItemRef {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ItemRef{Kind: RefMenuItem, ID: id}
	}
	if strings.HasPrefix(raw, "combo-") {
		parts := strings.Split(raw, "-")
		if len(parts) >= 2 {
			if id, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
				return ItemRef{Kind: RefComboDeal, ID: id}
			}
		}
	}
	return ItemRef{Kind: RefHistorical}
}

// CartLine is a single raw checkout line. Name and Price are client-asserted
// and become the permanent snapshot; they are not re-derived from the
// catalog.
type CartLine struct {
	RawID    string
	Name     string
	Price    decimal.Decimal
	Quantity int32
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	UserID        int64
	Total         decimal.Decimal
	PaymentMethod string
	OrderType     string
	Lines         []CartLine
}

// CreateOrderResult is the committed order with its ledger lines.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles order creation.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates the request and writes the order header and all its
// line items in one transaction. Any line failure rolls back the whole
// order; partial orders are never visible.
//
// The total is stored as asserted by the client and deliberately not
// reconciled against the lines.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if !enum.ValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPayment
	}
	if !enum.ValidOrderType(req.OrderType) {
		return nil, ErrInvalidOrderType
	}
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	if req.Total.IsNegative() {
		return nil, ErrInvalidTotal
	}
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if line.Price.IsNegative() {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidPrice)
		}
		if line.Name == "" {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrMissingName)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID:        req.UserID,
		TotalAmount:   decimalToNumeric(req.Total),
		PaymentMethod: req.PaymentMethod,
		OrderType:     req.OrderType,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(req.Lines))
	for i, line := range req.Lines {
		ref, err := s.resolveAgainstCatalog(ctx, store, ResolveItemRef(line.RawID))
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}

		params := database.CreateOrderItemParams{
			OrderID:  order.ID,
			Name:     line.Name,
			Price:    decimalToNumeric(line.Price),
			Quantity: line.Quantity,
		}
		switch ref.Kind {
		case RefMenuItem:
			params.MenuItemID = pgtype.Int8{Int64: ref.ID, Valid: true}
		case RefComboDeal:
			params.ComboDealID = pgtype.Int8{Int64: ref.ID, Valid: true}
		}

		item, err := store.CreateOrderItem(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: create order item: %w", i, err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}

// resolveAgainstCatalog downgrades a reference to historical when the
// target catalog row does not exist. The FK columns on order_items would
// otherwise reject the insert; a stale cart keeps its snapshot and the
// checkout goes through.
func (s *OrderService) resolveAgainstCatalog(ctx context.Context, store OrderStore, ref ItemRef) (ItemRef, error) {
	switch ref.Kind {
	case RefMenuItem:
		exists, err := store.MenuItemExists(ctx, ref.ID)
		if err != nil {
			return ItemRef{}, fmt.Errorf("check menu item: %w", err)
		}
		if !exists {
			return ItemRef{Kind: RefHistorical}, nil
		}
	case RefComboDeal:
		exists, err := store.ComboDealExists(ctx, ref.ID)
		if err != nil {
			return ItemRef{}, fmt.Errorf("check combo deal: %w", err)
		}
		if !exists {
			return ItemRef{Kind: RefHistorical}, nil
		}
	}
	return ref, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
