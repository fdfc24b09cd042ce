package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria/api/internal/database"
	"github.com/shopspring/decimal"
)

// MixedCategory is the sentinel label for combos whose members span more
// than one category (or that have no members to derive one from).
const MixedCategory = "Mixed"

var (
	ErrComboNotFound    = errors.New("combo deal not found")
	ErrEmptyComboItems  = errors.New("combo items are required")
	ErrMenuItemNotFound = errors.New("menu item not found")
)

// CatalogStore defines the DB methods needed for combo reads and writes.
// Satisfied by *database.Queries.
type CatalogStore interface {
	GetMenuItem(ctx context.Context, id int64) (database.MenuItem, error)
	CreateComboDeal(ctx context.Context, arg database.CreateComboDealParams) (database.ComboDeal, error)
	CreateComboDealItem(ctx context.Context, arg database.CreateComboDealItemParams) (database.ComboDealItem, error)
	ListComboDealMembers(ctx context.Context, comboDealID int64) ([]database.ComboDealMember, error)
}

// NewCatalogStore creates a CatalogStore from a DBTX (pool or tx).
type NewCatalogStore func(db database.DBTX) CatalogStore

// ComboMemberView is one member of a combo with its live catalog fields.
type ComboMemberView struct {
	MenuItemID int64
	Name       string
	Price      decimal.Decimal
	Quantity   int32
	Category   string
	ImageURL   string
}

// ComboView is a combo deal with its derived pricing. OriginalPrice and
// Savings are projections over current member prices, recomputed on every
// read and never persisted, so a member price edit is reflected immediately
// without touching the combo row.
type ComboView struct {
	ID            int64
	Name          string
	Description   string
	ComboPrice    decimal.Decimal
	OriginalPrice decimal.Decimal
	Savings       decimal.Decimal
	Category      string
	ImageURL      string
	IsActive      bool
	Members       []ComboMemberView
}

// BuildComboView derives pricing and the effective category for a combo
// from its membership rows.
func BuildComboView(combo database.ComboDeal, members []database.ComboDealMember) ComboView {
	view := ComboView{
		ID:         combo.ID,
		Name:       combo.Name,
		ComboPrice: numericToDecimal(combo.ComboPrice),
		IsActive:   combo.IsActive,
	}
	if combo.Description.Valid {
		view.Description = combo.Description.String
	}
	if combo.ImageUrl.Valid {
		view.ImageURL = combo.ImageUrl.String
	}

	original := decimal.Zero
	memberCategories := map[string]bool{}
	for _, m := range members {
		price := numericToDecimal(m.Price)
		original = original.Add(price.Mul(decimal.NewFromInt32(m.Quantity)))
		memberCategories[m.Category] = true

		mv := ComboMemberView{
			MenuItemID: m.MenuItemID,
			Name:       m.Name,
			Price:      price,
			Quantity:   m.Quantity,
			Category:   m.Category,
		}
		if m.ImageUrl.Valid {
			mv.ImageURL = m.ImageUrl.String
		}
		view.Members = append(view.Members, mv)
	}

	view.OriginalPrice = original
	view.Savings = original.Sub(view.ComboPrice)
	view.Category = effectiveCategory(combo, memberCategories)
	return view
}

// effectiveCategory is the bundle's own category if set; otherwise the
// single category shared by all members; otherwise the Mixed sentinel.
func effectiveCategory(combo database.ComboDeal, memberCategories map[string]bool) string {
	if combo.Category.Valid && combo.Category.String != "" {
		return combo.Category.String
	}
	if len(memberCategories) == 1 {
		for c := range memberCategories {
			return c
		}
	}
	return MixedCategory
}

// CreateComboItemRequest is one member of a combo being created.
type CreateComboItemRequest struct {
	MenuItemID int64
	Quantity   int32
}

// CreateComboRequest is the input for creating a combo deal with its members.
type CreateComboRequest struct {
	Name        string
	Description string
	ComboPrice  decimal.Decimal
	ImageURL    string
	Category    string
	Items       []CreateComboItemRequest
}

// CatalogService handles combo deal business logic.
type CatalogService struct {
	pool     TxBeginner
	newStore NewCatalogStore
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(pool TxBeginner, newStore NewCatalogStore) *CatalogService {
	return &CatalogService{pool: pool, newStore: newStore}
}

// CreateCombo inserts the combo row and all its membership rows atomically.
// Every member must reference an existing menu item.
func (s *CatalogService) CreateCombo(ctx context.Context, req CreateComboRequest) (*ComboView, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyComboItems
	}
	if req.ComboPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	desc := pgtype.Text{}
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}
	imageURL := pgtype.Text{}
	if req.ImageURL != "" {
		imageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}
	category := pgtype.Text{}
	if req.Category != "" {
		category = pgtype.Text{String: req.Category, Valid: true}
	}

	combo, err := store.CreateComboDeal(ctx, database.CreateComboDealParams{
		Name:        req.Name,
		Description: desc,
		ComboPrice:  decimalToNumeric(req.ComboPrice),
		ImageUrl:    imageURL,
		Category:    category,
		IsActive:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create combo deal: %w", err)
	}

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if _, err := store.GetMenuItem(ctx, item.MenuItemID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		if _, err := store.CreateComboDealItem(ctx, database.CreateComboDealItemParams{
			ComboDealID: combo.ID,
			MenuItemID:  item.MenuItemID,
			Quantity:    item.Quantity,
		}); err != nil {
			return nil, fmt.Errorf("items[%d]: create combo item: %w", i, err)
		}
	}

	members, err := store.ListComboDealMembers(ctx, combo.ID)
	if err != nil {
		return nil, fmt.Errorf("list combo members: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	view := BuildComboView(combo, members)
	return &view, nil
}
