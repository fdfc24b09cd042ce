package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/savoria/api/internal/database"
)

var (
	ErrMenuItemGone = errors.New("menu item not found")
	ErrCategoryGone = errors.New("category not found")
)

// DeletionStore defines the DB methods the cascade coordinator needs.
// Satisfied by *database.Queries (and its WithTx variant).
type DeletionStore interface {
	GetMenuItem(ctx context.Context, id int64) (database.MenuItem, error)
	DeleteReviewsByMenuItem(ctx context.Context, menuItemID int64) (int64, error)
	DeleteComboDealItemsByMenuItem(ctx context.Context, menuItemID int64) (int64, error)
	ClearMenuItemFromOrderItems(ctx context.Context, menuItemID int64) (int64, error)
	DeleteMenuItem(ctx context.Context, id int64) (int64, error)

	GetCategory(ctx context.Context, id int64) (database.Category, error)
	CountMenuItemsByCategory(ctx context.Context, category string) (int64, error)
	DeactivateCategory(ctx context.Context, id int64) (database.Category, error)
	DeleteCategory(ctx context.Context, id int64) (int64, error)
}

// NewDeletionStore creates a DeletionStore from a DBTX (pool or tx).
type NewDeletionStore func(db database.DBTX) DeletionStore

// ImageRemover deletes a stored image asset by its public URL. Removal is a
// fire-and-forget side effect of catalog deletion.
type ImageRemover interface {
	Remove(imageURL string) error
}

// CascadeResult reports what a menu-item deletion touched.
type CascadeResult struct {
	ReviewsDeleted     int64
	MembershipsDeleted int64
	LineItemsDetached  int64
}

// DeletionService coordinates catalog deletions against the order ledger.
type DeletionService struct {
	pool     TxBeginner
	newStore NewDeletionStore
	images   ImageRemover
}

// NewDeletionService creates a new DeletionService.
func NewDeletionService(pool TxBeginner, newStore NewDeletionStore, images ImageRemover) *DeletionService {
	return &DeletionService{pool: pool, newStore: newStore, images: images}
}

// DeleteMenuItem removes a menu item and its dependents in one transaction:
// reviews go, bundle memberships go, and ledger lines are detached from the
// item while keeping their name/price/quantity snapshot. Emptied combos are
// left in place. The stored image is removed after commit; a failure there
// is logged and swallowed since the authoritative rows are already gone.
func (s *DeletionService) DeleteMenuItem(ctx context.Context, id int64) (*CascadeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuItemGone
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	var result CascadeResult
	if result.ReviewsDeleted, err = store.DeleteReviewsByMenuItem(ctx, id); err != nil {
		return nil, fmt.Errorf("delete reviews: %w", err)
	}
	if result.MembershipsDeleted, err = store.DeleteComboDealItemsByMenuItem(ctx, id); err != nil {
		return nil, fmt.Errorf("delete combo memberships: %w", err)
	}
	if result.LineItemsDetached, err = store.ClearMenuItemFromOrderItems(ctx, id); err != nil {
		return nil, fmt.Errorf("detach order items: %w", err)
	}
	if _, err = store.DeleteMenuItem(ctx, id); err != nil {
		return nil, fmt.Errorf("delete menu item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if item.ImageUrl.Valid && item.ImageUrl.String != "" {
		if err := s.images.Remove(item.ImageUrl.String); err != nil {
			log.Printf("WARN: remove image for menu item %d: %v", id, err)
		}
	}

	return &result, nil
}

// DeleteCategory removes a category if nothing references it. When menu
// items still carry the category's name it is deactivated instead, and the
// count of referencing items is returned. Item rows are never touched
// either way; the coupling is by name, not foreign key.
func (s *DeletionService) DeleteCategory(ctx context.Context, id int64) (deactivated bool, affected int64, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	category, err := store.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, ErrCategoryGone
		}
		return false, 0, fmt.Errorf("get category: %w", err)
	}

	affected, err = store.CountMenuItemsByCategory(ctx, category.Name)
	if err != nil {
		return false, 0, fmt.Errorf("count referencing items: %w", err)
	}

	if affected > 0 {
		if _, err := store.DeactivateCategory(ctx, id); err != nil {
			return false, 0, fmt.Errorf("deactivate category: %w", err)
		}
		deactivated = true
	} else {
		if _, err := store.DeleteCategory(ctx, id); err != nil {
			return false, 0, fmt.Errorf("delete category: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("commit tx: %w", err)
	}

	return deactivated, affected, nil
}
