package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria/api/internal/database"
)

// mockDeletionStore implements DeletionStore and records the order in
// which cascade steps ran.
type mockDeletionStore struct {
	calls []string

	getMenuItemFn        func(ctx context.Context, id int64) (database.MenuItem, error)
	deleteReviewsFn      func(ctx context.Context, menuItemID int64) (int64, error)
	deleteMembershipsFn  func(ctx context.Context, menuItemID int64) (int64, error)
	clearOrderItemsFn    func(ctx context.Context, menuItemID int64) (int64, error)
	deleteMenuItemFn     func(ctx context.Context, id int64) (int64, error)
	getCategoryFn        func(ctx context.Context, id int64) (database.Category, error)
	countByCategoryFn    func(ctx context.Context, category string) (int64, error)
	deactivateCategoryFn func(ctx context.Context, id int64) (database.Category, error)
	deleteCategoryFn     func(ctx context.Context, id int64) (int64, error)
}

func (m *mockDeletionStore) GetMenuItem(ctx context.Context, id int64) (database.MenuItem, error) {
	m.calls = append(m.calls, "get")
	return m.getMenuItemFn(ctx, id)
}
func (m *mockDeletionStore) DeleteReviewsByMenuItem(ctx context.Context, menuItemID int64) (int64, error) {
	m.calls = append(m.calls, "reviews")
	return m.deleteReviewsFn(ctx, menuItemID)
}
func (m *mockDeletionStore) DeleteComboDealItemsByMenuItem(ctx context.Context, menuItemID int64) (int64, error) {
	m.calls = append(m.calls, "memberships")
	return m.deleteMembershipsFn(ctx, menuItemID)
}
func (m *mockDeletionStore) ClearMenuItemFromOrderItems(ctx context.Context, menuItemID int64) (int64, error) {
	m.calls = append(m.calls, "detach")
	return m.clearOrderItemsFn(ctx, menuItemID)
}
func (m *mockDeletionStore) DeleteMenuItem(ctx context.Context, id int64) (int64, error) {
	m.calls = append(m.calls, "delete")
	return m.deleteMenuItemFn(ctx, id)
}
func (m *mockDeletionStore) GetCategory(ctx context.Context, id int64) (database.Category, error) {
	return m.getCategoryFn(ctx, id)
}
func (m *mockDeletionStore) CountMenuItemsByCategory(ctx context.Context, category string) (int64, error) {
	return m.countByCategoryFn(ctx, category)
}
func (m *mockDeletionStore) DeactivateCategory(ctx context.Context, id int64) (database.Category, error) {
	m.calls = append(m.calls, "deactivate")
	return m.deactivateCategoryFn(ctx, id)
}
func (m *mockDeletionStore) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	m.calls = append(m.calls, "delete_category")
	return m.deleteCategoryFn(ctx, id)
}

// mockImageRemover implements ImageRemover.
type mockImageRemover struct {
	removed []string
	err     error
}

func (m *mockImageRemover) Remove(imageURL string) error {
	m.removed = append(m.removed, imageURL)
	return m.err
}

func defaultDeletionStore() *mockDeletionStore {
	return &mockDeletionStore{
		getMenuItemFn: func(ctx context.Context, id int64) (database.MenuItem, error) {
			return database.MenuItem{
				ID:       id,
				Name:     "Grilled Salmon",
				Price:    makeNumeric("22.50"),
				Category: "Mains",
				ImageUrl: pgtype.Text{String: "/api/uploads/salmon.jpg", Valid: true},
			}, nil
		},
		deleteReviewsFn:     func(ctx context.Context, menuItemID int64) (int64, error) { return 4, nil },
		deleteMembershipsFn: func(ctx context.Context, menuItemID int64) (int64, error) { return 2, nil },
		clearOrderItemsFn:   func(ctx context.Context, menuItemID int64) (int64, error) { return 9, nil },
		deleteMenuItemFn:    func(ctx context.Context, id int64) (int64, error) { return 1, nil },
		getCategoryFn: func(ctx context.Context, id int64) (database.Category, error) {
			return database.Category{ID: id, Name: "Mains", IsActive: true}, nil
		},
		countByCategoryFn:    func(ctx context.Context, category string) (int64, error) { return 0, nil },
		deactivateCategoryFn: func(ctx context.Context, id int64) (database.Category, error) { return database.Category{ID: id}, nil },
		deleteCategoryFn:     func(ctx context.Context, id int64) (int64, error) { return 1, nil },
	}
}

func newDeletionService(store *mockDeletionStore, images *mockImageRemover) (*DeletionService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) DeletionStore { return store }
	return NewDeletionService(pool, newStore, images), tx
}

// --- DeleteMenuItem ---

func TestDeleteMenuItemCascadeOrder(t *testing.T) {
	store := defaultDeletionStore()
	images := &mockImageRemover{}
	svc, tx := newDeletionService(store, images)

	result, err := svc.DeleteMenuItem(context.Background(), 5)
	if err != nil {
		t.Fatalf("DeleteMenuItem: %v", err)
	}
	if !tx.committed {
		t.Error("transaction not committed")
	}

	want := []string{"get", "reviews", "memberships", "detach", "delete"}
	if len(store.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", store.calls, want)
	}
	for i := range want {
		if store.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", store.calls, want)
		}
	}

	if result.ReviewsDeleted != 4 || result.MembershipsDeleted != 2 || result.LineItemsDetached != 9 {
		t.Errorf("result = %+v", result)
	}

	if len(images.removed) != 1 || images.removed[0] != "/api/uploads/salmon.jpg" {
		t.Errorf("removed images = %v", images.removed)
	}
}

func TestDeleteMenuItemNotFound(t *testing.T) {
	store := defaultDeletionStore()
	store.getMenuItemFn = func(ctx context.Context, id int64) (database.MenuItem, error) {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	svc, tx := newDeletionService(store, &mockImageRemover{})

	_, err := svc.DeleteMenuItem(context.Background(), 5)
	if !errors.Is(err, ErrMenuItemGone) {
		t.Fatalf("error = %v, want ErrMenuItemGone", err)
	}
	if tx.committed {
		t.Error("transaction committed for missing item")
	}
}

func TestDeleteMenuItemRollsBackOnStepFailure(t *testing.T) {
	boom := errors.New("detach failed")
	store := defaultDeletionStore()
	store.clearOrderItemsFn = func(ctx context.Context, menuItemID int64) (int64, error) { return 0, boom }
	images := &mockImageRemover{}
	svc, tx := newDeletionService(store, images)

	_, err := svc.DeleteMenuItem(context.Background(), 5)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if tx.committed {
		t.Error("transaction committed despite step failure")
	}
	if len(images.removed) != 0 {
		t.Error("image removed despite rollback")
	}
}

// Image removal runs after commit; a filesystem failure must not undo or
// fail the deletion.
func TestDeleteMenuItemImageFailureSwallowed(t *testing.T) {
	store := defaultDeletionStore()
	images := &mockImageRemover{err: errors.New("disk gone")}
	svc, _ := newDeletionService(store, images)

	result, err := svc.DeleteMenuItem(context.Background(), 5)
	if err != nil {
		t.Fatalf("DeleteMenuItem: %v", err)
	}
	if result == nil {
		t.Fatal("expected cascade result")
	}
}

func TestDeleteMenuItemNoImage(t *testing.T) {
	store := defaultDeletionStore()
	store.getMenuItemFn = func(ctx context.Context, id int64) (database.MenuItem, error) {
		return database.MenuItem{ID: id, Name: "Espresso", Category: "Drinks"}, nil
	}
	images := &mockImageRemover{}
	svc, _ := newDeletionService(store, images)

	if _, err := svc.DeleteMenuItem(context.Background(), 9); err != nil {
		t.Fatalf("DeleteMenuItem: %v", err)
	}
	if len(images.removed) != 0 {
		t.Errorf("removed images = %v, want none", images.removed)
	}
}

// --- DeleteCategory ---

func TestDeleteCategoryHardDeleteWhenUnreferenced(t *testing.T) {
	store := defaultDeletionStore()
	svc, tx := newDeletionService(store, &mockImageRemover{})

	deactivated, affected, err := svc.DeleteCategory(context.Background(), 3)
	if err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if deactivated {
		t.Error("unreferenced category should be hard deleted")
	}
	if affected != 0 {
		t.Errorf("affected = %d, want 0", affected)
	}
	if !tx.committed {
		t.Error("transaction not committed")
	}
	last := store.calls[len(store.calls)-1]
	if last != "delete_category" {
		t.Errorf("final step = %q, want delete_category", last)
	}
}

func TestDeleteCategorySoftDeleteWhenReferenced(t *testing.T) {
	store := defaultDeletionStore()
	store.countByCategoryFn = func(ctx context.Context, category string) (int64, error) {
		if category != "Mains" {
			t.Errorf("counted category %q, want Mains", category)
		}
		return 6, nil
	}
	svc, _ := newDeletionService(store, &mockImageRemover{})

	deactivated, affected, err := svc.DeleteCategory(context.Background(), 3)
	if err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if !deactivated {
		t.Error("referenced category should be deactivated, not deleted")
	}
	if affected != 6 {
		t.Errorf("affected = %d, want 6", affected)
	}
	for _, call := range store.calls {
		if call == "delete_category" {
			t.Error("hard delete ran for a referenced category")
		}
	}
}

func TestDeleteCategoryNotFound(t *testing.T) {
	store := defaultDeletionStore()
	store.getCategoryFn = func(ctx context.Context, id int64) (database.Category, error) {
		return database.Category{}, pgx.ErrNoRows
	}
	svc, _ := newDeletionService(store, &mockImageRemover{})

	_, _, err := svc.DeleteCategory(context.Background(), 99)
	if !errors.Is(err, ErrCategoryGone) {
		t.Fatalf("error = %v, want ErrCategoryGone", err)
	}
}
