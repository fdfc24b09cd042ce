package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/handler"
	"github.com/savoria/api/internal/service"
)

// --- Mocks ---

type mockCategoryStore struct {
	categories     map[int64]database.Category
	itemCategories []string // distinct category names referenced by menu items
	nextID         int64
}

func newMockCategoryStore() *mockCategoryStore {
	return &mockCategoryStore{categories: make(map[int64]database.Category), nextID: 1}
}

func (m *mockCategoryStore) ListActiveCategories(_ context.Context) ([]database.Category, error) {
	var result []database.Category
	for _, c := range m.categories {
		if c.IsActive {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockCategoryStore) ListCategories(_ context.Context) ([]database.Category, error) {
	var result []database.Category
	for _, c := range m.categories {
		result = append(result, c)
	}
	return result, nil
}

func (m *mockCategoryStore) CreateCategory(_ context.Context, arg database.CreateCategoryParams) (database.Category, error) {
	for _, existing := range m.categories {
		if existing.Name == arg.Name {
			return database.Category{}, &pgconn.PgError{Code: "23505"}
		}
	}
	c := database.Category{
		ID:          m.nextID,
		Name:        arg.Name,
		Description: arg.Description,
		IsActive:    arg.IsActive,
	}
	m.nextID++
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockCategoryStore) UpdateCategory(_ context.Context, arg database.UpdateCategoryParams) (database.Category, error) {
	c, ok := m.categories[arg.ID]
	if !ok {
		return database.Category{}, pgx.ErrNoRows
	}
	for _, existing := range m.categories {
		if existing.ID != arg.ID && existing.Name == arg.Name {
			return database.Category{}, &pgconn.PgError{Code: "23505"}
		}
	}
	c.Name = arg.Name
	c.Description = arg.Description
	c.IsActive = arg.IsActive
	m.categories[arg.ID] = c
	return c, nil
}

func (m *mockCategoryStore) ListActiveCategoryNames(_ context.Context) ([]string, error) {
	var names []string
	for _, c := range m.categories {
		if c.IsActive {
			names = append(names, c.Name)
		}
	}
	return names, nil
}

func (m *mockCategoryStore) ListDistinctItemCategories(_ context.Context) ([]string, error) {
	return m.itemCategories, nil
}

func (m *mockCategoryStore) addCategory(name string, active bool) database.Category {
	c := database.Category{ID: m.nextID, Name: name, IsActive: active}
	m.nextID++
	m.categories[c.ID] = c
	return c
}

type mockCategoryDeleter struct {
	deleteFn func(ctx context.Context, id int64) (bool, int64, error)
}

func (m *mockCategoryDeleter) DeleteCategory(ctx context.Context, id int64) (bool, int64, error) {
	return m.deleteFn(ctx, id)
}

// --- Helpers ---

func setupCategoryRouter(store *mockCategoryStore, deleter *mockCategoryDeleter) *chi.Mux {
	h := handler.NewCategoryHandler(store, deleter)
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	r.Route("/admin", h.RegisterAdminRoutes)
	return r
}

// --- Tests ---

func TestListActiveCategoriesHidesDeactivated(t *testing.T) {
	store := newMockCategoryStore()
	store.addCategory("Mains", true)
	store.addCategory("Retired Specials", false)
	router := setupCategoryRouter(store, &mockCategoryDeleter{})

	rr := doRequest(t, router, "GET", "/categories", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeListResponse(t, rr)
	if len(resp) != 1 || resp[0]["name"] != "Mains" {
		t.Errorf("expected only active categories, got %v", resp)
	}

	rr = doRequest(t, router, "GET", "/admin/categories", nil)
	if got := len(decodeListResponse(t, rr)); got != 2 {
		t.Errorf("expected admin listing to include deactivated rows, got %d", got)
	}
}

func TestCreateCategoryStartsActive(t *testing.T) {
	store := newMockCategoryStore()
	router := setupCategoryRouter(store, &mockCategoryDeleter{})

	rr := doRequest(t, router, "POST", "/admin/categories", map[string]interface{}{
		"name":        "Desserts",
		"description": "Sweet things",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["is_active"] != true {
		t.Errorf("expected new category to be active, got %v", resp["is_active"])
	}
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	store := newMockCategoryStore()
	store.addCategory("Mains", true)
	router := setupCategoryRouter(store, &mockCategoryDeleter{})

	rr := doRequest(t, router, "POST", "/admin/categories", map[string]interface{}{
		"name": "Mains",
	})

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(store.categories) != 1 {
		t.Errorf("expected no category to be created, got %d", len(store.categories))
	}
}

func TestUpdateCategoryDuplicateName(t *testing.T) {
	store := newMockCategoryStore()
	store.addCategory("Mains", true)
	desserts := store.addCategory("Desserts", true)
	router := setupCategoryRouter(store, &mockCategoryDeleter{})

	rr := doRequest(t, router, "PUT", fmt.Sprintf("/admin/categories/%d", desserts.ID), map[string]interface{}{
		"name": "Mains",
	})

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
	if store.categories[desserts.ID].Name != "Desserts" {
		t.Errorf("expected category name unchanged, got %q", store.categories[desserts.ID].Name)
	}
}

func TestCreateCategoryRequiresName(t *testing.T) {
	router := setupCategoryRouter(newMockCategoryStore(), &mockCategoryDeleter{})

	rr := doRequest(t, router, "POST", "/admin/categories", map[string]interface{}{
		"description": "no name",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestDeleteCategorySoftDeleteWhenReferenced(t *testing.T) {
	deleter := &mockCategoryDeleter{
		deleteFn: func(_ context.Context, _ int64) (bool, int64, error) {
			return true, 6, nil
		},
	}
	router := setupCategoryRouter(newMockCategoryStore(), deleter)

	rr := doRequest(t, router, "DELETE", "/admin/categories/3", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["deactivated"] != true || resp["deleted"] != false {
		t.Errorf("expected soft delete branch, got %v", resp)
	}
	if resp["affected_items"].(float64) != 6 {
		t.Errorf("expected 6 affected items, got %v", resp["affected_items"])
	}
}

func TestDeleteCategoryHardDeleteWhenUnreferenced(t *testing.T) {
	deleter := &mockCategoryDeleter{
		deleteFn: func(_ context.Context, _ int64) (bool, int64, error) {
			return false, 0, nil
		},
	}
	router := setupCategoryRouter(newMockCategoryStore(), deleter)

	rr := doRequest(t, router, "DELETE", "/admin/categories/3", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["deactivated"] != false || resp["deleted"] != true {
		t.Errorf("expected hard delete branch, got %v", resp)
	}
}

func TestDeleteCategoryNotFound(t *testing.T) {
	deleter := &mockCategoryDeleter{
		deleteFn: func(_ context.Context, _ int64) (bool, int64, error) {
			return false, 0, service.ErrCategoryGone
		},
	}
	router := setupCategoryRouter(newMockCategoryStore(), deleter)

	rr := doRequest(t, router, "DELETE", "/admin/categories/99", nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestOrphanCategories(t *testing.T) {
	store := newMockCategoryStore()
	store.addCategory("Mains", true)
	store.addCategory("Starters", false) // deactivated rows do not back item categories
	store.itemCategories = []string{"Mains", "Starters", "Forgotten"}
	router := setupCategoryRouter(store, &mockCategoryDeleter{})

	rr := doRequest(t, router, "GET", "/admin/categories/orphans", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	orphans, ok := resp["orphans"].([]interface{})
	if !ok {
		t.Fatalf("expected orphans array, got %v", resp["orphans"])
	}
	if len(orphans) != 2 {
		t.Fatalf("expected 2 orphans, got %v", orphans)
	}
	found := map[string]bool{}
	for _, o := range orphans {
		found[o.(string)] = true
	}
	if !found["Starters"] || !found["Forgotten"] {
		t.Errorf("expected Starters and Forgotten to be orphaned, got %v", orphans)
	}
}

func TestOrphanCategoriesEmptyIsArray(t *testing.T) {
	store := newMockCategoryStore()
	store.addCategory("Mains", true)
	store.itemCategories = []string{"Mains"}
	router := setupCategoryRouter(store, &mockCategoryDeleter{})

	rr := doRequest(t, router, "GET", "/admin/categories/orphans", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	orphans, ok := resp["orphans"].([]interface{})
	if !ok {
		t.Fatalf("expected empty array, not null: %s", rr.Body.String())
	}
	if len(orphans) != 0 {
		t.Errorf("expected no orphans, got %v", orphans)
	}
}
