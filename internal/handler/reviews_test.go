package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/handler"
	"github.com/savoria/api/internal/middleware"
)

// --- Mocks ---

type mockReviewStore struct {
	reviews   map[int64]database.Review
	menuItems map[int64]bool // existing menu item IDs
	combos    map[int64]bool // existing combo deal IDs
	authors   map[int64]string
	nextID    int64
}

func newMockReviewStore() *mockReviewStore {
	return &mockReviewStore{
		reviews:   make(map[int64]database.Review),
		menuItems: make(map[int64]bool),
		combos:    make(map[int64]bool),
		authors:   make(map[int64]string),
		nextID:    1,
	}
}

func (m *mockReviewStore) CreateReview(_ context.Context, arg database.CreateReviewParams) (database.Review, error) {
	rv := database.Review{
		ID:          m.nextID,
		UserID:      arg.UserID,
		MenuItemID:  arg.MenuItemID,
		ComboDealID: arg.ComboDealID,
		Rating:      arg.Rating,
		Comment:     arg.Comment,
	}
	m.nextID++
	m.reviews[rv.ID] = rv
	return rv, nil
}

func (m *mockReviewStore) ListReviewsByMenuItem(_ context.Context, menuItemID int64) ([]database.ReviewWithAuthor, error) {
	var result []database.ReviewWithAuthor
	for _, rv := range m.reviews {
		if rv.MenuItemID.Valid && rv.MenuItemID.Int64 == menuItemID {
			result = append(result, database.ReviewWithAuthor{Review: rv, Username: m.authors[rv.UserID]})
		}
	}
	return result, nil
}

func (m *mockReviewStore) ListAllReviews(_ context.Context) ([]database.ReviewDetail, error) {
	var result []database.ReviewDetail
	for _, rv := range m.reviews {
		result = append(result, database.ReviewDetail{Review: rv, Username: m.authors[rv.UserID]})
	}
	return result, nil
}

func (m *mockReviewStore) MenuItemExists(_ context.Context, id int64) (bool, error) {
	return m.menuItems[id], nil
}

func (m *mockReviewStore) ComboDealExists(_ context.Context, id int64) (bool, error) {
	return m.combos[id], nil
}

// --- Helpers ---

func setupReviewRouter(store *mockReviewStore) *chi.Mux {
	h := handler.NewReviewHandler(store)
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		h.RegisterCustomerRoutes(r)
	})
	r.Route("/admin", h.RegisterAdminRoutes)
	return r
}

// --- Tests ---

func TestCreateReviewForMenuItem(t *testing.T) {
	store := newMockReviewStore()
	store.menuItems[3] = true
	router := setupReviewRouter(store)

	rr := doAuthRequest(t, router, "POST", "/reviews", map[string]interface{}{
		"menu_item_id": 3,
		"rating":       5,
		"comment":      "Excellent",
	}, customerClaims(42))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["menu_item_id"].(float64) != 3 {
		t.Errorf("expected menu_item_id 3, got %v", resp["menu_item_id"])
	}
	if resp["combo_deal_id"] != nil {
		t.Errorf("expected null combo_deal_id, got %v", resp["combo_deal_id"])
	}
	if resp["user_id"].(float64) != 42 {
		t.Errorf("expected author from claims, got %v", resp["user_id"])
	}
}

func TestCreateReviewTargetValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]interface{}
		wantCode int
	}{
		{"both targets", map[string]interface{}{"menu_item_id": 3, "combo_deal_id": 1, "rating": 4}, http.StatusBadRequest},
		{"neither target", map[string]interface{}{"rating": 4}, http.StatusBadRequest},
		{"rating too low", map[string]interface{}{"menu_item_id": 3, "rating": 0}, http.StatusBadRequest},
		{"rating too high", map[string]interface{}{"menu_item_id": 3, "rating": 6}, http.StatusBadRequest},
		{"unknown menu item", map[string]interface{}{"menu_item_id": 99, "rating": 4}, http.StatusNotFound},
		{"unknown combo", map[string]interface{}{"combo_deal_id": 99, "rating": 4}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockReviewStore()
			store.menuItems[3] = true
			router := setupReviewRouter(store)

			rr := doAuthRequest(t, router, "POST", "/reviews", tt.body, customerClaims(42))
			if rr.Code != tt.wantCode {
				t.Errorf("expected %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if len(store.reviews) != 0 {
				t.Errorf("expected nothing stored, got %d reviews", len(store.reviews))
			}
		})
	}
}

func TestCreateReviewForCombo(t *testing.T) {
	store := newMockReviewStore()
	store.combos[1] = true
	router := setupReviewRouter(store)

	rr := doAuthRequest(t, router, "POST", "/reviews", map[string]interface{}{
		"combo_deal_id": 1,
		"rating":        4,
	}, customerClaims(42))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["combo_deal_id"].(float64) != 1 {
		t.Errorf("expected combo_deal_id 1, got %v", resp["combo_deal_id"])
	}
	if resp["menu_item_id"] != nil {
		t.Errorf("expected null menu_item_id, got %v", resp["menu_item_id"])
	}
}

func TestListReviewsByMenuItemIncludesAuthor(t *testing.T) {
	store := newMockReviewStore()
	store.authors[42] = "alice"
	store.reviews[1] = database.Review{
		ID:         1,
		UserID:     42,
		MenuItemID: pgtype.Int8{Int64: 3, Valid: true},
		Rating:     5,
	}
	store.reviews[2] = database.Review{
		ID:         2,
		UserID:     42,
		MenuItemID: pgtype.Int8{Int64: 8, Valid: true},
		Rating:     2,
	}
	router := setupReviewRouter(store)

	rr := doRequest(t, router, "GET", "/menu/3/reviews", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 review for item 3, got %d", len(resp))
	}
	if resp[0]["username"] != "alice" {
		t.Errorf("expected author username, got %v", resp[0]["username"])
	}
}

func TestCreateReviewRequiresAuth(t *testing.T) {
	store := newMockReviewStore()
	store.menuItems[3] = true
	router := setupReviewRouter(store)

	rr := doRequest(t, router, "POST", "/reviews", map[string]interface{}{
		"menu_item_id": 3,
		"rating":       5,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
