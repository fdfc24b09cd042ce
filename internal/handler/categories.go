package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/service"
)

// CategoryStore defines the database methods needed by category handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CategoryStore interface {
	ListActiveCategories(ctx context.Context) ([]database.Category, error)
	ListCategories(ctx context.Context) ([]database.Category, error)
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error)
	ListActiveCategoryNames(ctx context.Context) ([]string, error)
	ListDistinctItemCategories(ctx context.Context) ([]string, error)
}

// CategoryDeleter applies the soft/hard category delete policy.
// Satisfied by *service.DeletionService.
type CategoryDeleter interface {
	DeleteCategory(ctx context.Context, id int64) (deactivated bool, affected int64, err error)
}

// CategoryHandler handles category endpoints.
type CategoryHandler struct {
	store   CategoryStore
	deleter CategoryDeleter
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(store CategoryStore, deleter CategoryDeleter) *CategoryHandler {
	return &CategoryHandler{store: store, deleter: deleter}
}

// RegisterPublicRoutes registers the customer-facing category endpoints.
func (h *CategoryHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/categories", h.ListActive)
}

// RegisterAdminRoutes registers the admin category endpoints.
func (h *CategoryHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/categories", h.ListAll)
	r.Post("/categories", h.Create)
	r.Put("/categories/{id}", h.Update)
	r.Delete("/categories/{id}", h.Delete)
	r.Get("/categories/orphans", h.Orphans)
}

// --- Request / Response types ---

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type categoryResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// deleteCategoryResponse reports which branch of the delete policy ran:
// a category still referenced by menu items is deactivated instead of
// removed, and AffectedItems says how many items pinned it.
type deleteCategoryResponse struct {
	Deactivated   bool  `json:"deactivated"`
	Deleted       bool  `json:"deleted"`
	AffectedItems int64 `json:"affected_items"`
}

// orphansResponse lists item category names that no active category row
// backs, feeding the admin reconciliation view.
type orphansResponse struct {
	Orphans []string `json:"orphans"`
}

// --- Handlers ---

// ListActive handles GET /categories.
func (h *CategoryHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListActiveCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list active categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponses(categories))
}

// ListAll handles GET /admin/categories, including deactivated rows.
func (h *CategoryHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponses(categories))
}

// Create handles POST /admin/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}

	category, err := h.store.CreateCategory(r.Context(), database.CreateCategoryParams{
		Name:        req.Name,
		Description: description,
		IsActive:    true,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "category name already exists"})
			return
		}
		log.Printf("ERROR: create category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

// Update handles PUT /admin/categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	category, err := h.store.UpdateCategory(r.Context(), database.UpdateCategoryParams{
		ID:          id,
		Name:        req.Name,
		Description: description,
		IsActive:    isActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "category name already exists"})
			return
		}
		log.Printf("ERROR: update category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

// Delete handles DELETE /admin/categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	deactivated, affected, err := h.deleter.DeleteCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCategoryGone) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: delete category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, deleteCategoryResponse{
		Deactivated:   deactivated,
		Deleted:       !deactivated,
		AffectedItems: affected,
	})
}

// Orphans handles GET /admin/categories/orphans. Items reference their
// category by name rather than FK, so a rename or delete can leave item
// categories with no backing row.
func (h *CategoryHandler) Orphans(w http.ResponseWriter, r *http.Request) {
	active, err := h.store.ListActiveCategoryNames(r.Context())
	if err != nil {
		log.Printf("ERROR: list active category names: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	itemCategories, err := h.store.ListDistinctItemCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list item categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	known := make(map[string]bool, len(active))
	for _, name := range active {
		known[name] = true
	}

	orphans := []string{}
	for _, name := range itemCategories {
		if !known[name] {
			orphans = append(orphans, name)
		}
	}

	writeJSON(w, http.StatusOK, orphansResponse{Orphans: orphans})
}

// --- Helpers ---

func toCategoryResponse(c database.Category) categoryResponse {
	resp := categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
	if c.Description.Valid {
		resp.Description = &c.Description.String
	}
	return resp
}

func toCategoryResponses(categories []database.Category) []categoryResponse {
	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = toCategoryResponse(c)
	}
	return resp
}
