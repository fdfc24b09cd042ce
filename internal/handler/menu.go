package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/service"
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by menu item handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListAvailableMenuItems(ctx context.Context) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
}

// MenuDeleter coordinates the item deletion cascade.
// Satisfied by *service.DeletionService.
type MenuDeleter interface {
	DeleteMenuItem(ctx context.Context, id int64) (*service.CascadeResult, error)
}

// MenuHandler handles menu item endpoints.
type MenuHandler struct {
	store   MenuStore
	deleter MenuDeleter
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore, deleter MenuDeleter) *MenuHandler {
	return &MenuHandler{store: store, deleter: deleter}
}

// RegisterPublicRoutes registers the customer-facing menu endpoints.
func (h *MenuHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/menu", h.ListAvailable)
	r.Get("/menu/{id}", h.Get)
}

// RegisterAdminRoutes registers the admin menu endpoints.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/menu", h.ListAll)
	r.Post("/menu", h.Create)
	r.Put("/menu/{id}", h.Update)
	r.Delete("/menu/{id}", h.Delete)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	ImageURL     string  `json:"image_url"`
	IsDeal       bool    `json:"is_deal"`
	Availability *bool   `json:"availability"`
}

type menuItemResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Price        string  `json:"price"`
	Category     string  `json:"category"`
	ImageURL     *string `json:"image_url"`
	IsDeal       bool    `json:"is_deal"`
	Availability bool    `json:"availability"`
}

type deleteMenuItemResponse struct {
	Deleted            bool  `json:"deleted"`
	ReviewsDeleted     int64 `json:"reviews_deleted"`
	MembershipsDeleted int64 `json:"memberships_deleted"`
	LineItemsDetached  int64 `json:"line_items_detached"`
}

// --- Handlers ---

// ListAvailable handles GET /menu. Only items currently marked available
// are shown to customers.
func (h *MenuHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListAvailableMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list available menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = toMenuItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAll handles GET /admin/menu, including unavailable items.
func (h *MenuHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = toMenuItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /menu/{id}.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create handles POST /admin/menu.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := menuItemParams(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update handles PUT /admin/menu/{id}.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := menuItemParams(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:           id,
		Name:         params.Name,
		Description:  params.Description,
		Price:        params.Price,
		Category:     params.Category,
		ImageUrl:     params.ImageUrl,
		IsDeal:       params.IsDeal,
		Availability: params.Availability,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete handles DELETE /admin/menu/{id}. The cascade counts in the
// response tell the dashboard what else the deletion touched.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	result, err := h.deleter.DeleteMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMenuItemGone) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, deleteMenuItemResponse{
		Deleted:            true,
		ReviewsDeleted:     result.ReviewsDeleted,
		MembershipsDeleted: result.MembershipsDeleted,
		LineItemsDetached:  result.LineItemsDetached,
	})
}

// --- Helpers ---

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func menuItemParams(req menuItemRequest) (database.CreateMenuItemParams, string) {
	if req.Name == "" {
		return database.CreateMenuItemParams{}, "name is required"
	}
	if req.Category == "" {
		return database.CreateMenuItemParams{}, "category is required"
	}
	if math.IsNaN(req.Price) || math.IsInf(req.Price, 0) || req.Price < 0 {
		return database.CreateMenuItemParams{}, "price must be a non-negative number"
	}

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}
	imageURL := pgtype.Text{}
	if req.ImageURL != "" {
		imageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}

	availability := true
	if req.Availability != nil {
		availability = *req.Availability
	}

	var price pgtype.Numeric
	_ = price.Scan(decimal.NewFromFloat(req.Price).StringFixed(2))

	return database.CreateMenuItemParams{
		Name:         req.Name,
		Description:  description,
		Price:        price,
		Category:     req.Category,
		ImageUrl:     imageURL,
		IsDeal:       req.IsDeal,
		Availability: availability,
	}, ""
}

func toMenuItemResponse(item database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		Price:        numericToString(item.Price),
		Category:     item.Category,
		IsDeal:       item.IsDeal,
		Availability: item.Availability,
	}
	if item.Description.Valid {
		resp.Description = &item.Description.String
	}
	if item.ImageUrl.Valid {
		resp.ImageURL = &item.ImageUrl.String
	}
	return resp
}
