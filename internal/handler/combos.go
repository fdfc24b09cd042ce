package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/service"
	"github.com/shopspring/decimal"
)

// ComboStore defines the database methods needed by combo handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ComboStore interface {
	ListActiveComboDeals(ctx context.Context) ([]database.ComboDeal, error)
	ListComboDeals(ctx context.Context) ([]database.ComboDeal, error)
	GetComboDeal(ctx context.Context, id int64) (database.ComboDeal, error)
	ListComboDealMembers(ctx context.Context, comboDealID int64) ([]database.ComboDealMember, error)
	UpdateComboDeal(ctx context.Context, arg database.UpdateComboDealParams) (database.ComboDeal, error)
	DeactivateComboDeal(ctx context.Context, id int64) (database.ComboDeal, error)
}

// ComboCreator creates a combo with its memberships atomically.
// Satisfied by *service.CatalogService.
type ComboCreator interface {
	CreateCombo(ctx context.Context, req service.CreateComboRequest) (*service.ComboView, error)
}

// ComboHandler handles combo deal endpoints.
type ComboHandler struct {
	store   ComboStore
	creator ComboCreator
}

// NewComboHandler creates a new ComboHandler.
func NewComboHandler(store ComboStore, creator ComboCreator) *ComboHandler {
	return &ComboHandler{store: store, creator: creator}
}

// RegisterPublicRoutes registers the customer-facing combo endpoints.
func (h *ComboHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/combos", h.ListActive)
	r.Get("/combos/{id}", h.Get)
}

// RegisterAdminRoutes registers the admin combo endpoints.
func (h *ComboHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/combos", h.ListAll)
	r.Post("/combos", h.Create)
	r.Put("/combos/{id}", h.Update)
	r.Delete("/combos/{id}", h.Deactivate)
}

// --- Request / Response types ---

type comboItemRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int32 `json:"quantity"`
}

type comboRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	ComboPrice  float64            `json:"combo_price"`
	ImageURL    string             `json:"image_url"`
	Category    string             `json:"category"`
	Items       []comboItemRequest `json:"items"`
}

type comboMemberResponse struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Quantity   int32  `json:"quantity"`
	Category   string `json:"category"`
	ImageURL   string `json:"image_url,omitempty"`
}

// comboResponse carries the derived pricing fields. OriginalPrice and
// Savings are computed from current member prices on every read.
type comboResponse struct {
	ID            int64                 `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description,omitempty"`
	ComboPrice    string                `json:"combo_price"`
	OriginalPrice string                `json:"original_price"`
	Savings       string                `json:"savings"`
	Category      string                `json:"category"`
	ImageURL      string                `json:"image_url,omitempty"`
	IsActive      bool                  `json:"is_active"`
	Items         []comboMemberResponse `json:"items"`
}

// --- Handlers ---

// ListActive handles GET /combos.
func (h *ComboHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	combos, err := h.store.ListActiveComboDeals(r.Context())
	if err != nil {
		log.Printf("ERROR: list active combos: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.respondWithViews(w, r, combos)
}

// ListAll handles GET /admin/combos, including deactivated combos.
func (h *ComboHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	combos, err := h.store.ListComboDeals(r.Context())
	if err != nil {
		log.Printf("ERROR: list combos: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.respondWithViews(w, r, combos)
}

// Get handles GET /combos/{id}.
func (h *ComboHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid combo ID"})
		return
	}

	combo, err := h.store.GetComboDeal(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "combo not found"})
			return
		}
		log.Printf("ERROR: get combo: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	members, err := h.store.ListComboDealMembers(r.Context(), combo.ID)
	if err != nil {
		log.Printf("ERROR: list combo members: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toComboResponse(service.BuildComboView(combo, members)))
}

// Create handles POST /admin/combos.
func (h *ComboHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req comboRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if math.IsNaN(req.ComboPrice) || math.IsInf(req.ComboPrice, 0) || req.ComboPrice < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "combo_price must be a non-negative number"})
		return
	}

	items := make([]service.CreateComboItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CreateComboItemRequest{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		}
	}

	view, err := h.creator.CreateCombo(r.Context(), service.CreateComboRequest{
		Name:        req.Name,
		Description: req.Description,
		ComboPrice:  decimal.NewFromFloat(req.ComboPrice),
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Items:       items,
	})
	if err != nil {
		if isComboValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create combo: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toComboResponse(*view))
}

// Update handles PUT /admin/combos/{id}. Membership is fixed at creation;
// only the combo row's own fields change here.
func (h *ComboHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid combo ID"})
		return
	}

	var req comboRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if math.IsNaN(req.ComboPrice) || math.IsInf(req.ComboPrice, 0) || req.ComboPrice < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "combo_price must be a non-negative number"})
		return
	}

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}
	imageURL := pgtype.Text{}
	if req.ImageURL != "" {
		imageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}
	category := pgtype.Text{}
	if req.Category != "" {
		category = pgtype.Text{String: req.Category, Valid: true}
	}

	var price pgtype.Numeric
	_ = price.Scan(decimal.NewFromFloat(req.ComboPrice).StringFixed(2))

	combo, err := h.store.UpdateComboDeal(r.Context(), database.UpdateComboDealParams{
		ID:          id,
		Name:        req.Name,
		Description: description,
		ComboPrice:  price,
		ImageUrl:    imageURL,
		Category:    category,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "combo not found"})
			return
		}
		log.Printf("ERROR: update combo: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	members, err := h.store.ListComboDealMembers(r.Context(), combo.ID)
	if err != nil {
		log.Printf("ERROR: list combo members: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toComboResponse(service.BuildComboView(combo, members)))
}

// Deactivate handles DELETE /admin/combos/{id}. Combos are never hard
// deleted; ledger lines may reference them.
func (h *ComboHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid combo ID"})
		return
	}

	if _, err := h.store.DeactivateComboDeal(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "combo not found"})
			return
		}
		log.Printf("ERROR: deactivate combo: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deactivated": true})
}

// --- Helpers ---

func (h *ComboHandler) respondWithViews(w http.ResponseWriter, r *http.Request, combos []database.ComboDeal) {
	resp := make([]comboResponse, len(combos))
	for i, combo := range combos {
		members, err := h.store.ListComboDealMembers(r.Context(), combo.ID)
		if err != nil {
			log.Printf("ERROR: list combo members: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp[i] = toComboResponse(service.BuildComboView(combo, members))
	}
	writeJSON(w, http.StatusOK, resp)
}

func isComboValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyComboItems) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidPrice) ||
		errors.Is(err, service.ErrMenuItemNotFound)
}

func toComboResponse(view service.ComboView) comboResponse {
	resp := comboResponse{
		ID:            view.ID,
		Name:          view.Name,
		Description:   view.Description,
		ComboPrice:    view.ComboPrice.StringFixed(2),
		OriginalPrice: view.OriginalPrice.StringFixed(2),
		Savings:       view.Savings.StringFixed(2),
		Category:      view.Category,
		ImageURL:      view.ImageURL,
		IsActive:      view.IsActive,
		Items:         make([]comboMemberResponse, len(view.Members)),
	}
	for i, m := range view.Members {
		resp.Items[i] = comboMemberResponse{
			MenuItemID: m.MenuItemID,
			Name:       m.Name,
			Price:      m.Price.StringFixed(2),
			Quantity:   m.Quantity,
			Category:   m.Category,
			ImageURL:   m.ImageURL,
		}
	}
	return resp
}
