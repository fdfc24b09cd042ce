package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/middleware"
)

// ReviewStore defines the database methods needed by review handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReviewStore interface {
	CreateReview(ctx context.Context, arg database.CreateReviewParams) (database.Review, error)
	ListReviewsByMenuItem(ctx context.Context, menuItemID int64) ([]database.ReviewWithAuthor, error)
	ListAllReviews(ctx context.Context) ([]database.ReviewDetail, error)
	MenuItemExists(ctx context.Context, id int64) (bool, error)
	ComboDealExists(ctx context.Context, id int64) (bool, error)
}

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	store ReviewStore
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(store ReviewStore) *ReviewHandler {
	return &ReviewHandler{store: store}
}

// RegisterPublicRoutes registers the public review endpoints.
func (h *ReviewHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/menu/{id}/reviews", h.ListByMenuItem)
}

// RegisterCustomerRoutes registers the authenticated review endpoints.
func (h *ReviewHandler) RegisterCustomerRoutes(r chi.Router) {
	r.Post("/reviews", h.Create)
}

// RegisterAdminRoutes registers the admin review endpoints.
func (h *ReviewHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/reviews", h.ListAll)
}

// --- Request / Response types ---

type createReviewRequest struct {
	MenuItemID  *int64 `json:"menu_item_id"`
	ComboDealID *int64 `json:"combo_deal_id"`
	Rating      int32  `json:"rating"`
	Comment     string `json:"comment"`
}

type reviewResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	MenuItemID  *int64    `json:"menu_item_id"`
	ComboDealID *int64    `json:"combo_deal_id"`
	Rating      int32     `json:"rating"`
	Comment     *string   `json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
}

type reviewWithAuthorResponse struct {
	reviewResponse
	Username string `json:"username"`
}

type reviewDetailResponse struct {
	reviewWithAuthorResponse
	MenuItemName  *string `json:"menu_item_name"`
	ComboDealName *string `json:"combo_deal_name"`
}

// --- Handlers ---

// Create handles POST /reviews. A review targets exactly one of a menu
// item or a combo deal.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if (req.MenuItemID == nil) == (req.ComboDealID == nil) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exactly one of menu_item_id or combo_deal_id is required"})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rating must be between 1 and 5"})
		return
	}

	params := database.CreateReviewParams{
		UserID: claims.UserID,
		Rating: req.Rating,
	}
	if req.Comment != "" {
		params.Comment = pgtype.Text{String: req.Comment, Valid: true}
	}

	if req.MenuItemID != nil {
		exists, err := h.store.MenuItemExists(r.Context(), *req.MenuItemID)
		if err != nil {
			log.Printf("ERROR: check menu item: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if !exists {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		params.MenuItemID = pgtype.Int8{Int64: *req.MenuItemID, Valid: true}
	} else {
		exists, err := h.store.ComboDealExists(r.Context(), *req.ComboDealID)
		if err != nil {
			log.Printf("ERROR: check combo deal: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if !exists {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "combo not found"})
			return
		}
		params.ComboDealID = pgtype.Int8{Int64: *req.ComboDealID, Valid: true}
	}

	review, err := h.store.CreateReview(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create review: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(review))
}

// ListByMenuItem handles GET /menu/{id}/reviews.
func (h *ReviewHandler) ListByMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	reviews, err := h.store.ListReviewsByMenuItem(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list reviews: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]reviewWithAuthorResponse, len(reviews))
	for i, rv := range reviews {
		resp[i] = reviewWithAuthorResponse{
			reviewResponse: toReviewResponse(rv.Review),
			Username:       rv.Username,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAll handles GET /admin/reviews.
func (h *ReviewHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.ListAllReviews(r.Context())
	if err != nil {
		log.Printf("ERROR: list all reviews: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]reviewDetailResponse, len(reviews))
	for i, rv := range reviews {
		detail := reviewDetailResponse{
			reviewWithAuthorResponse: reviewWithAuthorResponse{
				reviewResponse: toReviewResponse(rv.Review),
				Username:       rv.Username,
			},
		}
		if rv.MenuItemName.Valid {
			detail.MenuItemName = &rv.MenuItemName.String
		}
		if rv.ComboDealName.Valid {
			detail.ComboDealName = &rv.ComboDealName.String
		}
		resp[i] = detail
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func toReviewResponse(rv database.Review) reviewResponse {
	resp := reviewResponse{
		ID:        rv.ID,
		UserID:    rv.UserID,
		Rating:    rv.Rating,
		CreatedAt: rv.CreatedAt,
	}
	if rv.MenuItemID.Valid {
		resp.MenuItemID = &rv.MenuItemID.Int64
	}
	if rv.ComboDealID.Valid {
		resp.ComboDealID = &rv.ComboDealID.Int64
	}
	if rv.Comment.Valid {
		resp.Comment = &rv.Comment.String
	}
	return resp
}
