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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/enum"
	"github.com/savoria/api/internal/middleware"
)

// ReservationStore defines the database methods needed by reservation
// handlers. Satisfied by *database.Queries.
type ReservationStore interface {
	CreateReservation(ctx context.Context, arg database.CreateReservationParams) (database.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID int64) ([]database.Reservation, error)
	ListReservationsWithCustomer(ctx context.Context) ([]database.ReservationWithCustomer, error)
	UpdateReservationStatus(ctx context.Context, arg database.UpdateReservationStatusParams) (database.Reservation, error)
}

// ReservationHandler handles table reservation endpoints.
type ReservationHandler struct {
	store ReservationStore
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(store ReservationStore) *ReservationHandler {
	return &ReservationHandler{store: store}
}

// RegisterCustomerRoutes registers the authenticated reservation endpoints.
func (h *ReservationHandler) RegisterCustomerRoutes(r chi.Router) {
	r.Post("/reservations", h.Create)
	r.Get("/reservations", h.List)
}

// RegisterAdminRoutes registers the admin reservation endpoints.
func (h *ReservationHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/reservations", h.ListAll)
	r.Patch("/reservations/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createReservationRequest struct {
	PartySize       int32  `json:"party_size"`
	ReservationTime string `json:"reservation_time"`
	SpecialRequests string `json:"special_requests"`
}

type reservationResponse struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	PartySize       int32     `json:"party_size"`
	ReservationTime time.Time `json:"reservation_time"`
	Status          string    `json:"status"`
	SpecialRequests *string   `json:"special_requests"`
}

type reservationWithCustomerResponse struct {
	reservationResponse
	Username string `json:"username"`
}

// --- Handlers ---

// Create handles POST /reservations.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.PartySize <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "party_size must be > 0"})
		return
	}

	reservationTime, err := time.Parse(time.RFC3339, req.ReservationTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reservation_time, use RFC 3339"})
		return
	}
	if reservationTime.Before(time.Now()) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reservation_time must be in the future"})
		return
	}

	specialRequests := pgtype.Text{}
	if req.SpecialRequests != "" {
		specialRequests = pgtype.Text{String: req.SpecialRequests, Valid: true}
	}

	reservation, err := h.store.CreateReservation(r.Context(), database.CreateReservationParams{
		UserID:          claims.UserID,
		PartySize:       req.PartySize,
		ReservationTime: reservationTime,
		SpecialRequests: specialRequests,
	})
	if err != nil {
		log.Printf("ERROR: create reservation: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toReservationResponse(reservation))
}

// List handles GET /reservations for the authenticated user.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	reservations, err := h.store.ListReservationsByUser(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list reservations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]reservationResponse, len(reservations))
	for i, rs := range reservations {
		resp[i] = toReservationResponse(rs)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAll handles GET /admin/reservations.
func (h *ReservationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.store.ListReservationsWithCustomer(r.Context())
	if err != nil {
		log.Printf("ERROR: list reservations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]reservationWithCustomerResponse, len(reservations))
	for i, rs := range reservations {
		resp[i] = reservationWithCustomerResponse{
			reservationResponse: toReservationResponse(rs.Reservation),
			Username:            rs.Username,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /admin/reservations/{id}/status.
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reservation ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !enum.ValidReservationStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	reservation, err := h.store.UpdateReservationStatus(r.Context(), database.UpdateReservationStatusParams{
		ID:     id,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "reservation not found"})
			return
		}
		log.Printf("ERROR: update reservation status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toReservationResponse(reservation))
}

// --- Helpers ---

func toReservationResponse(rs database.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:              rs.ID,
		UserID:          rs.UserID,
		PartySize:       rs.PartySize,
		ReservationTime: rs.ReservationTime,
		Status:          rs.Status,
	}
	if rs.SpecialRequests.Valid {
		resp.SpecialRequests = &rs.SpecialRequests.String
	}
	return resp
}
