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
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/enum"
	"github.com/savoria/api/internal/service"
	"github.com/savoria/api/internal/ws"
)

// AdminStore defines the database methods needed by admin handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AdminStore interface {
	ListOrdersWithCustomer(ctx context.Context) ([]database.OrderWithCustomer, error)
	ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	ListUsers(ctx context.Context) ([]database.User, error)
	UpdateUserRole(ctx context.Context, arg database.UpdateUserRoleParams) (database.User, error)
}

// Analytics produces the sales time series and the dashboard snapshot.
// Satisfied by *service.AnalyticsService.
type Analytics interface {
	Aggregate(ctx context.Context, period string, now time.Time) (*service.SalesSeries, error)
	Snapshot(ctx context.Context, now time.Time) (*service.DashboardStats, error)
}

// AdminHandler handles admin order, user and analytics endpoints.
type AdminHandler struct {
	store     AdminStore
	analytics Analytics
	hub       Broadcaster
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store AdminStore, analytics Analytics, hub Broadcaster) *AdminHandler {
	return &AdminHandler{store: store, analytics: analytics, hub: hub}
}

// RegisterRoutes registers admin endpoints on the given Chi router.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.ListOrders)
	r.Patch("/orders/{id}/status", h.UpdateOrderStatus)
	r.Get("/users", h.ListUsers)
	r.Patch("/users/{id}/role", h.UpdateUserRole)
	r.Get("/analytics/sales", h.Sales)
	r.Get("/analytics/stats", h.Stats)
}

// --- Request / Response types ---

type adminOrderResponse struct {
	orderResponse
	Username string `json:"username"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type salesBucketResponse struct {
	Date   string `json:"date"`
	Label  string `json:"label"`
	Sales  string `json:"sales"`
	Orders int64  `json:"orders"`
}

type salesSummaryResponse struct {
	TotalSales    string `json:"total_sales"`
	TotalOrders   int64  `json:"total_orders"`
	AverageSales  string `json:"average_sales"`
	AverageOrders string `json:"average_orders"`
}

type salesSeriesResponse struct {
	Period  string                `json:"period"`
	Data    []salesBucketResponse `json:"data"`
	Summary salesSummaryResponse  `json:"summary"`
}

type windowTotalsResponse struct {
	Sales  string `json:"sales"`
	Orders int64  `json:"orders"`
}

type dashboardStatsResponse struct {
	Today         windowTotalsResponse `json:"today"`
	Week          windowTotalsResponse `json:"week"`
	Month         windowTotalsResponse `json:"month"`
	AllTime       windowTotalsResponse `json:"all_time"`
	TotalUsers    int64                `json:"total_users"`
	TotalItems    int64                `json:"total_items"`
	PendingOrders int64                `json:"pending_orders"`
}

// --- Handlers ---

// ListOrders handles GET /admin/orders. Each order is joined with the
// customer's username and carries its full line items.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrdersWithCustomer(r.Context())
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]adminOrderResponse, len(orders))
	for i, o := range orders {
		items, err := h.store.ListOrderItemsByOrder(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp[i] = adminOrderResponse{
			orderResponse: toOrderResponse(o.Order, items),
			Username:      o.Username,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateOrderStatus handles PATCH /admin/orders/{id}/status and broadcasts
// the change to connected dashboards.
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !enum.ValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	order, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:     id,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(order, items)
	if payload, err := json.Marshal(resp); err == nil {
		h.hub.Broadcast(ws.Event{Type: ws.EventOrderStatusChanged, Payload: payload})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("ERROR: list users: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateUserRole handles PATCH /admin/users/{id}/role.
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Role != enum.UserRoleCustomer && req.Role != enum.UserRoleAdmin {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}

	user, err := h.store.UpdateUserRole(r.Context(), database.UpdateUserRoleParams{
		ID:   id,
		Role: req.Role,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		log.Printf("ERROR: update user role: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Sales handles GET /admin/analytics/sales?period=day|week|month|year.
func (h *AdminHandler) Sales(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = service.PeriodDay
	}

	series, err := h.analytics.Aggregate(r.Context(), period, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid period"})
			return
		}
		log.Printf("ERROR: aggregate sales: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := salesSeriesResponse{
		Period: series.Period,
		Data:   make([]salesBucketResponse, len(series.Buckets)),
		Summary: salesSummaryResponse{
			TotalSales:    series.Summary.TotalSales.StringFixed(2),
			TotalOrders:   series.Summary.TotalOrders,
			AverageSales:  series.Summary.AverageSales.StringFixed(2),
			AverageOrders: series.Summary.AverageOrders.StringFixed(2),
		},
	}
	for i, b := range series.Buckets {
		resp.Data[i] = salesBucketResponse{
			Date:   b.Date.Format("2006-01-02"),
			Label:  b.Label,
			Sales:  b.Sales.StringFixed(2),
			Orders: b.Orders,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /admin/analytics/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Snapshot(r.Context(), time.Now())
	if err != nil {
		log.Printf("ERROR: dashboard stats: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dashboardStatsResponse{
		Today:         toWindowResponse(stats.Today),
		Week:          toWindowResponse(stats.Week),
		Month:         toWindowResponse(stats.Month),
		AllTime:       toWindowResponse(stats.AllTime),
		TotalUsers:    stats.TotalUsers,
		TotalItems:    stats.TotalItems,
		PendingOrders: stats.PendingOrders,
	})
}

// --- Helpers ---

func toWindowResponse(w service.WindowTotals) windowTotalsResponse {
	return windowTotalsResponse{
		Sales:  w.Sales.StringFixed(2),
		Orders: w.Orders,
	}
}
