package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/middleware"
	"github.com/savoria/api/internal/service"
	"github.com/savoria/api/internal/ws"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id int64) (database.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error)
}

// Broadcaster pushes events to connected admin dashboards.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// OrderHandler handles customer order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers customer order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
}

// --- Request / Response types ---

// cartItemRequest is one checkout line as sent by the storefront. The ID
// is a RawMessage because clients send menu item IDs as numbers and combo
// tokens ("combo-<id>-<nonce>") as strings.
type cartItemRequest struct {
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	Price    float64         `json:"price"`
	Quantity int32           `json:"quantity"`
}

type createOrderRequest struct {
	TotalAmount   float64           `json:"total_amount"`
	PaymentMethod string            `json:"payment_method"`
	OrderType     string            `json:"order_type"`
	Items         []cartItemRequest `json:"items"`
}

type orderItemResponse struct {
	ID          int64  `json:"id"`
	MenuItemID  *int64 `json:"menu_item_id"`
	ComboDealID *int64 `json:"combo_deal_id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Quantity    int32  `json:"quantity"`
}

type orderResponse struct {
	ID            int64               `json:"id"`
	UserID        int64               `json:"user_id"`
	Status        string              `json:"status"`
	TotalAmount   string              `json:"total_amount"`
	PaymentMethod string              `json:"payment_method"`
	OrderType     string              `json:"order_type"`
	CreatedAt     time.Time           `json:"created_at"`
	Items         []orderItemResponse `json:"items"`
}

// --- Handlers ---

// Create handles POST /orders. The order and every line item are written
// atomically; a created order is broadcast to admin dashboards.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if math.IsNaN(req.TotalAmount) || math.IsInf(req.TotalAmount, 0) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "total_amount must be a finite number"})
		return
	}

	lines := make([]service.CartLine, len(req.Items))
	for i, item := range req.Items {
		if math.IsNaN(item.Price) || math.IsInf(item.Price, 0) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "price must be a finite number"),
			})
			return
		}
		lines[i] = service.CartLine{
			RawID:    rawIDString(item.ID),
			Name:     item.Name,
			Price:    decimal.NewFromFloat(item.Price),
			Quantity: item.Quantity,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		UserID:        claims.UserID,
		Total:         decimal.NewFromFloat(req.TotalAmount),
		PaymentMethod: req.PaymentMethod,
		OrderType:     req.OrderType,
		Lines:         lines,
	})
	if err != nil {
		if isOrderValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(result.Order, result.Items)
	h.broadcastOrderEvent(ws.EventOrderCreated, resp)

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /orders, most recent first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orders, err := h.store.ListOrdersByUser(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		items, err := h.store.ListOrderItemsByOrder(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp[i] = toOrderResponse(o, items)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}. Orders belonging to other users read as
// not found rather than forbidden.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if order.UserID != claims.UserID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// --- Helpers ---

func (h *OrderHandler) broadcastOrderEvent(eventType string, resp orderResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		log.Printf("ERROR: marshal %s payload: %v", eventType, err)
		return
	}
	h.hub.Broadcast(ws.Event{Type: eventType, Payload: payload})
}

// rawIDString normalizes a cart line identifier: both 42 and "42" become
// "42", and combo tokens pass through unchanged.
func rawIDString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

// isOrderValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyLines) ||
		errors.Is(err, service.ErrInvalidPayment) ||
		errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidPrice) ||
		errors.Is(err, service.ErrInvalidTotal) ||
		errors.Is(err, service.ErrMissingName)
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		TotalAmount:   numericToString(o.TotalAmount),
		PaymentMethod: o.PaymentMethod,
		OrderType:     o.OrderType,
		CreatedAt:     o.CreatedAt,
		Items:         make([]orderItemResponse, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = toOrderItemResponse(item)
	}
	return resp
}

func toOrderItemResponse(item database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:       item.ID,
		Name:     item.Name,
		Price:    numericToString(item.Price),
		Quantity: item.Quantity,
	}
	if item.MenuItemID.Valid {
		resp.MenuItemID = &item.MenuItemID.Int64
	}
	if item.ComboDealID.Valid {
		resp.ComboDealID = &item.ComboDealID.Int64
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
