package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusPickedUp  = "picked_up"
)

const (
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
)

// ── Checkout attributes (CHECK constrained in DB) ──

const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)

const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"
)

// ── Access control ──

const (
	UserRoleCustomer = "customer"
	UserRoleAdmin    = "admin"
)

// ValidOrderStatus reports whether s is a member of the order status enum.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady,
		OrderStatusDelivered, OrderStatusPickedUp:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether s is a member of the payment method enum.
func ValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard:
		return true
	}
	return false
}

// ValidOrderType reports whether s is a member of the order type enum.
func ValidOrderType(s string) bool {
	switch s {
	case OrderTypePickup, OrderTypeDelivery:
		return true
	}
	return false
}

// ValidReservationStatus reports whether s is a member of the reservation status enum.
func ValidReservationStatus(s string) bool {
	switch s {
	case ReservationStatusConfirmed, ReservationStatusCancelled:
		return true
	}
	return false
}
