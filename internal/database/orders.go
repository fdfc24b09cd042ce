package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, status, total_amount, payment_method, order_type, created_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.PaymentMethod, &o.OrderType, &o.CreatedAt)
	return o, err
}

const createOrder = `
INSERT INTO orders (user_id, total_amount, payment_method, order_type)
VALUES ($1, $2, $3, $4)
RETURNING ` + orderColumns + `
`

type CreateOrderParams struct {
	UserID        int64
	TotalAmount   pgtype.Numeric
	PaymentMethod string
	OrderType     string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.UserID,
		arg.TotalAmount,
		arg.PaymentMethod,
		arg.OrderType,
	))
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, combo_deal_id, name, price, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, menu_item_id, combo_deal_id, name, price, quantity
`

type CreateOrderItemParams struct {
	OrderID     int64
	MenuItemID  pgtype.Int8
	ComboDealID pgtype.Int8
	Name        string
	Price       pgtype.Numeric
	Quantity    int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.ComboDealID,
		arg.Name,
		arg.Price,
		arg.Quantity,
	)
	var oi OrderItem
	err := row.Scan(&oi.ID, &oi.OrderID, &oi.MenuItemID, &oi.ComboDealID, &oi.Name, &oi.Price, &oi.Quantity)
	return oi, err
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const listOrdersByUser = `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListOrdersByUser(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrdersWithCustomer = `
SELECT o.id, o.user_id, o.status, o.total_amount, o.payment_method, o.order_type, o.created_at,
       u.username
FROM orders o
JOIN users u ON u.id = o.user_id
ORDER BY o.created_at DESC
`

type OrderWithCustomer struct {
	Order
	Username string
}

func (q *Queries) ListOrdersWithCustomer(ctx context.Context) ([]OrderWithCustomer, error) {
	rows, err := q.db.Query(ctx, listOrdersWithCustomer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []OrderWithCustomer
	for rows.Next() {
		var o OrderWithCustomer
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.PaymentMethod,
			&o.OrderType, &o.CreatedAt, &o.Username); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderItemsByOrder = `
SELECT id, order_id, menu_item_id, combo_deal_id, name, price, quantity
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var oi OrderItem
		if err := rows.Scan(&oi.ID, &oi.OrderID, &oi.MenuItemID, &oi.ComboDealID, &oi.Name, &oi.Price, &oi.Quantity); err != nil {
			return nil, err
		}
		items = append(items, oi)
	}
	return items, rows.Err()
}

const updateOrderStatus = `
UPDATE orders
SET status = $2
WHERE id = $1
RETURNING ` + orderColumns + `
`

type UpdateOrderStatusParams struct {
	ID     int64
	Status string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status))
}

const clearMenuItemFromOrderItems = `
UPDATE order_items
SET menu_item_id = NULL
WHERE menu_item_id = $1
`

// ClearMenuItemFromOrderItems detaches ledger lines from a menu item that
// is being deleted. Snapshot fields (name, price, quantity) are untouched.
func (q *Queries) ClearMenuItemFromOrderItems(ctx context.Context, menuItemID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, clearMenuItemFromOrderItems, menuItemID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const countOrdersByStatus = `
SELECT COUNT(*) FROM orders WHERE status = $1
`

func (q *Queries) CountOrdersByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countOrdersByStatus, status).Scan(&count)
	return count, err
}
