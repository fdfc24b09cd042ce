package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, description, price, category, image_url, is_deal, availability`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Category, &m.ImageUrl, &m.IsDeal, &m.Availability)
	return m, err
}

const listMenuItems = `
SELECT ` + menuItemColumns + `
FROM menu_items
ORDER BY id
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const listAvailableMenuItems = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE availability = TRUE
ORDER BY id
`

func (q *Queries) ListAvailableMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listAvailableMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const getMenuItem = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id int64) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const menuItemExists = `
SELECT EXISTS(SELECT 1 FROM menu_items WHERE id = $1)
`

func (q *Queries) MenuItemExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, menuItemExists, id).Scan(&exists)
	return exists, err
}

const createMenuItem = `
INSERT INTO menu_items (name, description, price, category, image_url, is_deal, availability)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + menuItemColumns + `
`

type CreateMenuItemParams struct {
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	Category     string
	ImageUrl     pgtype.Text
	IsDeal       bool
	Availability bool
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.Category,
		arg.ImageUrl,
		arg.IsDeal,
		arg.Availability,
	))
}

const updateMenuItem = `
UPDATE menu_items
SET name = $2, description = $3, price = $4, category = $5, image_url = $6,
    is_deal = $7, availability = $8
WHERE id = $1
RETURNING ` + menuItemColumns + `
`

type UpdateMenuItemParams struct {
	ID           int64
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	Category     string
	ImageUrl     pgtype.Text
	IsDeal       bool
	Availability bool
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.Category,
		arg.ImageUrl,
		arg.IsDeal,
		arg.Availability,
	))
}

const deleteMenuItem = `
DELETE FROM menu_items WHERE id = $1
`

func (q *Queries) DeleteMenuItem(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteMenuItem, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const countMenuItems = `
SELECT COUNT(*) FROM menu_items
`

func (q *Queries) CountMenuItems(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countMenuItems).Scan(&count)
	return count, err
}

const countMenuItemsByCategory = `
SELECT COUNT(*) FROM menu_items WHERE category = $1
`

func (q *Queries) CountMenuItemsByCategory(ctx context.Context, category string) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countMenuItemsByCategory, category).Scan(&count)
	return count, err
}

const listDistinctItemCategories = `
SELECT DISTINCT category FROM menu_items ORDER BY category
`

func (q *Queries) ListDistinctItemCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listDistinctItemCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
