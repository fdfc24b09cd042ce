package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const categoryColumns = `id, name, description, is_active, created_at`

func scanCategory(row interface{ Scan(dest ...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt)
	return c, err
}

const listActiveCategories = `
SELECT ` + categoryColumns + `
FROM categories
WHERE is_active = TRUE
ORDER BY name
`

func (q *Queries) ListActiveCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listActiveCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

const listCategories = `
SELECT ` + categoryColumns + `
FROM categories
ORDER BY name
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

const getCategory = `
SELECT ` + categoryColumns + `
FROM categories
WHERE id = $1
`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, getCategory, id))
}

const createCategory = `
INSERT INTO categories (name, description, is_active)
VALUES ($1, $2, $3)
RETURNING ` + categoryColumns + `
`

type CreateCategoryParams struct {
	Name        string
	Description pgtype.Text
	IsActive    bool
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, createCategory, arg.Name, arg.Description, arg.IsActive))
}

const updateCategory = `
UPDATE categories
SET name = $2, description = $3, is_active = $4
WHERE id = $1
RETURNING ` + categoryColumns + `
`

type UpdateCategoryParams struct {
	ID          int64
	Name        string
	Description pgtype.Text
	IsActive    bool
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, updateCategory, arg.ID, arg.Name, arg.Description, arg.IsActive))
}

const deactivateCategory = `
UPDATE categories
SET is_active = FALSE
WHERE id = $1
RETURNING ` + categoryColumns + `
`

func (q *Queries) DeactivateCategory(ctx context.Context, id int64) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, deactivateCategory, id))
}

const deleteCategory = `
DELETE FROM categories WHERE id = $1
`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listActiveCategoryNames = `
SELECT name FROM categories WHERE is_active = TRUE
`

func (q *Queries) ListActiveCategoryNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listActiveCategoryNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
