package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const comboDealColumns = `id, name, description, combo_price, image_url, category, is_active`

func scanComboDeal(row interface{ Scan(dest ...any) error }) (ComboDeal, error) {
	var c ComboDeal
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ComboPrice, &c.ImageUrl, &c.Category, &c.IsActive)
	return c, err
}

const listActiveComboDeals = `
SELECT ` + comboDealColumns + `
FROM combo_deals
WHERE is_active = TRUE
ORDER BY id
`

func (q *Queries) ListActiveComboDeals(ctx context.Context) ([]ComboDeal, error) {
	rows, err := q.db.Query(ctx, listActiveComboDeals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var combos []ComboDeal
	for rows.Next() {
		c, err := scanComboDeal(rows)
		if err != nil {
			return nil, err
		}
		combos = append(combos, c)
	}
	return combos, rows.Err()
}

const listComboDeals = `
SELECT ` + comboDealColumns + `
FROM combo_deals
ORDER BY id
`

func (q *Queries) ListComboDeals(ctx context.Context) ([]ComboDeal, error) {
	rows, err := q.db.Query(ctx, listComboDeals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var combos []ComboDeal
	for rows.Next() {
		c, err := scanComboDeal(rows)
		if err != nil {
			return nil, err
		}
		combos = append(combos, c)
	}
	return combos, rows.Err()
}

const getComboDeal = `
SELECT ` + comboDealColumns + `
FROM combo_deals
WHERE id = $1
`

func (q *Queries) GetComboDeal(ctx context.Context, id int64) (ComboDeal, error) {
	return scanComboDeal(q.db.QueryRow(ctx, getComboDeal, id))
}

const comboDealExists = `
SELECT EXISTS(SELECT 1 FROM combo_deals WHERE id = $1)
`

func (q *Queries) ComboDealExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, comboDealExists, id).Scan(&exists)
	return exists, err
}

const createComboDeal = `
INSERT INTO combo_deals (name, description, combo_price, image_url, category, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + comboDealColumns + `
`

type CreateComboDealParams struct {
	Name        string
	Description pgtype.Text
	ComboPrice  pgtype.Numeric
	ImageUrl    pgtype.Text
	Category    pgtype.Text
	IsActive    bool
}

func (q *Queries) CreateComboDeal(ctx context.Context, arg CreateComboDealParams) (ComboDeal, error) {
	return scanComboDeal(q.db.QueryRow(ctx, createComboDeal,
		arg.Name,
		arg.Description,
		arg.ComboPrice,
		arg.ImageUrl,
		arg.Category,
		arg.IsActive,
	))
}

const updateComboDeal = `
UPDATE combo_deals
SET name = $2, description = $3, combo_price = $4, image_url = $5, category = $6
WHERE id = $1
RETURNING ` + comboDealColumns + `
`

type UpdateComboDealParams struct {
	ID          int64
	Name        string
	Description pgtype.Text
	ComboPrice  pgtype.Numeric
	ImageUrl    pgtype.Text
	Category    pgtype.Text
}

func (q *Queries) UpdateComboDeal(ctx context.Context, arg UpdateComboDealParams) (ComboDeal, error) {
	return scanComboDeal(q.db.QueryRow(ctx, updateComboDeal,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.ComboPrice,
		arg.ImageUrl,
		arg.Category,
	))
}

const deactivateComboDeal = `
UPDATE combo_deals
SET is_active = FALSE
WHERE id = $1
RETURNING ` + comboDealColumns + `
`

func (q *Queries) DeactivateComboDeal(ctx context.Context, id int64) (ComboDeal, error) {
	return scanComboDeal(q.db.QueryRow(ctx, deactivateComboDeal, id))
}

const createComboDealItem = `
INSERT INTO combo_deal_items (combo_deal_id, menu_item_id, quantity)
VALUES ($1, $2, $3)
RETURNING id, combo_deal_id, menu_item_id, quantity
`

type CreateComboDealItemParams struct {
	ComboDealID int64
	MenuItemID  int64
	Quantity    int32
}

func (q *Queries) CreateComboDealItem(ctx context.Context, arg CreateComboDealItemParams) (ComboDealItem, error) {
	row := q.db.QueryRow(ctx, createComboDealItem, arg.ComboDealID, arg.MenuItemID, arg.Quantity)
	var ci ComboDealItem
	err := row.Scan(&ci.ID, &ci.ComboDealID, &ci.MenuItemID, &ci.Quantity)
	return ci, err
}

const listComboDealMembers = `
SELECT cdi.id, cdi.combo_deal_id, cdi.menu_item_id, cdi.quantity,
       m.name, m.price, m.category, m.image_url
FROM combo_deal_items cdi
JOIN menu_items m ON m.id = cdi.menu_item_id
WHERE cdi.combo_deal_id = $1
ORDER BY cdi.id
`

// ComboDealMember is a membership row joined with the live menu item it
// references. Name/price/category reflect current catalog state.
type ComboDealMember struct {
	ID          int64
	ComboDealID int64
	MenuItemID  int64
	Quantity    int32
	Name        string
	Price       pgtype.Numeric
	Category    string
	ImageUrl    pgtype.Text
}

func (q *Queries) ListComboDealMembers(ctx context.Context, comboDealID int64) ([]ComboDealMember, error) {
	rows, err := q.db.Query(ctx, listComboDealMembers, comboDealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []ComboDealMember
	for rows.Next() {
		var m ComboDealMember
		if err := rows.Scan(&m.ID, &m.ComboDealID, &m.MenuItemID, &m.Quantity,
			&m.Name, &m.Price, &m.Category, &m.ImageUrl); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

const deleteComboDealItemsByMenuItem = `
DELETE FROM combo_deal_items WHERE menu_item_id = $1
`

func (q *Queries) DeleteComboDealItemsByMenuItem(ctx context.Context, menuItemID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteComboDealItemsByMenuItem, menuItemID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
