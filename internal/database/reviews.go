package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createReview = `
INSERT INTO reviews (user_id, menu_item_id, combo_deal_id, rating, comment)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, menu_item_id, combo_deal_id, rating, comment, created_at
`

type CreateReviewParams struct {
	UserID      int64
	MenuItemID  pgtype.Int8
	ComboDealID pgtype.Int8
	Rating      int32
	Comment     pgtype.Text
}

func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) (Review, error) {
	row := q.db.QueryRow(ctx, createReview,
		arg.UserID,
		arg.MenuItemID,
		arg.ComboDealID,
		arg.Rating,
		arg.Comment,
	)
	var rv Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.MenuItemID, &rv.ComboDealID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	return rv, err
}

const listReviewsByMenuItem = `
SELECT r.id, r.user_id, r.menu_item_id, r.combo_deal_id, r.rating, r.comment, r.created_at,
       u.username
FROM reviews r
JOIN users u ON u.id = r.user_id
WHERE r.menu_item_id = $1
ORDER BY r.created_at DESC
`

type ReviewWithAuthor struct {
	Review
	Username string
}

func (q *Queries) ListReviewsByMenuItem(ctx context.Context, menuItemID int64) ([]ReviewWithAuthor, error) {
	rows, err := q.db.Query(ctx, listReviewsByMenuItem, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reviews []ReviewWithAuthor
	for rows.Next() {
		var rv ReviewWithAuthor
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.MenuItemID, &rv.ComboDealID, &rv.Rating,
			&rv.Comment, &rv.CreatedAt, &rv.Username); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

const listAllReviews = `
SELECT r.id, r.user_id, r.menu_item_id, r.combo_deal_id, r.rating, r.comment, r.created_at,
       u.username, m.name, c.name
FROM reviews r
JOIN users u ON u.id = r.user_id
LEFT JOIN menu_items m ON m.id = r.menu_item_id
LEFT JOIN combo_deals c ON c.id = r.combo_deal_id
ORDER BY r.created_at DESC
`

// ReviewDetail joins a review with its author and the current name of the
// reviewed entity, either of which may be gone.
type ReviewDetail struct {
	Review
	Username      string
	MenuItemName  pgtype.Text
	ComboDealName pgtype.Text
}

func (q *Queries) ListAllReviews(ctx context.Context) ([]ReviewDetail, error) {
	rows, err := q.db.Query(ctx, listAllReviews)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reviews []ReviewDetail
	for rows.Next() {
		var rv ReviewDetail
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.MenuItemID, &rv.ComboDealID, &rv.Rating,
			&rv.Comment, &rv.CreatedAt, &rv.Username, &rv.MenuItemName, &rv.ComboDealName); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

const deleteReviewsByMenuItem = `
DELETE FROM reviews WHERE menu_item_id = $1
`

func (q *Queries) DeleteReviewsByMenuItem(ctx context.Context, menuItemID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteReviewsByMenuItem, menuItemID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
