package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// SalesTotals is a sum/count rollup over a set of orders. TotalSales is
// COALESCEd to zero so an empty window never yields NULL.
type SalesTotals struct {
	TotalSales pgtype.Numeric
	OrderCount int64
}

const getSalesBetween = `
SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
FROM orders
WHERE created_at BETWEEN $1 AND $2
`

type GetSalesBetweenParams struct {
	StartAt time.Time
	EndAt   time.Time
}

func (q *Queries) GetSalesBetween(ctx context.Context, arg GetSalesBetweenParams) (SalesTotals, error) {
	var t SalesTotals
	err := q.db.QueryRow(ctx, getSalesBetween, arg.StartAt, arg.EndAt).Scan(&t.TotalSales, &t.OrderCount)
	return t, err
}

const getSalesSince = `
SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
FROM orders
WHERE created_at >= $1
`

func (q *Queries) GetSalesSince(ctx context.Context, since time.Time) (SalesTotals, error) {
	var t SalesTotals
	err := q.db.QueryRow(ctx, getSalesSince, since).Scan(&t.TotalSales, &t.OrderCount)
	return t, err
}

const getSalesAllTime = `
SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
FROM orders
`

func (q *Queries) GetSalesAllTime(ctx context.Context) (SalesTotals, error) {
	var t SalesTotals
	err := q.db.QueryRow(ctx, getSalesAllTime).Scan(&t.TotalSales, &t.OrderCount)
	return t, err
}
