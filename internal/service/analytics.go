package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Granularities accepted by Aggregate.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Bucket counts per granularity.
const (
	dayBuckets   = 30
	weekBuckets  = 12
	monthBuckets = 12
	yearBuckets  = 5
)

var ErrInvalidPeriod = errors.New("invalid period")

// AnalyticsStore defines the rollup queries the aggregator reads from.
// Satisfied by *database.Queries.
type AnalyticsStore interface {
	GetSalesBetween(ctx context.Context, arg database.GetSalesBetweenParams) (database.SalesTotals, error)
	GetSalesSince(ctx context.Context, since time.Time) (database.SalesTotals, error)
	GetSalesAllTime(ctx context.Context) (database.SalesTotals, error)
	CountUsers(ctx context.Context) (int64, error)
	CountMenuItems(ctx context.Context) (int64, error)
	CountOrdersByStatus(ctx context.Context, status string) (int64, error)
}

// SalesBucket is one interval of a sales time series.
type SalesBucket struct {
	Date   time.Time
	Label  string
	Sales  decimal.Decimal
	Orders int64
}

// SalesSummary aggregates a whole series. Averages divide by the bucket
// count, so empty buckets pull the average down instead of being excluded.
type SalesSummary struct {
	TotalSales    decimal.Decimal
	TotalOrders   int64
	AverageSales  decimal.Decimal
	AverageOrders decimal.Decimal
}

// SalesSeries is a fixed-length, contiguous, zero-filled time series.
type SalesSeries struct {
	Period  string
	Buckets []SalesBucket
	Summary SalesSummary
}

// WindowTotals is a sum/count pair for one dashboard window.
type WindowTotals struct {
	Sales  decimal.Decimal
	Orders int64
}

// DashboardStats is the non-bucketed rollup for the admin dashboard.
type DashboardStats struct {
	Today         WindowTotals
	Week          WindowTotals
	Month         WindowTotals
	AllTime       WindowTotals
	TotalUsers    int64
	TotalItems    int64
	PendingOrders int64
}

// AnalyticsService produces sales series and dashboard rollups from the
// order ledger.
type AnalyticsService struct {
	store AnalyticsStore
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// Aggregate returns the sales series for one granularity, ending at the
// bucket containing now. The series always has its full bucket count, oldest
// first, with zero-filled gaps; sparse order history shortens nothing.
func (s *AnalyticsService) Aggregate(ctx context.Context, period string, now time.Time) (*SalesSeries, error) {
	var buckets []SalesBucket
	var err error

	switch period {
	case PeriodDay:
		buckets, err = s.collectBuckets(ctx, dayBuckets, func(i int) (time.Time, time.Time, string) {
			start := startOfDay(now).AddDate(0, 0, -(dayBuckets - 1 - i))
			return start, bucketEnd(start.AddDate(0, 0, 1)), start.Format("01/02")
		})
	case PeriodWeek:
		base := startOfWeek(now)
		buckets, err = s.collectBuckets(ctx, weekBuckets, func(i int) (time.Time, time.Time, string) {
			start := base.AddDate(0, 0, -7*(weekBuckets-1-i))
			return start, bucketEnd(start.AddDate(0, 0, 7)), "Week " + start.Format("01/02")
		})
	case PeriodMonth:
		base := startOfMonth(now)
		buckets, err = s.collectBuckets(ctx, monthBuckets, func(i int) (time.Time, time.Time, string) {
			start := base.AddDate(0, -(monthBuckets - 1 - i), 0)
			return start, bucketEnd(start.AddDate(0, 1, 0)), start.Format("Jan 2006")
		})
	case PeriodYear:
		base := startOfYear(now)
		buckets, err = s.collectBuckets(ctx, yearBuckets, func(i int) (time.Time, time.Time, string) {
			start := base.AddDate(-(yearBuckets - 1 - i), 0, 0)
			return start, bucketEnd(start.AddDate(1, 0, 0)), strconv.Itoa(start.Year())
		})
	default:
		return nil, ErrInvalidPeriod
	}
	if err != nil {
		return nil, err
	}

	return &SalesSeries{
		Period:  period,
		Buckets: buckets,
		Summary: summarize(buckets),
	}, nil
}

// collectBuckets runs one rollup query per bucket. boundsFor maps a bucket
// index (0 = oldest) to its closed interval and label.
func (s *AnalyticsService) collectBuckets(ctx context.Context, n int, boundsFor func(i int) (start, end time.Time, label string)) ([]SalesBucket, error) {
	buckets := make([]SalesBucket, n)
	for i := 0; i < n; i++ {
		start, end, label := boundsFor(i)
		totals, err := s.store.GetSalesBetween(ctx, database.GetSalesBetweenParams{
			StartAt: start,
			EndAt:   end,
		})
		if err != nil {
			return nil, fmt.Errorf("sales for bucket %s: %w", label, err)
		}
		buckets[i] = SalesBucket{
			Date:   start,
			Label:  label,
			Sales:  numericToDecimal(totals.TotalSales),
			Orders: totals.OrderCount,
		}
	}
	return buckets, nil
}

func summarize(buckets []SalesBucket) SalesSummary {
	summary := SalesSummary{TotalSales: decimal.Zero}
	for _, b := range buckets {
		summary.TotalSales = summary.TotalSales.Add(b.Sales)
		summary.TotalOrders += b.Orders
	}
	if n := int64(len(buckets)); n > 0 {
		count := decimal.NewFromInt(n)
		summary.AverageSales = summary.TotalSales.Div(count)
		summary.AverageOrders = decimal.NewFromInt(summary.TotalOrders).Div(count)
	} else {
		summary.AverageSales = decimal.Zero
		summary.AverageOrders = decimal.Zero
	}
	return summary
}

// Snapshot returns the dashboard rollup: today since local midnight, the
// trailing 7 days, month to date, and all time, plus catalog-wide counts
// and the live pending-order count.
func (s *AnalyticsService) Snapshot(ctx context.Context, now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{}

	windows := []struct {
		since time.Time
		dest  *WindowTotals
	}{
		{startOfDay(now), &stats.Today},
		{now.AddDate(0, 0, -7), &stats.Week},
		{startOfMonth(now), &stats.Month},
	}
	for _, w := range windows {
		totals, err := s.store.GetSalesSince(ctx, w.since)
		if err != nil {
			return nil, fmt.Errorf("sales since %s: %w", w.since.Format(time.RFC3339), err)
		}
		w.dest.Sales = numericToDecimal(totals.TotalSales)
		w.dest.Orders = totals.OrderCount
	}

	allTime, err := s.store.GetSalesAllTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("all-time sales: %w", err)
	}
	stats.AllTime.Sales = numericToDecimal(allTime.TotalSales)
	stats.AllTime.Orders = allTime.OrderCount

	if stats.TotalUsers, err = s.store.CountUsers(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.TotalItems, err = s.store.CountMenuItems(ctx); err != nil {
		return nil, fmt.Errorf("count menu items: %w", err)
	}
	if stats.PendingOrders, err = s.store.CountOrdersByStatus(ctx, enum.OrderStatusPending); err != nil {
		return nil, fmt.Errorf("count pending orders: %w", err)
	}

	return stats, nil
}
