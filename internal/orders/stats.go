package orders

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
)

// SellerStats builds the restaurant dashboard snapshot. A restaurant with no
// orders yields all-zero counts and "N/A" for the top item, never an error.
func (r *Repo) SellerStats(ctx context.Context, restaurantID int64) (SellerStats, error) {
	var s SellerStats

	err := r.DB.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE created_at::date = CURRENT_DATE),
			COUNT(*) FILTER (WHERE status IN ('pending', 'preparing', 'ready')),
			COUNT(*) FILTER (WHERE status = 'completed' AND delivered_at::date = CURRENT_DATE),
			COALESCE(SUM(total_amount) FILTER (WHERE status = 'completed' AND delivered_at::date = CURRENT_DATE), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM(total_amount) FILTER (WHERE status = 'completed'), 0)
		FROM orders
		WHERE restaurant_id = $1`, restaurantID,
	).Scan(
		&s.TotalOrdersToday, &s.PendingOrders, &s.CompletedToday, &s.RevenueToday,
		&s.TotalOrdersAllTime, &s.CompletedAllTime, &s.RevenueAllTime,
	)
	if err != nil {
		return SellerStats{}, persistErr("seller stats", err)
	}

	// Best seller by summed quantity over completed orders. Ties fall wherever
	// the aggregation puts them.
	err = r.DB.QueryRow(ctx, `
		SELECT oi.product_name, SUM(oi.quantity)::int
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		WHERE o.restaurant_id = $1 AND o.status = 'completed'
		GROUP BY oi.product_id, oi.product_name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT 1`, restaurantID,
	).Scan(&s.TopSellingItem, &s.TopSellingItemQuantity)
	if errors.Is(err, pgx.ErrNoRows) {
		s.TopSellingItem = "N/A"
		s.TopSellingItemQuantity = 0
	} else if err != nil {
		return SellerStats{}, persistErr("top selling item", err)
	}

	// Creation-to-delivery minutes over orders delivered in the trailing
	// 7 days; null delivery timestamps never qualify.
	var avgMinutes float64
	err = r.DB.QueryRow(ctx, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (delivered_at - created_at)) / 60), 0)::float8
		FROM orders
		WHERE restaurant_id = $1
		  AND status = 'completed'
		  AND delivered_at IS NOT NULL
		  AND delivered_at::date >= CURRENT_DATE - INTERVAL '7 days'`, restaurantID,
	).Scan(&avgMinutes)
	if err != nil {
		return SellerStats{}, persistErr("avg prep time", err)
	}
	s.AvgPrepTime = int(math.Round(avgMinutes))

	return s, nil
}

// RiderStats defaults every field to zero when the rider has no orders.
func (r *Repo) RiderStats(ctx context.Context, riderID int64) (RiderStats, error) {
	var s RiderStats
	err := r.DB.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM(rider_earnings) FILTER (WHERE status = 'completed'), 0),
			COALESCE(SUM(rider_earnings) FILTER (WHERE status = 'completed' AND delivered_at::date = CURRENT_DATE), 0)
		FROM orders
		WHERE rider_id = $1`, riderID,
	).Scan(&s.TotalDeliveries, &s.CompletedDeliveries, &s.TotalEarnings, &s.TodayEarnings)
	if err != nil {
		return RiderStats{}, persistErr("rider stats", err)
	}
	return s, nil
}
