package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const orderCols = `id, customer_id, customer_name, phone_number, delivery_address,
	latitude, longitude, restaurant_id, restaurant_name, total_amount, status,
	is_accepted, rider_id, rider_name, COALESCE(rider_earnings, 0), created_at,
	picked_up_at, delivered_at`

// Create persists the order row and all of its items in one transaction.
// Either everything commits or nothing does: an item insert failure rolls the
// order back too.
func (r *Repo) Create(ctx context.Context, ord NewOrder, items []OrderItem) (orderID int64, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, persistErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders
			(customer_id, customer_name, phone_number, delivery_address,
			 latitude, longitude, restaurant_id, restaurant_name, total_amount,
			 status, is_accepted, rider_id, rider_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'pending',false,NULL,NULL)
		RETURNING id`,
		ord.CustomerID, ord.CustomerName, ord.PhoneNumber, ord.DeliveryAddress,
		ord.Latitude, ord.Longitude, ord.RestaurantID, ord.RestaurantName,
		ord.TotalAmount,
	).Scan(&orderID)
	if err != nil {
		return 0, persistErr("insert order", err)
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price, image)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			orderID, it.ProductID, it.ProductName, it.Quantity, it.Price, it.Image,
		)
		if err != nil {
			return 0, persistErr("insert item", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, persistErr("commit", err)
	}
	return orderID, nil
}

// Every transition is a conditional update: the guard travels with the write,
// so of two racing actors at most one sees RowsAffected==1. The loser gets
// ErrInvalidTransition (or ErrNotFound when the row never existed).

func (r *Repo) Prepare(ctx context.Context, orderID int64) error {
	return r.transition(ctx, orderID, "prepare", `
		UPDATE orders SET status = 'preparing'
		WHERE id = $1 AND status = 'pending'`, orderID)
}

func (r *Repo) MarkReady(ctx context.Context, orderID int64) error {
	return r.transition(ctx, orderID, "mark ready", `
		UPDATE orders SET status = 'ready'
		WHERE id = $1 AND status = 'preparing'`, orderID)
}

// AssignRider is the exclusivity point: the same update checks status and the
// absence of a rider, so a ready order can be claimed exactly once.
func (r *Repo) AssignRider(ctx context.Context, orderID, riderID int64, riderName string) error {
	return r.transition(ctx, orderID, "assign rider", `
		UPDATE orders
		SET is_accepted = true, rider_id = $2, rider_name = $3,
		    status = 'accepted', picked_up_at = now()
		WHERE id = $1 AND status = 'ready' AND rider_id IS NULL`,
		orderID, riderID, riderName)
}

func (r *Repo) Complete(ctx context.Context, orderID int64) error {
	return r.transition(ctx, orderID, "complete", `
		UPDATE orders SET status = 'completed', delivered_at = now()
		WHERE id = $1 AND status = 'accepted'`, orderID)
}

func (r *Repo) transition(ctx context.Context, orderID int64, op, query string, args ...any) error {
	ct, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return persistErr(op, err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	// Zero rows: tell "wrong state / already claimed" apart from "no such
	// order" so the caller can answer 409 vs 404.
	var exists bool
	err = r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return persistErr(op, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

func (r *Repo) GetStatus(ctx context.Context, orderID int64) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", persistErr("get status", err)
	}
	return Status(s), nil
}

func (r *Repo) ByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return r.list(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC`, customerID)
}

// ByRestaurant orders actionable buckets first (pending, preparing, ready)
// and history last, newest-first within each bucket.
func (r *Repo) ByRestaurant(ctx context.Context, restaurantID int64) ([]Order, error) {
	return r.list(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE restaurant_id = $1
		ORDER BY
			CASE status
				WHEN 'pending'   THEN 1
				WHEN 'preparing' THEN 2
				WHEN 'ready'     THEN 3
				WHEN 'accepted'  THEN 4
				WHEN 'completed' THEN 5
				ELSE 6
			END,
			created_at DESC`, restaurantID)
}

// AvailableJobs lists unclaimed ready orders oldest-first, so riders drain the
// queue fairly.
func (r *Repo) AvailableJobs(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE status = 'ready' AND rider_id IS NULL
		ORDER BY created_at ASC`)
}

func (r *Repo) AcceptedByRider(ctx context.Context, riderID int64) ([]Order, error) {
	return r.list(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE is_accepted = true AND rider_id = $1 AND status = 'accepted'
		ORDER BY created_at DESC`, riderID)
}

func (r *Repo) RiderHistory(ctx context.Context, riderID int64) ([]Order, error) {
	return r.list(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE rider_id = $1 AND status = 'completed'
		ORDER BY delivered_at DESC`, riderID)
}

func (r *Repo) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, persistErr("list orders", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		err := rows.Scan(
			&o.ID, &o.CustomerID, &o.CustomerName, &o.PhoneNumber, &o.DeliveryAddress,
			&o.Latitude, &o.Longitude, &o.RestaurantID, &o.RestaurantName,
			&o.TotalAmount, &o.Status, &o.IsAccepted, &o.RiderID, &o.RiderName,
			&o.RiderEarnings, &o.CreatedAt, &o.PickedUpAt, &o.DeliveredAt,
		)
		if err != nil {
			return nil, persistErr("scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list orders", err)
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads line items for all listed orders in one query instead of
// one round trip per order.
func (r *Repo) attachItems(ctx context.Context, list []Order) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(list))
	byID := make(map[int64]*Order, len(list))
	for i := range list {
		ids = append(ids, list[i].ID)
		byID[list[i].ID] = &list[i]
	}

	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, product_name, quantity, price, image
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id`, ids)
	if err != nil {
		return persistErr("list items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.Image); err != nil {
			return persistErr("scan item", err)
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}
