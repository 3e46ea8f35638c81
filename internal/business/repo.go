package business

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("business not found")

type Repo struct {
	DB *pgxpool.Pool

	// DefaultLogo is used when a restaurant registers without one.
	DefaultLogo string
}

const businessCols = `id, business_name, owner_full_name, email, business_type,
	phone, address, latitude, longitude, logo, user_id, categories, is_open, status`

type NewBusiness struct {
	Name         string
	OwnerName    string
	Email        string
	BusinessType string
	Phone        string
	Address      string
	Latitude     float64
	Longitude    float64
	Logo         string
	UserID       int64
	Categories   Categories
}

// Create registers a restaurant awaiting admin approval.
func (r *Repo) Create(ctx context.Context, b NewBusiness) (int64, error) {
	logo := b.Logo
	if logo == "" {
		logo = r.DefaultLogo
	}
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO business
			(business_name, owner_full_name, email, business_type, phone, address,
			 latitude, longitude, logo, user_id, categories, is_open, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,false,'pending')
		RETURNING id`,
		b.Name, b.OwnerName, b.Email, b.BusinessType, b.Phone, b.Address,
		b.Latitude, b.Longitude, logo, b.UserID, encodeCategories(b.Categories),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create business: %w", err)
	}
	return id, nil
}

func (r *Repo) ByEmail(ctx context.Context, email string) (Business, error) {
	return r.one(ctx, `SELECT `+businessCols+` FROM business WHERE email = $1`, email)
}

func (r *Repo) ByUserID(ctx context.Context, userID int64) (Business, error) {
	return r.one(ctx, `SELECT `+businessCols+` FROM business WHERE user_id = $1 LIMIT 1`, userID)
}

func (r *Repo) ByID(ctx context.Context, id int64) (Business, error) {
	return r.one(ctx, `SELECT `+businessCols+` FROM business WHERE id = $1`, id)
}

func (r *Repo) All(ctx context.Context) ([]Business, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+businessCols+` FROM business ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var out []Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) Locations(ctx context.Context) ([]Location, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, business_name, latitude, longitude, address FROM business`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude, &l.Address); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) SetOpen(ctx context.Context, id int64, isOpen bool) error {
	return r.updateOne(ctx, `UPDATE business SET is_open = $2 WHERE id = $1`, id, isOpen)
}

// SetStatus is the admin approval switch (pending -> approved/rejected).
func (r *Repo) SetStatus(ctx context.Context, id int64, status Status) error {
	return r.updateOne(ctx, `UPDATE business SET status = $2 WHERE id = $1`, id, string(status))
}

func (r *Repo) updateOne(ctx context.Context, query string, id int64, arg any) error {
	ct, err := r.DB.Exec(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("update business: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type NewMenuItem struct {
	BusinessID   int64
	BusinessName string
	Category     string
	ProductName  string
	Price        decimal.Decimal
	Description  string
	Image        *string
}

func (r *Repo) AddMenuItem(ctx context.Context, m NewMenuItem) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO menu (business_id, business_name, category, product_name, price, description, image)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id`,
		m.BusinessID, m.BusinessName, m.Category, m.ProductName, m.Price, m.Description, m.Image,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add menu item: %w", err)
	}
	return id, nil
}

func (r *Repo) MenuByBusiness(ctx context.Context, businessID int64) ([]MenuItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, business_id, business_name, category, product_name, price, description, image
		FROM menu
		WHERE business_id = $1
		ORDER BY category, product_name`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	defer rows.Close()

	var out []MenuItem
	for rows.Next() {
		var m MenuItem
		err := rows.Scan(&m.ID, &m.BusinessID, &m.BusinessName, &m.Category,
			&m.ProductName, &m.Price, &m.Description, &m.Image)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) one(ctx context.Context, query string, args ...any) (Business, error) {
	row := r.DB.QueryRow(ctx, query, args...)
	b, err := scanBusiness(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Business{}, ErrNotFound
	}
	return b, err
}

func scanBusiness(row pgx.Row) (Business, error) {
	var (
		b   Business
		raw string
	)
	err := row.Scan(&b.ID, &b.Name, &b.OwnerName, &b.Email, &b.BusinessType,
		&b.Phone, &b.Address, &b.Latitude, &b.Longitude, &b.Logo, &b.UserID,
		&raw, &b.IsOpen, &b.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Business{}, err
		}
		return Business{}, fmt.Errorf("scan business: %w", err)
	}
	b.Categories = decodeCategories(raw)
	return b, nil
}
