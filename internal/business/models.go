package business

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Categories is the set of cuisine tags a restaurant advertises. It is stored
// as a single text column; encoding and decoding happen only at the storage
// boundary (see encodeCategories / decodeCategories).
type Categories []string

type Business struct {
	ID           int64      `json:"id"`
	Name         string     `json:"businessName"`
	OwnerName    string     `json:"ownerFullName"`
	Email        string     `json:"email"`
	BusinessType string     `json:"businessType"`
	Phone        string     `json:"phone"`
	Address      string     `json:"address"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	Logo         string     `json:"logo"`
	UserID       int64      `json:"userId"`
	Categories   Categories `json:"categories"`
	IsOpen       bool       `json:"isOpen"`
	Status       Status     `json:"status"`
}

type MenuItem struct {
	ID           int64           `json:"id"`
	BusinessID   int64           `json:"businessId"`
	BusinessName string          `json:"businessName"`
	Category     string          `json:"category"`
	ProductName  string          `json:"productName"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Image        *string         `json:"image"`
}

// Location is the map-pin projection of a business.
type Location struct {
	ID        int64   `json:"id"`
	Name      string  `json:"businessName"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

func encodeCategories(c Categories) string {
	if len(c) == 0 {
		return "[]"
	}
	b, err := json.Marshal([]string(c))
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeCategories accepts the JSON form written by encodeCategories and the
// legacy comma-separated form some rows still carry.
func decodeCategories(raw string) Categories {
	if raw == "" {
		return Categories{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		if out == nil {
			return Categories{}
		}
		return out
	}
	parts := strings.Split(raw, ",")
	cats := make(Categories, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			cats = append(cats, t)
		}
	}
	return cats
}
