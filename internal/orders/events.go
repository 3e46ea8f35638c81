package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated  = "OrderCreated"
	EventStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`   // uuid
	EventType     string          `json:"event_type"` // one of the consts above
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"` // RFC3339
	Producer      string          `json:"producer"`    // e.g. "order-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type EventItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID        int64           `json:"order_id"`
	CustomerID     int64           `json:"customer_id"`
	RestaurantID   int64           `json:"restaurant_id"`
	RestaurantName string          `json:"restaurant_name"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Items          []EventItem     `json:"items"`
}

type StatusChangedPayload struct {
	OrderID   int64  `json:"order_id"`
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
	RiderID   *int64 `json:"rider_id,omitempty"`
}
