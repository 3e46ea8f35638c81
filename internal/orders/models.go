package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64           `json:"id"`
	CustomerID      int64           `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	PhoneNumber     string          `json:"phone_number"`
	DeliveryAddress string          `json:"delivery_address"`
	Latitude        float64         `json:"latitude"`
	Longitude       float64         `json:"longitude"`
	RestaurantID    int64           `json:"restaurant_id"`
	RestaurantName  string          `json:"restaurant_name"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	IsAccepted      bool            `json:"is_accepted"`
	RiderID         *int64          `json:"rider_id"`
	RiderName       *string         `json:"rider_name"`
	RiderEarnings   decimal.Decimal `json:"rider_earnings"`
	CreatedAt       time.Time       `json:"created_at"`
	PickedUpAt      *time.Time      `json:"picked_up_at"`
	DeliveredAt     *time.Time      `json:"delivered_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	OrderID     int64           `json:"order_id,omitempty"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image"`
}

// NewOrder is the checkout payload; the store fills in id, status and
// timestamps.
type NewOrder struct {
	CustomerID      int64
	CustomerName    string
	PhoneNumber     string
	DeliveryAddress string
	Latitude        float64
	Longitude       float64
	RestaurantID    int64
	RestaurantName  string
	TotalAmount     decimal.Decimal
}

type SellerStats struct {
	TotalOrdersToday       int             `json:"totalOrdersToday"`
	PendingOrders          int             `json:"pendingOrders"`
	CompletedToday         int             `json:"completedToday"`
	RevenueToday           decimal.Decimal `json:"revenueToday"`
	TopSellingItem         string          `json:"topSellingItem"`
	TopSellingItemQuantity int             `json:"topSellingItemQuantity"`
	AvgPrepTime            int             `json:"avgPrepTime"`
	TotalOrdersAllTime     int             `json:"totalOrdersAllTime"`
	CompletedAllTime       int             `json:"completedAllTime"`
	RevenueAllTime         decimal.Decimal `json:"revenueAllTime"`
}

type RiderStats struct {
	TotalDeliveries     int             `json:"total_deliveries"`
	CompletedDeliveries int             `json:"completed_deliveries"`
	TotalEarnings       decimal.Decimal `json:"total_earnings"`
	TodayEarnings       decimal.Decimal `json:"today_earnings"`
}
