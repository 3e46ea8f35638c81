package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/motobook/backend/internal/clients"
	kafkax "github.com/motobook/backend/internal/kafka"
	"github.com/motobook/backend/internal/orders"
	"github.com/motobook/backend/internal/redisx"
)

// OrderStore is the slice of the order repository the handler needs.
type OrderStore interface {
	Create(ctx context.Context, ord orders.NewOrder, items []orders.OrderItem) (int64, error)
	Prepare(ctx context.Context, orderID int64) error
	MarkReady(ctx context.Context, orderID int64) error
	AssignRider(ctx context.Context, orderID, riderID int64, riderName string) error
	Complete(ctx context.Context, orderID int64) error
	GetStatus(ctx context.Context, orderID int64) (orders.Status, error)
	ByCustomer(ctx context.Context, customerID int64) ([]orders.Order, error)
	ByRestaurant(ctx context.Context, restaurantID int64) ([]orders.Order, error)
	AvailableJobs(ctx context.Context) ([]orders.Order, error)
	AcceptedByRider(ctx context.Context, riderID int64) ([]orders.Order, error)
	RiderHistory(ctx context.Context, riderID int64) ([]orders.Order, error)
	SellerStats(ctx context.Context, restaurantID int64) (orders.SellerStats, error)
	RiderStats(ctx context.Context, riderID int64) (orders.RiderStats, error)
}

// Publisher matches kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Store      OrderStore
	Created    Publisher // order.created
	Status     Publisher // order.status.changed
	Redis      *redis.Client
	Businesses *clients.Businesses // nil when the peer lookup is disabled
	Service    string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/create", h.createOrder)
		r.Patch("/{id}/prepare", h.prepare)
		r.Patch("/{id}/ready", h.markReady)
		r.Patch("/{id}/assign", h.assignRider)
		r.Patch("/{id}/complete", h.complete)
		r.Get("/{id}/status", h.getStatus)
		r.Get("/pending", h.availableJobs)
		r.Get("/accepted", h.acceptedByRider)
		r.Get("/customer/{customerID}", h.byCustomer)
		r.Get("/restaurant/{restaurantID}", h.byRestaurant)
		r.Get("/restaurant/{restaurantID}/stats", h.sellerStats)
		r.Get("/rider/{riderID}/history", h.riderHistory)
		r.Get("/rider/{riderID}/stats", h.riderStats)
	})
}

type CreateOrderItem struct {
	ProductID   int64           `json:"id"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image"`
}

type CreateOrderReq struct {
	CustomerID     int64             `json:"customerId"`
	FullName       string            `json:"fullName"`
	PhoneNumber    string            `json:"phoneNumber"`
	Address        string            `json:"address"`
	Latitude       float64           `json:"latitude"`
	Longitude      float64           `json:"longitude"`
	RestaurantID   int64             `json:"restaurantId"`
	RestaurantName string            `json:"restaurantName"`
	TotalAmount    decimal.Decimal   `json:"totalAmount"`
	Items          []CreateOrderItem `json:"items"`
}

type CreateOrderResp struct {
	OrderID int64 `json:"order_id"`
}

func (req *CreateOrderReq) validate() string {
	switch {
	case req.CustomerID == 0:
		return "missing customerId"
	case req.FullName == "":
		return "missing fullName"
	case req.PhoneNumber == "":
		return "missing phoneNumber"
	case req.Address == "":
		return "missing address"
	case req.RestaurantID == 0:
		return "missing restaurantId"
	case len(req.Items) == 0:
		return "order needs at least one item"
	case req.TotalAmount.IsNegative():
		return "totalAmount must not be negative"
	}
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return fmt.Sprintf("invalid quantity for product %d", it.ProductID)
		}
		if it.Price.IsNegative() {
			return fmt.Sprintf("invalid price for product %d", it.ProductID)
		}
		if it.ProductName == "" {
			return fmt.Sprintf("missing name for product %d", it.ProductID)
		}
	}
	return ""
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ord := orders.NewOrder{
		CustomerID:      req.CustomerID,
		CustomerName:    req.FullName,
		PhoneNumber:     req.PhoneNumber,
		DeliveryAddress: req.Address,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		RestaurantID:    req.RestaurantID,
		RestaurantName:  req.RestaurantName,
		TotalAmount:     req.TotalAmount,
	}

	// Snapshot the current restaurant name so later edits leave historical
	// orders untouched. Lookup failure just keeps the client-provided name.
	if h.Businesses != nil {
		if ref, _ := h.Businesses.Restaurant(ctx, req.RestaurantID); ref != nil {
			ord.RestaurantName = ref.Name
		}
	}

	items := make([]orders.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orders.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Image:       it.Image,
		})
	}

	orderID, err := h.Store.Create(ctx, ord, items)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.cacheStatus(ctx, orderID, orders.StatusPending)

	if h.Created != nil {
		evItems := make([]orders.EventItem, 0, len(items))
		for _, it := range items {
			evItems = append(evItems, orders.EventItem{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				Price:       it.Price,
			})
		}
		h.publish(r, h.Created, orders.EventOrderCreated, orderID, orders.OrderCreatedPayload{
			OrderID:        orderID,
			CustomerID:     ord.CustomerID,
			RestaurantID:   ord.RestaurantID,
			RestaurantName: ord.RestaurantName,
			TotalAmount:    ord.TotalAmount,
			Items:          evItems,
		})
	}

	writeJSON(w, http.StatusCreated, CreateOrderResp{OrderID: orderID})
}

func (h *OrdersHandler) prepare(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, orders.StatusPending, orders.StatusPreparing, func(ctx context.Context, id int64) error {
		return h.Store.Prepare(ctx, id)
	})
}

func (h *OrdersHandler) markReady(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, orders.StatusPreparing, orders.StatusReady, func(ctx context.Context, id int64) error {
		return h.Store.MarkReady(ctx, id)
	})
}

type assignRiderReq struct {
	RiderID   int64  `json:"riderId"`
	RiderName string `json:"riderName"`
}

func (h *OrdersHandler) assignRider(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req assignRiderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RiderID == 0 || req.RiderName == "" {
		writeError(w, http.StatusBadRequest, "missing rider identity")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.AssignRider(ctx, orderID, req.RiderID, req.RiderName); err != nil {
		writeStoreError(w, err)
		return
	}

	h.cacheStatus(ctx, orderID, orders.StatusAccepted)
	if h.Status != nil {
		h.publish(r, h.Status, orders.EventStatusChanged, orderID, orders.StatusChangedPayload{
			OrderID:   orderID,
			OldStatus: orders.StatusReady,
			NewStatus: orders.StatusAccepted,
			RiderID:   &req.RiderID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "status": orders.StatusAccepted})
}

func (h *OrdersHandler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, orders.StatusAccepted, orders.StatusCompleted, func(ctx context.Context, id int64) error {
		return h.Store.Complete(ctx, id)
	})
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request, from, to orders.Status, apply func(context.Context, int64) error) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := apply(ctx, orderID); err != nil {
		writeStoreError(w, err)
		return
	}

	h.cacheStatus(ctx, orderID, to)
	if h.Status != nil {
		h.publish(r, h.Status, orders.EventStatusChanged, orderID, orders.StatusChangedPayload{
			OrderID:   orderID,
			OldStatus: from,
			NewStatus: to,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "status": to})
}

// getStatus serves from the Redis cache first, falling back to the store.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	status, err := h.Store.GetStatus(ctx, orderID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	body := map[string]any{"status": status}
	if h.Redis != nil {
		b, _ := json.Marshal(body)
		_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *OrdersHandler) byCustomer(w http.ResponseWriter, r *http.Request) {
	h.listBy(w, r, "customerID", h.Store.ByCustomer)
}

func (h *OrdersHandler) byRestaurant(w http.ResponseWriter, r *http.Request) {
	h.listBy(w, r, "restaurantID", h.Store.ByRestaurant)
}

func (h *OrdersHandler) riderHistory(w http.ResponseWriter, r *http.Request) {
	h.listBy(w, r, "riderID", h.Store.RiderHistory)
}

func (h *OrdersHandler) availableJobs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Store.AvailableJobs(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderList(list))
}

func (h *OrdersHandler) acceptedByRider(w http.ResponseWriter, r *http.Request) {
	riderID, err := strconv.ParseInt(r.URL.Query().Get("riderId"), 10, 64)
	if err != nil || riderID == 0 {
		writeError(w, http.StatusBadRequest, "missing riderId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Store.AcceptedByRider(ctx, riderID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderList(list))
}

func (h *OrdersHandler) sellerStats(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "restaurantID")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Dashboard polls aggressively; a short-lived cache keeps the aggregate
	// queries off the hot path.
	key := fmt.Sprintf(redisx.KeySellerStats, restaurantID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	stats, err := h.Store.SellerStats(ctx, restaurantID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if h.Redis != nil {
		b, _ := json.Marshal(stats)
		_ = h.Redis.Set(ctx, key, b, redisx.TTLStatsCache).Err()
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *OrdersHandler) riderStats(w http.ResponseWriter, r *http.Request) {
	riderID, ok := pathID(w, r, "riderID")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Store.RiderStats(ctx, riderID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *OrdersHandler) listBy(w http.ResponseWriter, r *http.Request, param string, load func(context.Context, int64) ([]orders.Order, error)) {
	id, ok := pathID(w, r, param)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := load(ctx, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderList(list))
}

func (h *OrdersHandler) publish(r *http.Request, p Publisher, eventType string, orderID int64, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: strconv.FormatInt(orderID, 10),
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID int64, status orders.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	b, _ := json.Marshal(map[string]any{"status": status})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// orderList keeps empty listings as [] instead of null.
func orderList(list []orders.Order) []orders.Order {
	if list == nil {
		return []orders.Order{}
	}
	return list
}
