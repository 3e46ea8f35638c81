package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/motobook/backend/internal/orders"
)

// fakeOrderStore keeps the conditional-update semantics of the real repo: the
// guard and the write happen under one lock, so racing transitions resolve to
// exactly one winner.
type fakeOrderStore struct {
	mu         sync.Mutex
	nextID     int64
	orders     map[int64]*orders.Order
	failCreate bool
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[int64]*orders.Order{}}
}

func (s *fakeOrderStore) Create(_ context.Context, ord orders.NewOrder, items []orders.OrderItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return 0, &orders.PersistenceError{Op: "insert order", Err: fmt.Errorf("boom")}
	}
	s.nextID++
	o := &orders.Order{
		ID:              s.nextID,
		CustomerID:      ord.CustomerID,
		CustomerName:    ord.CustomerName,
		PhoneNumber:     ord.PhoneNumber,
		DeliveryAddress: ord.DeliveryAddress,
		Latitude:        ord.Latitude,
		Longitude:       ord.Longitude,
		RestaurantID:    ord.RestaurantID,
		RestaurantName:  ord.RestaurantName,
		TotalAmount:     ord.TotalAmount,
		Status:          orders.StatusPending,
		CreatedAt:       time.Now(),
		Items:           items,
	}
	s.orders[o.ID] = o
	return o.ID, nil
}

func (s *fakeOrderStore) transition(id int64, guard func(*orders.Order) bool, apply func(*orders.Order)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.ErrNotFound
	}
	if !guard(o) {
		return orders.ErrInvalidTransition
	}
	apply(o)
	return nil
}

func (s *fakeOrderStore) Prepare(_ context.Context, id int64) error {
	return s.transition(id,
		func(o *orders.Order) bool { return o.Status == orders.StatusPending },
		func(o *orders.Order) { o.Status = orders.StatusPreparing })
}

func (s *fakeOrderStore) MarkReady(_ context.Context, id int64) error {
	return s.transition(id,
		func(o *orders.Order) bool { return o.Status == orders.StatusPreparing },
		func(o *orders.Order) { o.Status = orders.StatusReady })
}

func (s *fakeOrderStore) AssignRider(_ context.Context, id, riderID int64, riderName string) error {
	return s.transition(id,
		func(o *orders.Order) bool { return o.Status == orders.StatusReady && o.RiderID == nil },
		func(o *orders.Order) {
			now := time.Now()
			o.IsAccepted = true
			o.RiderID = &riderID
			o.RiderName = &riderName
			o.Status = orders.StatusAccepted
			o.PickedUpAt = &now
		})
}

func (s *fakeOrderStore) Complete(_ context.Context, id int64) error {
	return s.transition(id,
		func(o *orders.Order) bool { return o.Status == orders.StatusAccepted },
		func(o *orders.Order) {
			now := time.Now()
			o.Status = orders.StatusCompleted
			o.DeliveredAt = &now
		})
}

func (s *fakeOrderStore) GetStatus(_ context.Context, id int64) (orders.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return "", orders.ErrNotFound
	}
	return o.Status, nil
}

func (s *fakeOrderStore) list(match func(*orders.Order) bool) []orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.Order
	for _, o := range s.orders {
		if match(o) {
			out = append(out, *o)
		}
	}
	return out
}

func (s *fakeOrderStore) ByCustomer(_ context.Context, customerID int64) ([]orders.Order, error) {
	return s.list(func(o *orders.Order) bool { return o.CustomerID == customerID }), nil
}

func (s *fakeOrderStore) ByRestaurant(_ context.Context, restaurantID int64) ([]orders.Order, error) {
	return s.list(func(o *orders.Order) bool { return o.RestaurantID == restaurantID }), nil
}

func (s *fakeOrderStore) AvailableJobs(context.Context) ([]orders.Order, error) {
	return s.list(func(o *orders.Order) bool { return o.Status == orders.StatusReady && o.RiderID == nil }), nil
}

func (s *fakeOrderStore) AcceptedByRider(_ context.Context, riderID int64) ([]orders.Order, error) {
	return s.list(func(o *orders.Order) bool {
		return o.RiderID != nil && *o.RiderID == riderID && o.Status == orders.StatusAccepted
	}), nil
}

func (s *fakeOrderStore) RiderHistory(_ context.Context, riderID int64) ([]orders.Order, error) {
	return s.list(func(o *orders.Order) bool {
		return o.RiderID != nil && *o.RiderID == riderID && o.Status == orders.StatusCompleted
	}), nil
}

func (s *fakeOrderStore) SellerStats(context.Context, int64) (orders.SellerStats, error) {
	return orders.SellerStats{
		TopSellingItem: "N/A",
		RevenueToday:   decimal.Zero,
		RevenueAllTime: decimal.Zero,
	}, nil
}

func (s *fakeOrderStore) RiderStats(context.Context, int64) (orders.RiderStats, error) {
	return orders.RiderStats{TotalEarnings: decimal.Zero, TodayEarnings: decimal.Zero}, nil
}

func (s *fakeOrderStore) get(id int64) orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []kafkago.Message
}

func (p *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, kafkago.Message{Key: key, Value: value, Headers: headers})
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func newTestHandler() (*fakeOrderStore, *fakePublisher, *fakePublisher, http.Handler) {
	store := newFakeOrderStore()
	created := &fakePublisher{}
	status := &fakePublisher{}
	h := &OrdersHandler{Store: store, Created: created, Status: status, Service: "order-api-test"}
	r := NewRouter()
	h.Register(r)
	return store, created, status, r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validCreateReq() map[string]any {
	return map[string]any{
		"customerId":     int64(11),
		"fullName":       "Juan Dela Cruz",
		"phoneNumber":    "09171234567",
		"address":        "123 Mabini St",
		"latitude":       14.5995,
		"longitude":      120.9842,
		"restaurantId":   int64(7),
		"restaurantName": "Moto Pizza",
		"totalAmount":    250,
		"items": []map[string]any{
			{"id": 1, "productName": "Pepperoni", "quantity": 1, "price": 150},
			{"id": 2, "productName": "Iced Tea", "quantity": 2, "price": 50},
		},
	}
}

func TestCreateOrderValidation(t *testing.T) {
	_, _, _, router := newTestHandler()

	mutate := map[string]func(m map[string]any){
		"missing customer":   func(m map[string]any) { m["customerId"] = 0 },
		"missing name":       func(m map[string]any) { m["fullName"] = "" },
		"missing phone":      func(m map[string]any) { m["phoneNumber"] = "" },
		"missing address":    func(m map[string]any) { m["address"] = "" },
		"missing restaurant": func(m map[string]any) { m["restaurantId"] = 0 },
		"no items":           func(m map[string]any) { m["items"] = []map[string]any{} },
		"zero quantity": func(m map[string]any) {
			m["items"] = []map[string]any{{"id": 1, "productName": "Pepperoni", "quantity": 0, "price": 150}}
		},
		"negative price": func(m map[string]any) {
			m["items"] = []map[string]any{{"id": 1, "productName": "Pepperoni", "quantity": 1, "price": -5}}
		},
	}

	for name, mut := range mutate {
		t.Run(name, func(t *testing.T) {
			req := validCreateReq()
			mut(req)
			w := doJSON(t, router, http.MethodPost, "/api/orders/create", req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateOrderPersistsAndPublishes(t *testing.T) {
	store, created, _, router := newTestHandler()

	w := doJSON(t, router, http.MethodPost, "/api/orders/create", validCreateReq())
	require.Equal(t, http.StatusCreated, w.Code)

	var resp CreateOrderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotZero(t, resp.OrderID)

	o := store.get(resp.OrderID)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.False(t, o.IsAccepted)
	assert.Nil(t, o.RiderID)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(250)))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Pepperoni", o.Items[0].ProductName)
	assert.Equal(t, 2, o.Items[1].Quantity)

	require.Equal(t, 1, created.count())
	var ev orders.Envelope
	require.NoError(t, json.Unmarshal(created.messages[0].Value, &ev))
	assert.Equal(t, orders.EventOrderCreated, ev.EventType)
	assert.Equal(t, "1", string(created.messages[0].Key))
}

func TestCreateOrderStoreFailure(t *testing.T) {
	store, _, _, router := newTestHandler()
	store.failCreate = true

	w := doJSON(t, router, http.MethodPost, "/api/orders/create", validCreateReq())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"storage failure"}`, w.Body.String())
}

func TestLifecycleHappyPath(t *testing.T) {
	store, _, status, router := newTestHandler()

	w := doJSON(t, router, http.MethodPost, "/api/orders/create", validCreateReq())
	require.Equal(t, http.StatusCreated, w.Code)
	var resp CreateOrderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	id := resp.OrderID

	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/orders/%d/prepare", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orders.StatusPreparing, store.get(id).Status)

	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/orders/%d/ready", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orders.StatusReady, store.get(id).Status)

	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/orders/%d/assign", id),
		map[string]any{"riderId": 99, "riderName": "Rod Rider"})
	require.Equal(t, http.StatusOK, w.Code)
	o := store.get(id)
	assert.Equal(t, orders.StatusAccepted, o.Status)
	assert.True(t, o.IsAccepted)
	require.NotNil(t, o.RiderID)
	assert.Equal(t, int64(99), *o.RiderID)
	assert.NotNil(t, o.PickedUpAt)

	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/orders/%d/complete", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	o = store.get(id)
	assert.Equal(t, orders.StatusCompleted, o.Status)
	assert.NotNil(t, o.DeliveredAt)

	// prepare, ready, assign, complete
	assert.Equal(t, 4, status.count())
}

func TestTransitionErrorMapping(t *testing.T) {
	store, _, _, router := newTestHandler()

	w := doJSON(t, router, http.MethodPatch, "/api/orders/12345/prepare", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/orders/create", validCreateReq())
	require.Equal(t, http.StatusCreated, w.Code)
	var resp CreateOrderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// ready before preparing: guard fails, status untouched
	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/orders/%d/ready", resp.OrderID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, orders.StatusPending, store.get(resp.OrderID).Status)
}

func TestConcurrentAssignExactlyOneWins(t *testing.T) {
	store, _, _, router := newTestHandler()

	w := doJSON(t, router, http.MethodPost, "/api/orders/create", validCreateReq())
	require.Equal(t, http.StatusCreated, w.Code)
	var resp CreateOrderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	id := resp.OrderID

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/orders/%d/prepare", id), nil).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/orders/%d/ready", id), nil).Code)

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	for _, rider := range []map[string]any{
		{"riderId": 1, "riderName": "Rider A"},
		{"riderId": 2, "riderName": "Rider B"},
	} {
		wg.Add(1)
		go func(body map[string]any) {
			defer wg.Done()
			codes <- doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/orders/%d/assign", id), body).Code
		}(rider)
	}
	wg.Wait()
	close(codes)

	var got []int
	for c := range codes {
		got = append(got, c)
	}
	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, got)

	o := store.get(id)
	assert.Equal(t, orders.StatusAccepted, o.Status)
	require.NotNil(t, o.RiderID)
	assert.Contains(t, []int64{1, 2}, *o.RiderID)
}

func TestGetStatusFallsBackToStore(t *testing.T) {
	_, _, _, router := newTestHandler()

	w := doJSON(t, router, http.MethodPost, "/api/orders/create", validCreateReq())
	require.Equal(t, http.StatusCreated, w.Code)
	var resp CreateOrderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/orders/%d/status", resp.OrderID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"pending"}`, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/orders/424242/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingsReturnEmptyArrays(t *testing.T) {
	_, _, _, router := newTestHandler()

	for _, path := range []string{
		"/api/orders/pending",
		"/api/orders/customer/5",
		"/api/orders/restaurant/5",
		"/api/orders/rider/5/history",
		"/api/orders/accepted?riderId=5",
	} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "[]\n", w.Body.String(), path)
	}
}

func TestByCustomerRoundTrip(t *testing.T) {
	_, _, _, router := newTestHandler()

	w := doJSON(t, router, http.MethodPost, "/api/orders/create", validCreateReq())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/orders/customer/11", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []orders.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Len(t, list[0].Items, 2)
	assert.Equal(t, "Pepperoni", list[0].Items[0].ProductName)
	assert.Equal(t, 1, list[0].Items[0].Quantity)
	assert.True(t, list[0].Items[0].Price.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "Iced Tea", list[0].Items[1].ProductName)
}

func TestSellerStatsZeroSnapshot(t *testing.T) {
	_, _, _, router := newTestHandler()

	w := doJSON(t, router, http.MethodGet, "/api/orders/restaurant/9/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats orders.SellerStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "N/A", stats.TopSellingItem)
	assert.Zero(t, stats.TotalOrdersToday)
	assert.Zero(t, stats.AvgPrepTime)
	assert.True(t, stats.RevenueToday.IsZero())
}

func TestRiderStatsZeroSnapshot(t *testing.T) {
	_, _, _, router := newTestHandler()

	w := doJSON(t, router, http.MethodGet, "/api/orders/rider/9/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats orders.RiderStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalDeliveries)
	assert.True(t, stats.TotalEarnings.IsZero())
}
