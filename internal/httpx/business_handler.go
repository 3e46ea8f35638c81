package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/motobook/backend/internal/business"
	"github.com/motobook/backend/internal/redisx"
)

type BusinessStore interface {
	Create(ctx context.Context, b business.NewBusiness) (int64, error)
	ByEmail(ctx context.Context, email string) (business.Business, error)
	ByUserID(ctx context.Context, userID int64) (business.Business, error)
	ByID(ctx context.Context, id int64) (business.Business, error)
	All(ctx context.Context) ([]business.Business, error)
	Locations(ctx context.Context) ([]business.Location, error)
	SetOpen(ctx context.Context, id int64, isOpen bool) error
	SetStatus(ctx context.Context, id int64, status business.Status) error
	AddMenuItem(ctx context.Context, m business.NewMenuItem) (int64, error)
	MenuByBusiness(ctx context.Context, businessID int64) ([]business.MenuItem, error)
}

// PreferencesReader matches clients.Users.
type PreferencesReader interface {
	Preferences(ctx context.Context, userID int64) ([]string, error)
}

type BusinessHandler struct {
	Store BusinessStore
	Users PreferencesReader
	Redis *redis.Client
}

func (h *BusinessHandler) Register(r *chi.Mux) {
	r.Route("/api/business", func(r chi.Router) {
		r.Post("/create", h.create)
		r.Get("/by-email", h.byEmail)
		r.Get("/user/{userID}", h.byUserID)
		r.Get("/all", h.all)
		r.Get("/locations", h.locations)
		r.Get("/recommended/{userID}", h.recommended)
		r.Get("/{id}", h.byID)
		r.Patch("/{id}/open", h.setOpen)
		r.Patch("/{id}/status", h.setStatus)
		r.Post("/menu", h.addMenuItem)
		r.Get("/menu/{businessID}", h.menu)
	})
}

type CreateBusinessReq struct {
	Name         string   `json:"name"`
	OwnerName    string   `json:"ownerFullName"`
	Email        string   `json:"email"`
	BusinessType string   `json:"businessType"`
	Phone        string   `json:"phone"`
	Address      string   `json:"address"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Logo         string   `json:"logo"`
	UserID       int64    `json:"userId"`
	Categories   []string `json:"categories"`
}

func (h *BusinessHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateBusinessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" || req.Email == "" || req.OwnerName == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Store.Create(ctx, business.NewBusiness{
		Name:         req.Name,
		OwnerName:    req.OwnerName,
		Email:        req.Email,
		BusinessType: req.BusinessType,
		Phone:        req.Phone,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Logo:         req.Logo,
		UserID:       req.UserID,
		Categories:   req.Categories,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *BusinessHandler) byEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "missing email")
		return
	}
	h.respondOne(w, r, func(ctx context.Context) (business.Business, error) {
		return h.Store.ByEmail(ctx, email)
	})
}

func (h *BusinessHandler) byUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	h.respondOne(w, r, func(ctx context.Context) (business.Business, error) {
		return h.Store.ByUserID(ctx, userID)
	})
}

func (h *BusinessHandler) byID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	h.respondOne(w, r, func(ctx context.Context) (business.Business, error) {
		return h.Store.ByID(ctx, id)
	})
}

func (h *BusinessHandler) respondOne(w http.ResponseWriter, r *http.Request, load func(context.Context) (business.Business, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	b, err := load(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BusinessHandler) all(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Store.All(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BusinessHandler) locations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Store.Locations(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// recommended matches restaurants against the user's preference categories.
// Preferences come from the user service and are cached briefly; an
// unreachable user service degrades to the unpersonalized fallback.
func (h *BusinessHandler) recommended(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	prefs := h.preferences(ctx, userID)

	all, err := h.Store.All(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, business.Recommend(all, prefs))
}

func (h *BusinessHandler) preferences(ctx context.Context, userID int64) []string {
	key := fmt.Sprintf(redisx.KeyUserPrefs, userID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			var prefs []string
			if json.Unmarshal([]byte(s), &prefs) == nil {
				return prefs
			}
		}
	}
	if h.Users == nil {
		return nil
	}
	prefs, _ := h.Users.Preferences(ctx, userID)
	if h.Redis != nil && len(prefs) > 0 {
		b, _ := json.Marshal(prefs)
		_ = h.Redis.Set(ctx, key, b, redisx.TTLPrefsCache).Err()
	}
	return prefs
}

type setOpenReq struct {
	IsOpen bool `json:"isOpen"`
}

func (h *BusinessHandler) setOpen(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req setOpenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.SetOpen(ctx, id, req.IsOpen); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "isOpen": req.IsOpen})
}

type setStatusReq struct {
	Status business.Status `json:"status"`
}

func (h *BusinessHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req setStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Status != business.StatusApproved && req.Status != business.StatusRejected {
		writeError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.SetStatus(ctx, id, req.Status); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": req.Status})
}

type addMenuItemReq struct {
	BusinessID   int64           `json:"businessId"`
	BusinessName string          `json:"businessName"`
	Category     string          `json:"category"`
	ProductName  string          `json:"productName"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Image        *string         `json:"image"`
}

func (h *BusinessHandler) addMenuItem(w http.ResponseWriter, r *http.Request) {
	var req addMenuItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BusinessID == 0 || req.ProductName == "" || req.Price.IsNegative() {
		writeError(w, http.StatusBadRequest, "missing or invalid menu item fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Store.AddMenuItem(ctx, business.NewMenuItem{
		BusinessID:   req.BusinessID,
		BusinessName: req.BusinessName,
		Category:     req.Category,
		ProductName:  req.ProductName,
		Price:        req.Price,
		Description:  req.Description,
		Image:        req.Image,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *BusinessHandler) menu(w http.ResponseWriter, r *http.Request) {
	businessID, ok := pathID(w, r, "businessID")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.Store.MenuByBusiness(ctx, businessID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if items == nil {
		items = []business.MenuItem{}
	}
	writeJSON(w, http.StatusOK, items)
}
