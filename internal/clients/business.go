package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Businesses struct {
	BaseURL string
	HTTP    *http.Client
}

func NewBusinesses(baseURL string) *Businesses {
	return &Businesses{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 3 * time.Second},
	}
}

type RestaurantRef struct {
	ID   int64  `json:"id"`
	Name string `json:"businessName"`
}

// Restaurant resolves a restaurant id to its current name, for snapshotting
// onto new orders. Returns (nil, nil) when the lookup yields nothing usable.
func (c *Businesses) Restaurant(ctx context.Context, id int64) (*RestaurantRef, error) {
	url := fmt.Sprintf("%s/api/business/%d", c.BaseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil
	}
	var ref RestaurantRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return nil, nil
	}
	if ref.ID == 0 {
		return nil, nil
	}
	return &ref, nil
}
