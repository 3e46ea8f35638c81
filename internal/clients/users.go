// Package clients holds thin HTTP readers for the peer services. Every call
// degrades to "no data" on a non-2xx status or malformed body; callers decide
// what to do without the data, the fetch itself is never fatal.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Users struct {
	BaseURL string
	HTTP    *http.Client
}

func NewUsers(baseURL string) *Users {
	return &Users{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 3 * time.Second},
	}
}

type preferencesResponse struct {
	Preferences []string `json:"preferences"`
}

// Preferences fetches the user's category preferences. A missing user, a
// downed service or a bad payload all come back as (nil, nil).
func (c *Users) Preferences(ctx context.Context, userID int64) ([]string, error) {
	url := fmt.Sprintf("%s/api/auth/preferences/%d", c.BaseURL, userID)
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
	var body preferencesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil
	}
	return body.Preferences, nil
}
