package labels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shipslot/internal/domain"
)

// Client calls an external label rendering service. A zero BaseURL disables
// label generation entirely.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Enabled() bool { return c.baseURL != "" }

type labelRequest struct {
	Reference       string `json:"reference"`
	PickupAddress   string `json:"pickup_address,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
}

type labelResponse struct {
	URL string `json:"url"`
}

// Generate renders a shipping label for the booking and returns its URL.
func (c *Client) Generate(ctx context.Context, b *domain.Booking) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("label service not configured")
	}

	body, err := json.Marshal(labelRequest{
		Reference:       b.Reference,
		PickupAddress:   b.PickupAddress,
		DeliveryAddress: b.DeliveryAddress,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/labels", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("label service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("label service: unexpected status %d", resp.StatusCode)
	}

	var out labelResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("label service: decode response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("label service: empty url in response")
	}
	return out.URL, nil
}
