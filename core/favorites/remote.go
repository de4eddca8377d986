package favorites

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ajnadfm/model"
)

// FnClient calls a peer favorites function over HTTP, forwarding the
// caller's bearer token so the function acts as the user.
type FnClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFnClient creates a client for the favorites function at baseURL.
func NewFnClient(baseURL string) *FnClient {
	return &FnClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

type fnRequest struct {
	Action    string `json:"action"`
	NasheedID string `json:"nasheed_id,omitempty"`
}

type fnListResponse struct {
	Data []model.Favorite `json:"data"`
}

type fnToggleResponse struct {
	Favored bool `json:"favored"`
}

func (c *FnClient) post(ctx context.Context, token string, reqBody fnRequest, out interface{}) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build favorites request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("favorites function request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuthRequired
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("favorites function returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode favorites response: %w", err)
	}
	return nil
}

// List fetches the user's favorite rows.
func (c *FnClient) List(ctx context.Context, token string) ([]model.Favorite, error) {
	var resp fnListResponse
	if err := c.post(ctx, token, fnRequest{Action: "list"}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Toggle flips the favorite mark and returns the final membership.
func (c *FnClient) Toggle(ctx context.Context, token, nasheedID string) (bool, error) {
	var resp fnToggleResponse
	if err := c.post(ctx, token, fnRequest{Action: "toggle", NasheedID: nasheedID}, &resp); err != nil {
		return false, err
	}
	return resp.Favored, nil
}
