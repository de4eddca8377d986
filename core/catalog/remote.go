package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ajnadfm/model"
)

// FnClient calls a peer catalog function over HTTP. The function accepts
// `{q, page, limit}` and answers either a `{data: [...]}` envelope or a
// raw array.
type FnClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFnClient creates a client for the catalog function at baseURL.
func NewFnClient(baseURL string) *FnClient {
	return &FnClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

// SetTimeout overrides the request timeout.
func (c *FnClient) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

type fnRequest struct {
	Q     string `json:"q,omitempty"`
	Page  int    `json:"page,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type fnEnvelope struct {
	Data []model.Nasheed `json:"data"`
}

// List fetches server-filtered rows from the function. The search filter
// is applied once more client-side; the function's rows are not trusted
// to be filtered.
func (c *FnClient) List(ctx context.Context, q string, page, limit int) ([]model.Nasheed, error) {
	body, err := json.Marshal(fnRequest{Q: q, Page: page, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog function request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog function returned status %d", resp.StatusCode)
	}

	raw, err := decodeRows(resp)
	if err != nil {
		return nil, err
	}
	return FilterByQuery(raw, q), nil
}

func decodeRows(resp *http.Response) ([]model.Nasheed, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	var envelope fnEnvelope
	if err := json.Unmarshal(buf.Bytes(), &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var rows []model.Nasheed
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return rows, nil
}

// AsSource adapts the client to a resolver Source.
func (c *FnClient) AsSource() Source {
	return func(ctx context.Context, q string, page, limit int) ([]model.Nasheed, error) {
		return c.List(ctx, q, page, limit)
	}
}
