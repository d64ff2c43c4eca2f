package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/icp/internal/domain/profile"
)

// requestIDHeader matches the header the service echoes.
const requestIDHeader = "X-Request-ID"

// httpClient wraps http.Client with the base URL of the service.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// getJSON performs a GET and decodes a 200 response into v.
func (c *httpClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

// fetchProfile reads GET /segments and rebuilds the profile locally.
func (c *httpClient) fetchProfile(ctx context.Context) (*profile.Profile, error) {
	var snap profile.Snapshot
	if err := c.getJSON(ctx, "/segments", &snap); err != nil {
		return nil, err
	}

	means := make(map[string]float64, len(snap.Metrics))
	stds := make(map[string]float64, len(snap.Metrics))
	for _, m := range snap.Metrics {
		means[m.Name] = m.Mean
		stds[m.Name] = m.Std
	}
	p, err := profile.New(
		profile.WithMeans(means),
		profile.WithStds(stds),
		profile.WithSegments(snap.Segments...),
	)
	if err != nil {
		return nil, fmt.Errorf("rebuild profile: %w", err)
	}
	return p, nil
}

// assign posts one lead to /assign. Non-200 answers are reported through
// the returned status with a nil error.
func (c *httpClient) assign(ctx context.Context, lead Lead) (Assignment, int, error) {
	body, err := json.Marshal(lead)
	if err != nil {
		return Assignment{}, 0, fmt.Errorf("failed to marshal lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assign", bytes.NewReader(body))
	if err != nil {
		return Assignment{}, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, lead.ID)

	resp, err := c.client.Do(req)
	if err != nil {
		return Assignment{}, 0, fmt.Errorf("POST /assign: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Assignment{}, resp.StatusCode, nil
	}

	var a Assignment
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return Assignment{}, resp.StatusCode, fmt.Errorf("decode assignment: %w", err)
	}
	return a, resp.StatusCode, nil
}
