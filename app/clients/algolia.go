package clients

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// AlgoliaClient updates records of one Algolia index over the REST API
type AlgoliaClient struct {
	baseURL    string
	appID      string
	apiKey     string
	index      string
	httpClient *http.Client
	breaker    *breaker
}

// NewAlgoliaClient builds a client. endpoint may contain a %s placeholder
// for the application ID.
func NewAlgoliaClient(endpoint, appID, apiKey, index string) *AlgoliaClient {
	baseURL := endpoint
	if strings.Contains(endpoint, "%s") {
		baseURL = fmt.Sprintf(endpoint, strings.ToLower(appID))
	}
	return &AlgoliaClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		appID:      appID,
		apiKey:     apiKey,
		index:      index,
		httpClient: newHTTPClient(),
		breaker:    newBreaker("algolia"),
	}
}

// PartialUpdate sets attrs on objectID, creating the record when missing.
func (c *AlgoliaClient) PartialUpdate(ctx context.Context, objectID string, attrs map[string]any) error {
	if c.appID == "" || c.apiKey == "" || c.index == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	endpoint := fmt.Sprintf("%s/1/indexes/%s/%s/partial?createIfNotExists=true",
		c.baseURL, url.PathEscape(c.index), url.PathEscape(objectID))

	return c.breaker.execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("X-Algolia-Application-Id", c.appID)
		req.Header.Set("X-Algolia-API-Key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("algolia request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()
		return checkStatus("algolia", resp)
	})
}
