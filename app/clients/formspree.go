package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// FormspreeClient forwards contact submissions to a Formspree form
type FormspreeClient struct {
	formURL    string
	httpClient *http.Client
	breaker    *breaker
}

func NewFormspreeClient(formURL string) *FormspreeClient {
	return &FormspreeClient{
		formURL:    formURL,
		httpClient: newHTTPClient(),
		breaker:    newBreaker("formspree"),
	}
}

// Forward posts the form fields urlencoded and asks for a JSON answer.
func (c *FormspreeClient) Forward(ctx context.Context, form url.Values) error {
	if c.formURL == "" {
		return ErrNotConfigured
	}
	return c.breaker.execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.formURL, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("formspree request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()
		return checkStatus("formspree", resp)
	})
}
