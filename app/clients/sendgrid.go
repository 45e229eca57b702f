package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// ErrNotConfigured is returned by clients whose credentials are missing.
var ErrNotConfigured = errors.New("client not configured")

// Address is a mailbox with an optional display name
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Mail is an HTML email message
type Mail struct {
	To      Address
	From    Address
	ReplyTo Address
	Subject string
	HTML    string
}

type sendGridPersonalization struct {
	To []Address `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             Address                   `json:"from"`
	ReplyTo          *Address                  `json:"reply_to,omitempty"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

// SendGridClient sends mail through the SendGrid v3 API
type SendGridClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	breaker    *breaker
}

func NewSendGridClient(endpoint, apiKey string) *SendGridClient {
	return &SendGridClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: newHTTPClient(),
		breaker:    newBreaker("sendgrid"),
	}
}

// Send delivers m. Any non-2xx answer is an error.
func (c *SendGridClient) Send(ctx context.Context, m Mail) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	payload := sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: []Address{m.To}}},
		From:             m.From,
		Subject:          m.Subject,
		Content:          []sendGridContent{{Type: "text/html", Value: m.HTML}},
	}
	if m.ReplyTo.Email != "" {
		payload.ReplyTo = &m.ReplyTo
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}

	return c.breaker.execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sendgrid request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()
		return checkStatus("sendgrid", resp)
	})
}
