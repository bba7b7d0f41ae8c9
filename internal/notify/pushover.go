package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultPushoverURL is the Pushover message endpoint.
const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// StatusError reports a non-2xx answer from the push API. The message may
// still have been accepted; callers only log it.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("push API returned %d: %s", e.StatusCode, e.Body)
}

// Pushover posts messages to the Pushover API.
type Pushover struct {
	endpoint  string
	appToken  string
	userToken string
	client    *http.Client
}

// NewPushover returns a Pushover notifier. A nil client uses http.DefaultClient;
// the per-send deadline comes from the context.
func NewPushover(endpoint, appToken, userToken string, client *http.Client) (*Pushover, error) {
	if appToken == "" || userToken == "" {
		return nil, fmt.Errorf("pushover: %w", ErrNoCredentials)
	}
	if endpoint == "" {
		endpoint = DefaultPushoverURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Pushover{
		endpoint:  endpoint,
		appToken:  appToken,
		userToken: userToken,
		client:    client,
	}, nil
}

func (p *Pushover) Send(ctx context.Context, message string) error {
	form := url.Values{
		"token":   {p.appToken},
		"user":    {p.userToken},
		"message": {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send pushover request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
