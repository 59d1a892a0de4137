// Package notify delivers push notifications for submission events.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/config"
	"github.com/rs/zerolog/log"
)

// Notifier sends one titled notification to a user.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string) error
}

// New returns a webhook notifier when a URL is configured, a log notifier otherwise.
func New(cfg config.NotifyConfig) Notifier {
	if cfg.WebhookURL == "" {
		log.Info().Msg("No push webhook configured, notifications go to the log")
		return LogNotifier{}
	}
	return NewWebhookNotifier(cfg.WebhookURL, &http.Client{Timeout: cfg.Timeout})
}

type webhookPayload struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// WebhookNotifier posts notifications as JSON to a push gateway.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookNotifier{url: url, client: client}
}

func (n *WebhookNotifier) Notify(ctx context.Context, userID, title, body string) error {
	payload, err := json.Marshal(webhookPayload{UserID: userID, Title: title, Body: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("push webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier writes notifications to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, userID, title, body string) error {
	log.Info().Str("userId", userID).Str("title", title).Str("body", body).Msg("Push notification")
	return nil
}
