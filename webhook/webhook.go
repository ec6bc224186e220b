// Package webhook delivers signed alert notifications.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// EventAlertTriggered is sent when a tracked price reaches its target.
const EventAlertTriggered = "alert.triggered"

// SignatureHeader carries the HMAC-SHA256 of the body as "sha256=<hex>".
const SignatureHeader = "X-Pricewatch-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	AlertID   int64  `json:"alert_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Notifier sends events somewhere.
type Notifier interface {
	Notify(ctx context.Context, event *Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, *Event) error { return nil }

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header is a valid signature of body.
func Verify(secret string, body []byte, header string) bool {
	if !strings.HasPrefix(header, "sha256=") {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(header))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, client *http.Client, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Pricewatch-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sender posts events to one endpoint, retrying failed deliveries.
type Sender struct {
	URL    string
	Secret string
	Client *http.Client

	// Retries are the waits before each redelivery. Defaults to 1s, 5s, 30s.
	Retries []time.Duration
}

// NewSender creates a Sender with a 10 second request timeout.
func NewSender(url, secret string) *Sender {
	return &Sender{
		URL:     url,
		Secret:  secret,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Retries: []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Notify delivers event, retrying up to len(s.Retries) times. It stops
// early when ctx is done.
func (s *Sender) Notify(ctx context.Context, event *Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	delays := append([]time.Duration{0}, s.Retries...)
	var err error
	for attempt, delay := range delays {
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		err = Deliver(ctx, client, s.URL, s.Secret, event)
		if err == nil {
			slog.Info("webhook delivered",
				"url", s.URL,
				"event", event.Type,
				"alert_id", event.AlertID,
				"attempt", attempt+1,
			)
			return nil
		}
		slog.Warn("webhook delivery failed",
			"url", s.URL,
			"event", event.Type,
			"alert_id", event.AlertID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"url", s.URL,
		"event", event.Type,
		"alert_id", event.AlertID,
	)
	return err
}
