// Package webhook delivers run notifications to outgoing webhooks.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/spectree/internal/infrastructure/config"
	"github.com/felixgeelhaar/spectree/pkg/application"
)

// SignatureHeader carries the HMAC-SHA256 of the body when a secret is set.
const SignatureHeader = "X-Spectree-Signature"

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Notifier posts a payload per finished run to every matching endpoint.
type Notifier struct {
	endpoints  []config.WebhookConfig
	client     *http.Client
	deadLetter *DeadLetterStore
	logger     *slog.Logger
}

var _ application.RunNotifier = (*Notifier)(nil)

// NewNotifier keeps the enabled endpoints. deadLetter may be nil.
func NewNotifier(endpoints []config.WebhookConfig, deadLetter *DeadLetterStore, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	var enabled []config.WebhookConfig
	for _, ep := range endpoints {
		if ep.Enabled {
			enabled = append(enabled, ep)
		}
	}
	return &Notifier{
		endpoints:  enabled,
		client:     &http.Client{Timeout: 10 * time.Second},
		deadLetter: deadLetter,
		logger:     logger.With("component", "webhook"),
	}
}

// Payload is the JSON body sent to generic webhook endpoints.
type Payload struct {
	EventType string                       `json:"event_type"`
	Timestamp time.Time                    `json:"timestamp"`
	Data      application.PlanNotification `json:"data"`
}

// Notify delivers n to all matching endpoints concurrently and returns once
// every delivery has succeeded or been dead-lettered.
func (n *Notifier) Notify(ctx context.Context, note application.PlanNotification) {
	var wg sync.WaitGroup
	for _, ep := range n.endpoints {
		if !matchesFilter(ep, note.Event) {
			continue
		}
		body, err := encode(ep, note)
		if err != nil {
			n.logger.Warn("failed to encode notification", "webhook", ep.Name, "error", err)
			continue
		}
		wg.Add(1)
		go func(ep config.WebhookConfig) {
			defer wg.Done()
			n.deliver(ctx, ep, note.Event, body)
		}(ep)
	}
	wg.Wait()
}

func matchesFilter(ep config.WebhookConfig, event string) bool {
	return len(ep.Events) == 0 || slices.Contains(ep.Events, event)
}

func encode(ep config.WebhookConfig, note application.PlanNotification) ([]byte, error) {
	if ep.Format == config.FormatSlack {
		return json.Marshal(slackMessage(note))
	}
	return json.Marshal(Payload{EventType: note.Event, Timestamp: note.Timestamp, Data: note})
}

func (n *Notifier) deliver(ctx context.Context, ep config.WebhookConfig, event string, body []byte) {
	maxRetries := ep.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	delay := ep.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	r := retry.New[struct{}](retry.Config{
		MaxAttempts:   maxRetries,
		InitialDelay:  delay,
		BackoffPolicy: retry.BackoffExponential,
	})
	_, err := r.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, n.send(ctx, ep, body)
	})
	if err == nil {
		return
	}

	n.logger.Warn("webhook delivery failed", "webhook", ep.Name, "event", event, "attempts", maxRetries, "error", err)
	if n.deadLetter == nil {
		return
	}
	dl := DeadLetter{
		Timestamp:   time.Now().UTC(),
		WebhookName: ep.Name,
		URL:         ep.URL,
		EventType:   event,
		Payload:     string(body),
		Error:       err.Error(),
		Attempts:    maxRetries,
	}
	if err := n.deadLetter.Append(dl); err != nil {
		n.logger.Warn("failed to record dead letter", "webhook", ep.Name, "error", err)
	}
}

func (n *Notifier) send(ctx context.Context, ep config.WebhookConfig, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Spectree-Webhook/1.0")

	if ep.Secret != "" {
		req.Header.Set(SignatureHeader, sign(body, ep.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// sign computes HMAC-SHA256 of the payload using the secret.
func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
