// Package notify delivers store change events to outbound webhooks.
//
// Supported target types mirror the usual chat integrations:
//
//	slack - {"text": "..."}
//	teams - MessageCard with title and text
//	http  - {"event": <events.Event>}
//
// Delivery failures are logged and dropped.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskvault/taskvault/internal/config"
	"github.com/taskvault/taskvault/internal/events"
)

const busBufSize = 64

// Subscriber is the part of events.Bus the notifier needs.
type Subscriber interface {
	Subscribe(buf int) (<-chan events.Event, func())
}

// Notifier posts every event it receives to each configured webhook.
type Notifier struct {
	webhooks []config.WebhookConfig
	client   *http.Client
}

// New creates a Notifier for the given targets.
func New(webhooks []config.WebhookConfig) *Notifier {
	return &Notifier{
		webhooks: webhooks,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Run delivers events from bus until ctx is cancelled. With no webhooks
// configured it returns immediately.
func (n *Notifier) Run(ctx context.Context, bus Subscriber) {
	if len(n.webhooks) == 0 {
		return
	}
	ch, cancel := bus.Subscribe(busBufSize)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			n.Deliver(ctx, e)
		}
	}
}

// Deliver sends e to every target whose URL resolves.
func (n *Notifier) Deliver(ctx context.Context, e events.Event) {
	for _, wh := range n.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var body []byte
		switch wh.Type {
		case "slack":
			body, _ = json.Marshal(map[string]string{"text": summary(e)})
		case "teams":
			body, _ = json.Marshal(map[string]interface{}{
				"@type":    "MessageCard",
				"@context": "http://schema.org/extensions",
				"summary":  e.Kind,
				"title":    fmt.Sprintf("taskvault: %s", e.Kind),
				"text":     summary(e),
			})
		case "http":
			body, _ = json.Marshal(map[string]interface{}{"event": e})
		default:
			slog.Warn("notify: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err := n.post(ctx, url, body); err != nil {
			slog.Error("notify: webhook delivery failed", "type", wh.Type, "kind", e.Kind, "err", err)
			continue
		}
		slog.Debug("notify: webhook delivered", "type", wh.Type, "kind", e.Kind, "entity_id", e.EntityID)
	}
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// summary renders a one-line human description of e.
func summary(e events.Event) string {
	switch {
	case e.Task != nil:
		state := "open"
		if e.Task.Completed {
			state = "done"
		}
		return fmt.Sprintf("%s #%d %q (%s)", e.Kind, e.Task.ID, e.Task.Name, state)
	case e.User != nil:
		return fmt.Sprintf("%s #%d %s", e.Kind, e.User.ID, e.User.Username)
	default:
		return fmt.Sprintf("%s #%d", e.Kind, e.EntityID)
	}
}
