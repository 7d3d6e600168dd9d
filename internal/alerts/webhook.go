package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bisman/telemetry/internal/config"
)

// Notifier delivers alerts to configured webhook targets. It is registered as
// a bus subscriber, so delivery runs off the recording path and a slow
// endpoint only ever delays this notifier's own queue.
type Notifier struct {
	webhooks []config.WebhookConfig
	client   *http.Client
}

// NewNotifier creates a Notifier for the given webhook targets.
func NewNotifier(webhooks []config.WebhookConfig) *Notifier {
	return &Notifier{
		webhooks: webhooks,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends a to all configured targets. Errors are logged but never
// propagated — alert delivery is best effort.
func (n *Notifier) Notify(a Alert) {
	for _, wh := range n.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = n.sendSlack(url, a)
		case "teams":
			err = n.sendTeams(url, a)
		case "pagerduty", "http":
			err = n.sendHTTP(url, a)
		default:
			slog.Warn("alerts: unknown webhook type — skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"alert", a.Type,
				"err", err,
			)
		} else {
			slog.Debug("alerts: webhook delivered",
				"type", wh.Type,
				"alert", a.Type,
				"severity", a.Severity,
			)
		}
	}
}

func (n *Notifier) sendSlack(url string, a Alert) error {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s* %s", severityLabel(a.Severity), a.Message),
	})
	return n.post(url, body)
}

func (n *Notifier) sendTeams(url string, a Alert) error {
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    a.Type,
		"title":      fmt.Sprintf("Telemetry Alert: %s", a.Type),
		"text":       a.Message,
	}
	body, _ := json.Marshal(payload)
	return n.post(url, body)
}

func (n *Notifier) sendHTTP(url string, a Alert) error {
	body, _ := json.Marshal(map[string]interface{}{"alert": a})
	return n.post(url, body)
}

func (n *Notifier) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
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

func severityLabel(s string) string {
	switch s {
	case SeverityCritical:
		return "[CRITICAL]"
	case SeverityWarning:
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case SeverityCritical:
		return "FF4F6A"
	case SeverityWarning:
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
