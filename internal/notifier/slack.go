package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"pr-notifier/internal/config"
	"pr-notifier/pkg/models"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SlackNotifier posts notifications to a Slack incoming webhook
type SlackNotifier struct {
	webhookURL string
	channel    string
	username   string
	client     *http.Client
}

type slackPayload struct {
	Text     string `json:"text"`
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(cfg *config.Config) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: cfg.Slack.URI,
		channel:    cfg.Slack.Channel,
		username:   cfg.Slack.Username,
		client:     &http.Client{},
	}
}

// Notify sends the verdict message to the configured channel
func (s *SlackNotifier) Notify(ctx context.Context, verdict models.Verdict) error {
	payload, err := s.generatePayload(verdict)
	if err != nil {
		return fmt.Errorf("error generating Slack payload: %w", err)
	}

	return s.send(ctx, payload)
}

func (s *SlackNotifier) generatePayload(verdict models.Verdict) ([]byte, error) {
	return json.Marshal(slackPayload{
		Text:     verdict.Message(),
		Channel:  s.channel,
		Username: s.username,
	})
}

func (s *SlackNotifier) send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create Slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("slack notification failed with status %d: %s", resp.StatusCode, string(body))
	}

	slog.Debug("Slack notification sent", "channel", s.channel)
	return nil
}
