// Package monitor drives the fetch-classify-notify cycle.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pr-notifier/internal/classifier"
	"pr-notifier/internal/config"
	"pr-notifier/internal/notifier"
	"pr-notifier/pkg/models"

	"github.com/benbjohnson/clock"
	"github.com/rs/xid"
)

// Source provides the current pull request snapshot
type Source interface {
	FetchPullRequests(ctx context.Context) ([]models.PullRequest, error)
}

// Settings controls classification, throttling and pacing
type Settings struct {
	Thresholds       classifier.Thresholds
	Throttle         time.Duration
	SleepInterval    time.Duration
	DeliveryTimeout  time.Duration
	FailOnFetchError bool
}

// SettingsFromConfig converts the file configuration into loop settings
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Thresholds: classifier.Thresholds{
			MaxAge:      cfg.MaxAge(),
			MinApproved: int(cfg.MinReviewersApproved),
		},
		Throttle:         cfg.ThrottleInterval(),
		SleepInterval:    cfg.PollInterval(),
		DeliveryTimeout:  cfg.DeliveryTimeoutDuration(),
		FailOnFetchError: cfg.FailOnFetchError,
	}
}

// Monitor owns the notification history and runs poll cycles sequentially
type Monitor struct {
	source   Source
	notifier notifier.Notifier
	clock    clock.Clock
	history  *models.NotificationHistory
	settings Settings
}

// New creates a monitor with an empty notification history
func New(source Source, n notifier.Notifier, clk clock.Clock, settings Settings) *Monitor {
	return &Monitor{
		source:   source,
		notifier: n,
		clock:    clk,
		history:  models.NewNotificationHistory(),
		settings: settings,
	}
}

// History exposes the notification history
func (m *Monitor) History() *models.NotificationHistory {
	return m.history
}

// Run polls until ctx is cancelled. A fetch error ends the cycle early and,
// when FailOnFetchError is set, stops the loop.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := m.RunCycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			if m.settings.FailOnFetchError {
				return err
			}
			slog.Error("Poll cycle failed, retrying on next tick", "error", err)
		}

		slog.Debug("Sleeping until next check...", "interval", m.settings.SleepInterval)
		timer := m.clock.Timer(m.settings.SleepInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// RunCycle performs one fetch-classify-notify pass and returns the number of
// notifications delivered. Only fetch failures are returned; delivery
// failures are logged.
func (m *Monitor) RunCycle(ctx context.Context) (int, error) {
	log := slog.With("cycle_id", xid.New().String())

	prs, err := m.source.FetchPullRequests(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch pull requests: %w", err)
	}

	now := m.clock.Now()
	open := make(map[int]struct{}, len(prs))
	sent := 0

	for _, pr := range prs {
		if !pr.Open {
			continue
		}
		open[pr.ID] = struct{}{}

		if !m.history.TryNotify(pr.ID, now, m.settings.Throttle) {
			log.Debug("Notification throttled", "pr_id", pr.ID)
			continue
		}

		verdict := classifier.Classify(pr, now, m.settings.Thresholds)
		if err := m.deliver(ctx, verdict); err != nil {
			log.Error("Error notifying", "pr_id", pr.ID, "verdict", verdict.Kind.String(), "error", err)
			continue
		}
		sent++
	}

	if evicted := m.history.Prune(open); evicted > 0 {
		log.Debug("Evicted history entries", "count", evicted)
	}

	log.Info("Poll cycle finished", "pull_requests", len(prs), "open", len(open), "notified", sent)
	return sent, nil
}

func (m *Monitor) deliver(ctx context.Context, verdict models.Verdict) error {
	if m.settings.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.settings.DeliveryTimeout)
		defer cancel()
	}
	return m.notifier.Notify(ctx, verdict)
}
