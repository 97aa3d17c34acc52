package notifier

import (
	"context"

	"pr-notifier/pkg/models"
)

// Notifier delivers a verdict to its destination
type Notifier interface {
	Notify(ctx context.Context, verdict models.Verdict) error
}
