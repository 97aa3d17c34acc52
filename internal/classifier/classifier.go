package classifier

import (
	"time"

	"pr-notifier/pkg/models"
)

// Thresholds configures when a pull request is considered too old or reviewed
type Thresholds struct {
	MaxAge      time.Duration
	MinApproved int
}

// Classify maps an open pull request to its verdict at now.
// Age is measured from the creation date, never from the last update.
func Classify(pr models.PullRequest, now time.Time, t Thresholds) models.Verdict {
	created := pr.CreatedAt()
	verdict := models.Verdict{PullRequest: pr, Created: created}

	if now.Sub(created) > t.MaxAge {
		verdict.Kind = models.TooOld
		return verdict
	}

	verdict.Approved = pr.ApprovedCount()
	if verdict.Approved < t.MinApproved {
		verdict.Kind = models.NeedsReview
	} else {
		verdict.Kind = models.Reviewed
	}
	return verdict
}
