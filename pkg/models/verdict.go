package models

import (
	"fmt"
	"time"
)

// TimestampLayout is used for every timestamp rendered in a notification
const TimestampLayout = "2006-01-02 15:04:05"

// VerdictKind is the review state a pull request was classified into
type VerdictKind int

const (
	TooOld VerdictKind = iota
	NeedsReview
	Reviewed
)

func (k VerdictKind) String() string {
	switch k {
	case TooOld:
		return "too_old"
	case NeedsReview:
		return "needs_review"
	case Reviewed:
		return "reviewed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Verdict is the outcome of classifying one open pull request in one cycle
type Verdict struct {
	Kind        VerdictKind
	PullRequest PullRequest
	Created     time.Time
	// Approved is not set for TooOld verdicts
	Approved int
}

// Message renders the verdict as the human-readable notification text
func (v Verdict) Message() string {
	created := v.Created.Local().Format(TimestampLayout)

	switch v.Kind {
	case TooOld:
		return fmt.Sprintf("pull request %s is too old (created: %s)", v.PullRequest.Title, created)
	case NeedsReview:
		return fmt.Sprintf("pull request %s needs to be reviewed (approved: %d created: %s)",
			v.PullRequest.Title, v.Approved, created)
	default:
		return fmt.Sprintf("pull request %s has been reviewed (approved: %d created: %s)",
			v.PullRequest.Title, v.Approved, created)
	}
}
