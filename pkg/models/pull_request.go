package models

import (
	"time"

	"github.com/samber/lo"
)

// User represents a Bitbucket user
type User struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// Reviewer represents a reviewer assigned to a pull request
type Reviewer struct {
	User     User `json:"user"`
	Approved bool `json:"approved"`
}

// PullRequest represents a Bitbucket pull request
type PullRequest struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Open        bool       `json:"open"`
	CreatedDate int64      `json:"createdDate"` // Unix timestamp in milliseconds
	UpdatedDate int64      `json:"updatedDate"` // Unix timestamp in milliseconds
	Reviewers   []Reviewer `json:"reviewers"`
}

// CreatedAt returns the creation date in the local time zone
func (pr PullRequest) CreatedAt() time.Time {
	return time.UnixMilli(pr.CreatedDate).Local()
}

// UpdatedAt returns the last update date in the local time zone
func (pr PullRequest) UpdatedAt() time.Time {
	return time.UnixMilli(pr.UpdatedDate).Local()
}

// ApprovedCount counts the reviewers that approved the pull request
func (pr PullRequest) ApprovedCount() int {
	return lo.CountBy(pr.Reviewers, func(r Reviewer) bool {
		return r.Approved
	})
}

// PullRequestPage is one page of the pull request listing
type PullRequestPage struct {
	Size          int           `json:"size"`
	Limit         int           `json:"limit"`
	Start         int           `json:"start"`
	IsLastPage    bool          `json:"isLastPage"`
	NextPageStart *int          `json:"nextPageStart"`
	Values        []PullRequest `json:"values"`
}

// HasNext reports whether another page should be requested
func (p PullRequestPage) HasNext() bool {
	return !p.IsLastPage && p.NextPageStart != nil && len(p.Values) > 0
}
