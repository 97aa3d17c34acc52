package bitbucket

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"pr-notifier/internal/config"
	"pr-notifier/pkg/models"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// maxPages bounds a single fetch even when every page advances
	maxPages = 1000
	// maxResponseBytes caps the body read for one page
	maxResponseBytes = 16 << 20
)

// Client represents a Bitbucket API client
type Client struct {
	URI      string
	Username string
	Password string
	Client   *http.Client
}

// NewClient creates a new Bitbucket client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		URI:      cfg.Bitbucket.URI,
		Username: cfg.Bitbucket.Username,
		Password: cfg.Bitbucket.Password,
		Client:   &http.Client{Timeout: cfg.FetchTimeout()},
	}
}

// TestConnection checks if the Bitbucket API is reachable and credentials are valid
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.fetchPage(ctx, c.URI)
	if err != nil {
		return fmt.Errorf("bitbucket connection test: %w", err)
	}
	return nil
}

// FetchPullRequests returns the pull requests listed at the configured URI,
// following pagination until the last page.
func (c *Client) FetchPullRequests(ctx context.Context) ([]models.PullRequest, error) {
	var prs []models.PullRequest
	pageURL := c.URI
	start := -1

	for pages := 1; ; pages++ {
		page, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		prs = append(prs, page.Values...)

		if !page.HasNext() {
			return prs, nil
		}
		next := *page.NextPageStart
		if next <= start {
			return nil, fmt.Errorf("pagination did not advance: nextPageStart=%d after start=%d", next, start)
		}
		if pages >= maxPages {
			return nil, fmt.Errorf("pagination exceeded %d pages", maxPages)
		}
		start = next

		pageURL, err = withStart(c.URI, next)
		if err != nil {
			return nil, err
		}
		slog.Debug("Fetching next page of pull requests", "start", next)
	}
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*models.PullRequestPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.basicAuth())
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error connecting to Bitbucket: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", pageURL, maxResponseBytes)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error fetching pull requests: %s (URL: %s, Body: %s)", resp.Status, pageURL, string(body))
	}

	var page models.PullRequestPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("error decoding pull requests: %w", err)
	}
	return &page, nil
}

// Helper methods
func (c *Client) basicAuth() string {
	auth := c.Username + ":" + c.Password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// withStart sets the start query parameter, keeping any query already on the URI
func withStart(uri string, start int) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid bitbucket uri: %w", err)
	}
	q := u.Query()
	q.Set("start", strconv.Itoa(start))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
