// Package github fetches a single GitHub issue to seed the ticket's free
// text.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/logging"
)

// issueRefPattern matches references like "owner/repo#123".
var issueRefPattern = regexp.MustCompile(`^([^/\s]+)/([^#\s]+)#(\d+)$`)

// IssueRef identifies one issue in one repository.
type IssueRef struct {
	Owner  string
	Repo   string
	Number int
}

// ParseIssueRef parses an "owner/repo#number" reference.
func ParseIssueRef(ref string) (IssueRef, error) {
	m := issueRefPattern.FindStringSubmatch(strings.TrimSpace(ref))
	if m == nil {
		return IssueRef{}, fmt.Errorf("invalid issue reference %q, expected format: owner/repo#number", ref)
	}
	number, err := strconv.Atoi(m[3])
	if err != nil {
		return IssueRef{}, fmt.Errorf("invalid issue number in %q: %w", ref, err)
	}
	return IssueRef{Owner: m[1], Repo: m[2], Number: number}, nil
}

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
}

// NewClient creates a GitHub API client authenticated with the configured
// token. A non-default domain selects the GitHub Enterprise API layout.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := config.ValidateGitHubConfig(cfg); err != nil {
		return nil, err
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.GitHub.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = cfg.HTTPTimeout

	logging.Debug("github client configured",
		"domain", cfg.GitHub.Domain,
		"token", logging.MaskSensitive(cfg.GitHub.Token))

	if cfg.GitHub.Domain != "" && cfg.GitHub.Domain != "github.com" {
		apiURL := fmt.Sprintf("https://%s/api/v3/", cfg.GitHub.Domain)
		return newClientWithBaseURL(tc, apiURL)
	}

	return &Client{client: github.NewClient(tc)}, nil
}

// newClientWithBaseURL builds a client against an arbitrary API endpoint;
// tests point it at a local mock server.
func newClientWithBaseURL(httpClient *http.Client, baseURL string) (*Client, error) {
	client := github.NewClient(httpClient)

	parsedURL, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid github api url: %w", err)
	}
	client.BaseURL = parsedURL

	return &Client{client: client}, nil
}

// FetchIssueText retrieves the referenced issue and returns its title and
// body joined as ticket free text.
func (c *Client) FetchIssueText(ctx context.Context, ref IssueRef) (string, error) {
	issue, _, err := c.client.Issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return "", fmt.Errorf("failed to fetch issue %s/%s#%d: %w", ref.Owner, ref.Repo, ref.Number, err)
	}

	title := issue.GetTitle()
	body := strings.TrimSpace(issue.GetBody())

	logging.Debug("fetched github issue",
		"ref", fmt.Sprintf("%s/%s#%d", ref.Owner, ref.Repo, ref.Number),
		"title", title)

	if body == "" {
		return title, nil
	}
	return title + "\n\n" + body, nil
}
