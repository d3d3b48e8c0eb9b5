// Package jira submits generated ticket content to the Jira REST API.
package jira

import (
	"context"
	"fmt"
	"io"
	"net/http"

	gojira "github.com/andygrunwald/go-jira"
	"github.com/trivago/tgo/tcontainer"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/logging"
	"github.com/ticketsmith/ticketsmith/pkg/models"
)

// acceptanceCriteriaHeader separates the generated description from the
// acceptance criteria in Jira's single description field.
const acceptanceCriteriaHeader = "Acceptance Criteria:\n"

// SubmissionError indicates the tracker rejected the creation request or
// answered with a malformed success body. Creation is not idempotent, so
// the pipeline never retries a failed submission.
type SubmissionError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *SubmissionError) Error() string {
	msg := "ticket submission failed"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil && e.Body == "" {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Client handles interactions with the Jira API.
type Client struct {
	client     *gojira.Client
	baseURL    string
	projectKey string
}

// NewClient creates a Jira client from the loaded configuration. A PAT
// takes precedence and authenticates as Bearer; otherwise email and API
// token are sent as basic auth.
func NewClient(cfg *config.Config) (*Client, error) {
	var httpClient *http.Client
	if cfg.Jira.PAT != "" {
		tp := gojira.PATAuthTransport{Token: cfg.Jira.PAT}
		httpClient = tp.Client()
		logging.Debug("using bearer authentication", "pat", logging.MaskSensitive(cfg.Jira.PAT))
	} else {
		tp := gojira.BasicAuthTransport{
			Username: cfg.Jira.Email,
			Password: cfg.Jira.APIToken,
		}
		httpClient = tp.Client()
		logging.Debug("using basic authentication", "email", cfg.Jira.Email)
	}
	httpClient.Timeout = cfg.HTTPTimeout

	client, err := gojira.NewClient(httpClient, cfg.Jira.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	return &Client{
		client:     client,
		baseURL:    cfg.Jira.BaseURL,
		projectKey: cfg.Jira.ProjectKey,
	}, nil
}

// BuildIssue assembles the creation payload: summary, combined description,
// issue type, priority, and any custom fields mapped through the project
// schema. Required custom fields are enforced here, before any network call.
func (c *Client) BuildIssue(req models.TicketRequest, content models.GeneratedContent, customFields map[string]any) (*gojira.Issue, error) {
	if err := ValidateCustomFields(c.projectKey, customFields); err != nil {
		return nil, err
	}

	description := content.Description + "\n\n" + acceptanceCriteriaHeader + content.AcceptanceCriteria

	fields := &gojira.IssueFields{
		Project: gojira.Project{
			Key: c.projectKey,
		},
		Summary:     content.Summary,
		Description: description,
		Type: gojira.IssueType{
			Name: req.Type,
		},
		Priority: &gojira.Priority{
			Name: req.Priority,
		},
	}

	if len(customFields) > 0 {
		schema := SchemaFor(c.projectKey)
		fields.Unknowns = tcontainer.NewMarshalMap()
		for name, value := range customFields {
			if id, ok := schema.CustomFields[name]; ok {
				fields.Unknowns[id] = value
			} else {
				// Unmapped names are assumed to already be Jira field
				// IDs (e.g., customfield_12345 or labels).
				fields.Unknowns[name] = value
			}
		}
	}

	return &gojira.Issue{Fields: fields}, nil
}

// CreateTicket performs the single POST that creates the ticket and
// derives the browsable URL from the returned key.
func (c *Client) CreateTicket(ctx context.Context, issue *gojira.Issue) (models.TicketResult, error) {
	logging.Info("creating ticket",
		"project", c.projectKey,
		"type", issue.Fields.Type.Name,
		"priority", issue.Fields.Priority.Name)

	created, resp, err := c.client.Issue.CreateWithContext(ctx, issue)
	if err != nil {
		subErr := &SubmissionError{Err: err}
		if resp != nil {
			subErr.StatusCode = resp.StatusCode
			if body, readErr := io.ReadAll(resp.Body); readErr == nil {
				subErr.Body = string(body)
			}
		}
		return models.TicketResult{}, subErr
	}

	if created == nil || created.Key == "" {
		return models.TicketResult{}, &SubmissionError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("creation response contained no issue key"),
		}
	}

	result := models.TicketResult{
		Key: created.Key,
		URL: fmt.Sprintf("%s/browse/%s", c.baseURL, created.Key),
	}
	logging.Info("ticket created", "key", result.Key, "url", result.URL)
	return result, nil
}
