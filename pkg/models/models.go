// Package models defines data structures shared across the application.
package models

import (
	"fmt"
	"strings"
)

// IssueTypes is the closed set of ticket types the tool accepts.
var IssueTypes = []string{"Bug", "Task", "Story"}

// Priorities is the closed set of priority names the tool accepts,
// matching Jira's default priority scheme.
var Priorities = []string{"Lowest", "Low", "Medium", "High", "Highest"}

// ValidationError indicates that a user-supplied value is outside the
// accepted set for its field.
type ValidationError struct {
	Field    string
	Value    string
	Accepted []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q, accepted values: %s",
		e.Field, e.Value, strings.Join(e.Accepted, ", "))
}

// TicketRequest is the validated user input for one ticket. It is built
// once from CLI flags and never modified afterwards.
type TicketRequest struct {
	// Type is the Jira issue type name (e.g., "Bug")
	Type string

	// Priority is the Jira priority name (e.g., "High")
	Priority string

	// FreeText is the raw description the user provided, or the
	// title and body of a GitHub issue when seeded from one
	FreeText string
}

// GeneratedContent holds the three fields produced by the completion
// service. All three are guaranteed non-empty by the generator.
type GeneratedContent struct {
	// Summary is the ticket's one-line title
	Summary string `json:"summary"`

	// Description is the full body text of the ticket
	Description string `json:"description"`

	// AcceptanceCriteria lists the conditions under which the ticket
	// is considered done
	AcceptanceCriteria string `json:"acceptanceCriteria"`
}

// TicketResult identifies a ticket created in the remote tracker.
type TicketResult struct {
	// Key is the full Jira ticket identifier (e.g., "PROJ-123")
	Key string

	// URL is the browsable link to the ticket
	URL string
}

// ParseIssueType validates a ticket type against the accepted set.
func ParseIssueType(value string) (string, error) {
	for _, t := range IssueTypes {
		if value == t {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "type", Value: value, Accepted: IssueTypes}
}

// ParsePriority validates a priority name against the accepted set.
func ParsePriority(value string) (string, error) {
	for _, p := range Priorities {
		if value == p {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "priority", Value: value, Accepted: Priorities}
}

// NewTicketRequest builds a TicketRequest from raw CLI values, validating
// every field. The free text must be non-empty.
func NewTicketRequest(issueType, priority, freeText string) (TicketRequest, error) {
	t, err := ParseIssueType(issueType)
	if err != nil {
		return TicketRequest{}, err
	}
	p, err := ParsePriority(priority)
	if err != nil {
		return TicketRequest{}, err
	}
	if strings.TrimSpace(freeText) == "" {
		return TicketRequest{}, &ValidationError{
			Field:    "input",
			Value:    freeText,
			Accepted: []string{"any non-empty text"},
		}
	}
	return TicketRequest{Type: t, Priority: p, FreeText: freeText}, nil
}
