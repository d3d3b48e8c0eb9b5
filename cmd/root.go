// Package cmd provides the command-line interface for ticketsmith.
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/generate"
	"github.com/ticketsmith/ticketsmith/internal/github"
	"github.com/ticketsmith/ticketsmith/internal/jira"
	"github.com/ticketsmith/ticketsmith/internal/logging"
	"github.com/ticketsmith/ticketsmith/pkg/models"
)

var (
	flagType         string
	flagPriority     string
	flagInput        string
	flagFromGitHub   string
	flagCustomFields string
	flagDryRun       bool
)

// rootCmd runs the whole pipeline: load config, validate input, generate
// content, submit the ticket, report the result.
var rootCmd = &cobra.Command{
	Use:   "ticketsmith",
	Short: "Create AI-drafted Jira tickets from a one-line description",
	Long: `Ticketsmith turns a short free-text description into a fully drafted
Jira ticket. It asks an LLM for a summary, description, and acceptance
criteria, then creates the ticket through the Jira REST API and prints
the new ticket's key and URL.

The free text can also be seeded from a GitHub issue:

  ticketsmith --type Bug --priority High --from-github owner/repo#42

Required environment variables: JIRA_BASE_URL, JIRA_PROJECT_KEY,
ANTHROPIC_API_KEY, and either JIRA_PAT or JIRA_EMAIL + JIRA_API_TOKEN.
A .env file in the working directory is read if present.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCreate,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVarP(&flagType, "type", "t", "", "ticket type (Bug, Task, Story)")
	rootCmd.Flags().StringVarP(&flagPriority, "priority", "p", "", "ticket priority (Lowest, Low, Medium, High, Highest)")
	rootCmd.Flags().StringVarP(&flagInput, "input", "i", "", "free-text description of the ticket")
	rootCmd.Flags().StringVar(&flagFromGitHub, "from-github", "", "seed the free text from a GitHub issue (owner/repo#number)")
	rootCmd.Flags().StringVarP(&flagCustomFields, "custom-fields", "c", "", "JSON object of custom field values (e.g., '{\"device_os\": \"iOS\"}')")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the Jira payload without submitting it")

	rootCmd.MarkFlagRequired("type")
	rootCmd.MarkFlagRequired("priority")
	rootCmd.MarkFlagsOneRequired("input", "from-github")
	rootCmd.MarkFlagsMutuallyExclusive("input", "from-github")

	rootCmd.AddCommand(projectsCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	freeText := flagInput
	if flagFromGitHub != "" {
		ref, err := github.ParseIssueRef(flagFromGitHub)
		if err != nil {
			return err
		}
		ghClient, err := github.NewClient(cfg)
		if err != nil {
			return err
		}
		freeText, err = ghClient.FetchIssueText(ctx, ref)
		if err != nil {
			return err
		}
	}

	req, err := models.NewTicketRequest(flagType, flagPriority, freeText)
	if err != nil {
		return err
	}

	customFields, err := parseCustomFields(flagCustomFields)
	if err != nil {
		return err
	}
	// Schema problems must surface before the completion call is paid for.
	if err := jira.ValidateCustomFields(cfg.Jira.ProjectKey, customFields); err != nil {
		return err
	}

	jiraClient, err := jira.NewClient(cfg)
	if err != nil {
		return err
	}

	generator := generate.NewGenerator(cfg)
	content, err := generator.Generate(ctx, req)
	if err != nil {
		return err
	}

	issue, err := jiraClient.BuildIssue(req, content, customFields)
	if err != nil {
		return err
	}

	if flagDryRun {
		payload, err := json.MarshalIndent(issue, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render payload: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	result, err := jiraClient.CreateTicket(ctx, issue)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Key: %s\n", result.Key)
	fmt.Fprintf(cmd.OutOrStdout(), "URL: %s\n", result.URL)
	return nil
}

// parseCustomFields decodes the --custom-fields JSON object.
func parseCustomFields(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("invalid --custom-fields JSON: %w", err)
	}

	logging.Debug("parsed custom fields", "count", len(fields))
	return fields, nil
}
