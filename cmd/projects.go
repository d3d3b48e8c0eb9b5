package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ticketsmith/ticketsmith/internal/jira"
)

// projectsCmd lists the project keys with configured custom-field schemas,
// so users know which --custom-fields values a project demands.
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List known project custom-field schemas",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()

		for _, key := range jira.SchemaKeys() {
			schema := jira.SchemaFor(key)
			fmt.Fprintf(w, "%s - %s\n", key, schema.Description)
			fmt.Fprintf(w, "  required fields: %s\n", orNone(schema.RequiredFields))

			names := make([]string, 0, len(schema.CustomFields))
			for name := range schema.CustomFields {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(w, "  custom fields:   %s\n", orNone(names))
		}

		fmt.Fprintf(w, "DEFAULT - %s\n", jira.DefaultSchema().Description)
		fmt.Fprintf(w, "  required fields: none\n")
	},
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
