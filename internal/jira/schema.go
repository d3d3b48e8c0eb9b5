package jira

import (
	"fmt"
	"sort"
	"strings"
)

// Schema describes the custom fields a Jira project expects on creation.
// CustomFields maps user-facing names to Jira custom field IDs; names not
// in the map are passed through as literal field IDs.
type Schema struct {
	Description    string
	RequiredFields []string
	CustomFields   map[string]string
}

// projectSchemas maps project keys to their custom-field requirements.
// Projects not listed here take defaultSchema.
var projectSchemas = map[string]Schema{
	"ACPF": {
		Description:    "Algo project (ACPF)",
		RequiredFields: []string{"algo_id", "model_type"},
		CustomFields: map[string]string{
			"algo_id":    "customfield_11001",
			"model_type": "customfield_11010",
		},
	},
	"DPR": {
		Description:    "Data project (DPR)",
		RequiredFields: []string{"dataset_id", "data_sensitivity"},
		CustomFields: map[string]string{
			"dataset_id":       "customfield_11002",
			"data_sensitivity": "customfield_11020",
		},
	},
	"DMCD": {
		Description:    "Mobile project (DMCD)",
		RequiredFields: []string{"device_os"},
		CustomFields: map[string]string{
			"device_os":   "customfield_11003",
			"test_device": "customfield_11030",
		},
	},
}

var defaultSchema = Schema{
	Description: "Standard project (no custom fields required)",
}

// SchemaError reports required custom fields absent from the user's input.
type SchemaError struct {
	ProjectKey string
	Missing    []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required custom fields for project %s: %s",
		e.ProjectKey, strings.Join(e.Missing, ", "))
}

// SchemaFor returns the schema for a project key, falling back to the
// default schema for unlisted projects.
func SchemaFor(projectKey string) Schema {
	if schema, ok := projectSchemas[projectKey]; ok {
		return schema
	}
	return defaultSchema
}

// SchemaKeys returns the explicitly configured project keys in sorted order.
func SchemaKeys() []string {
	keys := make([]string, 0, len(projectSchemas))
	for key := range projectSchemas {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// DefaultSchema returns the schema applied to unlisted projects.
func DefaultSchema() Schema {
	return defaultSchema
}

// ValidateCustomFields checks that every required field for the project is
// present in the supplied values.
func ValidateCustomFields(projectKey string, values map[string]any) error {
	schema := SchemaFor(projectKey)

	var missing []string
	for _, field := range schema.RequiredFields {
		if _, ok := values[field]; !ok {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		return &SchemaError{ProjectKey: projectKey, Missing: missing}
	}
	return nil
}
