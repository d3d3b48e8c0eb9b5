package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/generate"
	"github.com/ticketsmith/ticketsmith/internal/jira"
	"github.com/ticketsmith/ticketsmith/pkg/models"
)

const goodReply = `{"summary":"Fix 500 error in login API when token expires",` +
	`"description":"The login endpoint responds with HTTP 500 instead of 401.",` +
	`"acceptanceCriteria":"Expired tokens produce a 401 response."}`

// mockAI serves the Anthropic Messages API with a fixed completion.
func mockAI(t *testing.T, completion string) (*httptest.Server, *int) {
	t.Helper()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		resp := map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-sonnet-4-5",
			"stop_reason": "end_turn",
			"content":     []map[string]any{{"type": "text", "text": completion}},
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

// mockJira serves the issue-creation endpoint with a fixed status and body.
func mockJira(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

// setPipelineEnv points the pipeline at the two mock servers.
func setPipelineEnv(t *testing.T, aiURL, jiraURL string) {
	t.Helper()
	t.Setenv("JIRA_BASE_URL", jiraURL)
	t.Setenv("JIRA_EMAIL", "dev@example.com")
	t.Setenv("JIRA_API_TOKEN", "jira-token")
	t.Setenv("JIRA_PAT", "")
	t.Setenv("JIRA_PROJECT_KEY", "PROJ")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("ANTHROPIC_BASE_URL", aiURL)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_DOMAIN", "")
	t.Setenv("TICKETSMITH_MODEL", "")
	t.Setenv("TICKETSMITH_MAX_TOKENS", "")
	t.Setenv("TICKETSMITH_HTTP_TIMEOUT", "")
}

// executeRoot resets flag state and runs the root command.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	flagType = ""
	flagPriority = ""
	flagInput = ""
	flagFromGitHub = ""
	flagCustomFields = ""
	flagDryRun = false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCreateEndToEnd(t *testing.T) {
	aiServer, aiCalls := mockAI(t, goodReply)
	jiraServer, jiraCalls := mockJira(t, http.StatusCreated, `{"id":"10000","key":"PROJ-123"}`)
	setPipelineEnv(t, aiServer.URL, jiraServer.URL)

	out, err := executeRoot(t,
		"--type", "Bug",
		"--priority", "High",
		"--input", "Login API returns 500 when token expires")
	require.NoError(t, err)

	assert.Equal(t, 1, *aiCalls)
	assert.Equal(t, 1, *jiraCalls)
	assert.Contains(t, out, "Key: PROJ-123\n")
	assert.Contains(t, out, fmt.Sprintf("URL: %s/browse/PROJ-123\n", jiraServer.URL))
}

func TestCreateMissingEnvFailsBeforeAnyNetworkCall(t *testing.T) {
	aiServer, aiCalls := mockAI(t, goodReply)
	jiraServer, jiraCalls := mockJira(t, http.StatusCreated, `{"key":"PROJ-123"}`)
	setPipelineEnv(t, aiServer.URL, jiraServer.URL)
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := executeRoot(t,
		"--type", "Bug", "--priority", "High", "--input", "broken login")
	require.Error(t, err)

	var missing *config.MissingVarError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"ANTHROPIC_API_KEY"}, missing.Vars)
	assert.Equal(t, 0, *aiCalls)
	assert.Equal(t, 0, *jiraCalls)
}

func TestCreateInvalidTypeFailsBeforeAnyNetworkCall(t *testing.T) {
	aiServer, aiCalls := mockAI(t, goodReply)
	jiraServer, jiraCalls := mockJira(t, http.StatusCreated, `{"key":"PROJ-123"}`)
	setPipelineEnv(t, aiServer.URL, jiraServer.URL)

	_, err := executeRoot(t,
		"--type", "Epic", "--priority", "High", "--input", "broken login")
	require.Error(t, err)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)
	assert.Equal(t, 0, *aiCalls)
	assert.Equal(t, 0, *jiraCalls)
}

func TestCreateInvalidPriority(t *testing.T) {
	aiServer, aiCalls := mockAI(t, goodReply)
	jiraServer, _ := mockJira(t, http.StatusCreated, `{"key":"PROJ-123"}`)
	setPipelineEnv(t, aiServer.URL, jiraServer.URL)

	_, err := executeRoot(t,
		"--type", "Bug", "--priority", "Critical", "--input", "broken login")
	require.Error(t, err)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "priority", verr.Field)
	assert.Equal(t, 0, *aiCalls)
}

func TestCreateGenerationFailureSkipsSubmission(t *testing.T) {
	aiServer, aiCalls := mockAI(t, "Sure! Here is your ticket:")
	jiraServer, jiraCalls := mockJira(t, http.StatusCreated, `{"key":"PROJ-123"}`)
	setPipelineEnv(t, aiServer.URL, jiraServer.URL)

	_, err := executeRoot(t,
		"--type", "Bug", "--priority", "High", "--input", "broken login")
	require.Error(t, err)

	var gerr *generate.GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 1, *aiCalls)
	assert.Equal(t, 0, *jiraCalls, "no submission may follow a failed generation")
}

func TestCreateSubmissionFailureIsSingleAttempt(t *testing.T) {
	aiServer, _ := mockAI(t, goodReply)
	jiraServer, jiraCalls := mockJira(t, http.StatusBadRequest,
		`{"errorMessages":["Field 'priority' is required"]}`)
	setPipelineEnv(t, aiServer.URL, jiraServer.URL)

	_, err := executeRoot(t,
		"--type", "Bug", "--priority", "High", "--input", "broken login")
	require.Error(t, err)

	var serr *jira.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	assert.Equal(t, 1, *jiraCalls, "a rejected submission must not be retried")
}

func TestCreateMissingRequiredCustomFields(t *testing.T) {
	aiServer, aiCalls := mockAI(t, goodReply)
	jiraServer, jiraCalls := mockJira(t, http.StatusCreated, `{"key":"ACPF-1"}`)
	setPipelineEnv(t, aiServer.URL, jiraServer.URL)
	t.Setenv("JIRA_PROJECT_KEY", "ACPF")

	_, err := executeRoot(t,
		"--type", "Task", "--priority", "Medium", "--input", "tune the model")
	require.Error(t, err)

	var schemaErr *jira.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.ElementsMatch(t, []string{"algo_id", "model_type"}, schemaErr.Missing)
	assert.Equal(t, 0, *aiCalls, "schema validation must precede the completion call")
	assert.Equal(t, 0, *jiraCalls)
}

func TestCreateWithCustomFields(t *testing.T) {
	aiServer, _ := mockAI(t, goodReply)

	var payload map[string]any
	calls := 0
	jiraServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"key":"DMCD-9"}`)
	}))
	t.Cleanup(jiraServer.Close)

	setPipelineEnv(t, aiServer.URL, jiraServer.URL)
	t.Setenv("JIRA_PROJECT_KEY", "DMCD")

	out, err := executeRoot(t,
		"--type", "Bug", "--priority", "High",
		"--input", "app crashes on rotate",
		"--custom-fields", `{"device_os": "iOS"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Key: DMCD-9\n")

	fields := payload["fields"].(map[string]any)
	assert.Equal(t, "iOS", fields["customfield_11003"])
}

func TestCreateBadCustomFieldsJSON(t *testing.T) {
	aiServer, aiCalls := mockAI(t, goodReply)
	jiraServer, _ := mockJira(t, http.StatusCreated, `{"key":"PROJ-1"}`)
	setPipelineEnv(t, aiServer.URL, jiraServer.URL)

	_, err := executeRoot(t,
		"--type", "Bug", "--priority", "High", "--input", "broken",
		"--custom-fields", `{device_os: iOS}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--custom-fields")
	assert.Equal(t, 0, *aiCalls)
}

func TestCreateDryRunSkipsSubmission(t *testing.T) {
	aiServer, aiCalls := mockAI(t, goodReply)
	jiraServer, jiraCalls := mockJira(t, http.StatusCreated, `{"key":"PROJ-123"}`)
	setPipelineEnv(t, aiServer.URL, jiraServer.URL)

	out, err := executeRoot(t,
		"--type", "Bug", "--priority", "High", "--input", "broken login",
		"--dry-run")
	require.NoError(t, err)

	assert.Equal(t, 1, *aiCalls)
	assert.Equal(t, 0, *jiraCalls, "dry run must not submit")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	fields := payload["fields"].(map[string]any)
	assert.Equal(t, "Fix 500 error in login API when token expires", fields["summary"])
}

func TestCreateRunsAreIndependent(t *testing.T) {
	// No dedup: identical input yields one remote ticket per invocation.
	aiServer, _ := mockAI(t, goodReply)
	jiraServer, jiraCalls := mockJira(t, http.StatusCreated, `{"key":"PROJ-123"}`)
	setPipelineEnv(t, aiServer.URL, jiraServer.URL)

	for i := 0; i < 2; i++ {
		_, err := executeRoot(t,
			"--type", "Bug", "--priority", "High", "--input", "broken login")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, *jiraCalls)
}
