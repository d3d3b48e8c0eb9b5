package generate

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ticketsmith/ticketsmith/pkg/models"
)

// promptTemplate is shared by every issue type; the Steps field carries the
// type-specific drafting instructions.
const promptTemplate = `You are drafting a Jira {{.Type}} ticket with priority {{.Priority}}.

The request, as written by the reporter:

{{.FreeText}}

Draft the ticket as follows:
{{range $i, $step := .Steps}}{{inc $i}}. {{$step}}
{{end}}
Return ONLY a JSON object with exactly these keys and no other text:

{
  "summary": "one-line ticket title",
  "description": "full ticket description",
  "acceptanceCriteria": "conditions under which the ticket is done"
}
`

// bugSteps asks for the reproduction detail that only makes sense for
// defect reports.
var bugSteps = []string{
	"Write a concise summary naming the failing component and symptom.",
	"Describe the problem, including steps to reproduce where they can be inferred.",
	"Document the actual behavior versus the expected behavior.",
	"List acceptance criteria that prove the defect is fixed.",
}

var workSteps = []string{
	"Write a concise summary naming the outcome being asked for.",
	"Describe the work, its motivation, and any constraints mentioned.",
	"List acceptance criteria that prove the work is complete.",
}

var prompt = template.Must(template.New("prompt").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(promptTemplate))

type promptData struct {
	Type     string
	Priority string
	FreeText string
	Steps    []string
}

// BuildPrompt renders the completion prompt for a ticket request. The
// output is deterministic for a given request.
func BuildPrompt(req models.TicketRequest) (string, error) {
	steps := workSteps
	if req.Type == "Bug" {
		steps = bugSteps
	}

	var sb strings.Builder
	data := promptData{
		Type:     req.Type,
		Priority: req.Priority,
		FreeText: req.FreeText,
		Steps:    steps,
	}
	if err := prompt.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}
