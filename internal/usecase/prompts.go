package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"portcall-service/internal/domain/entity"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// Prompt template names
const (
	promptETA            = "eta_isps.tmpl"
	promptClearance      = "clearance.tmpl"
	promptImportation    = "importation.tmpl"
	promptPortOperations = "port_operations.tmpl"
	promptSynthesisSys   = "synthesis_system.tmpl"
	promptSynthesisUser  = "synthesis_user.tmpl"
)

// PromptBuilder renders the research question for a query
type PromptBuilder func(q entity.Query) (string, error)

type researchPromptData struct {
	Port          string
	ArrivalDate   string
	ActivityType  string
	ActivityUpper string
	YachtFlag     string
	Country       string
}

type synthesisPromptData struct {
	Query      entity.Query
	Results    []*entity.ProducerResult
	Context    string
	Disclaimer string
}

// templatePrompt returns a PromptBuilder backed by the named template
func templatePrompt(name string) PromptBuilder {
	return func(q entity.Query) (string, error) {
		return renderPrompt(name, researchPromptData{
			Port:          strings.TrimSpace(q.Port),
			ArrivalDate:   strings.TrimSpace(q.ArrivalDate),
			ActivityType:  strings.TrimSpace(q.ActivityType),
			ActivityUpper: strings.ToUpper(strings.TrimSpace(q.ActivityType)),
			YachtFlag:     strings.TrimSpace(q.YachtFlag),
			Country:       q.CountryOrDefault(),
		})
	}
}

func renderPrompt(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

// buildResearchContext labels every producer result in order.
// Failed producers contribute their error instead of findings.
func buildResearchContext(results []*entity.ProducerResult) string {
	var sb strings.Builder
	for i, r := range results {
		if r == nil {
			continue
		}
		fmt.Fprintf(&sb, "**%d. %s (%s):**\n", i+1, r.Name, r.Domain)
		if r.Succeeded() {
			sb.WriteString(*r.Findings)
		} else {
			reason := r.ErrorText()
			if reason == "" {
				reason = "no data available"
			}
			sb.WriteString("Error: " + reason)
		}
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
