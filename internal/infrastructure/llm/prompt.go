package llm

import (
	"encoding/json"
	"strings"
	"text/template"

	"github.com/turtacn/MolSieve/internal/domain/candidate"
)

const proposalSystemPrompt = "You are a molecular designer. Propose diverse, novel small molecules as SMILES " +
	"for the target below. Satisfy constraints and desired properties conservatively. Return ONLY JSON: {\n" +
	"  \"candidates\": [{ \"smiles\": string, \"rationale\": string }]\n" +
	"}. Ensure diversity and avoid trivial variants."

const predictionSystemPrompt = "You are a pharmaceutical assistant specialized in early-phase molecule assessment. " +
	"Provide non-clinical, high-level estimates only."

var proposalUserTmpl = template.Must(template.New("proposal").Parse(
	`Target: {{.Target}}.
Desired: {{.Desired}}.
Constraints: {{.Constraints}}.
Count: {{.Count}}. Seed: {{if .Seed}}{{.Seed}}{{else}}None{{end}}.
{{- if .Strategy}}
Strategy: {{.Strategy}}.
{{- end}}
Return compact JSON only.`))

var predictionUserTmpl = template.Must(template.New("prediction").Parse(
	`Task: Predict molecular properties.
Molecule: {{.Name}}
SMILES: {{if .SMILES}}{{.SMILES}}{{else}}N/A{{end}}

Return ONLY valid JSON (no backticks, no commentary) with the schema: {
  "toxicity": {"score": 0-100, "level": "low|medium|high", "explanation": string},
  "solubility": {"score": 0-100, "details": string},
  "drugLikeness": {"score": 0-100, "passes": boolean},
  "bioavailability": {"percentage": 0-100, "explanation": string},
  "bbbPenetration": {"canCross": boolean, "confidence": string},
  "lipinskiRules": {"passes": boolean, "violations": string[]}
}. If unsure, estimate conservatively.`))

func renderProposalPrompt(req candidate.ProposalRequest) (string, error) {
	desired, err := json.Marshal(req.Profile.Wire())
	if err != nil {
		return "", err
	}
	constraints, err := json.Marshal(req.Constraints.Wire())
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	err = proposalUserTmpl.Execute(&sb, map[string]interface{}{
		"Target":      req.Target,
		"Desired":     string(desired),
		"Constraints": string(constraints),
		"Count":       req.Count,
		"Seed":        req.Seed,
		"Strategy":    req.Strategy,
	})
	return sb.String(), err
}

func renderPredictionPrompt(name, smiles string) (string, error) {
	var sb strings.Builder
	err := predictionUserTmpl.Execute(&sb, map[string]string{"Name": name, "SMILES": smiles})
	return sb.String(), err
}

// extractJSON drops markdown fences and anything outside the outermost braces.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	s = strings.Trim(s, "`")
	if i := strings.Index(s, "{"); i >= 0 {
		s = s[i:]
	}
	if j := strings.LastIndex(s, "}"); j >= 0 {
		s = s[:j+1]
	}
	return s
}

//Personal.AI order the ending
