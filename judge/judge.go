package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/factweave/factweave/model"
)

// Verdict is the judge's pass/fail judgment on a draft.
type Verdict string

// Verdict values.
const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// Result is the structured outcome of one review: a verdict plus one
// annotation per factual issue found. Annotations is empty on a pass.
type Result struct {
	Verdict     Verdict  `json:"verdict"`
	Annotations []string `json:"annotations"`
}

// Config holds the judge's prompt template and acceptance criteria.
// SystemPrompt may reference {{topic}} and {{article}} placeholders; the
// acceptance criteria are appended to the instruction in order.
type Config struct {
	SystemPrompt       string   `yaml:"system_prompt"`
	AcceptanceCriteria []string `yaml:"acceptance_criteria"`
}

// verdictToolName is the forced tool the model must call to submit its verdict.
const verdictToolName = "submit_verdict"

// searchMaxUses caps fact-checking searches per review.
const searchMaxUses = 3

// verdictTool is the schema the provider enforces on the forced verdict call.
// Because conformance is API-guaranteed, no parsing or validation happens on
// this path; malformed verdicts are structurally impossible.
func verdictTool() model.ToolDefinition {
	return model.ToolDefinition{
		Name: verdictToolName,
		Description: "Submit the final fact-checking verdict after completing your research. " +
			"Call this tool once you have verified all factual claims in the article.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"verdict": map[string]any{
					"type": "string",
					"enum": []string{string(VerdictPass), string(VerdictFail)},
					"description": "pass if every factual claim is accurate; " +
						"fail if one or more claims are incorrect or unverifiable",
				},
				"annotations": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
					"description": "One entry per factual issue found. Each entry states what is " +
						"wrong and where it appears in the article. Empty list when verdict is pass.",
				},
			},
			"required": []string{"verdict", "annotations"},
		},
	}
}

// Agent fact-checks writer drafts against their topic. Each Judge call runs a
// two-call flow:
//
//	Call 1 (research): the model is given the web_search tool and told to
//	                   verify every factual claim, returning a text analysis.
//	Call 2 (verdict):  the research text is appended to the conversation and
//	                   the model is forced to call submit_verdict; the
//	                   provider guarantees the response conforms to the
//	                   tool's schema.
type Agent struct {
	llm model.Model
	cfg Config
}

// New constructs a judge Agent.
func New(llm model.Model, cfg Config) *Agent {
	return &Agent{llm: llm, cfg: cfg}
}

// Judge fact-checks the draft and returns a structured verdict.
func (a *Agent) Judge(ctx context.Context, topic, draft string) (Result, error) {
	system := a.buildInstruction(topic, draft)

	research, err := a.llm.Complete(ctx, model.Request{
		System:   system,
		Messages: []model.Message{{Role: model.RoleUser, Content: "Review the article now."}},
		Tools:    []model.ToolDefinition{model.WebSearchTool(searchMaxUses)},
	})
	if err != nil {
		return Result{}, err
	}

	args, err := a.llm.CompleteForced(ctx, model.Request{
		System: system,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "Review the article now."},
			{Role: model.RoleAssistant, Content: research},
			{Role: model.RoleUser, Content: "Submit your verdict now."},
		},
	}, verdictTool())
	if err != nil {
		return Result{}, err
	}

	return decodeVerdict(args)
}

// decodeVerdict lifts the schema-guaranteed tool arguments into a Result.
// Only type assertions happen here; the shape is enforced by the provider.
func decodeVerdict(args map[string]any) (Result, error) {
	verdict, ok := args["verdict"].(string)
	if !ok {
		return Result{}, fmt.Errorf("judge: forced verdict call returned non-string verdict %v", args["verdict"])
	}

	result := Result{Verdict: Verdict(verdict)}
	if raw, ok := args["annotations"].([]any); ok {
		for _, item := range raw {
			result.Annotations = append(result.Annotations, fmt.Sprintf("%v", item))
		}
	}
	return result, nil
}

// buildInstruction renders the configured prompt and appends the acceptance
// criteria bullet list.
func (a *Agent) buildInstruction(topic, article string) string {
	prompt := strings.ReplaceAll(a.cfg.SystemPrompt, "{{topic}}", topic)
	prompt = strings.ReplaceAll(prompt, "{{article}}", article)

	var criteria strings.Builder
	for _, criterion := range a.cfg.AcceptanceCriteria {
		fmt.Fprintf(&criteria, "- %s\n", criterion)
	}
	return fmt.Sprintf("%s\nAcceptance criteria:\n%s", prompt, strings.TrimRight(criteria.String(), "\n"))
}
