package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/factweave/factweave/model"
)

// ParseErrorKind identifies which validation check a free-text verdict failed.
type ParseErrorKind string

// Parse failure kinds, one per validation check.
const (
	ParseErrMalformed      ParseErrorKind = "malformed"       // not valid JSON
	ParseErrWrongShape     ParseErrorKind = "wrong_shape"     // top-level value is not a mapping
	ParseErrMissingVerdict ParseErrorKind = "missing_verdict" // verdict field absent
	ParseErrInvalidVerdict ParseErrorKind = "invalid_verdict" // verdict outside {pass, fail}
	ParseErrWrongType      ParseErrorKind = "wrong_type"      // annotations is not a list of strings
)

// ParseError reports a free-text verdict that failed validation. Kind tells
// callers which specific check failed; these errors abort the enclosing job.
type ParseError struct {
	Kind   ParseErrorKind
	Detail string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("judge: %s verdict response: %s", e.Kind, e.Detail)
}

// ParseVerdict parses a free-text judge response encoding a verdict and
// annotations as a JSON mapping. Every failure carries a distinct
// ParseErrorKind so callers can tell exactly which check failed.
//
// This is the fallback path for backends without forced tool calls; the
// canonical Agent never needs it because its verdict is schema-guaranteed.
func ParseVerdict(text string) (Result, error) {
	var value any
	if err := json.Unmarshal([]byte(stripFences(text)), &value); err != nil {
		return Result{}, &ParseError{Kind: ParseErrMalformed, Detail: err.Error()}
	}

	mapping, ok := value.(map[string]any)
	if !ok {
		return Result{}, &ParseError{Kind: ParseErrWrongShape, Detail: fmt.Sprintf("got %T, want a mapping", value)}
	}

	rawVerdict, ok := mapping["verdict"]
	if !ok {
		return Result{}, &ParseError{Kind: ParseErrMissingVerdict, Detail: "no verdict field"}
	}

	verdictStr, ok := rawVerdict.(string)
	if !ok {
		return Result{}, &ParseError{Kind: ParseErrInvalidVerdict, Detail: fmt.Sprintf("verdict %v is not pass or fail", rawVerdict)}
	}
	verdict := Verdict(strings.ToLower(strings.TrimSpace(verdictStr)))
	if verdict != VerdictPass && verdict != VerdictFail {
		return Result{}, &ParseError{Kind: ParseErrInvalidVerdict, Detail: fmt.Sprintf("verdict %q is not pass or fail", verdictStr)}
	}

	result := Result{Verdict: verdict}
	if rawAnnotations, ok := mapping["annotations"]; ok && rawAnnotations != nil {
		list, ok := rawAnnotations.([]any)
		if !ok {
			return Result{}, &ParseError{Kind: ParseErrWrongType, Detail: fmt.Sprintf("annotations %T is not a list", rawAnnotations)}
		}
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return Result{}, &ParseError{Kind: ParseErrWrongType, Detail: fmt.Sprintf("annotation %v is not a string", item)}
			}
			result.Annotations = append(result.Annotations, s)
		}
	}
	return result, nil
}

// stripFences removes a surrounding markdown code fence, which models
// routinely add around JSON output.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// textInstruction supplements the judge prompt on the free-text path, telling
// the model how to serialize its verdict.
const textInstruction = "\n\nWhen you have finished your research, respond with only a JSON object " +
	"of the form {\"verdict\": \"pass\" | \"fail\", \"annotations\": [\"...\"]} " +
	"with one annotation per factual issue found. No other text."

// TextAgent is the free-text judge variant: a single research-enabled call
// whose output is strictly parsed by ParseVerdict. Use it for backends that
// cannot force a tool call; prefer Agent elsewhere, since it eliminates the
// whole parse-error class.
type TextAgent struct {
	llm model.Model
	cfg Config
}

// NewTextAgent constructs a free-text judge.
func NewTextAgent(llm model.Model, cfg Config) *TextAgent {
	return &TextAgent{llm: llm, cfg: cfg}
}

// Judge fact-checks the draft in one research-enabled call and parses the
// serialized verdict.
func (a *TextAgent) Judge(ctx context.Context, topic, draft string) (Result, error) {
	helper := Agent{llm: a.llm, cfg: a.cfg}
	system := helper.buildInstruction(topic, draft) + textInstruction

	reply, err := a.llm.Complete(ctx, model.Request{
		System:   system,
		Messages: []model.Message{{Role: model.RoleUser, Content: "Review the article now."}},
		Tools:    []model.ToolDefinition{model.WebSearchTool(searchMaxUses)},
	})
	if err != nil {
		return Result{}, err
	}
	return ParseVerdict(reply)
}
