package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/factweave/factweave/model"
)

// Phase identifies a sub-step of one Write call, reported through the
// optional phase callback so callers can track granular progress.
type Phase string

// Phases reported during a single Write call.
const (
	PhaseResearching Phase = "researching"
	PhaseDrafting    Phase = "drafting"
)

// planInstruction asks the model to think before searching. The output is a
// numbered list of 1-2 concrete search queries, nothing else.
const planInstruction = "You are a research planner preparing to write a factual article. " +
	"Think carefully about what the article should cover and what specific facts " +
	"need to be verified. Focus on details likely to require current data: " +
	"statistics, names of key figures, recent events, and exact dates. " +
	"Output a numbered list of 1-2 precise search queries that will give the " +
	"article writer the most important current facts. Nothing else."

// searchInstruction asks the model to execute the planned queries and
// summarise findings.
const searchInstruction = "You are a research assistant executing a search plan for an article writer. " +
	"Use the web_search tool to execute the planned queries and summarise the key " +
	"facts you find. The article writer will rely on this summary as their sole " +
	"factual foundation, so be thorough and accurate."

// searchMaxUses caps research searches so they stay targeted and fast.
const searchMaxUses = 2

// Rules describes the structural constraints embedded into every drafting
// instruction.
type Rules struct {
	MaxWordCount      int      `yaml:"max_word_count"`
	MaxParagraphCount int      `yaml:"max_paragraph_count"`
	RequiredSections  []string `yaml:"required_sections"`
	Tone              string   `yaml:"tone"`
}

// Config holds the writer's prompt template and article rules. SystemPrompt
// may reference {{topic}} and {{feedback}} placeholders.
type Config struct {
	SystemPrompt string `yaml:"system_prompt"`
	Rules        Rules  `yaml:"article_rules"`
}

// Options configures optional Agent behavior.
type Options struct {
	// PhaseFunc, when set, is invoked before each sub-step of a Write call.
	PhaseFunc func(Phase)
}

// WithPhaseFunc registers a callback reporting sub-step progress.
func WithPhaseFunc(fn func(Phase)) func(o *Options) {
	return func(o *Options) { o.PhaseFunc = fn }
}

// Agent produces article drafts for a topic, optionally revising against
// reviewer feedback. Each Write runs a three-call flow:
//
//	Call 1 (plan):   no tools; the model decides what to search for and
//	                 outputs 1-2 precise queries.
//	Call 2 (search): the plan is threaded in as assistant context and the
//	                 model executes the queries via the bounded web_search
//	                 tool, returning a research summary.
//	Call 3 (draft):  the research summary is embedded into the system
//	                 instruction as the sole factual foundation and the model
//	                 writes the article.
//
// On revision rounds the plan query targets the specific claims that were
// flagged, so the writer searches for the correct information rather than
// guessing at corrections.
type Agent struct {
	llm       model.Model
	cfg       Config
	phaseFunc func(Phase)
}

// New constructs a writer Agent.
func New(llm model.Model, cfg Config, optFns ...func(o *Options)) *Agent {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{llm: llm, cfg: cfg, phaseFunc: opts.PhaseFunc}
}

// Write generates or revises an article draft. feedback carries the judge
// annotations from the previous round; nil or empty on the first call.
// The returned draft is never empty on success.
func (a *Agent) Write(ctx context.Context, topic string, feedback []string) (string, error) {
	a.reportPhase(PhaseResearching)
	research, err := a.research(ctx, topic, feedback)
	if err != nil {
		return "", err
	}

	a.reportPhase(PhaseDrafting)
	draft, err := a.llm.Complete(ctx, model.Request{
		System:   a.buildDraftInstruction(topic, feedback, research),
		Messages: []model.Message{{Role: model.RoleUser, Content: "Write the article now."}},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(draft) == "" {
		return "", fmt.Errorf("writer: model returned an empty draft for topic %q", topic)
	}
	return draft, nil
}

func (a *Agent) reportPhase(p Phase) {
	if a.phaseFunc != nil {
		a.phaseFunc(p)
	}
}

// research runs the plan and search calls and returns the research summary.
func (a *Agent) research(ctx context.Context, topic string, feedback []string) (string, error) {
	planQuery := buildPlanQuery(topic, feedback)

	// Plan call has no tools; this forces thinking before searching.
	plan, err := a.llm.Complete(ctx, model.Request{
		System:   planInstruction,
		Messages: []model.Message{{Role: model.RoleUser, Content: planQuery}},
	})
	if err != nil {
		return "", err
	}

	// Search call threads the plan in as assistant context.
	return a.llm.Complete(ctx, model.Request{
		System: searchInstruction,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: planQuery},
			{Role: model.RoleAssistant, Content: plan},
			{Role: model.RoleUser, Content: "Execute those searches now and summarise what you find."},
		},
		Tools: []model.ToolDefinition{model.WebSearchTool(searchMaxUses)},
	})
}

// buildPlanQuery targets revision-round searches at the flagged issues.
func buildPlanQuery(topic string, feedback []string) string {
	if len(feedback) > 0 {
		var issues strings.Builder
		for _, annotation := range feedback {
			fmt.Fprintf(&issues, "- %s\n", annotation)
		}
		return fmt.Sprintf(
			"Article topic: %s\n\n"+
				"The previous draft was rejected for these factual errors:\n%s\n"+
				"What 1-2 searches will find the correct information to fix these issues?",
			topic, strings.TrimRight(issues.String(), "\n"))
	}
	return fmt.Sprintf(
		"Article topic: %s\n\n"+
			"What 1-2 searches will give the most important current facts for this article?",
		topic)
}

// buildDraftInstruction renders the configured prompt template and appends
// the research findings and structure rules. The feedback block is omitted
// entirely when there is no feedback, leaving no empty placeholder text.
func (a *Agent) buildDraftInstruction(topic string, feedback []string, research string) string {
	var feedbackText string
	if len(feedback) > 0 {
		var lines strings.Builder
		for _, annotation := range feedback {
			fmt.Fprintf(&lines, "- %s\n", annotation)
		}
		feedbackText = "Feedback from the previous review:\n" + strings.TrimRight(lines.String(), "\n")
	}

	prompt := strings.ReplaceAll(a.cfg.SystemPrompt, "{{topic}}", topic)
	prompt = strings.ReplaceAll(prompt, "{{feedback}}", feedbackText)

	rules := a.cfg.Rules
	rulesText := fmt.Sprintf(
		"Article structure rules:\n"+
			"- Maximum word count: %d\n"+
			"- Maximum paragraph count: %d\n"+
			"- Required sections (in order): %s\n"+
			"- Tone: %s",
		rules.MaxWordCount, rules.MaxParagraphCount,
		strings.Join(rules.RequiredSections, ", "), rules.Tone)

	return fmt.Sprintf(
		"%s\n\n"+
			"Research findings. Use these as your sole factual foundation. "+
			"Do not state facts not supported by this research:\n%s\n\n%s",
		prompt, research, rulesText)
}
