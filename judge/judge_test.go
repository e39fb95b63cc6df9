package judge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factweave/factweave/model"
)

func testConfig() Config {
	return Config{
		SystemPrompt: "Fact-check this article about {{topic}}:\n{{article}}",
		AcceptanceCriteria: []string{
			"All dates are correct.",
			"All names are spelled correctly.",
		},
	}
}

func TestJudge_PassVerdict(t *testing.T) {
	llm := model.NewMockModel()
	llm.QueueCompletion("research notes: everything checks out")
	llm.QueueForced(map[string]any{"verdict": "pass", "annotations": []any{}})

	result, err := New(llm, testConfig()).Judge(context.Background(), "The Moon", "The Moon orbits Earth.")

	require.NoError(t, err)
	assert.Equal(t, VerdictPass, result.Verdict)
	assert.Empty(t, result.Annotations)
}

func TestJudge_FailVerdictWithAnnotations(t *testing.T) {
	llm := model.NewMockModel()
	llm.QueueCompletion("research notes: found two problems")
	llm.QueueForced(map[string]any{
		"verdict":     "fail",
		"annotations": []any{"The launch year is wrong.", "The crew size is wrong."},
	})

	result, err := New(llm, testConfig()).Judge(context.Background(), "Apollo 11", "draft text")

	require.NoError(t, err)
	assert.Equal(t, VerdictFail, result.Verdict)
	assert.Equal(t, []string{"The launch year is wrong.", "The crew size is wrong."}, result.Annotations)
}

func TestJudge_InstructionContents(t *testing.T) {
	llm := model.NewMockModel()
	llm.QueueCompletion("research")
	llm.QueueForced(map[string]any{"verdict": "pass", "annotations": []any{}})

	_, err := New(llm, testConfig()).Judge(context.Background(), "The Moon", "the draft body")
	require.NoError(t, err)

	require.Len(t, llm.Calls, 1)
	system := llm.Calls[0].System
	assert.Contains(t, system, "The Moon")
	assert.Contains(t, system, "the draft body")
	assert.Contains(t, system, "All dates are correct.")
	assert.Contains(t, system, "All names are spelled correctly.")
}

func TestJudge_ResearchCallHasSearchTool(t *testing.T) {
	llm := model.NewMockModel()
	llm.QueueCompletion("research")
	llm.QueueForced(map[string]any{"verdict": "pass", "annotations": []any{}})

	_, err := New(llm, testConfig()).Judge(context.Background(), "t", "d")
	require.NoError(t, err)

	require.Len(t, llm.Calls, 1)
	require.Len(t, llm.Calls[0].Tools, 1)
	assert.Equal(t, model.WebSearchToolName, llm.Calls[0].Tools[0].Name)
}

func TestJudge_VerdictCallThreadsResearch(t *testing.T) {
	llm := model.NewMockModel()
	llm.QueueCompletion("the research findings")
	llm.QueueForced(map[string]any{"verdict": "pass", "annotations": []any{}})

	_, err := New(llm, testConfig()).Judge(context.Background(), "t", "d")
	require.NoError(t, err)

	require.Len(t, llm.ForcedCalls, 1)
	forced := llm.ForcedCalls[0]
	assert.Equal(t, "submit_verdict", forced.Tool.Name)

	// Research appears as prior assistant context in the verdict conversation.
	require.Len(t, forced.Request.Messages, 3)
	assert.Equal(t, model.RoleAssistant, forced.Request.Messages[1].Role)
	assert.Equal(t, "the research findings", forced.Request.Messages[1].Content)
}

func TestJudge_ResearchErrorPropagates(t *testing.T) {
	llm := model.NewMockModel()
	llm.Err = errors.New("provider down")

	_, err := New(llm, testConfig()).Judge(context.Background(), "t", "d")

	assert.ErrorContains(t, err, "provider down")
	assert.Empty(t, llm.ForcedCalls, "no verdict call after a failed research call")
}

func TestVerdictTool_Schema(t *testing.T) {
	tool := verdictTool()

	assert.Equal(t, "submit_verdict", tool.Name)
	props, ok := tool.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "verdict")
	assert.Contains(t, props, "annotations")
	assert.Equal(t, []string{"verdict", "annotations"}, tool.Parameters["required"])
}
