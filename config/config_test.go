package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "factweave.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	assert.Equal(t, 4, cfg.Agent.Workers)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Contains(t, cfg.Writer.SystemPrompt, "{{topic}}")
	assert.Contains(t, cfg.Writer.SystemPrompt, "{{feedback}}")
	assert.Contains(t, cfg.Judge.SystemPrompt, "{{article}}")
	assert.NotEmpty(t, cfg.Judge.AcceptanceCriteria)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyPathSkipsFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: openai
  model: gpt-4o
  temperature: 0.2
agent:
  max_iterations: 5
  workers: 2
writer:
  article_rules:
    max_word_count: 500
    required_sections: [Summary, Sources]
server:
  port: 9090
  api_token: sekrit
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, 2, cfg.Agent.Workers)
	assert.Equal(t, 500, cfg.Writer.Rules.MaxWordCount)
	assert.Equal(t, []string{"Summary", "Sources"}, cfg.Writer.Rules.RequiredSections)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sekrit", cfg.Server.APIToken)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Fields the file leaves out keep their defaults.
	assert.Equal(t, int64(4096), cfg.LLM.MaxTokens)
	assert.NotEmpty(t, cfg.Judge.AcceptanceCriteria)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "llm: [not a mapping")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: anthropic
agent:
  max_iterations: 3
server:
  port: 8080
`)
	t.Setenv("FACTWEAVE_PROVIDER", "openai")
	t.Setenv("FACTWEAVE_MODEL", "gpt-4o-mini")
	t.Setenv("FACTWEAVE_MAX_ITERATIONS", "7")
	t.Setenv("FACTWEAVE_WORKERS", "8")
	t.Setenv("FACTWEAVE_PORT", "3000")
	t.Setenv("FACTWEAVE_API_TOKEN", "from-env")
	t.Setenv("FACTWEAVE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 7, cfg.Agent.MaxIterations)
	assert.Equal(t, 8, cfg.Agent.Workers)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Server.APIToken)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_NonNumericEnvIsIgnored(t *testing.T) {
	t.Setenv("FACTWEAVE_MAX_ITERATIONS", "lots")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
}

func TestValidate_NamesOffendingField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{
			name:   "unknown provider",
			mutate: func(c *Config) { c.LLM.Provider = "cohere" },
			want:   "llm.provider",
		},
		{
			name:   "zero iterations",
			mutate: func(c *Config) { c.Agent.MaxIterations = 0 },
			want:   "agent.max_iterations",
		},
		{
			name:   "zero workers",
			mutate: func(c *Config) { c.Agent.Workers = 0 },
			want:   "agent.workers",
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			want:   "server.port",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_InvalidConfigIsRejected(t *testing.T) {
	path := writeConfig(t, "llm:\n  provider: mystery\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
}
