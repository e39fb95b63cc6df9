// Package config loads the factweave configuration from a YAML file with
// FACTWEAVE_* environment overrides. Every field has a working default, so
// the service runs with an empty or missing file; nothing outside this
// package reads YAML directly.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/factweave/factweave/judge"
	"github.com/factweave/factweave/writer"
)

// Provider names accepted in LLMConfig.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// LLMConfig selects and tunes the completion backend. API keys are read from
// the environment by the provider SDKs (ANTHROPIC_API_KEY, OPENAI_API_KEY),
// never from this file.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// AgentConfig tunes the refinement loop and worker pool.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"`
	Workers       int `yaml:"workers"`
}

// ServerConfig tunes the HTTP layer. APIToken enables bearer auth on the
// /api routes when non-empty.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	APIToken string `yaml:"api_token"`
}

// LogConfig tunes structured logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Config is the top-level container every other package receives its
// tunables from.
type Config struct {
	LLM    LLMConfig     `yaml:"llm"`
	Agent  AgentConfig   `yaml:"agent"`
	Writer writer.Config `yaml:"writer"`
	Judge  judge.Config  `yaml:"judge"`
	Server ServerConfig  `yaml:"server"`
	Log    LogConfig     `yaml:"log"`
}

// Default returns the baseline configuration used when a field is absent.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    ProviderAnthropic,
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Agent: AgentConfig{
			MaxIterations: 3,
			Workers:       4,
		},
		Writer: writer.Config{
			SystemPrompt: "You are an expert article writer. Write a complete, factually " +
				"accurate article about the following topic: {{topic}}\n\n{{feedback}}",
			Rules: writer.Rules{
				MaxWordCount:      800,
				MaxParagraphCount: 8,
				RequiredSections:  []string{"Introduction", "Body", "Conclusion"},
				Tone:              "informative and neutral",
			},
		},
		Judge: judge.Config{
			SystemPrompt: "You are a meticulous fact-checker. Verify every factual claim in " +
				"the following article about \"{{topic}}\" using web search.\n\n" +
				"Article:\n{{article}}\n",
			AcceptanceCriteria: []string{
				"Every statistic, date and name is accurate and verifiable.",
				"No claim contradicts the research findings.",
				"The article stays on the given topic.",
			},
		},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults plus env are a complete configuration.
		case err != nil:
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field-level constraints, naming the offending field.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider)
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("agent.max_iterations: must be at least 1, got %d", c.Agent.MaxIterations)
	}
	if c.Agent.Workers < 1 {
		return fmt.Errorf("agent.workers: must be at least 1, got %d", c.Agent.Workers)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d is out of range", c.Server.Port)
	}
	return nil
}

// applyEnvOverrides lets FACTWEAVE_* environment variables override file and
// default values on all platforms.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.LLM.Provider, "FACTWEAVE_PROVIDER")
	setString(&cfg.LLM.Model, "FACTWEAVE_MODEL")
	setInt(&cfg.Agent.MaxIterations, "FACTWEAVE_MAX_ITERATIONS")
	setInt(&cfg.Agent.Workers, "FACTWEAVE_WORKERS")
	setInt(&cfg.Server.Port, "FACTWEAVE_PORT")
	setString(&cfg.Server.APIToken, "FACTWEAVE_API_TOKEN")
	setString(&cfg.Log.Level, "FACTWEAVE_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
