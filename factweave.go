// Package factweave provides a high-level façade over the refinement loop
// and job registry, enabling construction of the whole system from a single
// configuration value. Most applications interact with this package by:
//  1. Creating a Factweave via New() (optionally injecting a custom model)
//  2. Submitting topics asynchronously (Submit + Get) or running one
//     synchronously (Generate)
//
// The façade delegates orchestration to loop.Loop and job.Registry while
// keeping setup ergonomics concise.
package factweave

import (
	"context"
	"fmt"
	"log/slog"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/factweave/factweave/config"
	"github.com/factweave/factweave/job"
	"github.com/factweave/factweave/judge"
	"github.com/factweave/factweave/loop"
	"github.com/factweave/factweave/model"
	"github.com/factweave/factweave/model/anthropic"
	"github.com/factweave/factweave/model/openai"
	"github.com/factweave/factweave/writer"
)

// Options configures the Factweave instance.
type Options struct {
	// Model overrides the provider selected by the configuration. Useful for
	// tests (model.MockModel) and custom backends.
	Model model.Model

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Factweave aggregates the configured agents, loop and job registry.
type Factweave struct {
	cfg      config.Config
	llm      model.Model
	loop     *loop.Loop
	registry *job.Registry
	logger   *slog.Logger
}

// New wires config → model → agents → loop → registry. An unknown provider
// is an error; to add one, implement model.Model and inject it via Options.
func New(cfg config.Config, optFns ...func(o *Options)) (*Factweave, error) {
	opts := Options{Logger: slog.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}

	llm := opts.Model
	if llm == nil {
		var err error
		if llm, err = buildModel(cfg.LLM); err != nil {
			return nil, err
		}
	}

	w := writer.New(llm, cfg.Writer)
	j := judge.New(llm, cfg.Judge)

	fw := &Factweave{cfg: cfg, llm: llm, logger: opts.Logger}
	fw.loop = loop.New(w, j, cfg.Agent.MaxIterations, loop.WithLogger(opts.Logger))

	runner := job.RunnerFunc(func(ctx context.Context, topic string, verbose bool, hooks loop.Hooks) (*loop.Result, error) {
		// A fresh loop per run binds that run's progress hooks without
		// sharing mutable state between concurrent jobs.
		l := loop.New(w, j, cfg.Agent.MaxIterations, loop.WithHooks(hooks), loop.WithLogger(opts.Logger))
		return l.Run(ctx, topic, verbose)
	})
	fw.registry = job.NewRegistry(runner, cfg.Agent.Workers, cfg.Agent.MaxIterations, job.WithLogger(opts.Logger))

	return fw, nil
}

// buildModel instantiates the completion backend for the configured provider.
func buildModel(cfg config.LLMConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		}), nil
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// Submit schedules an asynchronous refinement run and returns its job id.
func (f *Factweave) Submit(topic string, verbose bool) string {
	return f.registry.Submit(topic, verbose)
}

// Get returns a snapshot of a job record, or false for an unknown id.
func (f *Factweave) Get(id string) (job.Record, bool) {
	return f.registry.Get(id)
}

// Registry exposes the job registry, primarily for the HTTP layer.
func (f *Factweave) Registry() *job.Registry { return f.registry }

// Generate runs one refinement loop synchronously, bypassing the job layer.
func (f *Factweave) Generate(ctx context.Context, topic string, verbose bool) (*loop.Result, error) {
	return f.loop.Run(ctx, topic, verbose)
}

// ModelInfo reports the active completion backend.
func (f *Factweave) ModelInfo() model.Info { return f.llm.Info() }
