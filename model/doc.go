// Package model defines the provider-agnostic completion capability consumed
// by the factweave agents.
//
// Core goals:
//   - Unify free-form and forced-structured completion behind a single interface
//   - Normalize tool definitions (ToolDefinition) across vendors
//   - Keep request shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. Anthropic, OpenAI) implement the Model interface from this
// package so higher layers (writer, judge, loop) remain decoupled from vendor
// SDKs. The forced-structured operation is the backbone of the judge's
// verdict call: the provider guarantees the returned arguments conform to the
// tool's schema, so malformed verdicts are impossible by construction.
package model
