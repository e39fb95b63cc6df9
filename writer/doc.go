// Package writer implements the drafting agent of the factweave loop.
//
// The agent turns a topic (plus optional judge feedback) into a full article
// draft through a plan → research → draft call sequence against the injected
// completion model. Research is grounded by a bounded web search tool; the
// drafting instruction embeds the research summary as the sole permitted
// factual foundation together with the configured structure rules.
package writer
