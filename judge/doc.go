// Package judge implements the fact-checking agent of the factweave loop.
//
// Two interchangeable implementations satisfy the same contract, a verdict
// plus a list of defect annotations:
//
//   - Agent (canonical) researches with web search, then forces a structured
//     submit_verdict tool call whose conformance is guaranteed by the
//     provider API.
//   - TextAgent issues a single research-enabled call and strictly parses
//     its free-text reply with ParseVerdict, reporting a typed ParseError
//     for each distinct validation failure.
package judge
