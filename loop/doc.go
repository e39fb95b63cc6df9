// Package loop contains the orchestration state machine driving the
// writer → judge refinement cycle.
//
// A run alternates drafting and fact-checking, threading each failing
// round's annotations into the next writer call, until a draft passes or a
// configured iteration cap is hit. The loop owns the append-only iteration
// history and assembles the terminal Result; it performs no retries, no
// internal parallelism and no error recovery: capability failures unwind to
// the caller (the job worker) untouched.
package loop
