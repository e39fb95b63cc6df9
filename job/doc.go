// Package job bridges the synchronous refinement loop into an asynchronous
// submit/poll interface.
//
// A Registry allocates a pollable Record per submission and schedules the
// run on a bounded worker pool; excess submissions queue for a free slot.
// Workers stream best-effort phase/iteration/verdict progress into the
// record and convert any failure (capability errors, verdict parse errors,
// panics) into a terminal error record without taking the process down.
package job
