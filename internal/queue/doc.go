// Package queue persists chapter conversion jobs in SQLite and exposes the
// transitions the batch workflow drives them through.
//
// A job moves pending -> converting -> completed, or to failed/review when a
// conversion errors. Failed jobs may be retried; review jobs need the input
// fixed first (bad text, bad configuration) but can also be retried once that
// is done. Converting jobs left behind by a crash are returned to pending when
// a new run starts.
//
// The schema lives in embedded migrations under migrations/; add a new
// numbered file rather than editing an applied one.
package queue
