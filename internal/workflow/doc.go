// Package workflow drains the job ledger, narrating one chapter at a time.
//
// A Runner holds an exclusive file lock in the state directory for the whole
// run, so two batch runs never claim the same job. Each run gets a session ID
// that is stored on every job it touches and attached to every log line.
// Converting jobs found at start-up belong to a run that died; they are put
// back to pending before the first claim. Cancelling the context stops the
// run after returning the in-flight job to pending.
package workflow
