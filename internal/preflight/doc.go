// Package preflight provides readiness checks for the filesystem paths and
// external commands narrator depends on.
//
// The CLI "narrator status" command renders every check; "narrator queue run"
// refuses to start when a required check fails, so a batch does not claim
// jobs it cannot finish.
package preflight
