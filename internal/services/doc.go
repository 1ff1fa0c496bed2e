// Package services holds what the workflow and the synthesizer adapter share:
// the Scope carried through contexts and the classified *Error that decides
// whether a failed chapter is retried or sent to review.
package services
