// Package logging builds narrator's slog loggers.
//
// NewFromConfig picks the console or JSON handler and the level from the
// [logging] section and tees output into the log file that 'narrator logs'
// tails. WithContext stamps session, job and chapter fields from the work
// scope carried by a context. WarnWithContext and ErrorWithContext add the
// event_type and error_hint fields operators filter on.
package logging
