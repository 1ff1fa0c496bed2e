package services

import "context"

type scopeKey struct{}

// Scope identifies the unit of work a context belongs to. Zero fields are unset.
type Scope struct {
	SessionID string
	JobID     int64
	Chapter   string
}

// WithScope layers the non-zero fields of s over any scope already on ctx.
func WithScope(ctx context.Context, s Scope) context.Context {
	cur := ScopeFrom(ctx)
	if s.SessionID != "" {
		cur.SessionID = s.SessionID
	}
	if s.JobID != 0 {
		cur.JobID = s.JobID
	}
	if s.Chapter != "" {
		cur.Chapter = s.Chapter
	}
	return context.WithValue(ctx, scopeKey{}, cur)
}

// ScopeFrom returns the scope carried by ctx, or the zero Scope.
func ScopeFrom(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}
