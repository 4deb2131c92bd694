package database

import "context"

// sessionKey is the context key under which the task-current Session is bound. Unlike the source's
// ContextVar with explicit set/reset tokens, Go threads the scope explicitly through ctx: a child
// context returned by withSession carries the binding, and the LIFO restore the source performs with
// a reset token happens for free the moment a caller goes back to using its own, unmodified ctx.
type sessionKey struct{}

// withSession returns a child of ctx with sess bound as the task-current Session.
func withSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// sessionFromContext returns the task-current Session bound to ctx, if any.
func sessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	return sess, ok
}
