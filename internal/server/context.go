package server

import "context"

type contextKey int

const (
	userIDKey contextKey = iota
	tokenKey
	sessionErrKey
)

func withSession(ctx context.Context, token string, userID int64, ok bool) context.Context {
	ctx = context.WithValue(ctx, tokenKey, token)
	if ok {
		ctx = context.WithValue(ctx, userIDKey, userID)
	}
	return ctx
}

// withSessionError records that the session store could not resolve the request's token.
func withSessionError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, sessionErrKey, err)
}

// sessionErrFrom returns the session store failure recorded by [Session], if any.
func sessionErrFrom(ctx context.Context) error {
	err, _ := ctx.Value(sessionErrKey).(error)
	return err
}

// UserIDFrom returns the authenticated user id resolved by [Session], if any.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// tokenFrom returns the raw session token carried by the request, valid or not.
func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
