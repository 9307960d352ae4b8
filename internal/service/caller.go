package service

import "context"

type callerKey struct{}

// Caller is filled in by GenerateForecast once the bearer token is verified.
type Caller struct {
	UserID string
}

// WithCaller returns a context carrying an empty Caller that the service
// populates, so request logging can name the user even when the run fails.
func WithCaller(ctx context.Context) (context.Context, *Caller) {
	caller := &Caller{}
	return context.WithValue(ctx, callerKey{}, caller), caller
}

func recordCaller(ctx context.Context, userID string) {
	if caller, ok := ctx.Value(callerKey{}).(*Caller); ok {
		caller.UserID = userID
	}
}
