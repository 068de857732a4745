package apiclient

import "context"

// TokenSource supplies the bearer token attached to API requests. The login
// flow owns the token; the client only reads it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, used by the CLI and the worker.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

type tokenKey struct{}

// WithToken returns a context carrying a per-request bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// ContextToken reads the token stored by WithToken. Anonymous requests get an
// empty token.
type ContextToken struct{}

func (ContextToken) Token(ctx context.Context) (string, error) {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token, nil
}
