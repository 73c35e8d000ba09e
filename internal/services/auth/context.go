package auth

import (
	"context"

	"cinepwa/proj/internal/domain/models"
)

type ctxKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	User      models.User
	SessionID string
	ExpiresAt int64
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

// CallerID returns the id of the user behind ctx or ErrUnauthorized.
func CallerID(ctx context.Context) (string, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", ErrUnauthorized
	}
	return p.User.ID, nil
}
