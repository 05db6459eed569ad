package auth

import (
	"context"

	"stagedoor/internal/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// ContextWithPrincipal stores the resolved caller on the context.
func ContextWithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the resolved caller, or nil when the
// request never passed authentication.
func PrincipalFromContext(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey).(*models.Principal)
	return p
}
