package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxMemberID contextKey = "member_id"
	ctxRole     contextKey = "actor_role"
	ctxTierID   contextKey = "tier_id"
)

// Principal is the authenticated member carried on the request context.
type Principal struct {
	MemberID uuid.UUID
	Role     string
	TierID   *uuid.UUID
}

// WithPrincipal seeds ctx with the authenticated member.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxMemberID, p.MemberID)
	ctx = context.WithValue(ctx, ctxRole, p.Role)
	if p.TierID != nil {
		tier := *p.TierID
		ctx = context.WithValue(ctx, ctxTierID, tier)
	}
	return ctx
}

// PrincipalFromContext returns the member seeded by Auth; ok is false when absent.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	id, ok := ctx.Value(ctxMemberID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return Principal{}, false
	}
	p := Principal{MemberID: id, Role: RoleFromContext(ctx)}
	if tier, ok := ctx.Value(ctxTierID).(uuid.UUID); ok {
		p.TierID = &tier
	}
	return p, true
}

func MemberIDFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.MemberID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}
