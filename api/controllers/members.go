package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/memberclub-backend/api/middleware"
	"github.com/angelmondragon/memberclub-backend/api/responses"
	"github.com/angelmondragon/memberclub-backend/internal/members"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
)

// MemberReader loads a member projection by id.
type MemberReader interface {
	Get(ctx context.Context, id uuid.UUID) (*members.MemberDTO, error)
}

// MemberProfile returns the authenticated member, including the cashback
// balance credited by checkout and its expiry.
func MemberProfile(svc MemberReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "member context missing"))
			return
		}

		profile, err := svc.Get(r.Context(), principal.MemberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}
