package cart

import (
	"net/http"

	"github.com/angelmondragon/memberclub-backend/api/middleware"
	cartsvc "github.com/angelmondragon/memberclub-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
)

func memberFromRequest(r *http.Request) (cartsvc.Member, error) {
	if r == nil {
		return cartsvc.Member{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "member context missing")
	}
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return cartsvc.Member{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "member context missing")
	}
	return cartsvc.Member{ID: principal.MemberID, TierID: principal.TierID}, nil
}
