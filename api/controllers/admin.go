package controllers

import (
	"net/http"

	"github.com/angelmondragon/memberclub-backend/api/responses"
	"github.com/angelmondragon/memberclub-backend/api/validators"
	"github.com/angelmondragon/memberclub-backend/internal/catalog"
	"github.com/angelmondragon/memberclub-backend/internal/tiers"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
)

// AdminDeleteCatalogItem removes an item together with every cart entry that references it.
func AdminDeleteCatalogItem(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.DeleteItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminDeleteTier removes a tier after detaching its members.
func AdminDeleteTier(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tier service unavailable"))
			return
		}

		tierID, err := validators.ParseUUIDParam(r, "tierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.DeleteTier(r.Context(), tierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
