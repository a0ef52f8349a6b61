package controllers

import (
	"net/http"

	"github.com/atelierdoce/storefront-backend/api/responses"
	"github.com/atelierdoce/storefront-backend/api/validators"
	"github.com/atelierdoce/storefront-backend/internal/settings"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

// AdminGetUploaderSettings returns the public image-uploader credentials the
// back-office embeds in its upload widget.
func AdminGetUploaderSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploader, err := svc.GetUploaderSettings(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, uploader)
	}
}

// AdminPutUploaderSettings replaces the uploader credentials.
func AdminPutUploaderSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settings.UploaderSettings
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetUploaderSettings(r.Context(), req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}
