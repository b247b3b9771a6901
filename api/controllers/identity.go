package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

// requireUser writes a 401 and reports false when no session is attached.
func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return uuid.Nil, false
	}
	return userID, true
}
