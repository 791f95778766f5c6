// Package auth resolves the authenticated author behind editor and
// preferences requests.
package auth

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dleads/stakeados/internal/model"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

type AuthProvider interface {
	WithHeaderAuthorization() func(http.Handler) http.Handler

	GetUserIDFromSession(r *http.Request) (model.UserID, error)

	// EnforceUserAndGetID writes the 401 itself when the session is
	// missing; callers just bail on error.
	EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error)
}
