package auth

import (
	"net/http"

	"github.com/dleads/stakeados/internal/model"
)

// StaticAuthProvider attaches a fixed user to every request. It backs
// local development without a Clerk key and the handler tests.
type StaticAuthProvider struct {
	UserID model.UserID
}

func NewStaticAuthProvider(userID model.UserID) *StaticAuthProvider {
	return &StaticAuthProvider{UserID: userID}
}

func (s *StaticAuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), s.UserID)))
		})
	}
}

func (s *StaticAuthProvider) GetUserIDFromSession(r *http.Request) (model.UserID, error) {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return userID, nil
	}
	return s.UserID, nil
}

func (s *StaticAuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return s.GetUserIDFromSession(r)
}
