// Package handlers holds the HTTP handlers.
//
// Handlers are thin: parse the request, call a service, write the
// response. Business rules live in services and status mapping in
// pkg.Error.
package handlers

import (
	"net/http"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

// contextKey keeps our context values out of other packages' namespace.
type contextKey string

// UserContextKey carries the *models.User set by the auth middleware.
const UserContextKey contextKey = "user"

// currentUser returns the caller loaded by the auth middleware.
func currentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}
