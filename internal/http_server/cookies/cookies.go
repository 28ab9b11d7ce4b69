// Package cookies sets and clears the session cookie pair used by the
// refresh and logout endpoints.
package cookies

import (
	"net/http"
	"time"

	"contacts_auth/internal/models"
)

const (
	SessionID    = "sessionId"
	RefreshToken = "refreshToken"
)

func SetSession(w http.ResponseWriter, session models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionID,
		Value:    session.ID,
		Path:     "/auth",
		Expires:  session.RefreshTokenValidUntil,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshToken,
		Value:    session.RefreshToken,
		Path:     "/auth",
		Expires:  session.RefreshTokenValidUntil,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearSession(w http.ResponseWriter) {
	for _, name := range []string{SessionID, RefreshToken} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/auth",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
