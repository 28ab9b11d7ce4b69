package models

import "time"

type User struct {
	ID       string
	Email    string
	Name     string
	PassHash []byte
}

// Session is the single active session of a user. Both tokens are opaque;
// the access token authorizes requests until AccessTokenValidUntil, the
// refresh token mints a replacement session until RefreshTokenValidUntil.
type Session struct {
	ID                     string
	UserID                 string
	AccessToken            string
	RefreshToken           string
	AccessTokenValidUntil  time.Time
	RefreshTokenValidUntil time.Time
}

type EmailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
