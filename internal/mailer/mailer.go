// Package mailer delivers notification emails either directly over SMTP or
// by publishing to a queue consumed by a separate sender worker.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"contacts_auth/internal/models"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templates embed.FS

var resetTemplate = template.Must(
	template.ParseFS(templates, "templates/reset_password.html"),
)

// RenderResetEmail fills the reset template with the recipient's name and the
// signed reset link.
func RenderResetEmail(name, link string) (string, error) {
	var buf bytes.Buffer

	err := resetTemplate.Execute(&buf, struct {
		Name string
		Link string
	}{
		Name: name,
		Link: link,
	})
	if err != nil {
		return "", fmt.Errorf("mailer.RenderResetEmail: %w", err)
	}

	return buf.String(), nil
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Send dials the SMTP server and sends synchronously; a rejection surfaces as
// an error so the caller can report the delivery failure.
func (m *SMTP) Send(_ context.Context, email models.EmailMessage) error {
	const op = "mailer.SMTP.Send"

	msg := gomail.NewMessage()
	msg.SetHeader("From", email.From)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)

	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
