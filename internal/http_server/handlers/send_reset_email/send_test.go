package sendResetEmail

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"contacts_auth/internal/auth"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type fakeRequester struct {
	err      error
	gotEmail string
}

func (f *fakeRequester) RequestPasswordReset(_ context.Context, email string) error {
	f.gotEmail = email
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/auth/send-reset-email", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	return rec
}

func TestSendResetEmail_OK(t *testing.T) {
	service := &fakeRequester{}
	handler := New(discardLogger(), validator.New(), service)

	rec := post(t, handler, `{"email":"a@x.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", service.gotEmail)
}

func TestSendResetEmail_UnknownUser(t *testing.T) {
	handler := New(discardLogger(), validator.New(), &fakeRequester{err: auth.ErrUserNotFound})

	rec := post(t, handler, `{"email":"unknown@x.com"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendResetEmail_DeliveryFailed(t *testing.T) {
	handler := New(discardLogger(), validator.New(), &fakeRequester{err: auth.ErrEmailDelivery})

	rec := post(t, handler, `{"email":"a@x.com"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to send the email")
}

func TestSendResetEmail_Validation(t *testing.T) {
	handler := New(discardLogger(), validator.New(), &fakeRequester{})

	for name, body := range map[string]string{
		"missing email": `{}`,
		"bad email":     `{"email":"nope"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := post(t, handler, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
