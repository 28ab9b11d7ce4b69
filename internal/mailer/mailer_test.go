package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderResetEmail(t *testing.T) {
	html, err := RenderResetEmail("Anna", "http://localhost:3000/reset-password?token=abc.def.ghi")
	require.NoError(t, err)

	assert.Contains(t, html, "Hello, Anna!")
	assert.Contains(t, html, `href="http://localhost:3000/reset-password?token=abc.def.ghi"`)
}

func TestRenderResetEmail_EscapesName(t *testing.T) {
	html, err := RenderResetEmail("<script>alert(1)</script>", "http://localhost:3000/reset-password?token=t")
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
}
