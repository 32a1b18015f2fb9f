package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriasalud/cotizaciones-api/internal/queue"
)

func TestRenderVerification(t *testing.T) {
	t.Parallel()

	html, err := renderVerification("https://app.example.com", "tok123", "Ana")
	require.NoError(t, err)

	assert.Contains(t, html, "Ana")
	assert.Contains(t, html, "https://app.example.com/verify-email?token=tok123")
}

func TestRenderPasswordReset(t *testing.T) {
	t.Parallel()

	html, err := renderPasswordReset("https://app.example.com", "tok456", "Pedro")
	require.NoError(t, err)

	assert.Contains(t, html, "Pedro")
	assert.Contains(t, html, "https://app.example.com/reset-password?token=tok456")
	assert.Contains(t, html, "expira en 1 hora")
}

func TestRenderCotizacionReceipt(t *testing.T) {
	t.Parallel()

	html, err := renderCotizacionReceipt(queue.CotizacionCreatedEvent{
		CotizacionID: "COT-20260901-123456",
		Nombre:       "María",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "María")
	assert.Contains(t, html, "COT-20260901-123456")
}

func TestRenderCotizacionNoticeEscapesInput(t *testing.T) {
	t.Parallel()

	html, err := renderCotizacionNotice(queue.CotizacionCreatedEvent{
		CotizacionID: "COT-20260901-654321",
		Nombre:       "<script>alert(1)</script>",
		Email:        "x@example.com",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "COT-20260901-654321")
	assert.NotContains(t, html, "<script>")
}
