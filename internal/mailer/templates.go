package mailer

import (
	"bytes"
	"html/template"

	"github.com/asesoriasalud/cotizaciones-api/internal/queue"
)

// The email bodies are simple inline-styled HTML, rendered with
// html/template so user-supplied values are always escaped.

var verificationTmpl = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #2c3e50; color: white; padding: 20px; text-align: center;">
    <h1>Asesoría de Salud Previsional</h1>
  </div>
  <div style="padding: 20px; background-color: #f8f9fa;">
    <h2>¡Hola {{.FirstName}}!</h2>
    <p>Gracias por registrarte en nuestro sistema de asesoría de seguros de salud.</p>
    <p>Para completar tu registro, verifica tu dirección de email:</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.URL}}" style="background-color: #3498db; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Verificar Email</a>
    </div>
    <p>O copia y pega este enlace en tu navegador:</p>
    <p style="word-break: break-all; color: #3498db;">{{.URL}}</p>
    <p>Si no solicitaste esta verificación, puedes ignorar este email.</p>
  </div>
</div>`))

var passwordResetTmpl = template.Must(template.New("reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #e74c3c; color: white; padding: 20px; text-align: center;">
    <h1>Restablecer Contraseña</h1>
  </div>
  <div style="padding: 20px; background-color: #f8f9fa;">
    <h2>¡Hola {{.FirstName}}!</h2>
    <p>Has solicitado restablecer tu contraseña.</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.URL}}" style="background-color: #e74c3c; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Restablecer Contraseña</a>
    </div>
    <p style="word-break: break-all; color: #e74c3c;">{{.URL}}</p>
    <p>Este enlace expira en 1 hora. Si no solicitaste el cambio, ignora este email.</p>
  </div>
</div>`))

var receiptTmpl = template.Must(template.New("receipt").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #2c3e50; color: white; padding: 20px; text-align: center;">
    <h1>Solicitud Recibida</h1>
  </div>
  <div style="padding: 20px; background-color: #f8f9fa;">
    <h2>¡Hola {{.Nombre}}!</h2>
    <p>Hemos recibido tu solicitud de cotización. Tu número de seguimiento es:</p>
    <p style="text-align: center; font-size: 20px; font-weight: bold;">{{.CotizacionID}}</p>
    <p>Te contactaremos pronto con los mejores planes para ti.</p>
  </div>
</div>`))

var noticeTmpl = template.Must(template.New("notice").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #27ae60; color: white; padding: 20px; text-align: center;">
    <h1>Nueva Cotización</h1>
  </div>
  <div style="padding: 20px; background-color: #f8f9fa;">
    <p><strong>Número:</strong> {{.CotizacionID}}</p>
    <p><strong>Nombre:</strong> {{.Nombre}} {{.Apellidos}}</p>
    <p><strong>Email:</strong> {{.Email}}</p>
    <p><strong>Teléfono:</strong> {{.Telefono}}</p>
    <p><strong>Isapre actual:</strong> {{.Isapre}}</p>
    <p><strong>Clínica preferida:</strong> {{.Clinica}}</p>
    <p><strong>Renta:</strong> {{.Renta}}</p>
    <p><strong>Cargas:</strong> {{.NumeroCargas}}</p>
    <p><strong>Mensaje:</strong> {{.Mensaje}}</p>
    <p><strong>Fecha:</strong> {{.FechaEnvio}}</p>
  </div>
</div>`))

type linkData struct {
	FirstName string
	URL       string
}

func renderVerification(frontendURL, token, firstName string) (string, error) {
	return renderLink(verificationTmpl, firstName, frontendURL+"/verify-email?token="+token)
}

func renderPasswordReset(frontendURL, token, firstName string) (string, error) {
	return renderLink(passwordResetTmpl, firstName, frontendURL+"/reset-password?token="+token)
}

func renderLink(t *template.Template, firstName, url string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, linkData{FirstName: firstName, URL: url}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderCotizacionReceipt(ev queue.CotizacionCreatedEvent) (string, error) {
	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, ev); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderCotizacionNotice(ev queue.CotizacionCreatedEvent) (string, error) {
	var buf bytes.Buffer
	if err := noticeTmpl.Execute(&buf, ev); err != nil {
		return "", err
	}
	return buf.String(), nil
}
