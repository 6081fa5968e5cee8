package notifier

import (
	"fmt"
	"strings"
	"text/template"

	"storefront-service/internal/notification"
)

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(subject, body string) emailTemplate {
	return emailTemplate{
		subject: template.Must(template.New("subject").Parse(subject)),
		body:    template.Must(template.New("body").Parse(body)),
	}
}

var templates = map[notification.EventType]emailTemplate{
	notification.OrderStatusChanged: mustTemplate(
		"Your order {{.OrderID}} is now {{.Status}}",
		"Hi {{if .Name}}{{.Name}}{{else}}there{{end}},\n\n"+
			"The status of your order {{.OrderID}} changed to {{.Status}}.\n\n"+
			"Thanks for shopping with us!",
	),
	notification.EmailVerification: mustTemplate(
		"Verify your email address",
		"Hi {{if .Name}}{{.Name}}{{else}}there{{end}},\n\n"+
			"Please confirm your email address by opening this link:\n{{.VerificationURL}}\n\n"+
			"If you did not create an account you can ignore this message.",
	),
	notification.ForgotPassword: mustTemplate(
		"Reset your password",
		"Hi {{if .Name}}{{.Name}}{{else}}there{{end}},\n\n"+
			"We received a request to reset your password. Use this link to choose a new one:\n{{.ResetURL}}\n\n"+
			"If you did not ask for this, no action is needed.",
	),
}

// Render arma asunto y cuerpo para el tipo de evento.
func Render(t notification.EventType, data any) (subject, body string, err error) {
	tpl, ok := templates[t]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", notification.ErrUnknownEventType, t)
	}

	var sb strings.Builder
	if err := tpl.subject.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", t, err)
	}
	subject = sb.String()

	sb.Reset()
	if err := tpl.body.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", t, err)
	}
	return subject, sb.String(), nil
}
