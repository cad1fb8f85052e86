package email

import (
	"bytes"
	"context"
	"embed"
	"html/template"

	"github.com/shandysiswandi/quill/internal/notification/usecase"
	"github.com/shandysiswandi/quill/internal/pkg/instrument"
	"github.com/shandysiswandi/quill/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:embed template/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Option("missingkey=zero").ParseFS(templateFS, "template/*.html"))

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

func (m *Mail) SendWelcome(ctx context.Context, msg usecase.WelcomeEmail) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "SendWelcome")
	defer span.End()

	return m.send(ctx, span, "welcome.html", msg, mail.Message{
		To:       []string{msg.To},
		Subject:  "Welcome to " + msg.AppName,
		TextBody: "Hi " + msg.Name + ", your " + msg.AppName + " account is ready: " + msg.WebURL,
	})
}

func (m *Mail) SendActivity(ctx context.Context, msg usecase.ActivityEmail) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "SendActivity")
	defer span.End()

	text := msg.Headline
	if msg.Body != "" {
		text += "\n\n" + msg.Body
	}

	return m.send(ctx, span, "activity.html", msg, mail.Message{
		To:       []string{msg.To},
		Subject:  msg.Subject,
		TextBody: text + "\n\n" + msg.LinkURL,
	})
}

func (m *Mail) send(ctx context.Context, span trace.Span, tpl string, data any, msg mail.Message) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tpl, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	msg.HTMLBody = buf.String()

	if err := m.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
