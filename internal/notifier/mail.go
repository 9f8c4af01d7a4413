package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/julianstephens/habitual/internal/reminders"
)

// MailConfig holds SMTP delivery settings.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	// UseTLS selects STARTTLS; otherwise the connection uses implicit SSL.
	UseTLS bool
}

func (c MailConfig) Validate() error {
	switch {
	case c.Host == "":
		return errors.New("smtp host is required")
	case c.Port <= 0:
		return errors.New("smtp port is required")
	case c.From == "" || c.To == "":
		return errors.New("smtp from and to addresses are required")
	}
	return nil
}

var dialAndSend = func(d *gomail.Dialer, m *gomail.Message) error {
	return d.DialAndSend(m)
}

// MailSink emails each notification.
type MailSink struct {
	cfg  MailConfig
	tmpl *template.Template
}

func NewMailSink(cfg MailConfig) (*MailSink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := template.New("notification").Parse(defaultMailTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail template: %w", err)
	}
	return &MailSink{cfg: cfg, tmpl: tmpl}, nil
}

func (s *MailSink) Deliver(_ context.Context, requestID string, content reminders.Content) error {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, content); err != nil {
		return fmt.Errorf("failed to render notification email: %w", err)
	}

	subject := content.Title
	if content.FollowUp {
		subject = "Reminder: " + subject
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To)
	m.SetHeader("Subject", subject)
	m.SetHeader("X-Habitual-Request", requestID)
	m.SetBody("text/plain", content.Body)
	m.AddAlternative("text/html", buf.String())

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.SSL = !s.cfg.UseTLS
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host}

	if err := dialAndSend(d, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

const defaultMailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2>{{.Title}}</h2>
        <p>{{.Body}}</p>
        {{if .DeepLink}}<p><a href="{{.DeepLink}}">Log it now</a></p>{{end}}
        <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
        <p style="color: #999; font-size: 12px;">Sent by habitual.</p>
    </div>
</body>
</html>
`
