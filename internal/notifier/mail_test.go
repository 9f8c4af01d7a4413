package notifier

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"

	"github.com/julianstephens/habitual/internal/reminders"
)

func TestMailConfigValidate(t *testing.T) {
	valid := MailConfig{Host: "smtp.example.com", Port: 587, From: "a@example.com", To: "b@example.com"}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		mod  func(*MailConfig)
	}{
		{"no host", func(c *MailConfig) { c.Host = "" }},
		{"no port", func(c *MailConfig) { c.Port = 0 }},
		{"no to", func(c *MailConfig) { c.To = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mod(&cfg)
			if _, err := NewMailSink(cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMailSinkDeliver(t *testing.T) {
	var gotDialer *gomail.Dialer
	var raw bytes.Buffer
	old := dialAndSend
	defer func() { dialAndSend = old }()
	dialAndSend = func(d *gomail.Dialer, m *gomail.Message) error {
		gotDialer = d
		_, err := m.WriteTo(&raw)
		return err
	}

	sink, err := NewMailSink(MailConfig{
		Host: "smtp.example.com", Port: 587, Username: "me", Password: "pw",
		From: "habitual@example.com", To: "me@example.com", UseTLS: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	content := reminders.Content{Title: "Read", Body: "Still not logged. Mark it complete?", FollowUp: true}
	if err := sink.Deliver(context.Background(), "habit.a.followup.x", content); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if gotDialer.Host != "smtp.example.com" || gotDialer.Port != 587 || gotDialer.SSL {
		t.Errorf("unexpected dialer %+v", gotDialer)
	}
	msg := raw.String()
	for _, want := range []string{"Subject: Reminder: Read", "To: me@example.com", "X-Habitual-Request: habit.a.followup.x", "Mark it complete?"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestMailSinkSendFailure(t *testing.T) {
	old := dialAndSend
	defer func() { dialAndSend = old }()
	dialAndSend = func(*gomail.Dialer, *gomail.Message) error { return errors.New("connection refused") }

	sink, err := NewMailSink(MailConfig{Host: "h", Port: 465, From: "a@b.c", To: "d@e.f"})
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Deliver(context.Background(), "habit.a", reminders.Content{Title: "x"}); err == nil {
		t.Error("expected error")
	}
}
