// Package notify delivers outbound email. The workflows only see the
// EmailSender interface; SMTP is the production implementation.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

const inviteSubject = "Invitation to join Hospital Management System as a Doctor"

const inviteBody = `<h1>Welcome to Hospital Management System</h1>
<p>Hi {{name}},</p>
<p>You have been invited to join our Hospital Management System as a Doctor.</p>
<p>Please click the link below to complete your registration:</p>
<a href="{{invite_link}}">Complete Registration</a>
<p>This link is valid for 24 hours.</p>
<p>Best regards,<br>Hospital Management Team</p>`

// RenderInvite fills the doctor invite template. Keys absent from the
// data are left as-is.
func RenderInvite(name, inviteLink string) (subject, body string) {
	r := strings.NewReplacer(
		"{{name}}", name,
		"{{invite_link}}", inviteLink,
	)
	return inviteSubject, r.Replace(inviteBody)
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	var a smtp.Auth
	if s.User != "" {
		a = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	if err := smtp.SendMail(addr, a, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send invite email: %w", err)
	}
	return nil
}
