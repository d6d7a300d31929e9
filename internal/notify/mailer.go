package notify

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"

	mail "github.com/go-mail/mail/v2"
)

// Mailer sends workflow decision emails over SMTP
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewMailerFromEnv builds a Mailer from SMTP_* environment variables.
// Returns nil when SMTP_HOST is unset so callers can treat mail as optional.
func NewMailerFromEnv() *Mailer {
	host := os.Getenv("SMTP_HOST")
	from := os.Getenv("SMTP_FROM")
	if host == "" || from == "" {
		return nil
	}

	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}

	return &Mailer{
		host: host,
		port: port,
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASS"),
		from: from,
	}
}

// SendDecision mails an approval/rejection notice to the submitter
func (m *Mailer) SendDecision(to string, e Event) error {
	subject := fmt.Sprintf("[%s] %s %s", e.DocNo, e.Kind, e.Action)
	body := fmt.Sprintf("<p>Document <b>%s</b> has been <b>%s</b>.</p>", e.DocNo, e.Action)
	if e.Reason != "" {
		body += fmt.Sprintf("<p>Reason: %s</p>", e.Reason)
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := mail.NewDialer(m.host, m.port, m.user, m.pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         m.host,
		InsecureSkipVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
	}

	return d.DialAndSend(msg)
}
