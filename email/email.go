package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Links holds the URLs embedded in outgoing messages.
type Links struct {
	RecoveryURL string
}

type Mailer struct {
	address  string
	password string
	host     string
	port     string
	links    Links
}

func New(address string, password string, host string, port string, links Links) *Mailer {
	return &Mailer{
		address:  address,
		password: password,
		host:     host,
		port:     port,
		links:    links,
	}
}

// SendResetCode mails a one-time password-reset code.
func (m *Mailer) SendResetCode(to string, code string) error {
	subject := "Password reset code"
	body := fmt.Sprintf(
		"Your reset code is: %s\r\n\r\nEnter it at %s to choose a new password.",
		code, m.links.RecoveryURL,
	)

	return m.send(to, subject, body)
}

func (m *Mailer) send(to string, subject string, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.address)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	auth := smtp.PlainAuth("", m.address, m.password, m.host)
	addr := m.host + ":" + m.port

	if err := smtp.SendMail(addr, auth, m.address, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}

	return nil
}
