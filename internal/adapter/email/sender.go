package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

// senderName is the display name on outgoing mail.
const senderName = "HikeCastBot"

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender delivers messages over SMTP with PLAIN auth. The connection is
// STARTTLS-upgraded by net/smtp when the server offers it.
type Sender struct {
	addr     string
	auth     smtp.Auth
	from     mail.Address
	sendMail sendFunc
	logger   *slog.Logger
}

// NewSender creates an SMTP sender. from defaults to username.
func NewSender(host string, port int, username, password, from string, logger *slog.Logger) *Sender {
	if from == "" {
		from = username
	}
	return &Sender{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		auth:     smtp.PlainAuth("", username, password, host),
		from:     mail.Address{Name: senderName, Address: from},
		sendMail: smtp.SendMail,
		logger:   logger,
	}
}

// Send mails msg to the address in to. net/smtp has no context support, so
// ctx is only checked before dialing.
func (s *Sender) Send(ctx context.Context, to string, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("parse recipient %q: %w", to, err)
	}

	data := buildMessage(s.from, *rcpt, msg, domain.Now())
	if err := s.sendMail(s.addr, s.auth, s.from.Address, []string{rcpt.Address}, data); err != nil {
		return fmt.Errorf("smtp send to %s: %w", rcpt.Address, err)
	}
	s.logger.Debug("email sent", "to", rcpt.Address, "subject", msg.Subject)
	return nil
}

// buildMessage renders an RFC 5322 plain-text message with CRLF line endings.
func buildMessage(from, to mail.Address, msg domain.Message, now time.Time) []byte {
	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("From", from.String())
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}
