package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

type captured struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestSender(c *captured, err error) *Sender {
	s := NewSender("smtp.example.com", 587, "bot@example.com", "secret", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		c.addr, c.from, c.to, c.msg = addr, from, to, string(msg)
		return err
	}
	return s
}

func TestSend(t *testing.T) {
	var c captured
	s := newTestSender(&c, nil)

	err := s.Send(context.Background(), "Alice <alice@example.com>", domain.Message{
		Subject: "🚨 EXTREME WEATHER ALERT - Zermatt - CRITICAL PRIORITY",
		Body:    "line one\nline two",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", c.addr)
	assert.Equal(t, "bot@example.com", c.from)
	assert.Equal(t, []string{"alice@example.com"}, c.to)
	assert.Contains(t, c.msg, "From: \"HikeCastBot\" <bot@example.com>\r\n")
	assert.Contains(t, c.msg, "Subject: =?utf-8?q?")
	assert.True(t, strings.HasSuffix(c.msg, "\r\n\r\nline one\r\nline two\r\n"))
}

func TestSend_InvalidRecipient(t *testing.T) {
	var c captured
	s := newTestSender(&c, nil)

	err := s.Send(context.Background(), "not an address", domain.Message{Body: "x"})
	require.Error(t, err)
	assert.Empty(t, c.addr, "no dial on invalid recipient")
}

func TestSend_TransportError(t *testing.T) {
	var c captured
	s := newTestSender(&c, errors.New("535 authentication failed"))

	err := s.Send(context.Background(), "alice@example.com", domain.Message{Body: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535")
}

func TestSend_CanceledContext(t *testing.T) {
	var c captured
	s := newTestSender(&c, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, "alice@example.com", domain.Message{Body: "x"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildMessage_DecodesSubject(t *testing.T) {
	now := time.Date(2025, 7, 14, 8, 30, 0, 0, time.UTC)
	raw := buildMessage(
		mail.Address{Name: senderName, Address: "bot@example.com"},
		mail.Address{Address: "alice@example.com"},
		domain.Message{Subject: "🏔️ Saturday Hiking Weather for Zermatt", Body: "body"},
		now,
	)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "🏔️ Saturday Hiking Weather for Zermatt", subject)

	date, err := parsed.Header.Date()
	require.NoError(t, err)
	assert.True(t, now.Equal(date))

	body, err := io.ReadAll(parsed.Body)
	require.NoError(t, err)
	assert.Equal(t, "body\r\n", string(body))
}
