package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

const (
	DefaultBaseURL = "https://graph.facebook.com/v22.0"

	// maxBodyLength is the Cloud API limit for text message bodies.
	maxBodyLength = 4096
)

// ErrInvalidPhone is returned when a handle has no digits.
var ErrInvalidPhone = errors.New("invalid phone number")

// Sender delivers text messages through the WhatsApp Cloud API.
type Sender struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewSender creates a Cloud API sender for one business phone number.
func NewSender(accessToken, phoneNumberID string, timeout time.Duration, logger *slog.Logger) *Sender {
	return &Sender{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send posts msg to phone, an international number in any punctuation.
func (s *Sender) Send(ctx context.Context, phone string, msg domain.Message) error {
	to := normalizePhone(phone)
	if to == "" {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}

	m := textMessage{MessagingProduct: "whatsapp", To: to, Type: "text"}
	m.Text.Body = formatBody(msg)
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var out sendResponse
	_ = json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return fmt.Errorf("whatsapp API error: status %d: code %d: %s", resp.StatusCode, out.Error.Code, out.Error.Message)
		}
		return fmt.Errorf("whatsapp API error: status %d: %s", resp.StatusCode, body)
	}

	var id string
	if len(out.Messages) > 0 {
		id = out.Messages[0].ID
	}
	s.logger.Debug("whatsapp message sent", "to", to, "message_id", id)
	return nil
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var doubleStar = regexp.MustCompile(`\*\*(.*?)\*\*`)

// formatBody puts the subject on top and converts Markdown bold to
// WhatsApp's single-asterisk form, truncating to the API limit.
func formatBody(msg domain.Message) string {
	text := doubleStar.ReplaceAllString(msg.Body, "*$1*")
	if msg.Subject != "" {
		text = "*" + msg.Subject + "*\n\n" + text
	}
	if utf8.RuneCountInString(text) <= maxBodyLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxBodyLength-1]) + "…"
}
