package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	// maxPartLength stays under the Bot API's 4096 character limit.
	maxPartLength    = 4000
	defaultPartDelay = time.Second
)

// Sender delivers plain-text messages through the Telegram Bot API.
type Sender struct {
	token      string
	baseURL    string
	httpClient *http.Client
	partDelay  time.Duration
	logger     *slog.Logger
}

// NewSender creates a Bot API sender for the given bot token.
func NewSender(token string, timeout time.Duration, logger *slog.Logger) *Sender {
	return &Sender{
		token:      token,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		partDelay:  defaultPartDelay,
		logger:     logger,
	}
}

// Send posts msg to chatID. Markdown is stripped and long messages are split
// into numbered parts sent one second apart. The subject is not sent; the
// body already opens with a headline.
func (s *Sender) Send(ctx context.Context, chatID string, msg domain.Message) error {
	parts := splitMessage(stripMarkdown(msg.Body), maxPartLength)
	for i, part := range parts {
		if i > 0 {
			if !retry.SleepWithContext(ctx, s.partDelay) {
				return fmt.Errorf("telegram part %d/%d: %w", i+1, len(parts), ctx.Err())
			}
			part = fmt.Sprintf("Part %d:\n\n%s", i+1, part)
		}
		if err := s.sendMessage(ctx, chatID, part); err != nil {
			return fmt.Errorf("telegram part %d/%d: %w", i+1, len(parts), err)
		}
	}
	s.logger.Debug("telegram message sent", "chat_id", chatID, "parts", len(parts))
	return nil
}

type sendMessageRequest struct {
	ChatID any    `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *Sender) sendMessage(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: chatIDValue(chatID), Text: text})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// The URL embeds the bot token.
		return fmt.Errorf("sendMessage request failed: %w", unwrapURLError(err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var apiResp apiResponse
	_ = json.Unmarshal(body, &apiResp)
	if resp.StatusCode != http.StatusOK || !apiResp.OK {
		if apiResp.Description != "" {
			return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, apiResp.Description)
		}
		return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// chatIDValue sends numeric chat IDs as JSON numbers and anything else
// (such as @channelname) as a string.
func chatIDValue(chatID string) any {
	if id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64); err == nil {
		return id
	}
	return chatID
}

// unwrapURLError drops the request URL from transport errors.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

var markdownRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile("`(.*?)`"), "$1"},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`#{1,6}\s+`), ""},
	{regexp.MustCompile(`[_~|]`), ""},
	{regexp.MustCompile(`─+`), "---"},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// stripMarkdown reduces Markdown to plain text so it renders without a
// parse mode.
func stripMarkdown(s string) string {
	for _, r := range markdownRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// splitMessage breaks text into parts of at most limit characters, on line
// boundaries where possible, then on word boundaries, then mid-word.
func splitMessage(text string, limit int) []string {
	var (
		parts   []string
		current string
	)
	flush := func() {
		if s := strings.TrimSpace(current); s != "" {
			parts = append(parts, s)
		}
		current = ""
	}
	add := func(line string) {
		if current != "" && runeLen(current)+runeLen(line)+1 > limit {
			flush()
		}
		if current == "" {
			current = line
			return
		}
		current += "\n" + line
	}

	for _, line := range strings.Split(text, "\n") {
		if runeLen(line) <= limit {
			add(line)
			continue
		}
		for _, chunk := range wrapWords(line, limit) {
			add(chunk)
		}
	}
	flush()
	return parts
}

// wrapWords splits one long line into chunks of at most limit characters.
func wrapWords(line string, limit int) []string {
	var (
		chunks []string
		buf    string
	)
	for _, word := range strings.Fields(line) {
		for runeLen(word) > limit {
			if buf != "" {
				chunks = append(chunks, buf)
				buf = ""
			}
			head, tail := splitAt(word, limit)
			chunks = append(chunks, head)
			word = tail
		}
		switch {
		case buf == "":
			buf = word
		case runeLen(buf)+runeLen(word)+1 > limit:
			chunks = append(chunks, buf)
			buf = word
		default:
			buf += " " + word
		}
	}
	if buf != "" {
		chunks = append(chunks, buf)
	}
	return chunks
}

func splitAt(s string, n int) (string, string) {
	i := 0
	for range n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
