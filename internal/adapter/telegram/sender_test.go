package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

type botServer struct {
	mu       sync.Mutex
	paths    []string
	requests []map[string]any
	status   int
	response string
}

func (b *botServer) handler(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)

	b.mu.Lock()
	b.paths = append(b.paths, r.URL.Path)
	b.requests = append(b.requests, payload)
	status, response := b.status, b.response
	b.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	if response == "" {
		response = `{"ok":true,"result":{}}`
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(response))
}

func newTestSender(t *testing.T, b *botServer) *Sender {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(b.handler))
	t.Cleanup(srv.Close)

	s := NewSender("123:abc", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.baseURL = srv.URL
	s.partDelay = time.Millisecond
	return s
}

func TestSend_PlainText(t *testing.T) {
	b := &botServer{}
	s := newTestSender(t, b)

	err := s.Send(context.Background(), "12345", domain.Message{
		Subject: "ignored",
		Body:    "🚨 **EXTREME WEATHER ALERT** 🚨\n📍 **Location**: Zermatt",
	})
	require.NoError(t, err)

	require.Len(t, b.requests, 1)
	assert.Equal(t, "/bot123:abc/sendMessage", b.paths[0])
	assert.Equal(t, float64(12345), b.requests[0]["chat_id"], "numeric chat IDs are sent as numbers")
	assert.Equal(t, "🚨 EXTREME WEATHER ALERT 🚨\n📍 Location: Zermatt", b.requests[0]["text"])
	assert.NotContains(t, b.requests[0], "parse_mode")
}

func TestSend_ChannelUsername(t *testing.T) {
	b := &botServer{}
	s := newTestSender(t, b)

	require.NoError(t, s.Send(context.Background(), "@hikers", domain.Message{Body: "hi"}))
	assert.Equal(t, "@hikers", b.requests[0]["chat_id"])
}

func TestSend_SplitsLongMessages(t *testing.T) {
	b := &botServer{}
	s := newTestSender(t, b)

	line := strings.Repeat("x", 100)
	body := strings.TrimSuffix(strings.Repeat(line+"\n", 60), "\n")

	require.NoError(t, s.Send(context.Background(), "1", domain.Message{Body: body}))

	require.Len(t, b.requests, 2)
	first := b.requests[0]["text"].(string)
	second := b.requests[1]["text"].(string)
	assert.False(t, strings.HasPrefix(first, "Part"))
	assert.True(t, strings.HasPrefix(second, "Part 2:\n\n"))
	assert.LessOrEqual(t, len(first), maxPartLength)
}

func TestSend_APIError(t *testing.T) {
	b := &botServer{status: http.StatusBadRequest, response: `{"ok":false,"description":"Bad Request: chat not found"}`}
	s := newTestSender(t, b)

	err := s.Send(context.Background(), "1", domain.Message{Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.NotContains(t, err.Error(), "123:abc")
}

func TestSend_CanceledBetweenParts(t *testing.T) {
	b := &botServer{}
	s := newTestSender(t, b)
	s.partDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	body := strings.Repeat("word ", 1000)
	err := s.Send(ctx, "1", domain.Message{Body: body})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, b.requests, 1)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "**Location**: Zermatt", "Location: Zermatt"},
		{"italic", "*calm* winds", "calm winds"},
		{"code", "use `gear`", "use gear"},
		{"link", "see [forecast](https://example.com)", "see forecast"},
		{"header", "## Summary", "Summary"},
		{"separator", "a\n\n" + strings.Repeat("─", 40) + "\n\nb", "a\n\n---\n\nb"},
		{"underscores", "snake_case ~x~ a|b", "snakecase x ab"},
		{"blank lines", "a\n\n\n\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdown(tt.in))
		})
	}
}

func TestSplitMessage(t *testing.T) {
	t.Run("short message is one part", func(t *testing.T) {
		assert.Equal(t, []string{"a\nb"}, splitMessage("a\nb", 10))
	})

	t.Run("splits on lines", func(t *testing.T) {
		assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, splitMessage("aaaa\nbbbb\ncccc", 10))
	})

	t.Run("splits long lines on words", func(t *testing.T) {
		assert.Equal(t, []string{"one two", "three", "four"}, splitMessage("one two three four", 8))
	})

	t.Run("splits long words", func(t *testing.T) {
		assert.Equal(t, []string{"abcd", "efgh", "ij"}, splitMessage("abcdefghij", 4))
	})

	t.Run("counts runes", func(t *testing.T) {
		parts := splitMessage(strings.Repeat("🌧", 6), 3)
		assert.Equal(t, []string{"🌧🌧🌧", "🌧🌧🌧"}, parts)
	})

	t.Run("every part fits", func(t *testing.T) {
		text := strings.Repeat("lorem ipsum dolor sit amet\n", 500)
		for _, p := range splitMessage(text, maxPartLength) {
			assert.LessOrEqual(t, runeLen(p), maxPartLength)
		}
	})
}
