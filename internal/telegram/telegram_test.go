package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/getUpdates", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("offset"))
		_, _ = io.WriteString(w, `{"ok":true,"result":[{"update_id":7,"message":{"chat":{"id":42},"text":"hello","date":1700000000}}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	updates, err := c.GetUpdates(context.Background(), 7, 0)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].Message)
	assert.Equal(t, int64(42), updates[0].Message.Chat.ID)
	require.NotNil(t, updates[0].Message.Text)
	assert.Equal(t, "hello", *updates[0].Message.Text)
}

func TestSendMessage_EscapesMarkdown(t *testing.T) {
	var payloads []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sendMessage", r.URL.Path)
		var p map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		payloads = append(payloads, p)
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	require.NoError(t, c.SendMessage(context.Background(), 42, "Done. See you!"))
	require.Len(t, payloads, 1)
	assert.Equal(t, "MarkdownV2", payloads[0]["parse_mode"])
	assert.Equal(t, `Done\. See you\!`, payloads[0]["text"])
}

func TestSendMessage_FallsBackToPlainText(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = io.WriteString(w, `{"ok":false,"description":"can't parse entities"}`)
			return
		}
		var p map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.NotContains(t, p, "parse_mode")
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	require.NoError(t, c.SendMessage(context.Background(), 42, "tricky *text*"))
	assert.Equal(t, 2, calls)
}

func TestSendMessage_SplitsLongText(t *testing.T) {
	var payloads []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		payloads = append(payloads, p)
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	long := strings.Repeat("a", maxMessageChars+100)
	c := NewClient(srv.URL, 2*time.Second)
	require.NoError(t, c.SendMessage(context.Background(), 42, long))
	require.Len(t, payloads, 2)

	// Delivered parts reassemble the full text; nothing is dropped.
	got := payloads[0]["text"].(string) + payloads[1]["text"].(string)
	assert.Equal(t, long, got)
	assert.Len(t, []rune(payloads[0]["text"].(string)), maxMessageChars)
}

func TestSplitMessage(t *testing.T) {
	t.Run("short text is one part", func(t *testing.T) {
		parts := splitMessage("hello", 10)
		require.Equal(t, []string{"hello"}, parts)
	})

	t.Run("prefers newline boundary", func(t *testing.T) {
		text := strings.Repeat("x", 8) + "\n" + strings.Repeat("y", 8)
		parts := splitMessage(text, 10)
		require.Len(t, parts, 2)
		assert.Equal(t, strings.Repeat("x", 8)+"\n", parts[0])
		assert.Equal(t, strings.Repeat("y", 8), parts[1])
	})

	t.Run("hard cut without newline", func(t *testing.T) {
		parts := splitMessage(strings.Repeat("z", 25), 10)
		require.Len(t, parts, 3)
		assert.Equal(t, strings.Repeat("z", 25), strings.Join(parts, ""))
	})
}

func TestEscapeMarkdownV2(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{"plain punctuation", "1 + 1 = 2. Easy!", `1 \+ 1 \= 2\. Easy\!`},
		{"bold conversion", "a **big** deal", `a *big* deal`},
		{"inline code kept", "run `go test` now", "run `go test` now"},
		{"reserved inside inline code", "see `a.b`", "see `a.b`"},
		{"fenced block kept", "```\nx := 1.0\n```", "```\nx := 1.0\n```"},
		{"unterminated fence escaped", "so ```broken", "so \\`\\`\\`broken"},
		{"unpaired bold escaped", "2 ** 3", `2 \*\* 3`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.out, EscapeMarkdownV2(tc.in))
		})
	}
}
