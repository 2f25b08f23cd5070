// Package telegram implements the chat transport against the Telegram
// Bot API with long polling.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stupiduntilnot/recall/internal/transport"
)

// Messages longer than this are split into several sends; the Bot API
// rejects payloads over 4096 characters. Splitting rather than
// truncating keeps the delivered text identical to what gets persisted.
const maxMessageChars = 3900

// Client is a minimal Telegram Bot API client.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a Telegram client for the given bot API base URL
// (e.g. "https://api.telegram.org/bot<token>").
func NewClient(apiBase string, requestTimeout time.Duration) *Client {
	return &Client{
		apiBase: apiBase,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Response is the generic Telegram API response wrapper.
type Response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
}

// GetUpdates calls the getUpdates API.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]transport.Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeoutSeconds))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/getUpdates?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create getUpdates request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read getUpdates response: %w", err)
	}

	var tgResp Response
	if err := json.Unmarshal(body, &tgResp); err != nil {
		return nil, fmt.Errorf("failed to parse getUpdates response: %w", err)
	}
	if !tgResp.OK {
		return nil, nil
	}

	var updates []transport.Update
	if err := json.Unmarshal(tgResp.Result, &updates); err != nil {
		return nil, fmt.Errorf("failed to parse getUpdates result: %w", err)
	}
	return updates, nil
}

// SendMessage renders text as MarkdownV2 and sends it to the chat,
// splitting over-length text into consecutive messages. When the API
// rejects the markup it resends that part without a parse mode, so a
// reply never gets dropped over formatting.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	for _, part := range splitMessage(text, maxMessageChars) {
		if err := c.sendOne(ctx, chatID, part); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) sendOne(ctx context.Context, chatID int64, text string) error {
	resp, err := c.postMessage(ctx, chatID, EscapeMarkdownV2(text), "MarkdownV2")
	if err != nil {
		return err
	}
	if resp.OK {
		return nil
	}
	resp, err = c.postMessage(ctx, chatID, text, "")
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("telegram sendMessage rejected: %s", resp.Description)
	}
	return nil
}

// splitMessage cuts text into parts of at most limit runes, preferring
// a newline boundary in the back half of each part so paragraphs stay
// together.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// SendTyping shows the "typing…" indicator in the chat. The indicator
// expires after a few seconds; callers refresh it while work is running.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	payload := map[string]any{"chat_id": chatID, "action": "typing"}
	_, err := c.post(ctx, "/sendChatAction", payload)
	return err
}

func (c *Client) postMessage(ctx context.Context, chatID int64, text, parseMode string) (Response, error) {
	payload := map[string]any{"chat_id": chatID, "text": text}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}
	return c.post(ctx, "/sendMessage", payload)
}

func (c *Client) post(ctx context.Context, method string, payload map[string]any) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+method, strings.NewReader(string(body)))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("telegram %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read %s response: %w", method, err)
	}
	var parsed Response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Response{}, fmt.Errorf("failed to parse %s response: %w", method, err)
	}
	return parsed, nil
}
