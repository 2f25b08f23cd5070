// Package scripted provides scriptable fakes for the transport and the
// model provider, driven by comma-separated action scripts such as
// "msg:hello,ok,err:transport_api,sleep:50". Scripts repeat their last
// action once exhausted.
package scripted

import (
	stdctx "context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	ctxpkg "github.com/stupiduntilnot/recall/internal/context"
	modelpkg "github.com/stupiduntilnot/recall/internal/model"
	"github.com/stupiduntilnot/recall/internal/transport"
)

type action struct {
	kind string
	arg  string
}

func parseScript(script string) ([]action, error) {
	if strings.TrimSpace(script) == "" {
		return []action{{kind: "ok"}}, nil
	}
	parts := strings.Split(script, ",")
	actions := make([]action, 0, len(parts))
	for _, p := range parts {
		token := strings.TrimSpace(p)
		if token == "" {
			continue
		}
		if token == "ok" {
			actions = append(actions, action{kind: "ok"})
			continue
		}
		if strings.HasPrefix(token, "err:") {
			actions = append(actions, action{kind: "err", arg: strings.TrimPrefix(token, "err:")})
			continue
		}
		if strings.HasPrefix(token, "sleep:") {
			actions = append(actions, action{kind: "sleep", arg: strings.TrimPrefix(token, "sleep:")})
			continue
		}
		if strings.HasPrefix(token, "msg:") {
			actions = append(actions, action{kind: "msg", arg: strings.TrimPrefix(token, "msg:")})
			continue
		}
		return nil, fmt.Errorf("invalid scripted action: %s", token)
	}
	if len(actions) == 0 {
		actions = append(actions, action{kind: "ok"})
	}
	return actions, nil
}

type scriptRunner struct {
	actions []action
	index   int
}

func newRunner(script string) (*scriptRunner, error) {
	actions, err := parseScript(script)
	if err != nil {
		return nil, err
	}
	return &scriptRunner{actions: actions}, nil
}

func (r *scriptRunner) next() action {
	if len(r.actions) == 0 {
		return action{kind: "ok"}
	}
	if r.index >= len(r.actions) {
		return r.actions[len(r.actions)-1]
	}
	a := r.actions[r.index]
	r.index++
	return a
}

// SentMessage records one SendMessage call.
type SentMessage struct {
	ChatID int64
	Text   string
}

// Transport is a scripted stand-in for the Telegram client. The poll
// script drives GetUpdates and the send script drives SendMessage. A
// msg action may carry several updates separated by "|", delivered as
// one batch ("msg:1>first|1>second").
type Transport struct {
	mu       sync.Mutex
	poll     *scriptRunner
	send     *scriptRunner
	updateID int64
	sent     []SentMessage
	typing   int
}

func NewTransport(pollScript, sendScript string) (*Transport, error) {
	poll, err := newRunner(pollScript)
	if err != nil {
		return nil, err
	}
	send, err := newRunner(sendScript)
	if err != nil {
		return nil, err
	}
	return &Transport{poll: poll, send: send, updateID: 1}, nil
}

func (t *Transport) GetUpdates(ctx stdctx.Context, offset int64, timeoutSeconds int) ([]transport.Update, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := t.poll.next()
	switch a.kind {
	case "err":
		return nil, fmt.Errorf("scripted transport error class=%s", emptyAs(a.arg, "transport_api"))
	case "sleep":
		if err := sleepOrCancel(ctx, a.arg); err != nil {
			return nil, err
		}
		return nil, nil
	case "msg":
		var updates []transport.Update
		for _, entry := range strings.Split(a.arg, "|") {
			chatID, text := splitChatArg(entry)
			msg := text
			t.updateID++
			updates = append(updates, transport.Update{
				UpdateID: t.updateID,
				Message: &transport.Message{
					Chat: transport.Chat{ID: chatID},
					Text: &msg,
					Date: time.Now().Unix(),
				},
			})
		}
		return updates, nil
	default:
		return nil, nil
	}
}

func (t *Transport) SendMessage(ctx stdctx.Context, chatID int64, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := t.send.next()
	switch a.kind {
	case "err":
		return fmt.Errorf("scripted transport send error class=%s", emptyAs(a.arg, "transport_api"))
	case "sleep":
		if err := sleepOrCancel(ctx, a.arg); err != nil {
			return err
		}
	}
	t.sent = append(t.sent, SentMessage{ChatID: chatID, Text: text})
	return nil
}

func (t *Transport) SendTyping(ctx stdctx.Context, chatID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.typing++
	return nil
}

// Sent returns a copy of all messages delivered so far.
func (t *Transport) Sent() []SentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SentMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

// TypingCount returns how many typing indicators were sent.
func (t *Transport) TypingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing
}

// splitChatArg parses "42>hello" into (42, "hello"). Without the
// prefix the message lands in chat 1.
func splitChatArg(arg string) (int64, string) {
	if i := strings.Index(arg, ">"); i > 0 {
		if id, err := strconv.ParseInt(arg[:i], 10, 64); err == nil {
			return id, arg[i+1:]
		}
	}
	return 1, arg
}

// Provider is a scripted stand-in for the model provider.
type Provider struct {
	mu     sync.Mutex
	script *scriptRunner
	calls  [][]ctxpkg.Message
}

func NewProvider(script string) (*Provider, error) {
	runner, err := newRunner(script)
	if err != nil {
		return nil, err
	}
	return &Provider{script: runner}, nil
}

// NewProviderQueue builds a provider that replays the given completions
// verbatim. Use this for payloads that contain script delimiters, such
// as JSON tool-call envelopes.
func NewProviderQueue(contents ...string) *Provider {
	actions := make([]action, 0, len(contents))
	for _, c := range contents {
		actions = append(actions, action{kind: "msg", arg: c})
	}
	return &Provider{script: &scriptRunner{actions: actions}}
}

func (p *Provider) ChatCompletion(ctx stdctx.Context, messages []ctxpkg.Message) (modelpkg.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, messages)
	a := p.script.next()
	switch a.kind {
	case "err":
		return modelpkg.CompletionResponse{}, fmt.Errorf("scripted provider error class=%s", emptyAs(a.arg, "model_api"))
	case "sleep":
		if err := sleepOrCancel(ctx, a.arg); err != nil {
			return modelpkg.CompletionResponse{}, err
		}
		return modelpkg.CompletionResponse{Content: "scripted-after-sleep", InputTokens: 1, OutputTokens: 1}, nil
	case "msg":
		return modelpkg.CompletionResponse{Content: a.arg, InputTokens: 1, OutputTokens: 1}, nil
	default:
		return modelpkg.CompletionResponse{Content: "scripted-ok", InputTokens: 1, OutputTokens: 1}, nil
	}
}

// Calls returns the message lists the provider has seen.
func (p *Provider) Calls() [][]ctxpkg.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]ctxpkg.Message, len(p.calls))
	copy(out, p.calls)
	return out
}

func sleepOrCancel(ctx stdctx.Context, arg string) error {
	ms, _ := strconv.Atoi(arg)
	if ms <= 0 {
		return nil
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func emptyAs(v string, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
