package agent

import (
	"strings"
	"testing"

	ctxpkg "github.com/stupiduntilnot/recall/internal/context"
	toolpkg "github.com/stupiduntilnot/recall/internal/tool"
)

func TestParseEnvelope_Strict(t *testing.T) {
	env, ok := parseEnvelope(`{"tool_calls":[],"final_answer":"done"}`)
	if !ok {
		t.Fatal("expected envelope")
	}
	if env.FinalAnswer != "done" || len(env.ToolCalls) != 0 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestParseEnvelope_WrappedInProse(t *testing.T) {
	content := "Sure, here is the call:\n```json\n" +
		`{"tool_calls":[{"name":"get_chat_history","arguments":{"limit":3}}],"final_answer":""}` +
		"\n```"
	env, ok := parseEnvelope(content)
	if !ok {
		t.Fatal("expected envelope")
	}
	if len(env.ToolCalls) != 1 || env.ToolCalls[0].Name != "get_chat_history" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestParseEnvelope_NotJSON(t *testing.T) {
	if _, ok := parseEnvelope("no json here"); ok {
		t.Fatal("expected no envelope")
	}
}

func TestExtractJSONObject_RespectsStrings(t *testing.T) {
	content := `prefix {"a": "brace } in string", "b": {"c": 1}} suffix`
	obj, ok := extractJSONObject(content)
	if !ok {
		t.Fatal("expected object")
	}
	if obj != `{"a": "brace } in string", "b": {"c": 1}}` {
		t.Fatalf("unexpected object: %s", obj)
	}
}

func TestBuildToolInstruction_ListsTools(t *testing.T) {
	reg := toolpkg.NewRegistry()
	store := newTestStore(t)
	if err := reg.Register(toolpkg.NewGetChatHistory(store)); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(toolpkg.NewReplyToUser(store)); err != nil {
		t.Fatal(err)
	}
	inst := buildToolInstruction(reg)
	if !strings.Contains(inst, "get_chat_history") || !strings.Contains(inst, "reply_to_user") {
		t.Fatalf("instruction missing tools: %s", inst)
	}
	if !strings.Contains(inst, `"tool_calls"`) {
		t.Fatalf("instruction missing envelope description: %s", inst)
	}
}

func TestInjectToolInstruction_AfterSystem(t *testing.T) {
	messages := []ctxpkg.Message{
		{Role: "system", Content: "base"},
		{Role: "user", Content: "hi"},
	}
	out := injectToolInstruction(messages, "tools here")
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}
	if out[0].Content != "base" || out[1].Content != "tools here" {
		t.Fatalf("instruction not placed after system prompt: %+v", out)
	}
}

func TestRedactSecrets(t *testing.T) {
	in := `curl -H "Authorization: Bearer sk-abcdef1234567890" API_KEY=supersecret`
	out, redacted := redactSecrets(in)
	if !redacted {
		t.Fatal("expected redaction")
	}
	if strings.Contains(out, "sk-abcdef1234567890") || strings.Contains(out, "supersecret") {
		t.Fatalf("secret leaked: %s", out)
	}
}
