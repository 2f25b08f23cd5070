package agent

import (
	"encoding/json"
	"strings"

	ctxpkg "github.com/stupiduntilnot/recall/internal/context"
	toolpkg "github.com/stupiduntilnot/recall/internal/tool"
)

// envelope is the strict JSON the model must answer with.
type envelope struct {
	ToolCalls   []toolpkg.Call `json:"tool_calls"`
	FinalAnswer string         `json:"final_answer"`
}

// parseEnvelope extracts the tool-call envelope from model output.
// Models wrap JSON in prose or code fences often enough that a bare
// Unmarshal is not sufficient.
func parseEnvelope(content string) (envelope, bool) {
	var parsed envelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err == nil {
		return parsed, true
	}
	jsonObj, ok := extractJSONObject(content)
	if !ok {
		return envelope{}, false
	}
	if err := json.Unmarshal([]byte(jsonObj), &parsed); err != nil {
		return envelope{}, false
	}
	return parsed, true
}

// extractJSONObject finds the first balanced top-level JSON object,
// respecting string literals and escapes.
func extractJSONObject(content string) (string, bool) {
	s := strings.TrimSpace(content)
	if s == "" {
		return "", false
	}
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	inString := false
	escapeNext := false
	depth := 0
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			if escapeNext {
				escapeNext = false
				continue
			}
			if ch == '\\' {
				escapeNext = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			continue
		}
		if ch == '{' {
			depth++
			continue
		}
		if ch == '}' {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// buildToolInstruction describes the available tools and the required
// response envelope.
func buildToolInstruction(registry *toolpkg.Registry) string {
	var b strings.Builder
	b.WriteString("You can use tools in this environment. Available tools:\n")
	for _, meta := range registry.List() {
		b.WriteString("- " + meta.Name + ": " + meta.Description + " Parameters: " + meta.ParamsSchema + "\n")
	}
	b.WriteString("Always respond with strict JSON: " +
		`{"tool_calls":[{"name":"...","arguments":{...}}],"final_answer":"..."}. ` +
		"If a tool is needed, set final_answer to empty and fill tool_calls. " +
		"If no tool is needed, set tool_calls to [] and provide final_answer. " +
		"Prefer reply_to_user for delivering answers; final_answer is a fallback.")
	return b.String()
}

// injectToolInstruction places the instruction right after the system
// prompt, or first when there is none.
func injectToolInstruction(messages []ctxpkg.Message, instruction string) []ctxpkg.Message {
	if strings.TrimSpace(instruction) == "" {
		return messages
	}
	inst := ctxpkg.Message{Role: "system", Content: instruction}
	if len(messages) == 0 {
		return []ctxpkg.Message{inst}
	}
	if messages[0].Role == "system" {
		out := make([]ctxpkg.Message, 0, len(messages)+1)
		out = append(out, messages[0], inst)
		out = append(out, messages[1:]...)
		return out
	}
	out := make([]ctxpkg.Message, 0, len(messages)+1)
	out = append(out, inst)
	out = append(out, messages...)
	return out
}
