package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Call represents one tool invocation request from the model.
type Call struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Runner executes registered tools and bounds their output.
type Runner struct {
	registry *Registry
	limits   Limits
}

func NewRunner(registry *Registry, limits Limits) *Runner {
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = 32768
	}
	return &Runner{registry: registry, limits: limits}
}

// RunOne dispatches a single call. Validation failures come back as a
// result string so the model can correct itself; only infrastructure
// failures surface as errors.
func (r *Runner) RunOne(ctx context.Context, sess *Session, call Call) (string, error) {
	if r == nil || r.registry == nil {
		return "", fmt.Errorf("tool runner is not initialized")
	}
	toolName := strings.TrimSpace(call.Name)
	if toolName == "" {
		return "error: empty tool name", nil
	}
	t, ok := r.registry.Get(toolName)
	if !ok {
		return fmt.Sprintf("error: unknown tool: %s", toolName), nil
	}
	if err := t.Validate(call.Arguments); err != nil {
		return fmt.Sprintf("error: %v", err), nil
	}
	out, err := t.Execute(ctx, sess, call.Arguments)
	if err != nil {
		return "", err
	}
	out, truncated := ApplyOutputLimits(out, r.limits)
	if truncated {
		out += "\n[output truncated]"
	}
	return out, nil
}
