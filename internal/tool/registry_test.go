package tool

import (
	"context"
	"encoding/json"
	"testing"
)

type fakeTool struct {
	name string
	out  string
	err  error
}

func (f *fakeTool) Name() string                      { return f.name }
func (f *fakeTool) Description() string               { return "fake " + f.name }
func (f *fakeTool) ParamsSchema() string              { return "{}" }
func (f *fakeTool) Validate(raw json.RawMessage) error { return nil }
func (f *fakeTool) Execute(ctx context.Context, sess *Session, raw json.RawMessage) (string, error) {
	return f.out, f.err
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeTool{name: "alpha"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&fakeTool{name: "alpha"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if _, ok := r.Get("alpha"); !ok {
		t.Fatal("registered tool not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("unexpected tool")
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&fakeTool{name: name}); err != nil {
			t.Fatal(err)
		}
	}
	metas := r.List()
	if len(metas) != 3 {
		t.Fatalf("expected 3 metas, got %d", len(metas))
	}
	if metas[0].Name != "alpha" || metas[2].Name != "zeta" {
		t.Errorf("metas not sorted: %+v", metas)
	}
	if metas[0].Description == "" || metas[0].ParamsSchema == "" {
		t.Errorf("meta missing fields: %+v", metas[0])
	}
}
