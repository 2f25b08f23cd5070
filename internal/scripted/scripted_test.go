package scripted

import (
	stdctx "context"
	"testing"
)

func TestParseScript_Valid(t *testing.T) {
	actions, err := parseScript("ok, msg:hello, err:model_api, sleep:10")
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 4 {
		t.Fatalf("expected 4 actions, got %d", len(actions))
	}
	if actions[1].kind != "msg" || actions[1].arg != "hello" {
		t.Errorf("unexpected action: %+v", actions[1])
	}
}

func TestParseScript_Invalid(t *testing.T) {
	if _, err := parseScript("explode"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseScript_EmptyDefaultsToOK(t *testing.T) {
	actions, err := parseScript("  ")
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 || actions[0].kind != "ok" {
		t.Fatalf("unexpected actions: %+v", actions)
	}
}

func TestTransport_PollScript(t *testing.T) {
	ctx := stdctx.Background()
	tr, err := NewTransport("msg:42>hi, err:, ok", "ok")
	if err != nil {
		t.Fatal(err)
	}

	updates, err := tr.GetUpdates(ctx, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].Message.Chat.ID != 42 || *updates[0].Message.Text != "hi" {
		t.Errorf("unexpected update: %+v", updates[0])
	}

	if _, err := tr.GetUpdates(ctx, 0, 1); err == nil {
		t.Fatal("expected scripted error")
	}

	updates, err = tr.GetUpdates(ctx, 0, 1)
	if err != nil || len(updates) != 0 {
		t.Fatalf("expected quiet poll, got %v %v", updates, err)
	}
}

func TestTransport_BatchedPoll(t *testing.T) {
	ctx := stdctx.Background()
	tr, err := NewTransport("msg:1>first|1>second|2>other", "ok")
	if err != nil {
		t.Fatal(err)
	}

	updates, err := tr.GetUpdates(ctx, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates in one batch, got %d", len(updates))
	}
	if *updates[0].Message.Text != "first" || *updates[1].Message.Text != "second" {
		t.Errorf("batch order not preserved: %+v", updates)
	}
	if updates[1].UpdateID <= updates[0].UpdateID {
		t.Errorf("update ids must ascend within a batch: %+v", updates)
	}
	if updates[2].Message.Chat.ID != 2 {
		t.Errorf("unexpected chat for third update: %+v", updates[2])
	}
}

func TestTransport_RecordsSent(t *testing.T) {
	ctx := stdctx.Background()
	tr, err := NewTransport("ok", "ok")
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.SendMessage(ctx, 7, "done"); err != nil {
		t.Fatal(err)
	}
	sent := tr.Sent()
	if len(sent) != 1 || sent[0].ChatID != 7 || sent[0].Text != "done" {
		t.Fatalf("unexpected sent record: %+v", sent)
	}
}

func TestTransport_ScriptRepeatsLastAction(t *testing.T) {
	ctx := stdctx.Background()
	tr, err := NewTransport("ok", "err:transport_api")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := tr.SendMessage(ctx, 1, "x"); err == nil {
			t.Fatalf("send %d: expected error", i)
		}
	}
}

func TestProviderQueue_ReplaysVerbatim(t *testing.T) {
	ctx := stdctx.Background()
	p := NewProviderQueue(`{"tool_calls":[],"final_answer":"hi, there"}`)
	resp, err := p.ChatCompletion(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != `{"tool_calls":[],"final_answer":"hi, there"}` {
		t.Errorf("unexpected content: %q", resp.Content)
	}
}

func TestProvider_ErrorScript(t *testing.T) {
	ctx := stdctx.Background()
	p, err := NewProvider("err:model_api, msg:recovered")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.ChatCompletion(ctx, nil); err == nil {
		t.Fatal("expected scripted error")
	}
	resp, err := p.ChatCompletion(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "recovered" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if len(p.Calls()) != 2 {
		t.Errorf("expected 2 recorded calls, got %d", len(p.Calls()))
	}
}
