// Package agent runs the poll-dispatch-reply loop: it pulls updates
// from the transport, gates them, and drives the model/tool
// conversation for each incoming message.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	ctxpkg "github.com/stupiduntilnot/recall/internal/context"
	"github.com/stupiduntilnot/recall/internal/control"
	"github.com/stupiduntilnot/recall/internal/gate"
	"github.com/stupiduntilnot/recall/internal/history"
	modelpkg "github.com/stupiduntilnot/recall/internal/model"
	toolpkg "github.com/stupiduntilnot/recall/internal/tool"
	"github.com/stupiduntilnot/recall/internal/transport"
)

// DefaultRefusal is sent to chats outside the allow-set.
const DefaultRefusal = "Sorry, I can't talk to you here."

// DefaultFailureNotice is sent once when a run fails unrecoverably.
const DefaultFailureNotice = "Sorry, something went wrong while handling your message. Please try again."

const typingRefreshInterval = 4 * time.Second

// Runner wires transport, gate, store, context pipeline, model, and
// tools into the long-poll agent loop.
type Runner struct {
	Transport transport.Transport
	Typing    transport.Typing
	Provider  modelpkg.Provider
	Store     history.Store
	Gate      *gate.Gate
	Registry  *toolpkg.Registry
	Tools     *toolpkg.Runner

	HistoryProvider ctxpkg.Provider
	Compressor      ctxpkg.Compressor
	Assembler       ctxpkg.Assembler

	Policy  control.Policy
	Breaker *control.CircuitBreaker
	Locks   *history.ChatLocks

	Log          zerolog.Logger
	SystemPrompt string
	PollTimeout  int
	Refusal      string
}

// Poll runs the long-poll loop until ctx is cancelled.
func (r *Runner) Poll(ctx context.Context) error {
	offset := int64(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !r.Breaker.Allow(time.Now()) {
			r.Log.Warn().
				Str("error_class", r.Breaker.OpenedClass()).
				Msg("circuit open, pausing polls")
			if err := sleepCtx(ctx, time.Second); err != nil {
				return err
			}
			continue
		}

		updates, err := r.Transport.GetUpdates(ctx, offset, r.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Breaker.RecordFailure(control.ClassTransportAPI, time.Now())
			r.Log.Error().Err(err).Msg("poll failed")
			if err := sleepCtx(ctx, time.Second); err != nil {
				return err
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
		}
		r.dispatchBatch(ctx, updates)
	}
}

// dispatchBatch fans out one poll batch. Updates for the same chat run
// sequentially in receipt order on one goroutine; a mutex alone would
// give mutual exclusion but not acquisition order, letting a later
// update overtake an earlier one. Different chats proceed concurrently.
func (r *Runner) dispatchBatch(ctx context.Context, updates []transport.Update) {
	byChat := make(map[int64][]string)
	var chats []int64
	for _, u := range updates {
		if u.Message == nil || u.Message.Text == nil {
			continue
		}
		text := strings.TrimSpace(*u.Message.Text)
		if text == "" {
			continue
		}
		chatID := u.Message.Chat.ID
		if _, seen := byChat[chatID]; !seen {
			chats = append(chats, chatID)
		}
		byChat[chatID] = append(byChat[chatID], text)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, chatID := range chats {
		chatID := chatID
		texts := byChat[chatID]
		g.Go(func() error {
			for _, text := range texts {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.HandleMessage(gctx, chatID, text)
			}
			return nil
		})
	}
	g.Wait()
}

// HandleMessage runs one full agent turn for an incoming message.
// Failures are reported to the chat and the breaker; they do not stop
// the poll loop.
func (r *Runner) HandleMessage(ctx context.Context, chatID int64, text string) {
	runID := uuid.NewString()
	logger := r.Log.With().
		Str("run_id", runID).
		Int64("chat_id", chatID).
		Logger()

	if r.Gate != nil && !r.Gate.Allowed(chatID) {
		logger.Warn().Msg("chat not allowed")
		refusal := r.Refusal
		if refusal == "" {
			refusal = DefaultRefusal
		}
		if err := r.Transport.SendMessage(ctx, chatID, refusal); err != nil {
			logger.Error().Err(err).Msg("failed to send refusal")
		}
		return
	}

	// One in-flight run per chat keeps turn ordering stable.
	unlock := r.Locks.Lock(chatID)
	defer unlock()

	logger.Info().Str("text", truncate(text, 200)).Msg("run started")
	started := time.Now()

	err := r.processMessage(ctx, logger, chatID, text)
	if err != nil {
		errClass := classifyError(err)
		r.Breaker.RecordFailure(errClass, time.Now())
		logger.Error().
			Err(err).
			Str("error_class", errClass).
			Dur("elapsed", time.Since(started)).
			Msg("run failed")
		if ctx.Err() == nil {
			if sendErr := r.Transport.SendMessage(ctx, chatID, DefaultFailureNotice); sendErr != nil {
				logger.Error().Err(sendErr).Msg("failed to send failure notice")
			}
		}
		return
	}
	r.Breaker.RecordSuccess()
	logger.Info().Dur("elapsed", time.Since(started)).Msg("run completed")
}

func (r *Runner) processMessage(ctx context.Context, logger zerolog.Logger, chatID int64, text string) error {
	turn, err := r.appendUserWithRetry(ctx, logger, chatID, text)
	if err != nil {
		return err
	}

	stopTyping := r.startTyping(ctx, chatID)
	defer stopTyping()

	histMsgs, err := r.HistoryProvider.GetHistory(ctx, chatID)
	if err != nil {
		return err
	}
	compressed := r.Compressor.Compress(histMsgs)
	messages := r.Assembler.Assemble(r.SystemPrompt, compressed, text)
	messages = injectToolInstruction(messages, buildToolInstruction(r.Registry))

	logger.Debug().
		Int("history_count", len(histMsgs)).
		Int("compressed_count", len(compressed)).
		Msg("context assembled")

	delivered := 0
	sess := &toolpkg.Session{
		ChatID: chatID,
		Turn:   turn,
		Send: func(ctx context.Context, msg string) error {
			if err := r.Transport.SendMessage(ctx, chatID, msg); err != nil {
				return err
			}
			delivered++
			return nil
		},
	}

	startedAt := time.Now()
	usedTurns := 0
	for {
		if err := control.CheckTurnLimit(r.Policy, usedTurns); err != nil {
			return r.finishLimited(ctx, logger, delivered, err)
		}
		if err := control.CheckWallTime(r.Policy, startedAt, time.Now()); err != nil {
			return r.finishLimited(ctx, logger, delivered, err)
		}
		usedTurns++

		turnStart := time.Now()
		resp, err := r.Provider.ChatCompletion(ctx, messages)
		if err != nil {
			return err
		}
		logger.Debug().
			Int64("latency_ms", time.Since(turnStart).Milliseconds()).
			Int("input_tokens", resp.InputTokens).
			Int("output_tokens", resp.OutputTokens).
			Msg("model turn completed")

		content := strings.TrimSpace(resp.Content)
		env, ok := parseEnvelope(content)
		if !ok {
			// No envelope at all: treat the raw content as the answer.
			return r.deliverFinal(ctx, sess, content)
		}
		if len(env.ToolCalls) == 0 {
			final := strings.TrimSpace(env.FinalAnswer)
			if final == "" {
				if delivered > 0 {
					return nil
				}
				return fmt.Errorf("validation: empty final reply")
			}
			return r.deliverFinal(ctx, sess, final)
		}

		resultsText, err := r.executeToolCalls(ctx, logger, sess, env.ToolCalls)
		if err != nil {
			return err
		}
		messages = append(messages,
			ctxpkg.Message{Role: "assistant", Content: content},
			ctxpkg.Message{Role: "user", Content: "Tool results:\n" + resultsText +
				"\nReturn JSON: {\"tool_calls\":[],\"final_answer\":\"...\"}"},
		)
	}
}

// finishLimited ends a run that hit a policy limit. If the model has
// already delivered replies the run counts as complete.
func (r *Runner) finishLimited(ctx context.Context, logger zerolog.Logger, delivered int, limitErr error) error {
	if delivered > 0 {
		logger.Warn().Err(limitErr).Msg("limit reached after partial delivery")
		return nil
	}
	return limitErr
}

// deliverFinal sends a final answer that did not go through
// reply_to_user, recording it against the open turn.
func (r *Runner) deliverFinal(ctx context.Context, sess *toolpkg.Session, final string) error {
	if final == "" {
		return fmt.Errorf("validation: empty final reply")
	}
	if err := sess.Send(ctx, final); err != nil {
		return err
	}
	return r.Store.AppendAssistantReply(ctx, sess.Turn, final)
}

func (r *Runner) executeToolCalls(ctx context.Context, logger zerolog.Logger, sess *toolpkg.Session, calls []toolpkg.Call) (string, error) {
	var out strings.Builder
	for _, c := range calls {
		argsText, _ := redactSecrets(string(c.Arguments))
		logger.Debug().
			Str("tool_name", c.Name).
			Str("arguments", truncate(argsText, 500)).
			Msg("tool call started")
		started := time.Now()
		result, err := r.Tools.RunOne(ctx, sess, c)
		if err != nil {
			logger.Error().
				Err(err).
				Str("tool_name", c.Name).
				Msg("tool call failed")
			return "", err
		}
		logger.Debug().
			Str("tool_name", c.Name).
			Int64("latency_ms", time.Since(started).Milliseconds()).
			Msg("tool call done")
		out.WriteString("tool=" + c.Name + "\n")
		out.WriteString(result + "\n")
	}
	return out.String(), nil
}

// appendUserWithRetry persists the incoming message, retrying transient
// storage failures with backoff before giving up.
func (r *Runner) appendUserWithRetry(ctx context.Context, logger zerolog.Logger, chatID int64, text string) (history.TurnHandle, error) {
	attempts := 0
	for {
		turn, err := r.Store.AppendUserMessage(ctx, chatID, text)
		if err == nil {
			return turn, nil
		}
		attempts++
		if !control.ShouldRetry(r.Policy, attempts) || ctx.Err() != nil {
			return history.TurnHandle{}, err
		}
		backoff := control.RetryBackoffSeconds(attempts)
		logger.Warn().
			Err(err).
			Int("attempt", attempts).
			Int("backoff_seconds", backoff).
			Msg("persist failed, retrying")
		if err := sleepCtx(ctx, time.Duration(backoff)*time.Second); err != nil {
			return history.TurnHandle{}, err
		}
	}
}

// startTyping keeps the typing indicator alive while a run is in
// flight. The returned func stops the refresh loop.
func (r *Runner) startTyping(ctx context.Context, chatID int64) func() {
	if r.Typing == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		r.Typing.SendTyping(ctx, chatID)
		ticker := time.NewTicker(typingRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Typing.SendTyping(ctx, chatID)
			}
		}
	}()
	return func() { close(done) }
}

func classifyError(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, history.ErrStorage) {
		return control.ClassStorage
	}
	var limitErr *control.LimitError
	if errors.As(err, &limitErr) {
		return "limit"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "telegram"), strings.Contains(msg, "transport"):
		return control.ClassTransportAPI
	case strings.Contains(msg, "openai"), strings.Contains(msg, "model"), strings.Contains(msg, "provider"):
		return control.ClassModelAPI
	default:
		return "unknown"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
