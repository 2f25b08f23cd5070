// Command bot runs the conversational agent against Telegram, backed by
// a SQLite conversation store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stupiduntilnot/recall/internal/agent"
	"github.com/stupiduntilnot/recall/internal/config"
	ctxpkg "github.com/stupiduntilnot/recall/internal/context"
	"github.com/stupiduntilnot/recall/internal/control"
	"github.com/stupiduntilnot/recall/internal/gate"
	"github.com/stupiduntilnot/recall/internal/history"
	modelpkg "github.com/stupiduntilnot/recall/internal/model"
	"github.com/stupiduntilnot/recall/internal/openai"
	"github.com/stupiduntilnot/recall/internal/scripted"
	"github.com/stupiduntilnot/recall/internal/telegram"
	toolpkg "github.com/stupiduntilnot/recall/internal/tool"
	"github.com/stupiduntilnot/recall/internal/transport"
)

func main() {
	root := &cobra.Command{
		Use:           "bot",
		Short:         "Telegram agent with retrievable conversation history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(), initDBCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the poll loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)

			db, err := history.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			store, err := history.NewStore(db, cfg.SchemaVariant)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := store.InitSchema(ctx); err != nil {
				return err
			}

			runner, err := buildRunner(cfg, store, logger)
			if err != nil {
				return err
			}

			logger.Info().
				Str("schema", string(cfg.SchemaVariant)).
				Str("db_path", cfg.DBPath).
				Int("allowed_chats", len(cfg.AllowedChatIDs)).
				Msg("bot started")

			err = runner.Poll(ctx)
			if err != nil && ctx.Err() != nil {
				logger.Info().Msg("bot stopped")
				return nil
			}
			return err
		},
	}
}

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Provision the conversation store schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := history.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			store, err := history.NewStore(db, cfg.SchemaVariant)
			if err != nil {
				return err
			}
			return store.InitSchema(cmd.Context())
		},
	}
}

func buildRunner(cfg config.Config, store history.Store, logger zerolog.Logger) (*agent.Runner, error) {
	registry := toolpkg.NewRegistry()
	if err := registry.Register(toolpkg.NewGetChatHistory(store)); err != nil {
		return nil, err
	}
	if err := registry.Register(toolpkg.NewReplyToUser(store)); err != nil {
		return nil, err
	}

	var trans transport.Transport
	var typing transport.Typing
	switch cfg.Transport {
	case "telegram":
		client := telegram.NewClient(cfg.TelegramAPIBase, time.Duration(cfg.PollTimeout+10)*time.Second)
		trans, typing = client, client
	case "scripted":
		fake, err := scripted.NewTransport(cfg.ScriptPoll, cfg.ScriptSend)
		if err != nil {
			return nil, err
		}
		trans, typing = fake, fake
	default:
		return nil, fmt.Errorf("unknown transport: %s", cfg.Transport)
	}
	if !cfg.TypingIndicator {
		typing = nil
	}

	var provider modelpkg.Provider
	switch cfg.ModelProvider {
	case "openai":
		provider = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIChatCompURL, cfg.OpenAIModel, 120*time.Second)
	case "scripted":
		fake, err := scripted.NewProvider(cfg.ScriptProvider)
		if err != nil {
			return nil, err
		}
		provider = fake
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.ModelProvider)
	}

	policy := control.Policy{
		MaxToolTurns: cfg.MaxToolTurns,
		MaxWallTime:  time.Duration(cfg.MaxWallTimeSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	}

	return &agent.Runner{
		Transport: trans,
		Typing:    typing,
		Provider:  provider,
		Store:     store,
		Gate:      gate.New(cfg.AllowedChatIDs),
		Registry:  registry,
		Tools: toolpkg.NewRunner(registry, toolpkg.Limits{
			MaxLines: cfg.ToolMaxOutputLines,
			MaxBytes: cfg.ToolMaxOutputBytes,
		}),
		HistoryProvider: &ctxpkg.StoreProvider{Store: store, Window: cfg.HistoryWindow},
		Compressor: &ctxpkg.BudgetCompressor{
			MaxMessages: cfg.HistoryWindow * 2,
			TokenBudget: cfg.TokenBudget,
		},
		Assembler:       &ctxpkg.StandardAssembler{},
		Policy:          policy,
		Breaker:         control.NewCircuitBreaker(5, 30*time.Second),
		Locks:           history.NewChatLocks(),
		Log:             logger,
		SystemPrompt:    cfg.SystemPrompt,
		PollTimeout:     cfg.PollTimeout,
	}, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
