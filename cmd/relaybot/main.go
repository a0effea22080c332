package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relaybot/internal/audit"
	"relaybot/internal/config"
	"relaybot/internal/provider"
	"relaybot/internal/relay"
	"relaybot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const announceTimeFormat = "2006-01-02 15:04:05"

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "relaybot",
		Short: "relaybot: stateless Telegram-to-completion-API relay",
		Long:  "relaybot receives Telegram webhook updates, relays each message to a completion API, and delivers the answer back in order.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to an optional YAML tunables file")

	root.AddCommand(serveCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("relaybot v" + version)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Register the webhook and serve updates until interrupted",
		RunE:  runServe,
	}
}

// loadConfig pulls in a local .env when present, then reads the environment
// plus the optional --config overlay.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}
	return config.Load(configPath)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("telegram client: %w", err)
	}
	logger.Info("authorized", "account", bot.Self.UserName)

	auditor := audit.New(audit.Config{
		Token:  cfg.AuditToken,
		ChatID: cfg.AuditChatID,
		Logger: logger,
	})

	completer := provider.NewOpenAI(provider.OpenAIConfig{
		APIKey:       cfg.OpenAIKey,
		BaseURL:      cfg.OpenAIBase,
		Model:        cfg.Model,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		SystemPrompt: cfg.SystemPrompt,
		Retry:        provider.DefaultRetryPolicy(),
		Logger:       logger,
	})

	sender := telegram.NewSender(bot, logger)

	router := relay.New(relay.Config{
		Completer: completer,
		Deliverer: sender,
		Recorder:  auditor,
		Typing:    sender.Typing,
		Welcome:   cfg.Welcome,
		Apology:   cfg.Apology,
		Logger:    logger,
	})

	webhook := telegram.NewWebhook(telegram.WebhookConfig{
		Port:   cfg.Port,
		Token:  cfg.BotToken,
		Handle: router.Handle,
		Logger: logger,
	})

	lifecycle := telegram.NewLifecycle(bot, cfg.BaseURL, webhook.Path(), logger)

	// Registration must succeed before the listener binds; without it the
	// platform has nowhere to deliver and the process is useless.
	if err := lifecycle.Register(); err != nil {
		return fmt.Errorf("webhook registration: %w", err)
	}

	auditor.Announce("🚀 relay started\n⏰ " + time.Now().Format(announceTimeFormat))
	logger.Info("serving", "port", cfg.Port, "model", cfg.Model)

	serveErr := webhook.Start(ctx)

	if err := lifecycle.Deregister(); err != nil {
		logger.Error("webhook deregistration failed", "err", err)
	}
	auditor.Announce("🔴 relay stopped\n⏰ " + time.Now().Format(announceTimeFormat))
	auditor.Close()

	return serveErr
}
