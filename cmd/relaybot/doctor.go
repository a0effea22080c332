package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"relaybot/internal/provider"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks against the configured services",
		Long: `Verifies that the relay's configuration, Telegram credentials, and
completion API are usable. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("relaybot doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config loads and validates
			cfg, err := loadConfig()
			if err != nil {
				printFail("Config", err.Error())
				fmt.Printf("\nResults: %d passed, %d warnings, %d failed\n", passed, warned, 1)
				return fmt.Errorf("configuration invalid")
			}
			printPass("Config", "valid")
			passed++

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			// 2. Main bot credential
			bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
			if err != nil {
				printFail("Telegram token", err.Error())
				failed++
			} else {
				printPass("Telegram token", "@"+bot.Self.UserName)
				passed++

				// 3. Current webhook registration
				info, err := bot.GetWebhookInfo()
				switch {
				case err != nil:
					printWarn("Webhook info", err.Error())
					warned++
				case info.URL == "":
					printPass("Webhook info", "no webhook registered")
					passed++
				case info.LastErrorMessage != "":
					printWarn("Webhook info", fmt.Sprintf("registered, last error: %s", info.LastErrorMessage))
					warned++
				default:
					printPass("Webhook info", fmt.Sprintf("registered, %d pending", info.PendingUpdateCount))
					passed++
				}
			}

			// 4. Audit bot credential
			if _, err := tgbotapi.NewBotAPI(cfg.AuditToken); err != nil {
				printFail("Audit token", err.Error())
				failed++
			} else {
				printPass("Audit token", fmt.Sprintf("chat %d", cfg.AuditChatID))
				passed++
			}

			// 5. Completion API reachable
			completer := provider.NewOpenAI(provider.OpenAIConfig{
				APIKey:  cfg.OpenAIKey,
				BaseURL: cfg.OpenAIBase,
				Model:   cfg.Model,
				Logger:  logger,
			})
			if err := completer.Healthy(ctx); err != nil {
				printFail("Completion API", err.Error())
				failed++
			} else {
				printPass("Completion API", cfg.Model)
				passed++
			}

			// 6. Listen port available
			if err := checkPort(cfg.Port); err != nil {
				printWarn("Listen port", fmt.Sprintf("port %s may be in use: %v", cfg.Port, err))
				warned++
			} else {
				printPass("Listen port", ":"+cfg.Port+" available")
				passed++
			}

			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running the relay.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nThe relay should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed.\n")
			}
			return nil
		},
	}
}

func checkPort(port string) error {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-18s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-18s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-18s %s\n", check, detail)
}
