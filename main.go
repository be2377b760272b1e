package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/turbekoff/calcpad/pkg/env"
	"github.com/turbekoff/calcpad/pkg/expr"
	"github.com/turbekoff/calcpad/pkg/format"
)

var version = "dev"

type TelegramConfig struct {
	BotToken              string        `env:"CALCPAD_TELEGRAM_TOKEN,required"`
	BotOffset             int           `env:"CALCPAD_TELEGRAM_OFFSET" env-default:"0"`
	BotTimeout            int           `env:"CALCPAD_TELEGRAM_TIMEOUT" env-default:"60"`
	SessionTTLTimeout     time.Duration `env:"CALCPAD_SESSION_TTL_TIMEOUT" env-default:"20m"`
	SessionCleanupTimeout time.Duration `env:"CALCPAD_SESSION_CLEANUP_TIMEOUT" env-default:"1m"`
	ShutdownTimeout       time.Duration `env:"CALCPAD_SHUTDOWN_TIMEOUT" env-default:"2m"`
}

type TerminalConfig struct {
	StatusInterval time.Duration `env:"CALCPAD_STATUS_INTERVAL" env-default:"1s"`
}

type MCPConfig struct {
	Name    string `env:"CALCPAD_MCP_NAME" env-default:"calcpad"`
	Version string `env:"CALCPAD_MCP_VERSION"`
}

// LoadConfig reads cfg from the environment after merging envFile into it.
func LoadConfig[T any](envFile string) (*T, error) {
	if err := env.Load(envFile); err != nil {
		return nil, err
	}

	var cfg T
	if err := env.Read(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	if err := newRootCommand(log.Default()).Execute(); err != nil {
		log.Fatalf("calcpad: %v\n", err)
	}
}

func newRootCommand(logger *log.Logger) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "calcpad",
		Short:         "Keypad calculator for Telegram, terminals and MCP clients",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file merged into the environment")

	root.AddCommand(
		&cobra.Command{
			Use:   "telegram",
			Short: "Run the Telegram bot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				config, err := LoadConfig[TelegramConfig](envFile)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				return runTelegram(config, logger)
			},
		},
		&cobra.Command{
			Use:   "term",
			Short: "Run the terminal keypad",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				config, err := LoadConfig[TerminalConfig](envFile)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return NewTerminal(os.Stdin, os.Stdout, config, logger).Run(ctx)
			},
		},
		&cobra.Command{
			Use:   "mcp",
			Short: "Serve calculator tools over MCP stdio",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				config, err := LoadConfig[MCPConfig](envFile)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				if config.Version == "" {
					config.Version = version
				}

				return NewToolServer(config, logger).Serve()
			},
		},
		&cobra.Command{
			Use:   "eval EXPRESSION...",
			Short: "Evaluate one expression and print the result",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := expr.Evaluate(strings.Join(args, " "))
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "= Error")
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "= "+format.Format(v, format.Final))
				return nil
			},
		},
	)
	return root
}

func runTelegram(config *TelegramConfig, logger *log.Logger) error {
	bot, err := LoadBot(config, logger)
	if err != nil {
		return fmt.Errorf("failed to connect telegram: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		logger.Println("starting telegram bot")
		if err := bot.Run(); !errors.Is(err, ErrClosed) {
			logger.Printf("failed to start telegram bot, error: %s", err)
		}
		quit <- os.Interrupt
	}()

	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	logger.Println("stopping telegram bot")
	if err := bot.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to graceful shutdown telegram bot: %w", err)
	}
	logger.Println("telegram bot stopped")
	return nil
}
