// Package cli - команды todo и запуск TUI.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-app/internal/client"
	"github.com/BuzzLyutic/todo-app/internal/config"
	"github.com/BuzzLyutic/todo-app/internal/controller"
	"github.com/BuzzLyutic/todo-app/internal/tui"
)

type App struct {
	APIURL       string
	LogFile      string
	JSON         bool
	PollInterval time.Duration

	logger *zap.Logger
	api    *client.Client
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "todo",
		Short:        "Terminal client for the todo API",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  todo

  # Scriptable commands
  todo add "Buy milk"
  todo list --filter pending --search milk
  todo done 1712345678901
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Без подкоманды запускаем TUI
			ctrl := controller.New(app.api, app.logger, app.PollInterval)
			return tui.Run(cmd.Context(), ctrl)
		},
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api", "", "API base URL (default $TODO_API_URL or http://localhost:3001)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", os.Getenv("TODO_LOG"), "write debug logs to this file")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "print machine-readable JSON")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup()
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.logger != nil {
			_ = app.logger.Sync()
		}
	}

	cmd.AddCommand(
		newListCmd(app),
		newAddCmd(app),
		newDoneCmd(app, true),
		newDoneCmd(app, false),
		newRmCmd(app),
		newStatsCmd(app),
		newHealthCmd(app),
	)
	return cmd
}

func (a *App) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.APIURL == "" {
		a.APIURL = cfg.APIURL
	}
	if a.PollInterval == 0 {
		a.PollInterval = cfg.PollInterval
	}

	a.logger, err = newLogger(a.LogFile)
	if err != nil {
		return err
	}
	a.api = client.New(a.APIURL, client.WithLogger(a.logger))
	return nil
}

// В терминал не пишем: stdout занят TUI и выводом команд
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
