// Package cli implements the pdfrag command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/app"
	"github.com/0xcro3dile/pdfrag-go/internal/config"
	"github.com/0xcro3dile/pdfrag-go/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "pdfrag",
		Short: "Ask questions about your PDF documents",
		Long: `pdfrag ingests PDF documents into a local index and answers questions
using the most relevant passages as context for a language model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCmd(opts),
		newIngestCmd(opts),
		newAskCmd(opts),
		newSearchCmd(opts),
		newWatchCmd(opts),
		newChatCmd(opts),
		newStatsCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// open builds the application. quiet discards log output unless a log file
// is configured, for commands that own the terminal.
func (o *rootOptions) open(ctx context.Context, quiet bool) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if quiet && cfg.Log.File == "" {
		logger = zap.NewNop()
	} else {
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
		if err != nil {
			return nil, err
		}
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("starting pdfrag: %w", err)
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Warn("close failed", zap.Error(err))
	}
	_ = a.Logger.Sync()
}
