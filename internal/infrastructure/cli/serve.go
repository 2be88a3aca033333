package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/pdfrag-go/internal/adapters/filewatcher"
	httpserver "github.com/0xcro3dile/pdfrag-go/internal/infrastructure/http"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr, inbox string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serves the JSON API under /api. With --inbox (or ingest.inbox_dir) PDFs
dropped into that directory are ingested automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx, false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			if inbox == "" {
				inbox = a.Config.Ingest.InboxDir
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return httpserver.NewServer(a, addr).Start(ctx)
			})
			if inbox != "" {
				g.Go(func() error {
					w, err := filewatcher.NewFSNotifyWatcher(a.Loader.SupportedExtensions(), a.Logger)
					if err != nil {
						return err
					}
					defer w.Stop()
					return a.WatchInbox(ctx, inbox, w)
				})
			}
			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				a.Logger.Error("server exited", zap.Error(err))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&inbox, "inbox", "", "directory to watch for new PDFs")
	return cmd
}
