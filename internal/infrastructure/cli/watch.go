package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/pdfrag-go/internal/adapters/filewatcher"
)

var errNoInbox = errors.New("no directory given and ingest.inbox_dir is not set")

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Ingest PDFs as they appear in a directory",
		Long: `Ingests the PDFs already in dir, then every PDF created or rewritten
there until interrupted. Defaults to ingest.inbox_dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			dir := a.Config.Ingest.InboxDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return errNoInbox
			}

			w, err := filewatcher.NewFSNotifyWatcher(a.Loader.SupportedExtensions(), a.Logger)
			if err != nil {
				return err
			}
			defer w.Stop()
			return a.WatchInbox(cmd.Context(), dir, w)
		},
	}
}
