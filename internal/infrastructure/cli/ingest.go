package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.pdf|dir>...",
		Short: "Ingest PDF files into the index",
		Long: `Extracts, chunks and indexes each PDF. Directories are searched
recursively. Files already indexed are skipped when the duplicate policy is reject.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx, false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			files, err := a.Loader.Discover(args...)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return errors.New("no PDF files found")
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, path := range files {
				doc, err := a.IngestFile(ctx, path)
				switch {
				case err == nil:
					fmt.Fprintf(out, "ok      %s  doc_id=%s pages=%d chunks=%d\n",
						path, doc.ID, doc.PageCount, doc.ChunkCount)
				case entities.IsDuplicateError(err):
					fmt.Fprintf(out, "skipped %s  %v\n", path, err)
				default:
					failed++
					fmt.Fprintf(out, "failed  %s  %v\n", path, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}
}
