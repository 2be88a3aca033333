package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/pdfrag-go/internal/app"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index and history statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			st, err := a.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, st)
			}
			fmt.Fprintf(out, "Indexed documents:  %d\n", st.IndexedDocuments)
			fmt.Fprintf(out, "Indexed chunks:     %d\n", st.IndexedChunks)
			fmt.Fprintf(out, "Ingestions logged:  %d\n", st.TotalDocuments)
			fmt.Fprintf(out, "Queries logged:     %d\n", st.TotalQueries)
			if st.AvgResponseTime != nil {
				fmt.Fprintf(out, "Avg response time:  %.3fs\n", *st.AvgResponseTime)
			}
			h := a.Health(cmd.Context())
			if h.LLMAvailable {
				fmt.Fprintln(out, "Answer generation:  available")
			} else {
				fmt.Fprintf(out, "Answer generation:  unavailable (%s)\n", h.LLMReason)
			}
			if !h.Healthy() {
				fmt.Fprintf(out, "Health:             %s (index: %s, extractor: %s)\n",
					h.Status, h.Checks["index"], h.Checks["extractor"])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pdfrag version %s\n", app.Version)
		},
	}
}
