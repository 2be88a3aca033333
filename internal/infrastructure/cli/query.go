package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

type queryFlags struct {
	k     int
	docID string
	json  bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.k, "k", "k", 0, "number of chunks to retrieve (default retrieval.default_k)")
	cmd.Flags().StringVar(&f.docID, "doc", "", "restrict retrieval to one doc_id")
	cmd.Flags().BoolVar(&f.json, "json", false, "output as JSON")
}

func (f *queryFlags) request(args []string) entities.AnswerRequest {
	return entities.AnswerRequest{Question: strings.Join(args, " "), K: f.k, ScopeDocID: f.docID}
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			res, err := a.Ask(cmd.Context(), flags.request(args))
			if err != nil {
				return err
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printAnswer(cmd.OutOrStdout(), res)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the best matching passages without generating an answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			results, err := a.Search(cmd.Context(), flags.request(args))
			if err != nil {
				return err
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printAnswer(w io.Writer, res *entities.AnswerResult) {
	if res.Status == entities.StatusNoResults {
		fmt.Fprintln(w, "No relevant passages found.")
		return
	}
	fmt.Fprintln(w, res.Answer)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	printResults(w, res.Sources)
}

func printResults(w io.Writer, results []entities.ScoredChunk) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "  [%d] %s #%d (%.2f)\n", i+1, r.Chunk.Metadata.Filename, r.Chunk.Metadata.SequenceIndex, r.Score)
		fmt.Fprintf(w, "      %s\n", snippet(r.Chunk.Content, 160))
	}
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
