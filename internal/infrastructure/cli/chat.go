package cli

import (
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/pdfrag-go/internal/infrastructure/tui"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive terminal chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeApp(a)
			return tui.Run(a, a.Config.LLM.Timeout)
		},
	}
}
