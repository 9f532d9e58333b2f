package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tmplledger/internal/ledger"
)

// ListResult is the structured output of the list command.
type ListResult struct {
	Documents []ledger.DocumentSummary `json:"documents"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Summarize every document in the ledger",
		Long: `Summarize every document in the ledger: how many versions it has, the
highest version number and the active version ("-" when none is active).

Examples:
  tmplledger list --db ./ledger.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts, cmd)

	sess, err := openSession(ctx, cmd, opts)
	if err != nil {
		return formatter.fail("failed to open ledger", err)
	}
	defer sess.Close()

	docs, err := sess.ledger.ListDocuments(ctx)
	if err != nil {
		return formatter.fail("list failed", err)
	}

	return formatter.Emit(ListResult{Documents: docs}, func(w io.Writer) {
		if len(docs) == 0 {
			fmt.Fprintln(w, "No documents found")
			return
		}
		rows := make([][]string, len(docs))
		for i, d := range docs {
			rows[i] = []string{
				d.DocumentID,
				fmt.Sprint(d.Versions),
				fmt.Sprint(d.LatestVersion),
				versionOrDash(d.ActiveVersion),
			}
		}
		printTable(w, []string{"document", "versions", "latest", "active"}, rows)
	})
}
