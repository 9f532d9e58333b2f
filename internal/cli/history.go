package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tmplledger/internal/ledger"
)

// HistoryResult is the structured output of the history command.
type HistoryResult struct {
	DocumentID string          `json:"document_id"`
	Versions   []ledger.Record `json:"versions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <document-id>",
		Short: "List every stored version of a document",
		Long: `List every stored version of a document in ascending order.
The active version is marked with "*".

Examples:
  tmplledger history welcome --db ./ledger.db
  tmplledger history welcome --db ./ledger.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runHistory(opts *RootOptions, documentID string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts, cmd)

	sess, err := openSession(ctx, cmd, opts)
	if err != nil {
		return formatter.fail("failed to open ledger", err)
	}
	defer sess.Close()

	records, err := sess.ledger.History(ctx, documentID)
	if err != nil {
		return formatter.fail("history failed", err)
	}

	return formatter.Emit(HistoryResult{DocumentID: documentID, Versions: records}, func(w io.Writer) {
		if len(records) == 0 {
			fmt.Fprintf(w, "No versions found for document: %s\n", documentID)
			return
		}
		rows := make([][]string, len(records))
		for i, r := range records {
			rows[i] = []string{
				fmt.Sprint(r.Version),
				activeMark(r.Active),
				shortHash(r.ContentHash),
				r.CreatedAt.UTC().Format(time.RFC3339),
			}
		}
		printTable(w, []string{"version", "active", "hash", "created"}, rows)
	})
}
