package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tmplledger/internal/ledger"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Version int64
	Raw     bool
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <document-id>",
		Short: "Show the active (or a specific) version of a document",
		Long: `Show the active version of a document, or the version named by --version.

With --raw only the content is written, exactly as stored.

Examples:
  tmplledger get welcome --db ./ledger.db
  tmplledger get welcome --db ./ledger.db --version 2 --raw > welcome.md`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Version, "version", 0, "version to show (default: active)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "write only the content")

	return cmd
}

func runGet(opts *GetOptions, documentID string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	sess, err := openSession(ctx, cmd, opts.RootOptions)
	if err != nil {
		return formatter.fail("failed to open ledger", err)
	}
	defer sess.Close()

	var rec ledger.Record
	if cmd.Flags().Changed("version") {
		rec, err = sess.ledger.Get(ctx, documentID, opts.Version)
	} else {
		rec, err = sess.ledger.GetActive(ctx, documentID)
	}
	if err != nil {
		return formatter.fail("get failed", err)
	}

	if opts.Raw {
		_, err := fmt.Fprint(formatter.Writer, rec.Content)
		return err
	}
	return formatter.Emit(rec, func(w io.Writer) {
		printRecord(w, rec)
	})
}
