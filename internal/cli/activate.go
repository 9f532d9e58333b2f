package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/tmplledger/internal/ledger"
)

// NewActivateCommand creates the activate command.
func NewActivateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate <document-id> <version>",
		Short: "Make an existing version the active one",
		Long: `Make an existing version the active one. No new version is written.

Examples:
  tmplledger activate welcome 2 --db ./ledger.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivate(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runActivate(opts *RootOptions, documentID, versionArg string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts, cmd)

	version, err := strconv.ParseInt(versionArg, 10, 64)
	if err != nil {
		return formatter.fail("invalid version", fmt.Errorf("%w: %q is not a number", ledger.ErrInvalidInput, versionArg))
	}

	sess, err := openSession(ctx, cmd, opts)
	if err != nil {
		return formatter.fail("failed to open ledger", err)
	}
	defer sess.Close()

	rec, err := sess.ledger.SetActive(ctx, documentID, version)
	if err != nil {
		return formatter.fail("activate failed", err)
	}

	return formatter.Emit(rec, func(w io.Writer) {
		fmt.Fprintf(w, "Activated %s v%d (%s)\n", rec.DocumentID, rec.Version, shortHash(rec.ContentHash))
	})
}
