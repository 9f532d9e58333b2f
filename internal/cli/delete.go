package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Version int64
	All     bool
}

// DeleteResult is the structured output of the delete command.
type DeleteResult struct {
	DocumentID string `json:"document_id"`
	Version    int64  `json:"version,omitempty"`
	Deleted    int64  `json:"deleted"`
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Remove one version, or every version, of a document",
		Long: `Remove one version (--version) or every version (--all) of a document.

Deleting the active version leaves the document without an active version;
no other version is promoted. Use "activate" to choose one.

Examples:
  tmplledger delete welcome --db ./ledger.db --version 2
  tmplledger delete welcome --db ./ledger.db --all`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Version, "version", 0, "version to delete")
	cmd.Flags().BoolVar(&opts.All, "all", false, "delete every version")
	cmd.MarkFlagsMutuallyExclusive("version", "all")
	cmd.MarkFlagsOneRequired("version", "all")

	return cmd
}

func runDelete(opts *DeleteOptions, documentID string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	sess, err := openSession(ctx, cmd, opts.RootOptions)
	if err != nil {
		return formatter.fail("failed to open ledger", err)
	}
	defer sess.Close()

	result := DeleteResult{DocumentID: documentID}
	if opts.All {
		result.Deleted, err = sess.ledger.DeleteAll(ctx, documentID)
	} else {
		result.Version = opts.Version
		err = sess.ledger.DeleteVersion(ctx, documentID, opts.Version)
		if err == nil {
			result.Deleted = 1
		}
	}
	if err != nil {
		return formatter.fail("delete failed", err)
	}

	return formatter.Emit(result, func(w io.Writer) {
		if opts.All {
			fmt.Fprintf(w, "Deleted %d version(s) of %s\n", result.Deleted, documentID)
			return
		}
		fmt.Fprintf(w, "Deleted %s v%d\n", documentID, opts.Version)
	})
}
