package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tmplledger/internal/ledger"
	"github.com/roach88/tmplledger/internal/loader"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	content contentFlags
	meta    metadataFlags
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <document-id>",
		Short: "Store content as the next version of a document",
		Long: `Store content as the next version of a document.

If the content is byte-identical to the active version nothing is written
and the active version is reported as unchanged. Otherwise the content
becomes a new version and the only active one. Supplying older content
again creates a new version; it never jumps back to the old number.

Examples:
  tmplledger create welcome --db ./ledger.db --file welcome.md --type email
  echo "Hello" | tmplledger create greeting --db ./ledger.db --file -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}

	opts.content.register(cmd)
	opts.meta.register(cmd)

	return cmd
}

func runCreate(opts *CreateOptions, documentID string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	content, ok, err := opts.content.read(cmd)
	if err != nil {
		return formatter.fail("failed to read content", err)
	}
	if !ok {
		return formatter.fail("missing content", fmt.Errorf("%w: --content or --file is required", ledger.ErrInvalidInput))
	}

	meta := opts.meta.metadata()
	if meta.Schema != "" {
		if err := loader.ValidateDefaults(meta.Schema, meta.Defaults); err != nil {
			return formatter.fail("invalid defaults", fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err))
		}
	}

	sess, err := openSession(ctx, cmd, opts.RootOptions)
	if err != nil {
		return formatter.fail("failed to open ledger", err)
	}
	defer sess.Close()

	rec, outcome, err := sess.ledger.Create(ctx, ledger.CreateInput{
		DocumentID: documentID,
		Content:    content,
		Metadata:   meta,
	})
	if err != nil {
		return formatter.fail("create failed", err)
	}
	sess.recordWrite("create", rec, outcome)

	return formatter.Emit(writeResult{Outcome: outcome.String(), Record: rec}, func(w io.Writer) {
		printWrite(w, outcome, rec)
	})
}
