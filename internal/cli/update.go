package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tmplledger/internal/ledger"
	"github.com/roach88/tmplledger/internal/loader"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	content contentFlags
	meta    metadataFlags
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <document-id>",
		Short: "Change the active version of a document",
		Long: `Change the active version of a document.

Only the flags you pass are changed; everything else is carried forward from
the active version. A new version is written only when the resulting content
differs from the active content. Metadata-only changes are reported as
unchanged and are not stored. When --schema or --default is given, the
resulting defaults are checked against the resulting schema first.

Examples:
  tmplledger update welcome --db ./ledger.db --file welcome.md
  tmplledger update welcome --db ./ledger.db --content "Hi {{name}}" --level user`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, args[0], cmd)
		},
	}

	opts.content.register(cmd)
	opts.meta.register(cmd)

	return cmd
}

func runUpdate(opts *UpdateOptions, documentID string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	in := ledger.UpdateInput{DocumentID: documentID}
	content, ok, err := opts.content.read(cmd)
	if err != nil {
		return formatter.fail("failed to read content", err)
	}
	if ok {
		in.Content = &content
	}
	opts.meta.applyTo(cmd, &in)

	sess, err := openSession(ctx, cmd, opts.RootOptions)
	if err != nil {
		return formatter.fail("failed to open ledger", err)
	}
	defer sess.Close()

	if in.Schema != nil || in.Defaults != nil {
		if err := checkMergedDefaults(ctx, sess.ledger, in); err != nil {
			return formatter.fail("invalid defaults", err)
		}
	}

	rec, outcome, err := sess.ledger.Update(ctx, in)
	if err != nil {
		return formatter.fail("update failed", err)
	}
	sess.recordWrite("update", rec, outcome)

	return formatter.Emit(writeResult{Outcome: outcome.String(), Record: rec}, func(w io.Writer) {
		printWrite(w, outcome, rec)
	})
}

// checkMergedDefaults validates the defaults an update would store against
// the schema it would store. A missing document is left for Update to
// report.
func checkMergedDefaults(ctx context.Context, l *ledger.Ledger, in ledger.UpdateInput) error {
	active, err := l.GetActive(ctx, in.DocumentID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil
		}
		return err
	}

	schema := active.Metadata.Schema
	if in.Schema != nil {
		schema = *in.Schema
	}
	defaults := active.Metadata.Defaults
	if in.Defaults != nil {
		defaults = in.Defaults
	}
	if schema == "" {
		return nil
	}
	if err := loader.ValidateDefaults(schema, defaults); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}
	return nil
}
