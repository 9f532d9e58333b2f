package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/tmplledger/internal/loader"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Concurrency int
}

// ImportItem reports what happened to one template file.
type ImportItem struct {
	File        string `json:"file"`
	DocumentID  string `json:"document_id"`
	Version     int64  `json:"version"`
	Outcome     string `json:"outcome"`
	ContentHash string `json:"content_hash,omitempty"`
	Error       string `json:"error,omitempty"`
}

// outcomeFailed marks an ImportItem whose write was rejected.
const outcomeFailed = "failed"

// ImportResult is the structured output of the import command.
type ImportResult struct {
	Imported []ImportItem `json:"imported"`
	Errors   []string     `json:"errors,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Create a version for every template file in a directory",
		Long: `Create a version for every template file (*.md, *.tmpl, *.txt) in a directory.

Each file may start with YAML front matter between "---" lines:

  ---
  id: welcome-email
  type: email
  schema: |
    name: string
  defaults:
    name: friend
  ---
  Hello {{name}}!

Without an id the document id is derived from the file name. Defaults are
checked against the schema before anything is written. Importing the same
directory twice leaves every document unchanged.

A file that cannot be loaded or written is reported and the others are
still imported; the command then exits 1.

Examples:
  tmplledger import ./templates --db ./ledger.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "documents written in parallel")

	return cmd
}

func runImport(opts *ImportOptions, dir string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	templates, loadErr := loader.LoadDir(dir)
	if loadErr != nil && len(templates) == 0 {
		code, _ := classify(loadErr)
		if code == ErrCodeStorage {
			code = ErrCodeLoadFailed
		}
		_ = formatter.Error(code, loadErr.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load templates", loadErr)
	}
	formatter.VerboseLog("Loaded %d template(s) from %s", len(templates), dir)

	sess, err := openSession(ctx, cmd, opts.RootOptions)
	if err != nil {
		return formatter.fail("failed to open ledger", err)
	}
	defer sess.Close()

	items := make([]ImportItem, len(templates))
	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, t := range templates {
		i, t := i, t
		g.Go(func() error {
			item := ImportItem{File: t.Path, DocumentID: t.DocumentID}
			rec, outcome, err := sess.ledger.Create(ctx, t.Input())
			if err != nil {
				sess.log.Error().Err(err).Str("file", t.Path).Msg("import write failed")
				item.Outcome = outcomeFailed
				item.Error = err.Error()
				items[i] = item
				return nil
			}
			sess.recordWrite("create", rec, outcome)
			item.Version = rec.Version
			item.Outcome = outcome.String()
			item.ContentHash = rec.ContentHash
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	result := ImportResult{Imported: items}
	if loadErr != nil {
		result.Errors = splitErrors(loadErr)
	}
	failed := 0
	for _, it := range items {
		if it.Outcome == outcomeFailed {
			failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", it.File, it.Error))
		}
	}

	err = formatter.Emit(result, func(w io.Writer) {
		rows := make([][]string, len(items))
		for i, it := range items {
			rows[i] = []string{it.DocumentID, versionOrDash(it.Version), it.Outcome, shortHash(it.ContentHash)}
		}
		printTable(w, []string{"document", "version", "outcome", "hash"}, rows)
		for _, e := range result.Errors {
			fmt.Fprintf(w, "✗ %s\n", e)
		}
	})
	if err != nil {
		return err
	}
	if notImported := len(result.Errors); notImported > 0 {
		total := len(items) + notImported - failed
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d template(s) not imported", notImported, total))
	}
	return nil
}

// splitErrors flattens an errors.Join result into its messages.
func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
