package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tmplledger/internal/ledger"
)

// VerifyResult is the structured output of the verify command.
type VerifyResult struct {
	OK      bool            `json:"ok"`
	Reports []ledger.Report `json:"reports"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [document-id...]",
		Short: "Check stored versions against the ledger invariants",
		Long: `Check stored versions against the ledger invariants: no duplicate version
numbers, exactly one active version, and every content hash matching its
content. Gaps left by deleted versions are reported but are not failures.

Without arguments every document is checked. Exits 1 if any check fails.

Examples:
  tmplledger verify --db ./ledger.db
  tmplledger verify welcome --db ./ledger.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runVerify(opts *RootOptions, documentIDs []string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts, cmd)

	sess, err := openSession(ctx, cmd, opts)
	if err != nil {
		return formatter.fail("failed to open ledger", err)
	}
	defer sess.Close()

	if len(documentIDs) == 0 {
		docs, err := sess.ledger.ListDocuments(ctx)
		if err != nil {
			return formatter.fail("verify failed", err)
		}
		for _, d := range docs {
			documentIDs = append(documentIDs, d.DocumentID)
		}
	}

	result := VerifyResult{OK: true, Reports: []ledger.Report{}}
	for _, id := range documentIDs {
		formatter.VerboseLog("Verifying %s", id)
		rep, err := sess.ledger.Verify(ctx, id)
		if err != nil {
			return formatter.fail("verify failed", err)
		}
		result.Reports = append(result.Reports, rep)
		if !rep.OK() {
			result.OK = false
		}
	}

	err = formatter.Emit(result, func(w io.Writer) {
		for _, rep := range result.Reports {
			printReport(w, rep)
		}
		if result.OK {
			fmt.Fprintf(w, "✓ %d document(s) verified\n", len(result.Reports))
		}
	})
	if err != nil {
		return err
	}
	if !result.OK {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: verification failed", ErrCodeVerifyFailed))
	}
	return nil
}

func printReport(w io.Writer, rep ledger.Report) {
	status := "ok"
	if !rep.OK() {
		status = "FAILED"
	}
	fmt.Fprintf(w, "%s: %s (%d version(s))\n", rep.DocumentID, status, rep.Versions)

	var problems []string
	if n := len(rep.ActiveVersions); n != 1 && rep.Versions > 0 {
		problems = append(problems, fmt.Sprintf("%d active versions %v", n, rep.ActiveVersions))
	}
	if len(rep.DuplicateVersions) > 0 {
		problems = append(problems, fmt.Sprintf("duplicate versions %v", rep.DuplicateVersions))
	}
	if len(rep.HashMismatches) > 0 {
		problems = append(problems, fmt.Sprintf("hash mismatch in versions %v", rep.HashMismatches))
	}
	if len(rep.MissingVersions) > 0 {
		problems = append(problems, fmt.Sprintf("missing versions %v", rep.MissingVersions))
	}
	if len(problems) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(problems, "; "))
	}
}
