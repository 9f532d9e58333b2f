package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/roach88/tmplledger/internal/ledger"
)

// writeResult is the structured output of create and update.
type writeResult struct {
	Outcome string        `json:"outcome"`
	Record  ledger.Record `json:"record"`
}

func printWrite(w io.Writer, outcome ledger.Outcome, rec ledger.Record) {
	verb := "Created"
	if outcome == ledger.Unchanged {
		verb = "Unchanged"
	}
	fmt.Fprintf(w, "%s %s v%d (%s)\n", verb, rec.DocumentID, rec.Version, shortHash(rec.ContentHash))
}

func printRecord(w io.Writer, rec ledger.Record) {
	fmt.Fprintf(w, "document: %s\n", rec.DocumentID)
	fmt.Fprintf(w, "version:  %d\n", rec.Version)
	fmt.Fprintf(w, "active:   %t\n", rec.Active)
	fmt.Fprintf(w, "hash:     %s\n", rec.ContentHash)
	fmt.Fprintf(w, "created:  %s\n", rec.CreatedAt.UTC().Format(time.RFC3339))

	m := rec.Metadata
	for _, field := range [][2]string{
		{"type", m.Type},
		{"level", m.Level},
		{"purpose", m.Purpose},
	} {
		if field[1] != "" {
			fmt.Fprintf(w, "%-9s %s\n", field[0]+":", field[1])
		}
	}
	if len(m.Defaults) > 0 {
		fmt.Fprintf(w, "defaults: %s\n", formatPairs(m.Defaults))
	}
	if len(m.Extra) > 0 {
		fmt.Fprintf(w, "meta:     %s\n", formatPairs(m.Extra))
	}
	if m.Schema != "" {
		fmt.Fprintf(w, "schema:\n%s\n", indent(m.Schema, "  "))
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, rec.Content)
	if !strings.HasSuffix(rec.Content, "\n") {
		fmt.Fprintln(w)
	}
}

// formatPairs renders a map as sorted key=value pairs.
func formatPairs(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + m[k]
	}
	return strings.Join(pairs, ", ")
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func activeMark(active bool) string {
	if active {
		return "*"
	}
	return ""
}

func versionOrDash(v int64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprint(v)
}
