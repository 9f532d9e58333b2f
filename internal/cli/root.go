package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tmplledger/internal/ledger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	Database   string // SQLite path
	Driver     string
	DSN        string
	ConfigPath string
	CacheSize  int
	Metrics    bool

	// Test hooks.
	clock     ledger.Clock
	ids       ledger.IDGenerator
	lookupEnv func(string) (string, bool)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the tmplledger CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{lookupEnv: os.LookupEnv})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tmplledger",
		Short: "tmplledger - versioned template documents",
		Long: `A content-addressed, append-only version ledger for template documents.

Writing identical content twice is a no-op; changed content becomes the next
version and the only active one. Old versions are never rewritten.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	f := cmd.PersistentFlags()
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logs on stderr)")
	f.StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	f.StringVar(&opts.Database, "db", "", "path to SQLite database (env "+envDB+")")
	f.StringVar(&opts.Driver, "driver", "", "storage driver: sqlite, pg or memory (env "+envDriver+")")
	f.StringVar(&opts.DSN, "dsn", "", "driver connection string")
	f.StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	f.IntVar(&opts.CacheSize, "cache-size", 0, "active records to cache in memory (0 disables)")
	f.BoolVar(&opts.Metrics, "metrics", false, "write Prometheus metrics to stderr on exit")

	// Add subcommands
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewActivateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newFormatter builds the formatter every command writes through.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}
