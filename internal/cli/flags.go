package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tmplledger/internal/ledger"
)

// contentFlags reads document content from --content or --file.
type contentFlags struct {
	content string
	file    string
}

func (c *contentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.content, "content", "", "document content")
	cmd.Flags().StringVarP(&c.file, "file", "f", "", `read content from file ("-" for stdin)`)
	cmd.MarkFlagsMutuallyExclusive("content", "file")
}

// read returns the content and whether any was supplied. Content is
// passed through byte for byte.
func (c *contentFlags) read(cmd *cobra.Command) (string, bool, error) {
	switch {
	case cmd.Flags().Changed("content"):
		return c.content, true, nil
	case c.file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", false, fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), true, nil
	case c.file != "":
		data, err := os.ReadFile(c.file)
		if err != nil {
			return "", false, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
		}
		return string(data), true, nil
	}
	return "", false, nil
}

// metadataFlags collects the descriptive fields of a version.
type metadataFlags struct {
	typ      string
	level    string
	purpose  string
	schema   string
	defaults map[string]string
	extra    map[string]string
}

func (m *metadataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.typ, "type", "", "template type")
	cmd.Flags().StringVar(&m.level, "level", "", "template level")
	cmd.Flags().StringVar(&m.purpose, "purpose", "", "what the template is for")
	cmd.Flags().StringVar(&m.schema, "schema", "", "CUE schema for the template's defaults")
	cmd.Flags().StringToStringVar(&m.defaults, "default", nil, "default value as key=value (repeatable)")
	cmd.Flags().StringToStringVar(&m.extra, "meta", nil, "free-form metadata as key=value (repeatable)")
}

func (m *metadataFlags) metadata() ledger.Metadata {
	meta := ledger.Metadata{
		Type:    m.typ,
		Level:   m.level,
		Purpose: m.purpose,
		Schema:  m.schema,
	}
	if len(m.defaults) > 0 {
		meta.Defaults = m.defaults
	}
	if len(m.extra) > 0 {
		meta.Extra = m.extra
	}
	return meta
}

// applyTo sets only the fields the user passed, so the rest are carried
// forward from the active version.
func (m *metadataFlags) applyTo(cmd *cobra.Command, in *ledger.UpdateInput) {
	changed := cmd.Flags().Changed
	if changed("type") {
		in.Type = &m.typ
	}
	if changed("level") {
		in.Level = &m.level
	}
	if changed("purpose") {
		in.Purpose = &m.purpose
	}
	if changed("schema") {
		in.Schema = &m.schema
	}
	if changed("default") {
		in.Defaults = m.defaults
	}
	if changed("meta") {
		in.Extra = m.extra
	}
}
