// Package loader reads template files from disk and turns them into inputs
// for the ledger.
//
// A template file is an optional YAML front matter block delimited by "---"
// lines, followed by the body. The body is handed to the ledger byte for
// byte; nothing after the closing delimiter is trimmed or normalized.
//
//	---
//	id: welcome-email
//	type: email
//	schema: |
//	  name: string
//	defaults:
//	  name: friend
//	---
//	Hello {{name}}!
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tmplledger/internal/ledger"
)

// Extensions lists the file extensions LoadDir picks up.
var Extensions = []string{".md", ".tmpl", ".txt"}

// Template is a parsed template file.
type Template struct {
	Path       string
	DocumentID string
	Content    string
	Metadata   ledger.Metadata
}

// Input returns the create input for the template.
func (t Template) Input() ledger.CreateInput {
	return ledger.CreateInput{
		DocumentID: t.DocumentID,
		Content:    t.Content,
		Metadata:   t.Metadata.Clone(),
	}
}

// Error reports a file that could not be loaded.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrSchema is wrapped by errors from defaults that do not satisfy the
// template's schema.
var ErrSchema = errors.New("defaults do not match schema")

type frontMatter struct {
	ID       string            `yaml:"id"`
	Type     string            `yaml:"type"`
	Level    string            `yaml:"level"`
	Purpose  string            `yaml:"purpose"`
	Schema   string            `yaml:"schema"`
	Defaults map[string]string `yaml:"defaults"`
	Metadata map[string]string `yaml:"metadata"`
}

// LoadFile reads and parses one template file.
func LoadFile(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, &Error{Path: path, Err: err}
	}
	t, err := Parse(filepath.Base(path), data)
	if err != nil {
		return Template{}, &Error{Path: path, Err: err}
	}
	t.Path = path
	return t, nil
}

// LoadDir loads every template file directly inside dir, sorted by name.
// Subdirectories and files with other extensions are skipped.
func LoadDir(dir string) ([]Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading template directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !hasTemplateExt(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var (
		templates []Template
		errs      []error
		seen      = make(map[string]string)
	)
	for _, name := range names {
		t, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, ok := seen[t.DocumentID]; ok {
			errs = append(errs, &Error{Path: t.Path, Err: fmt.Errorf("document id %q already used by %s", t.DocumentID, prev)})
			continue
		}
		seen[t.DocumentID] = t.Path
		templates = append(templates, t)
	}
	return templates, errors.Join(errs...)
}

// Parse splits data into front matter and body. name supplies the document
// id when the front matter has none.
func Parse(name string, data []byte) (Template, error) {
	head, body, ok := splitFrontMatter(data)

	var fm frontMatter
	if ok && len(bytes.TrimSpace(head)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(head))
		dec.KnownFields(true)
		if err := dec.Decode(&fm); err != nil {
			return Template{}, fmt.Errorf("parsing front matter: %w", err)
		}
	}

	id := strings.TrimSpace(fm.ID)
	if id == "" {
		id = DocumentID(name)
	}
	if id == "" {
		return Template{}, fmt.Errorf("cannot derive a document id from %q", name)
	}

	if fm.Schema != "" {
		if err := ValidateDefaults(fm.Schema, fm.Defaults); err != nil {
			return Template{}, err
		}
	}

	return Template{
		DocumentID: id,
		Content:    string(body),
		Metadata: ledger.Metadata{
			Type:     fm.Type,
			Level:    fm.Level,
			Purpose:  fm.Purpose,
			Schema:   fm.Schema,
			Defaults: fm.Defaults,
			Extra:    fm.Metadata,
		},
	}, nil
}

// DocumentID derives a document id from a file name: the extension is
// dropped, the rest is NFC-normalized and case-folded, and runs of
// whitespace or underscores become a single dash.
func DocumentID(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	stem = cases.Fold().String(norm.NFC.String(stem))
	stem = strings.ReplaceAll(stem, "_", " ")
	return strings.Join(strings.Fields(stem), "-")
}

// ValidateDefaults checks defaults against a CUE schema. Every field the
// schema declares must end up concrete once the defaults are unified in.
func ValidateDefaults(schema string, defaults map[string]string) error {
	ctx := cuecontext.New()

	s := ctx.CompileString(schema)
	if err := s.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	d := ctx.Encode(defaults)
	if defaults == nil {
		d = ctx.CompileString("{}")
	}
	if err := d.Err(); err != nil {
		return fmt.Errorf("encoding defaults: %w", err)
	}

	if err := s.Unify(d).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

func splitFrontMatter(data []byte) (head, body []byte, ok bool) {
	rest, found := cutLine(data, "---")
	if !found {
		return nil, data, false
	}
	for off := 0; off <= len(rest); {
		line := rest[off:]
		end := bytes.IndexByte(line, '\n')
		var next int
		if end < 0 {
			next = len(rest)
		} else {
			line = line[:end]
			next = off + end + 1
		}
		if string(bytes.TrimRight(line, "\r")) == "---" {
			return rest[:off], rest[next:], true
		}
		if end < 0 {
			break
		}
		off = next
	}
	// Unterminated front matter is treated as body.
	return nil, data, false
}

// cutLine reports whether data starts with a line equal to marker and
// returns what follows that line.
func cutLine(data []byte, marker string) ([]byte, bool) {
	for _, nl := range []string{"\n", "\r\n"} {
		if rest, ok := bytes.CutPrefix(data, []byte(marker+nl)); ok {
			return rest, true
		}
	}
	return nil, false
}

func hasTemplateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
