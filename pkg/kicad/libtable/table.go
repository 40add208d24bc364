// Package libtable reads and extends KiCad library tables (fp-lib-table,
// sym-lib-table) and stores footprint and symbol library files.
package libtable

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

// Kind selects the footprint or the symbol table.
type Kind string

const (
	Footprint Kind = "footprint"
	Symbol    Kind = "symbol"
)

// FileName returns the table file name KiCad uses for k.
func (k Kind) FileName() string {
	if k == Symbol {
		return "sym-lib-table"
	}
	return "fp-lib-table"
}

func (k Kind) rootTag() string {
	if k == Symbol {
		return "sym_lib_table"
	}
	return "fp_lib_table"
}

// Library is one (lib ...) record.
type Library struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	URI      string `json:"uri"`
	Options  string `json:"options,omitempty"`
	Descr    string `json:"descr,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Table is a parsed library table.
type Table struct {
	Kind      string    `json:"kind"`
	Version   int       `json:"version,omitempty"`
	Libraries []Library `json:"libraries"`
}

// Parser parses library tables.
type Parser struct {
	parser *participle.Parser[tableFile]
}

// NewParser creates a table parser.
func NewParser() (*Parser, error) {
	p, err := buildParser()
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	return &Parser{parser: p}, nil
}

// Parse reads a table.
func (p *Parser) Parse(r io.Reader) (*Table, error) {
	tree, err := p.parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if tree.Kind != Footprint.rootTag() && tree.Kind != Symbol.rootTag() {
		return nil, fmt.Errorf("not a library table: %q", tree.Kind)
	}

	t := &Table{Kind: tree.Kind, Libraries: []Library{}}
	for _, item := range tree.Items {
		switch {
		case item.Version != nil:
			t.Version = *item.Version
		case item.Lib != nil:
			t.Libraries = append(t.Libraries, item.Lib.library())
		}
	}
	return t, nil
}

// ParseFile reads a table from disk.
func (p *Parser) ParseFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return p.Parse(f)
}

func (e *libEntry) library() Library {
	var lib Library
	for _, f := range e.Fields {
		value := strings.Join(f.Values, " ")
		switch f.Key {
		case "name":
			lib.Name = value
		case "type":
			lib.Type = value
		case "uri":
			lib.URI = value
		case "options":
			lib.Options = value
		case "descr":
			lib.Descr = value
		case "disabled":
			lib.Disabled = true
		}
	}
	return lib
}

// Find returns the library with the given nickname.
func (t *Table) Find(name string) (Library, bool) {
	for _, lib := range t.Libraries {
		if lib.Name == name {
			return lib, true
		}
	}
	return Library{}, false
}

// ExpandURI substitutes ${VAR} references in a library URI from vars and
// then from the environment.
func ExpandURI(uri string, vars map[string]string) string {
	return os.Expand(uri, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}

// Entry renders lib as one table line.
func Entry(lib Library) string {
	typ := lib.Type
	if typ == "" {
		typ = "KiCad"
	}
	return fmt.Sprintf(`(lib (name %s)(type %s)(uri %s)(options %s)(descr %s))`,
		strconv.Quote(lib.Name), strconv.Quote(typ), strconv.Quote(lib.URI),
		strconv.Quote(lib.Options), strconv.Quote(lib.Descr))
}

// Add appends lib to the table at path, before the table's closing
// parenthesis. A library whose name is already present is refused with
// KindAlreadyExists. A missing table is created.
func Add(path string, kind Kind, lib Library) error {
	if strings.TrimSpace(lib.Name) == "" {
		return kicaderr.Errorf(kicaderr.KindInvalidInput, "library name cannot be empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		data = []byte(fmt.Sprintf("(%s\n  (version 7)\n)\n", kind.rootTag()))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
	}
	content := string(data)

	if strings.Contains(content, fmt.Sprintf(`(name %s)`, strconv.Quote(lib.Name))) {
		return kicaderr.Errorf(kicaderr.KindAlreadyExists, "library %q already exists in %s", lib.Name, kind.FileName())
	}
	// older tables write bare names
	if p, err := NewParser(); err == nil {
		if t, err := p.Parse(strings.NewReader(content)); err == nil {
			if _, dup := t.Find(lib.Name); dup {
				return kicaderr.Errorf(kicaderr.KindAlreadyExists, "library %q already exists in %s", lib.Name, kind.FileName())
			}
		}
	}

	entry := "  " + Entry(lib) + "\n"
	trimmed := strings.TrimRight(content, " \t\r\n")
	var out string
	if strings.HasSuffix(trimmed, ")") {
		body := trimmed[:len(trimmed)-1]
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		out = body + entry + ")\n"
	} else {
		out = content + entry + ")\n"
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(out), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
