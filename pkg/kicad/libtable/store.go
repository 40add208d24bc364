package libtable

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

const (
	PrettyExt = ".pretty"
	ModExt    = ".kicad_mod"
	SymExt    = ".kicad_sym"
)

// Store writes footprint and symbol libraries below two root directories
// and registers them in the global library tables.
type Store struct {
	FootprintDir   string
	SymbolDir      string
	FootprintTable string
	SymbolTable    string

	Log logrus.FieldLogger
}

func (s *Store) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// FootprintLibPath returns the .pretty directory of lib.
func (s *Store) FootprintLibPath(lib string) string {
	return filepath.Join(s.FootprintDir, strings.TrimSuffix(lib, PrettyExt)+PrettyExt)
}

// SymbolLibPath returns the .kicad_sym file of lib.
func (s *Store) SymbolLibPath(lib string) string {
	return filepath.Join(s.SymbolDir, strings.TrimSuffix(lib, SymExt)+SymExt)
}

func requireText(what, v string) error {
	if strings.TrimSpace(v) == "" {
		return kicaderr.Errorf(kicaderr.KindInvalidInput, "%s cannot be empty", what)
	}
	return nil
}

// SaveFootprint writes content to <FootprintDir>/<lib>.pretty/<name>.kicad_mod.
// An existing footprint file is overwritten.
func (s *Store) SaveFootprint(content, name, lib string) (string, error) {
	for _, c := range [][2]string{{"footprint content", content}, {"footprint name", name}, {"library name", lib}, {"library path", s.FootprintDir}} {
		if err := requireText(c[0], c[1]); err != nil {
			return "", err
		}
	}

	dir := s.FootprintLibPath(lib)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, strings.TrimSuffix(name, ModExt)+ModExt)
	if _, err := os.Stat(path); err == nil {
		s.log().WithField("path", path).Warn("Footprint already exists and will be overwritten")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write footprint: %w", err)
	}
	s.log().WithField("path", path).Info("Footprint saved")
	return path, nil
}

// SaveSymbol creates <SymbolDir>/<lib>.kicad_sym from content, or inserts
// the symbol before the closing parenthesis of an existing library. When
// content is a whole library, only its symbol blocks are inserted.
func (s *Store) SaveSymbol(content, name, lib string) (string, error) {
	for _, c := range [][2]string{{"symbol content", content}, {"symbol name", name}, {"library name", lib}, {"library path", s.SymbolDir}} {
		if err := requireText(c[0], c[1]); err != nil {
			return "", err
		}
	}

	path := s.SymbolLibPath(lib)
	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o644); err != nil {
			return "", fmt.Errorf("failed to write symbol library: %w", err)
		}
		s.log().WithField("path", path).Info("Symbol library created")
		return path, nil
	} else if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	current := strings.TrimSpace(string(existing))
	if strings.Contains(current, "(symbol "+name+" ") || strings.Contains(current, `(symbol "`+name+`"`) {
		s.log().WithFields(logrus.Fields{"symbol": name, "path": path}).Warn("Symbol already exists and will be duplicated")
	}

	pos := closingParen(current)
	if pos < 0 {
		return "", kicaderr.Errorf(kicaderr.KindInvalidInput, "Invalid .kicad_sym file format")
	}
	updated := strings.TrimRight(current[:pos], " \t\r\n") + "\n" + symbolBlocks(content) + "\n" + current[pos:] + "\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return "", fmt.Errorf("failed to write symbol library: %w", err)
	}
	s.log().WithFields(logrus.Fields{"symbol": name, "path": path}).Info("Symbol added")
	return path, nil
}

// closingParen returns the index of the parenthesis closing the first
// top-level form, or -1.
func closingParen(content string) int {
	depth := 0
	inString := false
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func symbolBlocks(content string) string {
	trimmed := strings.TrimSpace(content)
	forms, err := kicadsexp.ParseString(trimmed)
	if err != nil || len(forms) != 1 || sexp.Tag(forms[0]) != "kicad_symbol_lib" {
		return trimmed
	}
	var blocks []string
	for _, sym := range sexp.FindAllNodes(forms[0], "symbol") {
		blocks = append(blocks, strings.TrimRight(kicadsexp.FormatString(sym), "\n"))
	}
	if len(blocks) == 0 {
		return trimmed
	}
	return strings.Join(blocks, "\n")
}

// Register adds lib to the footprint or symbol table. An empty uri means
// the library's path inside the store. It returns the registered URI.
func (s *Store) Register(kind Kind, lib, uri, descr string) (string, error) {
	if err := requireText("library name", lib); err != nil {
		return "", err
	}
	table := s.FootprintTable
	if kind == Symbol {
		table = s.SymbolTable
	}
	if table == "" {
		return "", kicaderr.Errorf(kicaderr.KindNotFound, "no global %s configured", kind.FileName())
	}
	if uri == "" {
		if kind == Symbol {
			uri = s.SymbolLibPath(lib)
		} else {
			uri = s.FootprintLibPath(lib)
		}
	}
	name := strings.TrimSuffix(strings.TrimSuffix(lib, PrettyExt), SymExt)
	if err := Add(table, kind, Library{Name: name, Type: "KiCad", URI: filepath.ToSlash(uri), Descr: descr}); err != nil {
		return "", err
	}
	s.log().WithFields(logrus.Fields{"library": name, "table": table}).Info("Library registered")
	return uri, nil
}
