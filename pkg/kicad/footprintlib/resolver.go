// Package footprintlib locates footprint definitions in .pretty libraries.
package footprintlib

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/libtable"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/sexp/kicadsexp"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

// Resolver maps a library nickname and footprint name to a .kicad_mod
// file. Libraries named in the footprint table win over the search paths.
type Resolver struct {
	paths []string
	table *libtable.Table
	vars  map[string]string
	log   logrus.FieldLogger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSearchPaths adds directories holding <lib>.pretty folders.
func WithSearchPaths(paths ...string) Option {
	return func(r *Resolver) {
		for _, p := range paths {
			if p != "" {
				r.paths = append(r.paths, p)
			}
		}
	}
}

// WithTable resolves nicknames through a parsed fp-lib-table. vars
// supplies ${VAR} values such as KIPRJMOD ahead of the environment.
func WithTable(t *libtable.Table, vars map[string]string) Option {
	return func(r *Resolver) {
		r.table = t
		r.vars = vars
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// candidates lists the files that may hold library:name, in lookup order.
func (r *Resolver) candidates(library, name string) []string {
	file := name + libtable.ModExt
	var out []string
	if r.table != nil {
		if lib, ok := r.table.Find(library); ok && !lib.Disabled {
			out = append(out, filepath.Join(libtable.ExpandURI(lib.URI, r.vars), file))
		}
	}
	for _, dir := range r.paths {
		out = append(out, filepath.Join(dir, library+libtable.PrettyExt, file))
	}
	return out
}

// Find returns the path of library:name.
func (r *Resolver) Find(library, name string) (string, error) {
	if library == "" || name == "" {
		return "", kicaderr.Errorf(kicaderr.KindInvalidInput, "footprint id needs both library and name, got %q:%q", library, name)
	}
	for _, path := range r.candidates(library, name) {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", kicaderr.Errorf(kicaderr.KindNotFound, "footprint %s:%s not found in any library", library, name)
}

// Load reads and parses library:name. The returned node is the root
// (footprint ...) or legacy (module ...) form.
func (r *Resolver) Load(library, name string) (*kicadsexp.List, error) {
	path, err := r.Find(library, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open footprint: %w", err)
	}
	defer f.Close()

	forms, err := kicadsexp.Parse(f)
	if err != nil {
		return nil, kicaderr.New(kicaderr.KindParseError, fmt.Errorf("%s: %w", path, err))
	}
	if len(forms) != 1 {
		return nil, kicaderr.Errorf(kicaderr.KindInvalidInput, "%s: expected one footprint, found %d forms", path, len(forms))
	}
	root, ok := forms[0].(*kicadsexp.List)
	if !ok || (root.Tag() != "footprint" && root.Tag() != "module") {
		return nil, kicaderr.Errorf(kicaderr.KindInvalidInput, "%s: not a footprint (root %q)", path, sexp.Tag(forms[0]))
	}
	r.log.WithField("path", path).Debug("Footprint loaded from library")
	return root, nil
}
