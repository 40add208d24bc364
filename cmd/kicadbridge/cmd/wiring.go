package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/kicadbridge/internal/metrics"
	"github.com/OpenTraceLab/kicadbridge/pkg/bridge"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/footprintlib"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/libtable"
)

// newBridge locates the worker as configured. m may be nil.
func newBridge(m *metrics.Metrics) (*bridge.Bridge, error) {
	opts := []bridge.Option{
		bridge.WithWorker(cfg.Worker.Path),
		bridge.WithCandidates(cfg.Worker.Candidates...),
		bridge.WithTimeout(cfg.Worker.Timeout),
		bridge.WithConfigFile(configFile),
		bridge.WithLogFile(cfg.Worker.LogFile),
		bridge.WithLogger(logrus.StandardLogger()),
	}
	if m != nil {
		opts = append(opts, bridge.WithMetrics(m))
	}
	return bridge.New(opts...)
}

func newStore() *libtable.Store {
	return &libtable.Store{
		FootprintDir:   cfg.Libraries.FootprintDir,
		SymbolDir:      cfg.Libraries.SymbolDir,
		FootprintTable: cfg.Libraries.FootprintTable,
		SymbolTable:    cfg.Libraries.SymbolTable,
		Log:            logrus.StandardLogger(),
	}
}

// newResolver builds the footprint resolver for place_component_full. A
// configured fp-lib-table that does not exist yet is skipped.
func newResolver() (*footprintlib.Resolver, error) {
	opts := []footprintlib.Option{
		footprintlib.WithSearchPaths(cfg.Libraries.FootprintSearchPaths...),
		footprintlib.WithLogger(logrus.StandardLogger()),
	}
	if cfg.Libraries.FootprintDir != "" {
		opts = append(opts, footprintlib.WithSearchPaths(cfg.Libraries.FootprintDir))
	}
	if path := cfg.Libraries.FootprintTable; path != "" {
		p, err := libtable.NewParser()
		if err != nil {
			return nil, err
		}
		table, err := p.ParseFile(path)
		switch {
		case err == nil:
			opts = append(opts, footprintlib.WithTable(table, nil))
		case errors.Is(err, fs.ErrNotExist):
			logrus.WithField("table", path).Debug("Footprint table does not exist yet")
		default:
			return nil, err
		}
	}
	return footprintlib.New(opts...), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
