// Package board holds one loaded board document and the operations the
// bridge performs on it: load, save, read-only extraction and routing.
package board

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/project"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

// Session owns at most one board. A new Session is Unloaded; a successful
// Load moves it to Loaded and every later Load replaces the document.
type Session struct {
	log   logrus.FieldLogger
	board *pcb.Board
	path  string
}

// NewSession returns an unloaded session. A nil logger uses the standard
// logrus logger.
func NewSession(log logrus.FieldLogger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{log: log}
}

// LoadInfo describes a freshly loaded board.
type LoadInfo struct {
	PCBPath        string `json:"pcb_path"`
	FootprintCount int    `json:"footprint_count"`
	LayerCount     int    `json:"layer_count"`
	BoardName      string `json:"board_name"`
}

// SaveInfo describes a completed save.
type SaveInfo struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// Loaded reports whether a board is loaded.
func (s *Session) Loaded() bool {
	return s.board != nil
}

// Board returns the loaded document.
func (s *Session) Board() (*pcb.Board, error) {
	if s.board == nil {
		return nil, kicaderr.Errorf(kicaderr.KindNotLoaded, "no board loaded")
	}
	return s.board, nil
}

// Path returns the board file path of the loaded document.
func (s *Session) Path() string {
	return s.path
}

// Load reads a board. path may name the project (.kicad_pro) or the board
// file itself.
func (s *Session) Load(path string) (*LoadInfo, error) {
	pcbPath := project.PCBPath(path)

	if _, err := os.Stat(pcbPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, kicaderr.Errorf(kicaderr.KindNotFound, "PCB file not found: %s", pcbPath)
		}
		return nil, kicaderr.Errorf(kicaderr.KindLoadError, "failed to load board: %v", err)
	}

	b, err := pcb.ParseFile(pcbPath)
	if err != nil {
		return nil, kicaderr.Errorf(kicaderr.KindLoadError, "failed to load board %s: %v", pcbPath, err)
	}
	for _, w := range b.Warnings {
		s.log.WithField("pcb", pcbPath).Warn(w)
	}

	s.board = b
	s.path = pcbPath
	s.log.WithFields(logrus.Fields{
		"pcb":        pcbPath,
		"footprints": len(b.Footprints),
		"version":    b.Version,
	}).Debug("Board loaded")

	return s.loadInfo(), nil
}

func (s *Session) loadInfo() *LoadInfo {
	return &LoadInfo{
		PCBPath:        s.path,
		FootprintCount: len(s.board.Footprints),
		LayerCount:     s.board.CopperLayerCount(),
		BoardName:      filepath.Base(s.path),
	}
}

// Save writes the document to outputPath, or back to the file it was
// loaded from when outputPath is empty.
func (s *Session) Save(outputPath string) (*SaveInfo, error) {
	b, err := s.Board()
	if err != nil {
		return nil, err
	}
	target := outputPath
	if target == "" {
		target = s.path
	}
	if err := b.WriteFile(target); err != nil {
		return nil, kicaderr.New(kicaderr.KindSaveError, fmt.Errorf("failed to save board: %w", err))
	}
	s.log.WithField("pcb", target).Debug("Board saved")
	return &SaveInfo{
		Success: true,
		Message: fmt.Sprintf("Board saved to: %s", target),
		Path:    target,
	}, nil
}
