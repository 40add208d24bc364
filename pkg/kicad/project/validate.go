package project

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Validation is the outcome of a basic project sanity check.
type Validation struct {
	Valid      bool     `json:"valid"`
	Path       string   `json:"path"`
	Error      string   `json:"error,omitempty"`
	Issues     []string `json:"issues,omitempty"`
	FilesFound []string `json:"files_found,omitempty"`
}

// Files lists the project's companion files that exist on disk, keyed by
// "project", "pcb" and "schematic".
func Files(projectPath string) map[string]string {
	base := strings.TrimSuffix(projectPath, Ext)
	found := make(map[string]string)
	for kind, ext := range map[string]string{"project": Ext, "pcb": PCBExt, "schematic": SchematicExt} {
		p := base + ext
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			found[kind] = p
		}
	}
	return found
}

// Validate checks that a project exists, parses as JSON and has its board
// and schematic next to it.
func Validate(projectPath string) *Validation {
	v := &Validation{Path: projectPath}
	if _, err := os.Stat(projectPath); err != nil {
		v.Error = fmt.Sprintf("Project not found: %s", projectPath)
		return v
	}

	files := Files(projectPath)
	if _, ok := files["pcb"]; !ok {
		v.Issues = append(v.Issues, "Missing PCB layout file")
	}
	if _, ok := files["schematic"]; !ok {
		v.Issues = append(v.Issues, "Missing schematic file")
	}

	data, err := os.ReadFile(projectPath)
	switch {
	case err != nil:
		v.Issues = append(v.Issues, fmt.Sprintf("Error reading project file: %v", err))
	case !json.Valid(data):
		v.Issues = append(v.Issues, "Invalid project file format (JSON parsing error)")
	}

	for _, kind := range []string{"project", "pcb", "schematic"} {
		if _, ok := files[kind]; ok {
			v.FilesFound = append(v.FilesFound, kind)
		}
	}
	v.Valid = len(v.Issues) == 0
	return v
}
