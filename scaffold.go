package compat

import (
	"os"
	"path/filepath"
	"strings"
)

// projectFile is one file written into a scaffolded project.
type projectFile struct {
	Path    string // Slash-separated, relative to the project root
	Content string
}

// scaffoldProject creates a uniquely named temporary directory and writes
// files into it. Any failure removes the directory again and is returned as
// a KindScaffoldIO ProbeError.
func scaffoldProject(ecosystem string, lib *Library, cfg Config, files []projectFile) (*Project, error) {
	name := ""
	if lib != nil {
		name = lib.Name
	}

	dir, err := os.MkdirTemp("", ecosystem+"-compat-"+tempLabel(name)+"-")
	if err != nil {
		return nil, newProbeError(KindScaffoldIO, name, nil, err)
	}

	project := &Project{Dir: dir, Library: lib, keep: cfg.KeepProjects}
	for _, f := range files {
		if err := writeProjectFile(project, f); err != nil {
			_ = os.RemoveAll(dir)
			return nil, newProbeError(KindScaffoldIO, name, nil, err)
		}
	}
	return project, nil
}

func writeProjectFile(p *Project, f projectFile) error {
	path := p.Path(f.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(f.Content), 0o644)
}

// tempLabel turns a library name into something safe for a directory name.
func tempLabel(name string) string {
	if name == "" {
		return "control"
	}
	label := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if len(label) > 40 {
		label = label[len(label)-40:]
	}
	return label
}

// identifierName normalizes a library name to the identifier form required
// by import syntax (hyphen becomes underscore).
func identifierName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
