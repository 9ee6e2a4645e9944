// Package manifest is the module-manifest collaborator: a module.yaml
// file names a module, its source files, the search paths to resolve
// them against, and the other modules it imports. Uses
// gopkg.in/yaml.v3 for declarative module description.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest describes one module's source layout and dependencies.
type Manifest struct {
	Module     string   `yaml:"module"`
	Files      []string `yaml:"files"`
	SearchPath []string `yaml:"search_path,omitempty"`
	Imports    []string `yaml:"imports,omitempty"`
}

// Load reads and parses a module.yaml file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parsing %s: %w", path, err)
	}
	return &m, nil
}

// ResolveFiles returns each declared file's absolute path, resolved
// against the manifest's directory and its SearchPath entries in
// order, first match wins.
func (m *Manifest) ResolveFiles(manifestDir string) ([]string, error) {
	roots := append([]string{manifestDir}, m.SearchPath...)
	out := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		found := ""
		for _, root := range roots {
			candidate := filepath.Join(root, f)
			if _, err := os.Stat(candidate); err == nil {
				found = candidate
				break
			}
		}
		if found == "" {
			return nil, fmt.Errorf("manifest: file %q not found under %v", f, roots)
		}
		out = append(out, found)
	}
	return out, nil
}

// Artifact is the serialized form of a compiled module: just enough
// for another module's import to link against without recompiling it.
type Artifact struct {
	Module  string          `json:"module"`
	Classes []ClassArtifact `json:"classes"`
	Enums   []EnumArtifact  `json:"enums"`
}

// ClassArtifact is the subset of a Class stub an importer needs:
// enough to rebuild a TypeRef/Class skeleton without re-parsing source.
type ClassArtifact struct {
	Name       string             `json:"name"`
	IsStruct   bool               `json:"is_struct"`
	BaseName   string             `json:"base_name,omitempty"`
	Properties []PropertyArtifact `json:"properties,omitempty"`
	Functions  []FunctionArtifact `json:"functions,omitempty"`
}

type PropertyArtifact struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
}

type FunctionArtifact struct {
	Name       string   `json:"name"`
	ReturnType string   `json:"return_type,omitempty"`
	ArgTypes   []string `json:"arg_types,omitempty"`
	Static     bool     `json:"static,omitempty"`
	Final      bool     `json:"final,omitempty"`
}

// EnumArtifact mirrors an Enum stub's public surface.
type EnumArtifact struct {
	Name    string             `json:"name"`
	Options []EnumOptionArtifact `json:"options"`
}

type EnumOptionArtifact struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// ArtifactLoader resolves an imported module name to its compiled
// artifact.
type ArtifactLoader interface {
	Load(moduleName string) (*Artifact, error)
	Store(a *Artifact) error
}

// FileArtifactStore is a JSON-on-disk reference ArtifactLoader,
// standing in for a production portable-format serializer — good
// enough to round-trip artifacts in tests and local builds.
type FileArtifactStore struct {
	Dir string
}

func (s FileArtifactStore) pathFor(moduleName string) string {
	return filepath.Join(s.Dir, moduleName+".artifact.json")
}

func (s FileArtifactStore) Load(moduleName string) (*Artifact, error) {
	data, err := os.ReadFile(s.pathFor(moduleName))
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("artifact store: decoding %s: %w", moduleName, err)
	}
	return &a, nil
}

func (s FileArtifactStore) Store(a *Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact store: encoding %s: %w", a.Module, err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}
	return os.WriteFile(s.pathFor(a.Module), data, 0o644)
}
