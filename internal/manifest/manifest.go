// Package manifest records a rendered batch as YAML next to its artifacts.
package manifest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sayannath2003/local-text-gif-generator/internal/engine"
	"github.com/Sayannath2003/local-text-gif-generator/internal/storage"
)

const Version = 1

type Manifest struct {
	Version   int       `yaml:"version"`
	Prompt    string    `yaml:"prompt"`
	CreatedAt time.Time `yaml:"created_at"`
	Styles    []Entry   `yaml:"styles"`
}

type Entry struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"`
	Background string `yaml:"background"`
	Motion     string `yaml:"motion"`
}

// New builds a manifest for the descriptors of one Run, keeping their order.
func New(prompt string, styles []engine.StyleDescriptor, createdAt time.Time) *Manifest {
	m := &Manifest{
		Version:   Version,
		Prompt:    prompt,
		CreatedAt: createdAt.UTC(),
		Styles:    make([]Entry, 0, len(styles)),
	}
	for _, s := range styles {
		m.Styles = append(m.Styles, Entry{
			Name:       s.Name,
			Path:       s.Path,
			Background: s.Background,
			Motion:     s.Motion,
		})
	}
	return m
}

// Write writes a manifest to a YAML file
func Write(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return storage.WriteFileAtomic(path, data, 0644)
}

// Read reads a manifest from a YAML file
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("manifest %s: unsupported version %d", path, m.Version)
	}

	return &m, nil
}
