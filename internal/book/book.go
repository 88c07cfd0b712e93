// Package book lays out and builds an mdBook-style project on disk.
package book

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	configFile = "book.toml"
	sourceDir  = "src"
	outputDir  = "book"
)

// ErrAlreadyExists is returned by Init when the book directory is already present
var ErrAlreadyExists = errors.New("book directory already exists")

// Config mirrors the parts of book.toml this tool writes
type Config struct {
	Book Metadata `toml:"book"`
}

// Metadata is the [book] table of book.toml
type Metadata struct {
	Title    string   `toml:"title"`
	Authors  []string `toml:"authors"`
	Language string   `toml:"language"`
	Src      string   `toml:"src"`
}

// Book is a book project rooted at a directory
type Book struct {
	dir string
}

// New returns the book rooted at dir. Nothing is created on disk.
func New(dir string) *Book {
	return &Book{dir: dir}
}

// Dir returns the book root
func (b *Book) Dir() string {
	return b.dir
}

// SourceDir returns the directory holding the markdown sources
func (b *Book) SourceDir() string {
	return filepath.Join(b.dir, sourceDir)
}

// OutputDir returns the directory Build renders into
func (b *Book) OutputDir() string {
	return filepath.Join(b.dir, outputDir)
}

// Exists reports whether the book root is present
func (b *Book) Exists() (bool, error) {
	_, err := os.Stat(b.dir)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Init creates book.toml, .gitignore and src/. It fails if the root exists.
func (b *Book) Init(title string) error {
	exists, err := b.Exists()
	if err != nil {
		return fmt.Errorf("failed to stat book directory: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, b.dir)
	}

	if err := os.MkdirAll(b.SourceDir(), 0755); err != nil {
		return fmt.Errorf("failed to create source directory: %w", err)
	}

	cfg := Config{Book: Metadata{
		Title:    title,
		Authors:  []string{},
		Language: "en",
		Src:      sourceDir,
	}}
	f, err := os.Create(filepath.Join(b.dir, configFile))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", configFile, err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", configFile, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", configFile, err)
	}

	if err := os.WriteFile(filepath.Join(b.dir, ".gitignore"), []byte(outputDir+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return nil
}

// LoadConfig reads book.toml
func (b *Book) LoadConfig() (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(filepath.Join(b.dir, configFile), &cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
	}
	return &cfg, nil
}

// CleanSources removes the markdown files directly under src/
func (b *Book) CleanSources() error {
	entries, err := os.ReadDir(b.SourceDir())
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		if err := os.Remove(filepath.Join(b.SourceDir(), e.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// WriteSource writes a file relative to src/
func (b *Book) WriteSource(name, content string) error {
	if err := os.WriteFile(filepath.Join(b.SourceDir(), name), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// AssetDir creates and returns src/<name>/
func (b *Book) AssetDir(name string) (string, error) {
	dir := filepath.Join(b.SourceDir(), name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create asset directory: %w", err)
	}
	return dir, nil
}
