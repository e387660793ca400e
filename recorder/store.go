package recorder

// This file contains the artifact store that owns the on-disk layout:
// {outputDir}/record_{seed}/{testName}/{000..999}.png

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var nonWord = regexp.MustCompile(`\W`)

// Store creates and removes per-test artifact directories below a run root.
type Store struct {
	outputDir string
	runDir    string
}

// NewStore returns a store for the run identified by seed.
func NewStore(outputDir, seed string) *Store {
	return &Store{
		outputDir: outputDir,
		runDir:    filepath.Join(outputDir, "record_"+seed),
	}
}

// OutputDir returns the shared output root.
func (s *Store) OutputDir() string {
	return s.outputDir
}

// RunDir returns the run root directory.
func (s *Store) RunDir() string {
	return s.runDir
}

// TestDir returns the directory for a sanitized test name.
func (s *Store) TestDir(name string) string {
	return filepath.Join(s.runDir, name)
}

// OpenTest creates the run root and the test directory. Existing directories are not an error.
func (s *Store) OpenTest(name string) (string, error) {
	dir := s.TestDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create test directory: %w", err)
	}
	return dir, nil
}

// RemoveTest deletes the test directory and everything in it.
func (s *Store) RemoveTest(name string) error {
	if err := os.RemoveAll(s.TestDir(name)); err != nil {
		return fmt.Errorf("failed to remove test directory: %w", err)
	}
	return nil
}

// SlidePath returns the file name and full path of the artifact with the given ordinal.
func (s *Store) SlidePath(dir string, ordinal int) (file, path string) {
	file = fmt.Sprintf("%03d.png", ordinal)
	return file, filepath.Join(dir, file)
}

// Rel returns path relative to the output root using forward slashes.
func (s *Store) Rel(path string) string {
	rel, err := filepath.Rel(s.outputDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
