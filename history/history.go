package history

// This file contains shared history utilities for loading and parsing
// recorded run manifests.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/perfgo/stepreel/model"
	"github.com/perfgo/stepreel/recorder"
	"github.com/rs/zerolog"
)

// RunDirPrefix prefixes every run root below the output directory.
const RunDirPrefix = "record_"

type Entry struct {
	Run      model.Run
	FullPath string
}

// CheckOutputRoot returns an error when no runs were ever recorded into outputRoot.
func CheckOutputRoot(outputRoot string) error {
	if _, err := os.Stat(outputRoot); os.IsNotExist(err) {
		return fmt.Errorf("no recorded runs found in %s", outputRoot)
	}
	return nil
}

// LoadEntries loads all run manifests below outputRoot, newest first.
func LoadEntries(logger zerolog.Logger, outputRoot string) ([]Entry, error) {
	dirs, err := os.ReadDir(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var entries []Entry
	for _, d := range dirs {
		if !d.IsDir() || !strings.HasPrefix(d.Name(), RunDirPrefix) {
			continue
		}
		path := filepath.Join(outputRoot, d.Name())
		manifestPath := filepath.Join(path, recorder.ManifestFile)
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}

		run, err := parseManifest(manifestPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", manifestPath).Msg("Failed to parse run manifest")
			continue
		}
		entries = append(entries, Entry{
			Run:      run,
			FullPath: path,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Run.Timestamp.After(entries[j].Run.Timestamp)
	})
	return entries, nil
}

// Find selects an entry by index (0 = newest, -1 = the one before) or seed prefix.
// Positive numbers are treated as seed prefixes. entries must be sorted newest first.
func Find(entries []Entry, arg string) (*Entry, error) {
	if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil && parsed <= 0 {
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d recorded runs)", arg, len(entries))
		}
		return &entries[index], nil
	}

	prefix := strings.ToLower(arg)
	for i := range entries {
		if strings.HasPrefix(strings.ToLower(entries[i].Run.Seed), prefix) {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no recorded run found matching seed: %s", arg)
}

// parseManifest parses a run.json file.
func parseManifest(path string) (model.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Run{}, err
	}

	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return model.Run{}, err
	}
	return run, nil
}
