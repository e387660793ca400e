package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/perfgo/stepreel/model"
)

// ManifestFile is the name of the run manifest inside the run root.
const ManifestFile = "run.json"

func writeManifest(runDir string, run *model.Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, ManifestFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write run manifest: %w", err)
	}
	return nil
}
