package etl

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is the durable pause record. Its presence means a prior run
// stopped (cancelled, or halted by a fatal error) before completing all
// folders, possibly before its first file; a resumed run consumes it and
// deletes it on clean finish.
type Checkpoint struct {
	RunID            string    `json:"run_id"`
	DataRoot         string    `json:"data_root"`
	RemainingFolders []string  `json:"remaining_folders"`
	RemainingFiles   []string  `json:"remaining_files_in_current_folder"`
	CreatedAt        time.Time `json:"created_at"`
}

// CheckpointPath is the checkpoint file for a data root, in the working
// directory. The name embeds a hash of the absolute root so checkpoints
// for different trees never collide.
func CheckpointPath(dataRoot string) string {
	abs, err := filepath.Abs(dataRoot)
	if err != nil {
		abs = dataRoot
	}
	sum := sha256.Sum256([]byte(abs))
	return fmt.Sprintf(".etl_pause_%x.json", sum[:4])
}

// WriteCheckpoint persists the checkpoint atomically: write to a temp file,
// fsync, rename over the target.
func WriteCheckpoint(cp *Checkpoint) (string, error) {
	path := CheckpointPath(cp.DataRoot)

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".etl_pause_*")
	if err != nil {
		return "", fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move checkpoint into place: %w", err)
	}
	return path, nil
}

// LoadCheckpoint reads the checkpoint for a data root. Returns (nil, nil)
// when none exists.
func LoadCheckpoint(dataRoot string) (*Checkpoint, error) {
	data, err := os.ReadFile(CheckpointPath(dataRoot))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	cp := &Checkpoint{}
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	return cp, nil
}

// ClearCheckpoint removes the checkpoint for a data root if present.
func ClearCheckpoint(dataRoot string) error {
	err := os.Remove(CheckpointPath(dataRoot))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}
