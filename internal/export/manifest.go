package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/closure"
)

// Manifest records which closure an export was built from.
type Manifest struct {
	ExportedAt  time.Time `json:"exported_at"`
	SpaceID     string    `json:"space_id"`
	Environment string    `json:"environment"`
	Roots       []string  `json:"roots"`
	Entries     []string  `json:"entries"`
	Assets      []string  `json:"assets"`
}

// NewManifest creates a manifest for res.
func NewManifest(spaceID, environment string, roots []string, res *closure.Result) *Manifest {
	return &Manifest{
		ExportedAt:  time.Now().UTC(),
		SpaceID:     spaceID,
		Environment: environment,
		Roots:       roots,
		Entries:     res.Entries,
		Assets:      res.Assets,
	}
}

// ManifestPath derives the manifest path from the export content file path.
func ManifestPath(contentPath string) string {
	return strings.TrimSuffix(contentPath, filepath.Ext(contentPath)) + ".manifest.json"
}

// WriteManifest writes a manifest alongside the export content file
func WriteManifest(contentPath string, manifest *Manifest) (string, error) {
	manifestPath := ManifestPath(contentPath)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	// Create temp file for atomic write
	dir := filepath.Dir(manifestPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	base := filepath.Base(manifestPath)
	tempFile, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp manifest file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()    // Best effort: may already be closed before rename
		_ = os.Remove(tempPath) // Best effort: cleanup temp file; may already be renamed
	}()

	if _, err := tempFile.Write(data); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	// Close before rename (required on Windows; double-close in defer is harmless)
	_ = tempFile.Close()

	if err := os.Rename(tempPath, manifestPath); err != nil {
		return "", fmt.Errorf("failed to replace manifest file: %w", err)
	}

	if err := os.Chmod(manifestPath, 0600); err != nil {
		// Non-fatal, just log
		fmt.Fprintf(os.Stderr, "Warning: failed to set manifest permissions: %v\n", err)
	}

	return manifestPath, nil
}
