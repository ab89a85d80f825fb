package batch

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"pose-studio/internal/glb"
)

// ManifestEntry represents one exported pose in the output manifest.
type ManifestEntry struct {
	Name      string `json:"name"`
	Model     string `json:"model"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Meshes    int    `json:"meshes"`
}

// WriteManifest writes the successful results as manifest.json into dir.
func WriteManifest(dir string, results []Result) error {
	entries := []ManifestEntry{}
	for _, r := range results {
		if !r.Success {
			continue
		}
		entries = append(entries, ManifestEntry{
			Name:      r.Name,
			Model:     r.Model,
			Thumbnail: r.Thumbnail,
			Meshes:    r.Baked,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	return glb.WriteFile(filepath.Join(dir, "manifest.json"), data)
}
