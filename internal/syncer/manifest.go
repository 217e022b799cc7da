package syncer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFileName is the well-known manifest path under the local root.
// Each sync run overwrites it; no history is kept.
const ManifestFileName = "download_metadata.json"

// Manifest records the outcome of one sync run.
type Manifest struct {
	DownloadTime        int64  `json:"download_time"`
	BucketName          string `json:"bucket_name"`
	EndpointURL         string `json:"endpoint_url"`
	TotalFiles          int    `json:"total_files"`
	SuccessfulDownloads int    `json:"successful_downloads"`
	FailedDownloads     int    `json:"failed_downloads"`
}

// WriteManifest writes the manifest to its well-known path under root.
func WriteManifest(root string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(root, ManifestFileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ReadManifest loads the manifest left by a previous run, if any.
func ReadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}
