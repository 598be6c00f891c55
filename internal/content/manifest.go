package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Manifest represents a snapshot of the content tree at build time.
type Manifest struct {
	Files []FileManifest `json:"files"`
	Hash  string         `json:"hash"`
}

// FileManifest represents a single content file in the manifest.
type FileManifest struct {
	RelPath     string `json:"rel_path"`
	Route       string `json:"route"`
	ContentHash string `json:"content_hash"`
	IsAsset     bool   `json:"is_asset,omitempty"`
}

// ComputeTreeHash computes a deterministic hash for a content tree snapshot.
//
// The hash covers relative paths, derived routes, and content hashes, so
// re-running a build against an unchanged tree yields the same value.
func ComputeTreeHash(docs []*Document) (string, error) {
	if len(docs) == 0 {
		h := sha256.Sum256([]byte("empty-content-tree"))
		return hex.EncodeToString(h[:]), nil
	}

	entries, err := manifestEntries(docs)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, entry := range entries {
		fmt.Fprintf(h, "%s|%s|%s|%t\n", entry.RelPath, entry.Route, entry.ContentHash, entry.IsAsset)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NewManifest creates a manifest from content tree files. Content must be loaded.
func NewManifest(docs []*Document) (*Manifest, error) {
	entries, err := manifestEntries(docs)
	if err != nil {
		return nil, err
	}

	hash, err := ComputeTreeHash(docs)
	if err != nil {
		return nil, err
	}

	return &Manifest{Files: entries, Hash: hash}, nil
}

func manifestEntries(docs []*Document) ([]FileManifest, error) {
	entries := make([]FileManifest, 0, len(docs))
	for _, d := range docs {
		if err := d.LoadContent(); err != nil {
			return nil, err
		}
		sum := sha256.Sum256(d.Content)
		entries = append(entries, FileManifest{
			RelPath:     d.RelPath,
			Route:       d.Route(),
			ContentHash: hex.EncodeToString(sum[:]),
			IsAsset:     d.IsAsset,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

// ToJSON serializes the manifest to JSON.
func (m *Manifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ManifestFromJSON deserializes a manifest from JSON.
func ManifestFromJSON(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

// FileCount returns the number of files in the manifest.
func (m *Manifest) FileCount() int {
	return len(m.Files)
}
