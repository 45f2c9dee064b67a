package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Metadata contains metadata about a single backup
type Metadata struct {
	ID          string    `json:"id"`          // Unique backup identifier (timestamp-based)
	SourcePath  string    `json:"source_path"` // Absolute path of the map file
	BackupPath  string    `json:"backup_path"` // Path to backup file
	CreatedAt   time.Time `json:"created_at"`  // Backup creation timestamp
	ModifiedAt  time.Time `json:"modified_at"` // Source modification timestamp
	Hash        string    `json:"hash"`        // SHA256 hash of content
	Size        int64     `json:"size"`        // File size in bytes
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// Index maintains an index of all backups
type Index struct {
	Version string              `json:"version"`
	Updated time.Time           `json:"updated"`
	Backups map[string]Metadata `json:"backups"` // Key: backup ID
}

const (
	// IndexVersion is the current version of the backup index format
	IndexVersion = "1.0"
	// IndexFilename is the name of the index file
	IndexFilename = "index.json"
)

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, IndexFilename)
}

// LoadIndex loads the backup index from disk
func (s *Store) LoadIndex() (*Index, error) {
	indexPath := s.indexPath()

	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		return &Index{
			Version: IndexVersion,
			Updated: s.now(),
			Backups: make(map[string]Metadata),
		}, nil
	}

	// #nosec G304 - indexPath is inside the configured backup directory
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}
	if index.Backups == nil {
		index.Backups = make(map[string]Metadata)
	}

	return &index, nil
}

// SaveIndex saves the backup index to disk
func (s *Store) SaveIndex(index *Index) error {
	if err := os.MkdirAll(s.dir, BackupDirPerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	index.Updated = s.now()

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	// #nosec G306 - index.json is metadata and can be group-readable
	if err := os.WriteFile(s.indexPath(), data, 0o640); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	return nil
}

func (s *Store) addBackup(idx *Index, metadata Metadata) error {
	if idx.Backups == nil {
		idx.Backups = make(map[string]Metadata)
	}
	idx.Backups[metadata.ID] = metadata
	return s.SaveIndex(idx)
}

// ListBackups returns all backups sorted by creation time (newest first)
func (idx *Index) ListBackups() []Metadata {
	backups := make([]Metadata, 0, len(idx.Backups))
	for _, backup := range idx.Backups {
		backups = append(backups, backup)
	}
	sortNewestFirst(backups)
	return backups
}

func sortNewestFirst(backups []Metadata) {
	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].ID > backups[j].ID
		}
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
}
