// Package backup keeps copies of map files before tmxsync overwrites them.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauern/tmxsync/internal/logging"
)

const (
	// BackupDirPerm is the permission for backup directories (rwxr-x---)
	BackupDirPerm = 0o750
	// BackupFilePerm is the permission for backup files (rw-r-----)
	BackupFilePerm = 0o640
)

// Options configures a single backup.
type Options struct {
	Description string // Human-readable description
	Tags        []string
}

// Store manages backups under a single directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a Store rooted at dir. The directory is created on first use.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the backup directory.
func (s *Store) Dir() string {
	return s.dir
}

// Create copies sourcePath into the store and records it in the index.
func (s *Store) Create(sourcePath string, opts Options) (*Metadata, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", sourcePath, err)
	}

	sourceInfo, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source path %q: %w", sourcePath, err)
	}

	// #nosec G304 - sourcePath is a map file named by the operator
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file %q: %w", sourcePath, err)
	}

	hash := sha256.Sum256(content)
	hashStr := hex.EncodeToString(hash[:])

	// the id also covers the source so identical maps backed up together do not collide
	idHash := sha256.Sum256(append([]byte(abs+"\x00"), content...))
	created := s.now()
	backupID := created.Format("20060102-150405-") + hex.EncodeToString(idHash[:])[:8]

	sourceDir := filepath.Join(s.dir, sourceKey(abs))
	if err := os.MkdirAll(sourceDir, BackupDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath := filepath.Join(sourceDir, backupID+filepath.Ext(abs))
	if err := os.WriteFile(backupPath, content, BackupFilePerm); err != nil {
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}

	metadata := &Metadata{
		ID:          backupID,
		SourcePath:  abs,
		BackupPath:  backupPath,
		CreatedAt:   created,
		ModifiedAt:  sourceInfo.ModTime(),
		Hash:        hashStr,
		Size:        sourceInfo.Size(),
		Description: opts.Description,
		Tags:        opts.Tags,
	}

	index, err := s.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}
	if err := s.addBackup(index, *metadata); err != nil {
		return nil, fmt.Errorf("failed to add backup to index: %w", err)
	}

	logging.Info("backup created",
		logging.Path(abs),
		logging.Operation("backup"),
	)
	return metadata, nil
}

// Restore writes the content of a backup to targetPath. An empty target
// restores the backup over its original source.
func (s *Store) Restore(backupID, targetPath string) (string, error) {
	metadata, err := s.lookup(backupID)
	if err != nil {
		return "", err
	}
	if targetPath == "" {
		targetPath = metadata.SourcePath
	}

	content, err := os.ReadFile(metadata.BackupPath)
	if err != nil {
		return "", fmt.Errorf("failed to read backup file: %w", err)
	}

	hash := sha256.Sum256(content)
	if hex.EncodeToString(hash[:]) != metadata.Hash {
		return "", fmt.Errorf("backup file corrupted: hash mismatch")
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), BackupDirPerm); err != nil {
		return "", fmt.Errorf("failed to create target directory: %w", err)
	}
	// #nosec G306 - restored maps keep the group-readable mode of backups
	if err := os.WriteFile(targetPath, content, BackupFilePerm); err != nil {
		return "", fmt.Errorf("failed to write target file: %w", err)
	}
	return targetPath, nil
}

// List returns all backups, newest first, optionally filtered by source path.
func (s *Store) List(source string) ([]Metadata, error) {
	index, err := s.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}

	backups := index.ListBackups()
	if source == "" {
		return backups, nil
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", source, err)
	}
	filtered := make([]Metadata, 0)
	for _, backup := range backups {
		if backup.SourcePath == abs {
			filtered = append(filtered, backup)
		}
	}
	return filtered, nil
}

// Delete removes a backup file and its index entry.
func (s *Store) Delete(backupID string) error {
	index, err := s.LoadIndex()
	if err != nil {
		return fmt.Errorf("failed to load backup index: %w", err)
	}

	metadata, exists := index.Backups[backupID]
	if !exists {
		return fmt.Errorf("backup %q not found", backupID)
	}

	if err := os.Remove(metadata.BackupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete backup file: %w", err)
	}

	delete(index.Backups, backupID)
	if err := s.SaveIndex(index); err != nil {
		return fmt.Errorf("failed to remove backup from index: %w", err)
	}
	return nil
}

// Verify checks that a backup file is intact and matches its hash.
func (s *Store) Verify(backupID string) (err error) {
	metadata, err := s.lookup(backupID)
	if err != nil {
		return err
	}

	file, err := os.Open(metadata.BackupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup file missing: %s", metadata.BackupPath)
		}
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close backup file: %w", closeErr)
		}
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	hashStr := hex.EncodeToString(hash.Sum(nil))
	if hashStr != metadata.Hash {
		return fmt.Errorf("backup file corrupted: hash mismatch (expected %s, got %s)", metadata.Hash, hashStr)
	}
	return nil
}

func (s *Store) lookup(backupID string) (Metadata, error) {
	index, err := s.LoadIndex()
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to load backup index: %w", err)
	}
	metadata, exists := index.Backups[backupID]
	if !exists {
		return Metadata{}, fmt.Errorf("backup %q not found", backupID)
	}
	return metadata, nil
}

// sourceKey names the per-source directory: the file's base name plus a
// short hash of its directory so equally named maps stay apart.
func sourceKey(abs string) string {
	sum := sha256.Sum256([]byte(filepath.Dir(abs)))
	base := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	return base + "-" + hex.EncodeToString(sum[:])[:8]
}
