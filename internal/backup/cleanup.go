package backup

import (
	"fmt"
	"path/filepath"
	"time"
)

// CleanupOptions configures backup cleanup behavior
type CleanupOptions struct {
	// MaxBackups limits the number of backups kept per source file (0 = unlimited)
	MaxBackups int

	// MaxAge is the maximum age of backups to keep (0 = unlimited)
	MaxAge time.Duration

	// KeepAtLeastOne ensures at least one backup is kept per source file
	KeepAtLeastOne bool

	// Source restricts cleanup to the backups of one map file (empty = all)
	Source string

	// DryRun previews what would be deleted without actually deleting
	DryRun bool
}

// Prune removes old backups based on the specified options and returns the
// ids that were (or, on a dry run, would be) deleted.
func (s *Store) Prune(opts CleanupOptions) ([]string, error) {
	index, err := s.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}

	source := ""
	if opts.Source != "" {
		if source, err = filepath.Abs(opts.Source); err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", opts.Source, err)
		}
	}

	groups := make(map[string][]Metadata)
	for _, backup := range index.Backups {
		if source != "" && backup.SourcePath != source {
			continue
		}
		groups[backup.SourcePath] = append(groups[backup.SourcePath], backup)
	}

	var toDelete []string
	now := s.now()

	for _, group := range groups {
		sortNewestFirst(group)

		var doomed []string
		for i, backup := range group {
			expired := opts.MaxAge > 0 && now.Sub(backup.CreatedAt) > opts.MaxAge
			overflow := opts.MaxBackups > 0 && i >= opts.MaxBackups
			if expired || overflow {
				doomed = append(doomed, backup.ID)
			}
		}

		// keep the newest when every backup of the source would go
		if opts.KeepAtLeastOne && len(doomed) == len(group) && len(doomed) > 0 {
			doomed = doomed[1:]
		}
		toDelete = append(toDelete, doomed...)
	}

	var deleted []string
	for _, backupID := range toDelete {
		if !opts.DryRun {
			if err := s.Delete(backupID); err != nil {
				return deleted, fmt.Errorf("failed to delete backup %q: %w", backupID, err)
			}
		}
		deleted = append(deleted, backupID)
	}
	return deleted, nil
}

// Stats contains statistics about backups
type Stats struct {
	TotalBackups    int
	TotalSize       int64
	BackupsBySource map[string]int
	OldestBackup    time.Time
	NewestBackup    time.Time
}

// Stats returns statistics about the stored backups.
func (s *Store) Stats() (*Stats, error) {
	index, err := s.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}

	stats := &Stats{
		TotalBackups:    len(index.Backups),
		BackupsBySource: make(map[string]int),
	}

	for _, backup := range index.Backups {
		stats.TotalSize += backup.Size
		stats.BackupsBySource[backup.SourcePath]++

		if stats.OldestBackup.IsZero() || backup.CreatedAt.Before(stats.OldestBackup) {
			stats.OldestBackup = backup.CreatedAt
		}
		if backup.CreatedAt.After(stats.NewestBackup) {
			stats.NewestBackup = backup.CreatedAt
		}
	}
	return stats, nil
}
