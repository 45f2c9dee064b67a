package backup

import (
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/klauern/tmxsync/internal/util"
)

// seed creates n backups of path with distinct contents, oldest first.
func seed(t *testing.T, s *Store, path string, n int) []string {
	t.Helper()
	var ids []string
	for i := 0; i < n; i++ {
		util.WriteFile(t, path, filepath.Base(path)+string(rune('a'+i)))
		m, err := s.Create(path, Options{})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, m.ID)
	}
	return ids
}

func TestPrune_MaxBackupsPerSource(t *testing.T) {
	s, dir := newTestStore(t)
	world := filepath.Join(dir, "world.tmx")
	dungeon := filepath.Join(dir, "dungeon.tmx")

	worldIDs := seed(t, s, world, 4)
	dungeonIDs := seed(t, s, dungeon, 2)

	deleted, err := s.Prune(CleanupOptions{MaxBackups: 2})
	util.AssertNoError(t, err)

	slices.Sort(deleted)
	want := []string{worldIDs[0], worldIDs[1]}
	slices.Sort(want)
	if !slices.Equal(deleted, want) {
		t.Errorf("deleted = %v, want %v", deleted, want)
	}

	remaining, err := s.List(dungeon)
	util.AssertNoError(t, err)
	util.AssertEqual(t, len(remaining), len(dungeonIDs))
}

func TestPrune_SourceFilter(t *testing.T) {
	s, dir := newTestStore(t)
	world := filepath.Join(dir, "world.tmx")
	dungeon := filepath.Join(dir, "dungeon.tmx")

	seed(t, s, world, 3)
	seed(t, s, dungeon, 3)

	deleted, err := s.Prune(CleanupOptions{MaxBackups: 1, Source: dungeon})
	util.AssertNoError(t, err)
	util.AssertEqual(t, len(deleted), 2)

	all, err := s.List("")
	util.AssertNoError(t, err)
	util.AssertEqual(t, len(all), 4)
}

func TestPrune_Unlimited(t *testing.T) {
	s, dir := newTestStore(t)
	seed(t, s, filepath.Join(dir, "world.tmx"), 5)

	deleted, err := s.Prune(CleanupOptions{})
	util.AssertNoError(t, err)
	util.AssertEqual(t, len(deleted), 0)
}

func TestPrune_MaxAgeKeepsNewest(t *testing.T) {
	tests := map[string]struct {
		keepAtLeastOne bool
		wantRemaining  int
	}{
		"keep at least one": {keepAtLeastOne: true, wantRemaining: 1},
		"delete all":        {keepAtLeastOne: false, wantRemaining: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, dir := newTestStore(t)
			ids := seed(t, s, filepath.Join(dir, "world.tmx"), 3)

			// jump far past every backup
			later := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			s.now = func() time.Time { return later }

			_, err := s.Prune(CleanupOptions{MaxAge: time.Hour, KeepAtLeastOne: tt.keepAtLeastOne})
			util.AssertNoError(t, err)

			all, err := s.List("")
			util.AssertNoError(t, err)
			util.AssertEqual(t, len(all), tt.wantRemaining)
			if tt.wantRemaining == 1 {
				util.AssertEqual(t, all[0].ID, ids[2])
			}
		})
	}
}

func TestPrune_DryRun(t *testing.T) {
	s, dir := newTestStore(t)
	seed(t, s, filepath.Join(dir, "world.tmx"), 3)

	deleted, err := s.Prune(CleanupOptions{MaxBackups: 1, DryRun: true})
	util.AssertNoError(t, err)
	util.AssertEqual(t, len(deleted), 2)

	all, err := s.List("")
	util.AssertNoError(t, err)
	util.AssertEqual(t, len(all), 3)
}

func TestStats(t *testing.T) {
	s, dir := newTestStore(t)

	stats, err := s.Stats()
	util.AssertNoError(t, err)
	util.AssertEqual(t, stats.TotalBackups, 0)
	if !stats.OldestBackup.IsZero() {
		t.Error("OldestBackup should be zero for an empty store")
	}

	world := filepath.Join(dir, "world.tmx")
	seed(t, s, world, 2)
	seed(t, s, filepath.Join(dir, "dungeon.tmx"), 1)

	stats, err = s.Stats()
	util.AssertNoError(t, err)
	util.AssertEqual(t, stats.TotalBackups, 3)
	util.AssertEqual(t, stats.BackupsBySource[world], 2)
	if !stats.OldestBackup.Before(stats.NewestBackup) {
		t.Errorf("oldest %v should precede newest %v", stats.OldestBackup, stats.NewestBackup)
	}
	if stats.TotalSize == 0 {
		t.Error("TotalSize should count backed up bytes")
	}
}
