package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func seedLogFile(t *testing.T, path string, size int, modTime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
}

func TestPruneLogDirDeletesOldestBackupFirst(t *testing.T) {
	dir := t.TempDir()
	oldest := filepath.Join(dir, "desktop-2026-08-01T10-00-00.000.log")
	newer := filepath.Join(dir, "desktop-2026-08-15T10-00-00.000.log")
	active := filepath.Join(dir, "desktop.log")
	seedLogFile(t, oldest, 60, time.Unix(100, 0))
	seedLogFile(t, newer, 60, time.Unix(200, 0))
	seedLogFile(t, active, 60, time.Unix(300, 0))

	deleted, err := pruneLogDir(dir, 120, active)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("deleted %d files, want 1", deleted)
	}
	if _, err := os.Stat(oldest); !os.IsNotExist(err) {
		t.Error("oldest backup should be gone")
	}
	if _, err := os.Stat(newer); err != nil {
		t.Error("newer backup should survive")
	}
	if _, err := os.Stat(active); err != nil {
		t.Error("active desktop.log should survive")
	}
}

func TestPruneLogDirNeverDeletesActiveFile(t *testing.T) {
	dir := t.TempDir()
	active := filepath.Join(dir, "desktop.log")
	backup := filepath.Join(dir, "desktop-2026-08-01T10-00-00.000.log")
	seedLogFile(t, active, 200, time.Unix(100, 0))
	seedLogFile(t, backup, 50, time.Unix(200, 0))

	// The active file alone blows the budget; only the backup may go, even
	// though the directory stays over the limit afterwards.
	deleted, err := pruneLogDir(dir, 100, active)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("deleted %d files, want 1", deleted)
	}
	if _, err := os.Stat(active); err != nil {
		t.Fatalf("active desktop.log was deleted: %v", err)
	}
	if _, err := os.Stat(backup); !os.IsNotExist(err) {
		t.Error("backup should be gone")
	}
}

func TestPruneLogDirIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	backup := filepath.Join(dir, "desktop-2026-08-01T10-00-00.000.log.gz")
	seedLogFile(t, notes, 500, time.Unix(100, 0))
	seedLogFile(t, backup, 50, time.Unix(200, 0))

	// notes.txt is neither counted nor deletable.
	deleted, err := pruneLogDir(dir, 100, filepath.Join(dir, "desktop.log"))
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Fatalf("deleted %d files, want 0", deleted)
	}
	if _, err := os.Stat(notes); err != nil {
		t.Fatalf("foreign file touched: %v", err)
	}
}

func TestPruneLogDirMissingDirectory(t *testing.T) {
	deleted, err := pruneLogDir(filepath.Join(t.TempDir(), "absent"), 100, "")
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Fatalf("deleted %d files, want 0", deleted)
	}
}
