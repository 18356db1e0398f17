package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_ScanBlockFiles_SortsAndFilters(t *testing.T) {
	dir := t.TempDir()

	names := []string{"blk00002.dat", "blk00000.dat", "blk00001.dat", "notes.txt", "blk00010.dat.tmp"}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{}, 0o644); err != nil {
			t.Fatalf("WriteFile: %s", err)
		}
	}

	got, err := ScanBlockFiles(dir)
	if err != nil {
		t.Fatalf("ScanBlockFiles: %s", err)
	}

	want := []string{"blk00000.dat", "blk00001.dat", "blk00002.dat"}
	if len(got) != len(want) {
		t.Fatalf("got %d paths, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if filepath.Base(got[i]) != w {
			t.Errorf("position %d: got %s want %s", i, filepath.Base(got[i]), w)
		}
	}
}

func Test_ScanBlockFiles_MissingDirectory(t *testing.T) {
	if _, err := ScanBlockFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("expected error for a missing directory")
	}
}
