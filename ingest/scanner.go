package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrDirectoryUnreadable is returned when the configured blocks directory
// cannot be listed.
var ErrDirectoryUnreadable = errors.New("directory unreadable")

// ScanBlockFiles enumerates entries of dir whose names begin with "blk" and
// end with ".dat", and returns their full paths in lexicographic order. The
// node that produced them names files with monotonically increasing
// numeric suffixes, so lexicographic order approximates chain order for a
// bulk load.
func ScanBlockFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrDirectoryUnreadable, "%s: %s", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "blk") || !strings.HasSuffix(name, ".dat") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}

	sort.Strings(paths)
	return paths, nil
}
