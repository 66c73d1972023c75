// Package discovery enumerates the volumes stored under a directory tree.
//
// A directory that directly holds slice-series files (.dcm) is one volume and
// is not searched any deeper. Every other directory is walked depth-first and
// each recognized single-file volume (.nii, .nii.gz, .npy) becomes its own item.
// Unknown extensions are skipped silently.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

// compound extensions must be checked before their shorter suffixes
var extensions = []struct {
	ext    string
	format models.VolumeFormat
}{
	{".nii.gz", models.FormatNIfTI},
	{".nii", models.FormatNIfTI},
	{".npy", models.FormatNPY},
	{".dcm", models.FormatDICOM},
}

// Classify returns the storage format implied by a file name's extension
func Classify(name string) models.VolumeFormat {
	lower := strings.ToLower(name)
	for _, e := range extensions {
		if strings.HasSuffix(lower, e.ext) {
			return e.format
		}
	}
	return models.FormatUnknown
}

// BaseName returns the file name without its volume extension, or the
// directory name for a series.
func BaseName(path string) string {
	name := filepath.Base(filepath.Clean(path))
	lower := strings.ToLower(name)
	for _, e := range extensions {
		if strings.HasSuffix(lower, e.ext) && len(name) > len(e.ext) {
			return name[:len(name)-len(e.ext)]
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Enumerate lists the volume items under root, sorted by path.
func Enumerate(root string) ([]models.VolumeItem, error) {
	w := &walker{visited: map[string]bool{}}
	items, err := w.enumerate(filepath.Clean(root))
	if err != nil {
		return nil, err
	}

	// ReadDir order is already by name, but a flat path sort keeps the result
	// independent of how deep each item sits.
	sort.SliceStable(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

// walker remembers the resolved directories already listed so a symlink back
// into the tree is not walked twice
type walker struct {
	visited map[string]bool
}

func (w *walker) enumerate(dir string) ([]models.VolumeItem, error) {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve directory %q: %w", dir, err)
	}
	if w.visited[real] {
		return nil, nil
	}
	w.visited[real] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}

	if IsSeriesDir(dir, entries) {
		return []models.VolumeItem{{
			Path:              dir,
			IsSeriesDirectory: true,
			Format:            models.FormatDICOM,
		}}, nil
	}

	var items []models.VolumeItem
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if isDir(path, entry) {
			sub, err := w.enumerate(path)
			if err != nil {
				return nil, err
			}
			items = append(items, sub...)
			continue
		}

		switch format := Classify(entry.Name()); format {
		case models.FormatNIfTI, models.FormatNPY:
			items = append(items, models.VolumeItem{Path: path, Format: format})
		}
	}
	return items, nil
}

// IsSeriesDir reports whether any immediate entry is a slice-series file
func IsSeriesDir(dir string, entries []os.DirEntry) bool {
	for _, entry := range entries {
		if Classify(entry.Name()) != models.FormatDICOM {
			continue
		}
		if !isDir(filepath.Join(dir, entry.Name()), entry) {
			return true
		}
	}
	return false
}

// isDir follows symlinks so linked sub-trees are walked like real ones
func isDir(path string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.IsDir()
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
