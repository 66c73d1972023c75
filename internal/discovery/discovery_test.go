package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func paths(items []models.VolumeItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Path)
	}
	return out
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		want models.VolumeFormat
	}{
		{"a.nii", models.FormatNIfTI},
		{"a.NII.GZ", models.FormatNIfTI},
		{"a.npy", models.FormatNPY},
		{"IMG0001.DCM", models.FormatDICOM},
		{"notes.txt", models.FormatUnknown},
		{"archive.gz", models.FormatUnknown},
		{"noext", models.FormatUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.name))
		})
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "patient1", BaseName("/data/patient1.nii.gz"))
	assert.Equal(t, "patient1_seg", BaseName("/data/patient1_seg.nii"))
	assert.Equal(t, "a", BaseName("a.npy"))
	assert.Equal(t, "p1_seg", BaseName("/data/p1_seg/"))
	assert.Equal(t, "report", BaseName("report.txt"))
}

func TestEnumerate_EmptyDirectory(t *testing.T) {
	items, err := Enumerate(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEnumerate_MissingDirectory(t *testing.T) {
	_, err := Enumerate(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnumerate_SingleFileVolumesRecursive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.npy"))
	touch(t, filepath.Join(root, "a.nii"))
	touch(t, filepath.Join(root, "nested", "deeper", "c.nii.gz"))
	touch(t, filepath.Join(root, "nested", "readme.md"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	items, err := Enumerate(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.nii"),
		filepath.Join(root, "b.npy"),
		filepath.Join(root, "nested", "deeper", "c.nii.gz"),
	}, paths(items))
	for _, it := range items {
		assert.False(t, it.IsSeriesDirectory)
	}
}

func TestEnumerate_SeriesDirectoryIsOneItem(t *testing.T) {
	root := t.TempDir()
	series := filepath.Join(root, "patient1")
	touch(t, filepath.Join(series, "0001.dcm"))
	touch(t, filepath.Join(series, "0002.dcm"))
	// neither the sibling volume nor the nested directory may surface
	touch(t, filepath.Join(series, "extra.nii"))
	touch(t, filepath.Join(series, "sub", "other.npy"))

	items, err := Enumerate(root)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, series, items[0].Path)
	assert.True(t, items[0].IsSeriesDirectory)
	assert.Equal(t, models.FormatDICOM, items[0].Format)
}

func TestEnumerate_RootItselfIsSeries(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "slice.DCM"))

	items, err := Enumerate(root)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, filepath.Clean(root), items[0].Path)
}

func TestEnumerate_DirectoryNamedLikeSliceIsNotSeries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "weird.dcm"), 0o755))
	touch(t, filepath.Join(root, "weird.dcm", "v.npy"))

	items, err := Enumerate(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "weird.dcm", "v.npy")}, paths(items))
}

func TestEnumerate_Deterministic(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"z.npy", "m.nii", "a/b.npy", "a.npy"} {
		touch(t, filepath.Join(root, n))
	}

	first, err := Enumerate(root)
	require.NoError(t, err)
	second, err := Enumerate(root)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.IsIncreasing(t, paths(first))
}

func TestEnumerate_SymlinkCycleWalkedOnce(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "p", "a.nii"))
	if err := os.Symlink(root, filepath.Join(root, "p", "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	items, err := Enumerate(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "p", "a.nii")}, paths(items))
}

func TestEnumerate_FollowsSymlinkedSubtree(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	touch(t, filepath.Join(outside, "b.npy"))
	if err := os.Symlink(outside, filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	items, err := Enumerate(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "linked", "b.npy")}, paths(items))
}
