package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPairs_JSONLines(t *testing.T) {
	root := t.TempDir()
	orig := filepath.Join(root, "orig")
	seg := filepath.Join(root, "seg")
	for _, p := range []string{
		filepath.Join(orig, "a.npy"),
		filepath.Join(orig, "b.npy"),
		filepath.Join(seg, "a_seg.npy"),
		filepath.Join(seg, "b_seg.npy"),
	} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	settings := models.DefaultSettings()
	settings.OriginalsDir = orig
	settings.SegmentationsDir = seg

	var buf bytes.Buffer
	require.NoError(t, listPairs(&buf, settings, nil))

	var got []models.Pair
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var p models.Pair
		require.NoError(t, json.Unmarshal(sc.Bytes(), &p))
		got = append(got, p)
	}
	require.Len(t, got, 2)
	assert.Equal(t, filepath.Join(seg, "a_seg.npy"), got[0].Segmentation.Path)
	assert.Equal(t, filepath.Join(seg, "b_seg.npy"), got[1].Segmentation.Path)
}

func TestListPairs_RequiresRoots(t *testing.T) {
	var buf bytes.Buffer
	err := listPairs(&buf, models.DefaultSettings(), nil)
	assert.ErrorIs(t, err, errRootsUnset)
	assert.Zero(t, buf.Len())
}

func TestWindowSize(t *testing.T) {
	s := models.DefaultSettings()
	assert.Equal(t, float32(1200), windowSize(s).Width)

	s.WindowSize = []int{640, 480}
	size := windowSize(s)
	assert.Equal(t, float32(640), size.Width)
	assert.Equal(t, float32(480), size.Height)
}
