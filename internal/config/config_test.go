package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), s)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	s := models.DefaultSettings()
	s.OriginalsDir = "/data/orig"
	s.SegmentationsDir = "/data/seg"
	s.DiscardDir = "/data/discard"
	s.WindowSize = []int{1280, 800}
	s.Overlay = true
	s.Metric = models.MetricRatio

	require.NoError(t, Save(path, s))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("originals_dir: /o\nbrightness: 0.8\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/o", s.OriginalsDir)
	assert.Equal(t, 0.8, s.Brightness)
	assert.Equal(t, 0.5, s.Contrast)
	assert.Equal(t, 2, s.MaxDistance)
	assert.Equal(t, "discard_log.csv", s.AuditLog)
	assert.True(t, s.Watch)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("window_size: [1, 2\n"), 0o644))
	s, err := Load(bad)
	assert.Error(t, err)
	assert.Equal(t, models.DefaultSettings(), s)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("metric: soundex\n"), 0o644))
	_, err = Load(unknown)
	assert.Error(t, err)
}

func TestValidate_Clamps(t *testing.T) {
	s := models.Settings{Brightness: 3, Contrast: -1, MaxDistance: -4, WindowSize: []int{0, 10}}
	require.NoError(t, Validate(&s))
	assert.Equal(t, 1.0, s.Brightness)
	assert.Equal(t, 0.0, s.Contrast)
	assert.Equal(t, 0, s.MaxDistance)
	assert.Nil(t, s.WindowSize)
	assert.Equal(t, models.MetricLevenshtein, s.Metric)
	assert.Equal(t, models.DiscardCopy, s.DiscardPolicy)
}
