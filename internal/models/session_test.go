package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pair(o, s string) Pair {
	return Pair{Original: VolumeItem{Path: o}, Segmentation: VolumeItem{Path: s}}
}

func TestPairRepository_ReplaceAndCursor(t *testing.T) {
	r := NewPairRepository()
	assert.Equal(t, -1, r.Index())
	_, ok := r.Current()
	assert.False(t, ok)

	r.Replace([]Pair{pair("a", "a_seg"), pair("b", "b_seg")})
	assert.Equal(t, 0, r.Index())
	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "a", cur.Original.Path)

	assert.True(t, r.SetIndex(1))
	assert.False(t, r.SetIndex(2))
	assert.False(t, r.SetIndex(-1))
	assert.False(t, r.SetIndex(1), "unchanged cursor reports no move")

	r.Replace(nil)
	assert.Equal(t, -1, r.Index())
	assert.Zero(t, r.Len())
}

func TestPairRepository_PairsIsACopy(t *testing.T) {
	r := NewPairRepository()
	r.Replace([]Pair{pair("a", "a_seg")})

	got := r.Pairs()
	got[0].Original.Path = "mutated"

	cur, _ := r.Current()
	assert.Equal(t, "a", cur.Original.Path)
}

func TestPairRepository_RemoveCurrent(t *testing.T) {
	r := NewPairRepository()
	r.Replace([]Pair{pair("a", "1"), pair("b", "2"), pair("c", "3")})
	require.True(t, r.SetIndex(1))

	removed, ok := r.RemoveCurrent()
	require.True(t, ok)
	assert.Equal(t, "b", removed.Original.Path)
	assert.Equal(t, 1, r.Index())
	cur, _ := r.Current()
	assert.Equal(t, "c", cur.Original.Path)

	_, _ = r.RemoveCurrent()
	assert.Equal(t, 0, r.Index(), "cursor clamps to new last pair")

	_, _ = r.RemoveCurrent()
	assert.Equal(t, -1, r.Index())
	_, ok = r.RemoveCurrent()
	assert.False(t, ok)
}

func TestPairRepository_Find(t *testing.T) {
	r := NewPairRepository()
	r.Replace([]Pair{pair("a", "1"), pair("b", "2")})
	assert.Equal(t, 1, r.Find(pair("b", "2")))
	assert.Equal(t, -1, r.Find(pair("b", "1")))
}

func TestVolume_SliceClamps(t *testing.T) {
	v := &Volume{Shape: []int{2, 1, 2}, Data: []float64{1, 2, 3, 4}}
	assert.Equal(t, 2, v.SliceCount())
	assert.Equal(t, []float64{1, 2}, v.Slice(-5))
	assert.Equal(t, []float64{3, 4}, v.Slice(9))

	flat := &Volume{Shape: []int{1, 3}, Data: []float64{7, 8, 9}}
	assert.Equal(t, 1, flat.SliceCount())
	assert.Equal(t, []float64{7, 8, 9}, flat.Slice(0))
}
