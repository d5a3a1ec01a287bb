package sitemeasure_test

import (
	"testing"

	"github.com/gotrocks/proportal/internal/sitemeasure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pentagon is a square with one extra point pushed out from its east side.
func pentagon() sitemeasure.VertexSequence {
	sq := square(29.76, -95.37, 40)
	mid := sitemeasure.GeoPoint{
		Lat: (sq[2].Lat + sq[3].Lat) / 2,
		Lng: sq[2].Lng + (sq[2].Lng-sq[1].Lng)/2,
	}
	return sitemeasure.VertexSequence{sq[0], sq[1], sq[2], mid, sq[3]}
}

func TestEditor_FloorOfFour(t *testing.T) {
	for i := 0; i < 4; i++ {
		seq := square(29.76, -95.37, 40)
		ed := sitemeasure.NewEditor(&seq)
		assert.False(t, ed.Remove(i), "vertex %d", i)
		assert.Len(t, seq, 4)
	}
}

func TestEditor_RemoveFromFive(t *testing.T) {
	for i := 0; i < 5; i++ {
		seq := pentagon()
		before := seq.Clone()
		ed := sitemeasure.NewEditor(&seq)

		require.True(t, ed.Remove(i), "vertex %d", i)
		require.Len(t, seq, 4)

		want := append(before[:i:i], before[i+1:]...)
		assert.Equal(t, want, seq)
		assert.InDelta(t, sitemeasure.CalcArea(want).SqM, sitemeasure.CalcArea(seq).SqM, 1e-9)
	}
}

func TestEditor_RemovingBulgeRestoresSquareArea(t *testing.T) {
	seq := pentagon()
	full := sitemeasure.CalcArea(seq).SqM
	require.Greater(t, full, 1600.0)

	ed := sitemeasure.NewEditor(&seq)
	ed.Toggle(3)
	require.True(t, ed.RemoveSelected())
	assert.InEpsilon(t, 1600.0, sitemeasure.CalcArea(seq).SqM, 1e-3)
}

func TestEditor_SelectionToggle(t *testing.T) {
	seq := pentagon()
	ed := sitemeasure.NewEditor(&seq)

	_, ok := ed.Selected()
	assert.False(t, ok)

	ed.Toggle(2)
	i, ok := ed.Selected()
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	ed.Toggle(2)
	_, ok = ed.Selected()
	assert.False(t, ok)

	ed.Toggle(9)
	_, ok = ed.Selected()
	assert.False(t, ok)

	assert.False(t, ed.RemoveSelected())
}

func TestEditor_RemovalClearsSelection(t *testing.T) {
	seq := pentagon()
	ed := sitemeasure.NewEditor(&seq)
	ed.Toggle(1)
	require.True(t, ed.RemoveSelected())

	_, ok := ed.Selected()
	assert.False(t, ok)
	assert.False(t, ed.Remove(-1))
	assert.False(t, ed.Remove(0), "already at the floor")
}
