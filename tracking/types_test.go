package tracking

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"trackviz/detection"
)

func TestFromRow(t *testing.T) {
	tr, err := FromRow([]float64{10.7, 10, 50, 50.9, 3, 0.87, 1, 0})
	require.NoError(t, err)
	require.Equal(t, Track{XMin: 10.7, YMin: 10, XMax: 50, YMax: 50.9, ID: 3, Confidence: 0.87, ClassID: 1}, tr)
	require.Equal(t, image.Rect(10, 10, 50, 50), tr.Rect())
	require.Equal(t, [TrackRowLen]float64{10.7, 10, 50, 50.9, 3, 0.87, 1, 0}, tr.Row())

	_, err = FromRow([]float64{1, 2, 3})
	require.Error(t, err)
}

func TestRows(t *testing.T) {
	rows := Rows([]detection.Record{
		{XMin: 1, YMin: 2, XMax: 3, YMax: 4, Score: 0.5, ClassID: 2},
		{XMin: 5, YMin: 6, XMax: 7, YMax: 8, Score: 0.25},
	})
	require.Equal(t, [][6]float64{{1, 2, 3, 4, 0.5, 2}, {5, 6, 7, 8, 0.25, 0}}, rows)
	require.Empty(t, Rows(nil))
}
