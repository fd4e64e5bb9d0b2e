package detection

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLineBox(t *testing.T) {
	p := NewParser(nil, nil)

	rec, err := p.ParseLine("car 0.9 [10,10,10,50,50,50,50,10]")
	require.NoError(t, err)
	require.Equal(t, Record{XMin: 10, YMin: 10, XMax: 50, YMax: 50, Score: 0.9, ClassID: 0}, rec)
	require.Equal(t, [6]float64{10, 10, 50, 50, 0.9, 0}, rec.Row())
}

func TestParseLineRotatedPolygon(t *testing.T) {
	p := NewParser(nil, nil)

	tests := []struct {
		line string
		want Record
	}{
		{
			line: "truck 0.5 [30,0,60,30,30,60,0,30]",
			want: Record{XMin: 0, YMin: 0, XMax: 60, YMax: 60, Score: 0.5},
		},
		{
			line: "truck 0.25 [-5,7,12,-3,4,20,9,1]",
			want: Record{XMin: -5, YMin: -3, XMax: 12, YMax: 20, Score: 0.25},
		},
		{
			line: "truck 1 [1 2 3 4 5 6 7 8]",
			want: Record{XMin: 1, YMin: 2, XMax: 7, YMax: 8, Score: 1},
		},
		{
			line: "  truck   0.75   [ 8, 7 , 6,5,4, 3,2,1 ]  ",
			want: Record{XMin: 2, YMin: 1, XMax: 8, YMax: 7, Score: 0.75},
		},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			rec, err := p.ParseLine(tc.line)
			require.NoError(t, err)
			require.Equal(t, tc.want, rec)
			require.GreaterOrEqual(t, rec.XMax, rec.XMin)
			require.GreaterOrEqual(t, rec.YMax, rec.YMin)
		})
	}
}

func TestParseLineBoxIsPointExtremes(t *testing.T) {
	p := NewParser(nil, nil)
	polys := [][8]int{
		{3, 9, -1, 4, 7, 7, 2, -6},
		{0, 0, 0, 0, 0, 0, 0, 0},
		{100, 200, 50, 400, 75, 300, 20, 250},
	}
	for _, poly := range polys {
		line := "obj 0.4 [" + joinInts(poly[:]) + "]"
		rec, err := p.ParseLine(line)
		require.NoError(t, err, line)

		xs := []int{poly[0], poly[2], poly[4], poly[6]}
		ys := []int{poly[1], poly[3], poly[5], poly[7]}
		require.Equal(t, minOf(xs), rec.XMin)
		require.Equal(t, minOf(ys), rec.YMin)
		require.Equal(t, maxOf(xs), rec.XMax)
		require.Equal(t, maxOf(ys), rec.YMax)
	}
}

func TestParseLineRejects(t *testing.T) {
	p := NewParser(nil, nil)

	tests := []struct {
		name   string
		line   string
		reason string
	}{
		{"empty", "", "missing label/score/coords"},
		{"label only", "car", "missing label/score/coords"},
		{"no coords", "car 0.9", "missing label/score/coords"},
		{"bad score", "car abc [1,2,3,4,5,6,7,8]", `invalid score "abc"`},
		{"seven ints", "car 0.9 [1,2,3,4,5,6,7]", "got 7"},
		{"nine ints", "car 0.9 [1,2,3,4,5,6,7,8,9]", "got 9"},
		{"floats dropped", "car 0.9 [1.5,2,3,4,5,6,7,8]", "got 7"},
		{"words dropped", "car 0.9 [a,b,c,d,e,f,g,h]", "got 0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := p.ParseLine(tc.line)
			require.Error(t, err)
			require.Equal(t, Record{}, rec)

			var lineErr *LineError
			require.ErrorAs(t, err, &lineErr)
			require.Contains(t, lineErr.Reason, tc.reason)
		})
	}
	require.Zero(t, p.Registry().Len(), "rejected lines must not register labels")
}

func TestParseLineDropsNonNumericTokens(t *testing.T) {
	p := NewParser(nil, nil)

	rec, err := p.ParseLine("car 0.9 [1,x,2,3,4,--5,5,6,7,8,+9]")
	require.NoError(t, err)
	require.Equal(t, Record{XMin: 1, YMin: 2, XMax: 7, YMax: 8, Score: 0.9}, rec)
}

func TestParseLabelIDs(t *testing.T) {
	p := NewParser(nil, nil)
	lines := []struct {
		line string
		id   int
	}{
		{"car 0.9 [0,0,1,0,1,1,0,1]", 0},
		{"person 0.8 [0,0,1,0,1,1,0,1]", 1},
		{"car 0.7 [0,0,1,0,1,1,0,1]", 0},
		{"bike 0.6 [0,0,1,0,1,1,0,1]", 2},
		{"person 0.5 [0,0,1,0,1,1,0,1]", 1},
	}
	for _, l := range lines {
		rec, ok := p.Parse(l.line)
		require.True(t, ok)
		require.Equal(t, l.id, rec.ClassID, l.line)
	}
	require.Equal(t, []string{"car", "person", "bike"}, p.Registry().Labels())
}

func TestParseLogsRejection(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewParser(nil, zap.New(core).Sugar())

	_, ok := p.Parse("car abc [1,2,3,4,5,6,7,8]")
	require.False(t, ok)

	_, ok = p.Parse("car 0.9 [1,2,3,4,5,6,7,8]")
	require.True(t, ok)

	entries := logs.FilterMessage("skipped detection line").All()
	require.Len(t, entries, 1)
	require.Equal(t, "car abc [1,2,3,4,5,6,7,8]", entries[0].ContextMap()["line"])
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func minOf(vals []int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		m = min(m, v)
	}
	return m
}

func maxOf(vals []int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		m = max(m, v)
	}
	return m
}
