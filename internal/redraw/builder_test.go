package redraw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneopane/prise/internal/rpc"
	"github.com/oneopane/prise/internal/snapshot"
)

func TestFullRedrawStartsWithResizeAndEndsWithFlush(t *testing.T) {
	snap := snapshot.Snapshot{
		Cols: 4, RowCount: 1, Full: true,
		Lines:  []snapshot.Row{{Index: 0, Cells: []snapshot.Cell{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}}}},
		Styles: map[uint16]snapshot.Style{},
	}

	n := Build(0, snap, NewSeenStyles())
	require.NotEmpty(t, n.Params)
	first := n.Params[0].([]interface{})
	assert.Equal(t, "resize", first[0])

	last := n.Params[len(n.Params)-1].([]interface{})
	assert.Equal(t, "flush", last[0])
}

func TestIncrementalRedrawOmitsResize(t *testing.T) {
	snap := snapshot.Snapshot{
		Cols: 4, RowCount: 1, Full: false,
		Lines:  []snapshot.Row{{Index: 0, Cells: []snapshot.Cell{{Text: "a"}}}},
		Styles: map[uint16]snapshot.Style{},
	}

	n := Build(0, snap, NewSeenStyles())
	first := n.Params[0].([]interface{})
	assert.NotEqual(t, "resize", first[0])
}

func TestBlankRowProducesNoWriteEvent(t *testing.T) {
	snap := snapshot.Snapshot{
		Cols: 2, RowCount: 1, Full: false,
		Lines:  []snapshot.Row{{Index: 0, Cells: []snapshot.Cell{{}, {}}}},
		Styles: map[uint16]snapshot.Style{},
	}

	n := Build(0, snap, NewSeenStyles())
	for _, ev := range n.Params {
		e := ev.([]interface{})
		assert.NotEqual(t, "write", e[0])
	}
}

func TestStyleEmittedOnceThenElidedOnSecondRedraw(t *testing.T) {
	style := snapshot.Style{Bold: true}
	snap := snapshot.Snapshot{
		Cols: 1, RowCount: 1, Full: true,
		Lines:  []snapshot.Row{{Index: 0, Cells: []snapshot.Cell{{Text: "x", StyleID: 7}}}},
		Styles: map[uint16]snapshot.Style{7: style},
	}

	seen := NewSeenStyles()
	n1 := Build(0, snap, seen)
	assert.True(t, containsEventNamed(n1, "style"))

	n2 := Build(0, snap, seen)
	assert.False(t, containsEventNamed(n2, "style"))
}

func TestRunLengthEncodingCollapsesRepeatedCells(t *testing.T) {
	cells := []snapshot.Cell{{Text: "x"}, {Text: "x"}, {Text: "x"}, {Text: "y"}}
	row := snapshot.Row{Index: 0, Cells: cells}
	encoded, _ := encodeRow(row)
	require.Len(t, encoded, 2)

	run := encoded[0].([]interface{})
	assert.Equal(t, "x", run[0])
	assert.Equal(t, 3, run[len(run)-1])
}

func TestStyleIDOmittedWhenEqualToRowsLastEmitted(t *testing.T) {
	cells := []snapshot.Cell{{Text: "a", StyleID: 3}, {Text: "b", StyleID: 3}}
	row := snapshot.Row{Index: 0, Cells: cells}
	encoded, used := encodeRow(row)
	require.Len(t, encoded, 2)

	first := encoded[0].([]interface{})
	second := encoded[1].([]interface{})
	assert.Len(t, first, 2) // grapheme + style_id, since default-to-0 differs
	assert.Len(t, second, 1) // grapheme only, style matches previous
	assert.Equal(t, []uint16{3}, used)
}

func containsEventNamed(n rpc.Notification, name string) bool {
	for _, ev := range n.Params {
		if e, ok := ev.([]interface{}); ok && e[0] == name {
			return true
		}
	}
	return false
}
