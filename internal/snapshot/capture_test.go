package snapshot

import (
	"testing"

	"github.com/hinshun/vt10x"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	cols, rows int
	cells      [][]vt10x.Glyph
	cursorX    int
	cursorY    int
	visible    bool
}

func newFakeSource(cols, rows int) *fakeSource {
	cells := make([][]vt10x.Glyph, rows)
	for y := range cells {
		cells[y] = make([]vt10x.Glyph, cols)
	}
	return &fakeSource{cols: cols, rows: rows, cells: cells, visible: true}
}

func (f *fakeSource) Size() (int, int)           { return f.cols, f.rows }
func (f *fakeSource) Cell(x, y int) vt10x.Glyph  { return f.cells[y][x] }
func (f *fakeSource) Cursor() vt10x.Cursor       { return vt10x.Cursor{X: f.cursorX, Y: f.cursorY} }
func (f *fakeSource) CursorVisible() bool        { return f.visible }
func (f *fakeSource) Mode() int16                { return 0 }

func (f *fakeSource) setChar(x, y int, r rune) {
	f.cells[y][x].Char = r
}

func TestFirstCaptureIsAlwaysFull(t *testing.T) {
	src := newFakeSource(4, 2)
	src.setChar(0, 0, 'a')

	g := NewGrid()
	styles := NewStyleTable()
	snap := Capture(src, g, styles, false)

	assert.True(t, snap.Full)
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, "a", snap.Lines[0].Cells[0].Text)
}

func TestIncrementalCaptureOnlyFlagsChangedRows(t *testing.T) {
	src := newFakeSource(4, 3)
	g := NewGrid()
	styles := NewStyleTable()
	Capture(src, g, styles, false) // prime the grid

	src.setChar(1, 2, 'x')
	snap := Capture(src, g, styles, false)

	assert.False(t, snap.Full)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Index)
	assert.Equal(t, "x", snap.Lines[0].Cells[1].Text)
}

func TestResizeForcesFullCapture(t *testing.T) {
	src := newFakeSource(4, 2)
	g := NewGrid()
	styles := NewStyleTable()
	Capture(src, g, styles, false)

	src.cols, src.rows = 6, 3
	src.cells = make([][]vt10x.Glyph, 3)
	for y := range src.cells {
		src.cells[y] = make([]vt10x.Glyph, 6)
	}
	snap := Capture(src, g, styles, false)

	assert.True(t, snap.Full)
	assert.Equal(t, 6, snap.Cols)
	assert.Equal(t, 3, snap.RowCount)
}

func TestSpacerTailCellIsEmptyStyleZero(t *testing.T) {
	src := newFakeSource(2, 1)
	g := NewGrid()
	styles := NewStyleTable()
	snap := Capture(src, g, styles, true)

	cell := snap.Lines[0].Cells[0]
	assert.Equal(t, "", cell.Text)
	assert.Equal(t, uint16(0), cell.StyleID)
}

func TestStyleTableInternsStably(t *testing.T) {
	st := NewStyleTable()
	s := Style{Bold: true}
	id1 := st.Intern(s)
	id2 := st.Intern(s)
	assert.Equal(t, id1, id2)
	assert.NotZero(t, id1)

	got, ok := st.Lookup(id1)
	assert.True(t, ok)
	assert.Equal(t, s, got)
}

func TestDefaultStyleAlwaysZero(t *testing.T) {
	st := NewStyleTable()
	assert.Equal(t, uint16(0), st.Intern(DefaultStyle))
}
