package snapshot

import "github.com/hinshun/vt10x"

// Grid remembers the last-rendered glyphs so Capture can derive a per-row
// dirty set without the emulator exposing one directly: vt10x tracks
// "changed" internally but does not surface it as a stable public bitset,
// so this package rebuilds the same signal by diffing against its own
// copy, the way a terminal-panel renderer in this codebase's lineage
// already does when deciding what to redraw.
type Grid struct {
	cols, rows int
	cells      [][]vt10x.Glyph
}

// NewGrid returns an empty grid; the first Capture against it is always
// full regardless of the forceFull argument.
func NewGrid() *Grid {
	return &Grid{}
}

func (g *Grid) resize(cols, rows int) {
	g.cols, g.rows = cols, rows
	g.cells = make([][]vt10x.Glyph, rows)
	for y := range g.cells {
		g.cells[y] = make([]vt10x.Glyph, cols)
	}
}

// Capture copies src's current state into a Snapshot. forceFull promotes
// the capture to full regardless of row-level diffing — used for resize,
// mode changes, and a client's first attach. styles interns every style
// referenced by a captured cell.
//
// The caller must hold the session mutex for the duration of this call;
// the returned Snapshot shares no memory with src afterward.
func Capture(src source, g *Grid, styles *StyleTable, forceFull bool) Snapshot {
	cols, rows := src.Size()

	dimsChanged := cols != g.cols || rows != g.rows
	if dimsChanged {
		g.resize(cols, rows)
		forceFull = true
	}

	cur := src.Cursor()
	snap := Snapshot{
		Cols:          cols,
		RowCount:      rows,
		CursorRow:     cur.Y,
		CursorCol:     cur.X,
		CursorShape:   cursorShapeFromMode(src.Mode()),
		CursorVisible: src.CursorVisible(),
		Full:          forceFull,
		Styles:        make(map[uint16]Style),
	}

	for y := 0; y < rows; y++ {
		rowChanged := forceFull
		cells := make([]Cell, cols)
		for x := 0; x < cols; x++ {
			glyph := src.Cell(x, y)
			if !forceFull && glyph != g.cells[y][x] {
				rowChanged = true
			}
			cells[x] = cellFromGlyph(glyph, styles)
			g.cells[y][x] = glyph
		}
		if rowChanged {
			snap.Lines = append(snap.Lines, Row{Index: y, Cells: cells})
			for _, c := range cells {
				if c.StyleID != 0 {
					if st, ok := styles.Lookup(c.StyleID); ok {
						snap.Styles[c.StyleID] = st
					}
				}
			}
		}
	}

	return snap
}
