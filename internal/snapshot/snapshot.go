// Package snapshot copies emulator screen state into an allocator-
// independent value type. A Snapshot owns every byte it references, so the
// session mutex guarding the live emulator can be released the moment
// Capture returns — nothing downstream (the redraw builder, the send
// queue) ever reaches back into emulator memory.
package snapshot

import (
	"github.com/hinshun/vt10x"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// CursorShape mirrors the three shapes the wire protocol encodes as 0/1/2.
type CursorShape int

const (
	CursorBlock CursorShape = iota
	CursorBeam
	CursorUnderline
)

// ColorKind distinguishes the terminal-default, RGB, and palette color
// representations a Style's foreground/background can take.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorRGB
	ColorPalette
)

// Color is one half of a Style (foreground or background).
type Color struct {
	Kind    ColorKind
	RGB     uint32 // packed 0x00RRGGBB, valid when Kind == ColorRGB
	Palette uint8  // 0-255, valid when Kind == ColorPalette
}

// Style is a value keyed by ID elsewhere (StyleTable); ID 0 always denotes
// DefaultStyle and is never carried explicitly in a StyleTable entry.
type Style struct {
	FG, BG                                       Color
	Bold, Dim, Italic, Underline, Reverse, Blink bool
}

// DefaultStyle is the zero value, reserved for style ID 0.
var DefaultStyle = Style{}

// Cell is one terminal column: owned UTF-8 grapheme text, a style ID, and
// whether it occupies two display columns. A spacer-tail cell (the second
// half of a wide glyph) is represented as an empty-text, style-0 Cell so
// downstream diffing skips it.
type Cell struct {
	Text    string
	StyleID uint16
	Wide    bool
}

// Row is one captured screen row. Index is always the absolute row number
// even in an incremental Snapshot, where Lines only lists rows that
// changed.
type Row struct {
	Index int
	Cells []Cell
}

// Snapshot is an immutable copy of one session's screen state at a point
// in time, taken under the session mutex and mutated by no one afterward.
type Snapshot struct {
	Cols, RowCount int
	CursorRow      int
	CursorCol      int
	CursorShape    CursorShape
	CursorVisible  bool

	// Full indicates every row 0..RowCount-1 is present in Lines (in
	// order). When false only rows whose content changed since the last
	// capture are present.
	Full  bool
	Lines []Row

	// Styles resolves every style ID referenced anywhere in Lines.
	Styles map[uint16]Style
}

// source is the subset of vt10x.Terminal the capture path needs. Defined
// here (rather than depending on the concrete type directly in call sites)
// so tests can substitute a fake emulator.
type source interface {
	Size() (cols, rows int)
	Cell(x, y int) vt10x.Glyph
	Cursor() vt10x.Cursor
	CursorVisible() bool
	Mode() int16
}

// vtSource adapts vt10x.Terminal, whose Mode() returns its own named type,
// to the narrower source interface above.
type vtSource struct{ vt10x.Terminal }

func (v vtSource) Mode() int16 { return int16(v.Terminal.Mode()) }

// Wrap adapts a vt10x.Terminal for use with Capture.
func Wrap(t vt10x.Terminal) source { return vtSource{t} }

const (
	modeBold      = 1 << 0
	modeUnderline = 1 << 1
	modeReverse   = 1 << 2
	modeBlink     = 1 << 3
	modeDim       = 1 << 4
	modeItalic    = 1 << 5
)

func convertColor(c, def vt10x.Color) Color {
	if c == def {
		return Color{Kind: ColorDefault}
	}
	if uint32(c) > 255 {
		return Color{Kind: ColorRGB, RGB: uint32(c) & 0x00FFFFFF}
	}
	return Color{Kind: ColorPalette, Palette: uint8(c)}
}

func styleFromGlyph(g vt10x.Glyph) Style {
	return Style{
		FG:        convertColor(g.FG, vt10x.DefaultFG),
		BG:        convertColor(g.BG, vt10x.DefaultBG),
		Bold:      int16(g.Mode)&modeBold != 0,
		Dim:       int16(g.Mode)&modeDim != 0,
		Italic:    int16(g.Mode)&modeItalic != 0,
		Underline: int16(g.Mode)&modeUnderline != 0,
		Reverse:   int16(g.Mode)&modeReverse != 0,
		Blink:     int16(g.Mode)&modeBlink != 0,
	}
}

func cellFromGlyph(g vt10x.Glyph, styles *StyleTable) Cell {
	if g.Char == 0 {
		return Cell{}
	}
	text := string(g.Char)
	if gc, _, _, _ := uniseg.FirstGraphemeClusterInString(text, -1); gc != "" {
		text = gc
	}
	wide := runewidth.RuneWidth(g.Char) == 2
	id := styles.Intern(styleFromGlyph(g))
	return Cell{Text: text, StyleID: id, Wide: wide}
}

func cursorShapeFromMode(mode int16) CursorShape {
	// vt10x doesn't model a separate cursor-shape escape in the mode bits
	// this package reads; absent a richer signal we report the
	// conventional default (block) and let a future DECSCUSR hook refine
	// it without changing this type's shape.
	_ = mode
	return CursorBlock
}
