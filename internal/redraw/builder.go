// Package redraw translates a screen snapshot plus a client's seen-styles
// cache into the ordered sub-event sequence carried by a "redraw"
// notification, per §4.7.
package redraw

import (
	"github.com/oneopane/prise/internal/rpc"
	"github.com/oneopane/prise/internal/snapshot"
)

// SeenStyles tracks which style IDs have already been defined to one
// client, so repeated redraws don't resend styles the client already
// knows.
type SeenStyles struct {
	ids map[uint16]bool
}

// NewSeenStyles returns an empty cache; style ID 0 (default) never needs
// to be tracked since it requires no style sub-event.
func NewSeenStyles() *SeenStyles {
	return &SeenStyles{ids: make(map[uint16]bool)}
}

func (s *SeenStyles) has(id uint16) bool { return id == 0 || s.ids[id] }
func (s *SeenStyles) mark(id uint16)     { s.ids[id] = true }

// Build produces a "redraw" notification for session sessionID from snap,
// updating seen to reflect every style ID defined in the notification.
func Build(sessionID uint64, snap snapshot.Snapshot, seen *SeenStyles) rpc.Notification {
	var events []interface{}

	if snap.Full {
		events = append(events, subevent("resize", sessionID, snap.RowCount, snap.Cols))
	}

	for _, row := range snap.Lines {
		if !rowHasText(row) {
			continue
		}
		cells, stylesUsed := encodeRow(row)
		for _, id := range stylesUsed {
			if seen.has(id) {
				continue
			}
			style, ok := snap.Styles[id]
			if !ok {
				continue
			}
			events = append(events, subevent("style", id, styleFields(style)))
			seen.mark(id)
		}
		events = append(events, subevent("write", sessionID, row.Index, 0, cells))
	}

	events = append(events, subevent("cursor_pos", sessionID, snap.CursorRow, snap.CursorCol))
	events = append(events, subevent("cursor_shape", sessionID, int(snap.CursorShape)))
	events = append(events, subevent("flush"))

	return rpc.Notification{Method: "redraw", Params: events}
}

func subevent(name string, args ...interface{}) []interface{} {
	return []interface{}{name, args}
}

func rowHasText(row snapshot.Row) bool {
	for _, c := range row.Cells {
		if c.Text != "" {
			return true
		}
	}
	return false
}

// encodeRow run-length-encodes row's cells, eliding style_id when it
// equals the last style emitted in the same row (the row's implied
// initial style is 0), and returns the distinct non-zero style IDs used,
// in first-appearance order.
func encodeRow(row snapshot.Row) (cells []interface{}, stylesUsed []uint16) {
	seenInRow := make(map[uint16]bool)
	lastStyle := uint16(0)

	cells = make([]interface{}, 0, len(row.Cells))

	i := 0
	for i < len(row.Cells) {
		c := row.Cells[i]
		run := 1
		for i+run < len(row.Cells) && row.Cells[i+run].Text == c.Text && row.Cells[i+run].StyleID == c.StyleID {
			run++
		}

		if c.StyleID != 0 && !seenInRow[c.StyleID] {
			stylesUsed = append(stylesUsed, c.StyleID)
			seenInRow[c.StyleID] = true
		}

		entry := []interface{}{c.Text}
		if c.StyleID != lastStyle {
			entry = append(entry, c.StyleID)
		}
		if run > 1 {
			if len(entry) == 1 {
				entry = append(entry, c.StyleID)
			}
			entry = append(entry, run)
		}
		cells = append(cells, entry)

		lastStyle = c.StyleID
		i += run
	}

	return cells, stylesUsed
}

func styleFields(s snapshot.Style) map[string]interface{} {
	f := map[string]interface{}{}
	switch s.FG.Kind {
	case snapshot.ColorRGB:
		f["fg"] = s.FG.RGB
	case snapshot.ColorPalette:
		f["fg_idx"] = s.FG.Palette
	}
	switch s.BG.Kind {
	case snapshot.ColorRGB:
		f["bg"] = s.BG.RGB
	case snapshot.ColorPalette:
		f["bg_idx"] = s.BG.Palette
	}
	if s.Bold {
		f["bold"] = true
	}
	if s.Dim {
		f["dim"] = true
	}
	if s.Italic {
		f["italic"] = true
	}
	if s.Underline {
		f["underline"] = true
	}
	if s.Reverse {
		f["reverse"] = true
	}
	if s.Blink {
		f["blink"] = true
	}
	return f
}
