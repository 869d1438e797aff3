package main

import (
	"bytes"
	"fmt"
)

// screenRenderer turns the "redraw" notification's ordered sub-events into
// the ANSI escape sequences a real terminal understands, buffering them
// until a "flush" sub-event so one redraw notification becomes one write
// to stdout.
type screenRenderer struct {
	buf        bytes.Buffer
	lastStyle  int64 // style_id most recently emitted via SGR, -1 means unknown
	styleCache map[int64]map[string]interface{}
}

func newScreenRenderer() *screenRenderer {
	return &screenRenderer{lastStyle: -1, styleCache: make(map[int64]map[string]interface{})}
}

// Apply processes one "redraw" notification's params and returns the bytes
// to write to stdout, or nil if the notification ended without a flush
// (which should not happen per the wire protocol, but is handled safely).
func (r *screenRenderer) Apply(events []interface{}) []byte {
	r.buf.Reset()
	for _, raw := range events {
		ev, ok := raw.([]interface{})
		if !ok || len(ev) != 2 {
			continue
		}
		name, _ := ev[0].(string)
		args, _ := ev[1].([]interface{})
		switch name {
		case "resize":
			r.applyResize(args)
		case "style":
			r.applyStyle(args)
		case "write":
			r.applyWrite(args)
		case "cursor_pos":
			r.applyCursorPos(args)
		case "cursor_shape":
			r.applyCursorShape(args)
		case "flush":
			out := make([]byte, r.buf.Len())
			copy(out, r.buf.Bytes())
			return out
		}
	}
	return nil
}

func (r *screenRenderer) applyResize(args []interface{}) {
	fmt.Fprint(&r.buf, "\x1b[2J")
}

func (r *screenRenderer) applyStyle(args []interface{}) {
	if len(args) != 2 {
		return
	}
	id, _ := toInt64(args[0])
	fields, _ := args[1].(map[string]interface{})
	r.styleCache[id] = fields
}

func (r *screenRenderer) applyWrite(args []interface{}) {
	if len(args) != 4 {
		return
	}
	row, _ := toInt64(args[1])
	col, _ := toInt64(args[2])
	cells, _ := args[3].([]interface{})

	fmt.Fprintf(&r.buf, "\x1b[%d;%dH", row+1, col+1)

	// An omitted style_id repeats the previous cell's style in this row;
	// each row starts from style 0.
	rowStyle := int64(0)
	for _, raw := range cells {
		entry, ok := raw.([]interface{})
		if !ok || len(entry) == 0 {
			continue
		}
		text, _ := entry[0].(string)
		styleID := rowStyle
		repeat := 1
		switch len(entry) {
		case 2:
			// [text, style_id]; a run always carries style_id too (3
			// elements), so a bare second element is always a style.
			styleID, _ = toInt64(entry[1])
		case 3:
			styleID, _ = toInt64(entry[1])
			repeat, _ = toIntDefault(entry[2], 1)
		}
		rowStyle = styleID
		r.emitStyle(styleID)
		for i := 0; i < repeat; i++ {
			r.buf.WriteString(text)
		}
	}
}

func (r *screenRenderer) emitStyle(id int64) {
	if id == r.lastStyle {
		return
	}
	r.lastStyle = id
	if id == 0 {
		fmt.Fprint(&r.buf, "\x1b[0m")
		return
	}
	fields := r.styleCache[id]
	fmt.Fprint(&r.buf, "\x1b[0m"+sgrFor(fields))
}

func (r *screenRenderer) applyCursorPos(args []interface{}) {
	if len(args) != 3 {
		return
	}
	row, _ := toInt64(args[1])
	col, _ := toInt64(args[2])
	fmt.Fprintf(&r.buf, "\x1b[%d;%dH", row+1, col+1)
}

func (r *screenRenderer) applyCursorShape(args []interface{}) {
	if len(args) != 2 {
		return
	}
	shape, _ := toInt64(args[1])
	switch shape {
	case 0: // block
		fmt.Fprint(&r.buf, "\x1b[1 q")
	case 1: // beam
		fmt.Fprint(&r.buf, "\x1b[5 q")
	case 2: // underline
		fmt.Fprint(&r.buf, "\x1b[3 q")
	default:
		fmt.Fprint(&r.buf, "\x1b[0 q")
	}
}

func sgrFor(fields map[string]interface{}) string {
	var codes []string
	if v, ok := fields["fg"]; ok {
		if rgb, ok := toInt64(v); ok {
			codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", (rgb>>16)&0xff, (rgb>>8)&0xff, rgb&0xff))
		}
	}
	if v, ok := fields["fg_idx"]; ok {
		if idx, ok := toInt64(v); ok {
			codes = append(codes, fmt.Sprintf("38;5;%d", idx))
		}
	}
	if v, ok := fields["bg"]; ok {
		if rgb, ok := toInt64(v); ok {
			codes = append(codes, fmt.Sprintf("48;2;%d;%d;%d", (rgb>>16)&0xff, (rgb>>8)&0xff, rgb&0xff))
		}
	}
	if v, ok := fields["bg_idx"]; ok {
		if idx, ok := toInt64(v); ok {
			codes = append(codes, fmt.Sprintf("48;5;%d", idx))
		}
	}
	if b, _ := fields["bold"].(bool); b {
		codes = append(codes, "1")
	}
	if b, _ := fields["dim"].(bool); b {
		codes = append(codes, "2")
	}
	if b, _ := fields["italic"].(bool); b {
		codes = append(codes, "3")
	}
	if b, _ := fields["underline"].(bool); b {
		codes = append(codes, "4")
	}
	if b, _ := fields["blink"].(bool); b {
		codes = append(codes, "5")
	}
	if b, _ := fields["reverse"].(bool); b {
		codes = append(codes, "7")
	}
	if len(codes) == 0 {
		return ""
	}
	out := "\x1b["
	for i, c := range codes {
		if i > 0 {
			out += ";"
		}
		out += c
	}
	return out + "m"
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint16:
		return int64(n), true
	default:
		return 0, false
	}
}

func toIntDefault(v interface{}, def int) (int, bool) {
	if n, ok := toInt64(v); ok {
		return int(n), true
	}
	return def, false
}
