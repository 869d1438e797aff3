// Package keyenc converts W3C-shaped key-input notation into the byte
// sequences a PTY's child process expects on its stdin, consulting the
// terminal emulator's current application-cursor-keys mode bit the way a
// real terminal's keyboard encoder must. Other mode bits (such as
// application keypad) are not consulted.
package keyenc

import "github.com/hinshun/vt10x"

// Input mirrors the key_input notification's params: key is the produced
// character per W3C UI Events (e.g. "Enter", "a", "ArrowUp"), code is the
// physical key name (e.g. "KeyA", "ArrowUp"), and the four modifier flags
// follow the same convention.
type Input struct {
	Key      string
	Code     string
	Shift    bool
	Ctrl     bool
	Alt      bool
	Meta     bool
}

// Encode returns the bytes to write to the PTY master for in, given the
// emulator's current mode bits. Callers hold the session mutex for the
// duration of both the Mode() read and the Encode call, since mode state
// and the write it produces must be consistent with each other.
func Encode(in Input, mode vt10x.ModeFlag) []byte {
	if seq, ok := namedKeySequence(in.Key, mode); ok {
		return applyAlt(seq, in.Alt)
	}

	if in.Ctrl {
		if b, ok := controlByte(in.Key); ok {
			return applyAlt([]byte{b}, in.Alt)
		}
	}

	// Anything else is a produced character; W3C's `key` already reflects
	// shift/caps state, so it is forwarded as UTF-8 verbatim.
	return applyAlt([]byte(in.Key), in.Alt)
}

func applyAlt(seq []byte, alt bool) []byte {
	if !alt || len(seq) == 0 {
		return seq
	}
	out := make([]byte, 0, len(seq)+1)
	out = append(out, 0x1b)
	out = append(out, seq...)
	return out
}

// controlByte maps a single ASCII letter (or a handful of punctuation
// keys xterm also maps) to its control-code value.
func controlByte(key string) (byte, bool) {
	if len(key) != 1 {
		return 0, false
	}
	c := key[0]
	switch {
	case c >= 'a' && c <= 'z':
		return c - 'a' + 1, true
	case c >= 'A' && c <= 'Z':
		return c - 'A' + 1, true
	case c == '[' || c == '3':
		return 0x1b, true
	case c == '\\' || c == '4':
		return 0x1c, true
	case c == ']' || c == '5':
		return 0x1d, true
	case c == '^' || c == '6':
		return 0x1e, true
	case c == '_' || c == '7':
		return 0x1f, true
	default:
		return 0, false
	}
}

// namedKeySequence handles keys whose encoding depends on emulator mode
// (cursor keys switch between CSI and SS3 under DECCKM/ModeAppCursor) or
// that have no literal character representation at all.
func namedKeySequence(key string, mode vt10x.ModeFlag) ([]byte, bool) {
	appCursor := mode&vt10x.ModeAppCursor != 0

	cursor := func(csiFinal, ss3Final byte) []byte {
		if appCursor {
			return []byte{0x1b, 'O', ss3Final}
		}
		return []byte{0x1b, '[', csiFinal}
	}

	switch key {
	case "ArrowUp":
		return cursor('A', 'A'), true
	case "ArrowDown":
		return cursor('B', 'B'), true
	case "ArrowRight":
		return cursor('C', 'C'), true
	case "ArrowLeft":
		return cursor('D', 'D'), true
	case "Home":
		return cursor('H', 'H'), true
	case "End":
		return cursor('F', 'F'), true
	case "Enter":
		return []byte{'\r'}, true
	case "Tab":
		return []byte{'\t'}, true
	case "Backspace":
		return []byte{0x7f}, true
	case "Escape":
		return []byte{0x1b}, true
	case "Delete":
		return []byte{0x1b, '[', '3', '~'}, true
	case "Insert":
		return []byte{0x1b, '[', '2', '~'}, true
	case "PageUp":
		return []byte{0x1b, '[', '5', '~'}, true
	case "PageDown":
		return []byte{0x1b, '[', '6', '~'}, true
	case "F1":
		return []byte{0x1b, 'O', 'P'}, true
	case "F2":
		return []byte{0x1b, 'O', 'Q'}, true
	case "F3":
		return []byte{0x1b, 'O', 'R'}, true
	case "F4":
		return []byte{0x1b, 'O', 'S'}, true
	default:
		return nil, false
	}
}
