package keyenc

import (
	"testing"

	"github.com/hinshun/vt10x"
	"github.com/stretchr/testify/assert"
)

func TestEncodeLiteralCharacterPassesThrough(t *testing.T) {
	got := Encode(Input{Key: "a"}, 0)
	assert.Equal(t, []byte("a"), got)
}

func TestEncodeCtrlLetterProducesControlByte(t *testing.T) {
	got := Encode(Input{Key: "c", Ctrl: true}, 0)
	assert.Equal(t, []byte{0x03}, got)
}

func TestEncodeCtrlUppercaseLetterProducesSameControlByte(t *testing.T) {
	got := Encode(Input{Key: "C", Ctrl: true}, 0)
	assert.Equal(t, []byte{0x03}, got)
}

func TestEncodeArrowKeyUsesCSIByDefault(t *testing.T) {
	got := Encode(Input{Key: "ArrowUp"}, 0)
	assert.Equal(t, []byte{0x1b, '[', 'A'}, got)
}

func TestEncodeArrowKeyUsesSS3UnderApplicationCursorMode(t *testing.T) {
	got := Encode(Input{Key: "ArrowUp"}, vt10x.ModeAppCursor)
	assert.Equal(t, []byte{0x1b, 'O', 'A'}, got)
}

func TestEncodeEnterProducesCarriageReturn(t *testing.T) {
	got := Encode(Input{Key: "Enter"}, 0)
	assert.Equal(t, []byte{'\r'}, got)
}

func TestEncodeAltPrefixesEscape(t *testing.T) {
	got := Encode(Input{Key: "a", Alt: true}, 0)
	assert.Equal(t, []byte{0x1b, 'a'}, got)
}

func TestEncodeAltWithNamedKey(t *testing.T) {
	got := Encode(Input{Key: "ArrowLeft", Alt: true}, 0)
	assert.Equal(t, []byte{0x1b, 0x1b, '[', 'D'}, got)
}

func TestEncodeFunctionKeyUsesSS3(t *testing.T) {
	got := Encode(Input{Key: "F1"}, 0)
	assert.Equal(t, []byte{0x1b, 'O', 'P'}, got)
}

func TestEncodeBackspaceProducesDEL(t *testing.T) {
	got := Encode(Input{Key: "Backspace"}, 0)
	assert.Equal(t, []byte{0x7f}, got)
}

func TestControlByteCoversBracketAndDigitAliases(t *testing.T) {
	b, ok := controlByte("[")
	assert.True(t, ok)
	assert.Equal(t, byte(0x1b), b)

	b, ok = controlByte("3")
	assert.True(t, ok)
	assert.Equal(t, byte(0x1b), b)
}

func TestControlByteRejectsMultiCharacterKeys(t *testing.T) {
	_, ok := controlByte("Enter")
	assert.False(t, ok)
}
