package ansi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStyles_Basic(t *testing.T) {
	spans := DecodeStyles("\x1b[1;31mERROR\x1b[0m: failed")
	require.Len(t, spans, 2)

	assert.Equal(t, "ERROR", spans[0].Text)
	assert.True(t, spans[0].Style.Bold)
	require.NotNil(t, spans[0].Style.Foreground)
	assert.Equal(t, 1, spans[0].Style.Foreground.Index)

	assert.Equal(t, ": failed", spans[1].Text)
	assert.True(t, spans[1].Style.IsZero())
}

func TestDecodeStyles_Attributes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, st Style)
	}{
		{"dim", "\x1b[2mx", func(t *testing.T, st Style) { assert.True(t, st.Dim) }},
		{"italic", "\x1b[3mx", func(t *testing.T, st Style) { assert.True(t, st.Italic) }},
		{"underline", "\x1b[4mx", func(t *testing.T, st Style) { assert.True(t, st.Underline) }},
		{"inverse", "\x1b[7mx", func(t *testing.T, st Style) { assert.True(t, st.Inverse) }},
		{"strike", "\x1b[9mx", func(t *testing.T, st Style) { assert.True(t, st.Strikethrough) }},
		{"22 clears bold and dim", "\x1b[1;2;22mx", func(t *testing.T, st Style) {
			assert.False(t, st.Bold)
			assert.False(t, st.Dim)
		}},
		{"23 clears italic", "\x1b[3;23mx", func(t *testing.T, st Style) { assert.False(t, st.Italic) }},
		{"24 clears underline", "\x1b[4;24mx", func(t *testing.T, st Style) { assert.False(t, st.Underline) }},
		{"27 clears inverse", "\x1b[7;27mx", func(t *testing.T, st Style) { assert.False(t, st.Inverse) }},
		{"29 clears strike", "\x1b[9;29mx", func(t *testing.T, st Style) { assert.False(t, st.Strikethrough) }},
		{"bright fg", "\x1b[92mx", func(t *testing.T, st Style) {
			require.NotNil(t, st.Foreground)
			assert.Equal(t, 10, st.Foreground.Index)
		}},
		{"bg", "\x1b[44mx", func(t *testing.T, st Style) {
			require.NotNil(t, st.Background)
			assert.Equal(t, 4, st.Background.Index)
		}},
		{"bright bg", "\x1b[107mx", func(t *testing.T, st Style) {
			require.NotNil(t, st.Background)
			assert.Equal(t, 15, st.Background.Index)
		}},
		{"39 clears fg", "\x1b[31;39mx", func(t *testing.T, st Style) { assert.Nil(t, st.Foreground) }},
		{"49 clears bg", "\x1b[41;49mx", func(t *testing.T, st Style) { assert.Nil(t, st.Background) }},
		{"256 color", "\x1b[38;5;208mx", func(t *testing.T, st Style) {
			require.NotNil(t, st.Foreground)
			assert.Equal(t, 208, st.Foreground.Index)
			assert.False(t, st.Dim, "sub-parameter 5 must not be read as blink/dim")
		}},
		{"truecolor", "\x1b[48;2;1;2;3mx", func(t *testing.T, st Style) {
			require.NotNil(t, st.Background)
			assert.Equal(t, "#010203", st.Background.Hex)
			assert.False(t, st.Bold, "rgb components must not be read as attributes")
			assert.False(t, st.Dim)
			assert.False(t, st.Italic)
		}},
		{"unknown ignored", "\x1b[5;53;1mx", func(t *testing.T, st Style) { assert.True(t, st.Bold) }},
		{"empty middle field resets", "\x1b[1;;4mx", func(t *testing.T, st Style) {
			assert.False(t, st.Bold)
			assert.True(t, st.Underline)
		}},
		{"colon truecolor", "\x1b[38:2:10:20:30mx", func(t *testing.T, st Style) {
			require.NotNil(t, st.Foreground)
			assert.Equal(t, "#0a141e", st.Foreground.Hex)
		}},
		{"colon truecolor with color space", "\x1b[38:2::10:20:30mx", func(t *testing.T, st Style) {
			require.NotNil(t, st.Foreground)
			assert.Equal(t, "#0a141e", st.Foreground.Hex)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := DecodeStyles(tt.input)
			require.Len(t, spans, 1)
			assert.Equal(t, "x", spans[0].Text)
			tt.check(t, spans[0].Style)
		})
	}
}

func TestDecodeStyles_ResetForms(t *testing.T) {
	for _, reset := range []string{"\x1b[0m", "\x1b[m", "\x1b[;m", "\x1b[1;m"} {
		spans := DecodeStyles("\x1b[1ma" + reset + "b")
		require.Len(t, spans, 2)
		assert.True(t, spans[1].Style.IsZero())
	}
}

func TestDecodeStyles_MergesAndSkipsEmpty(t *testing.T) {
	spans := DecodeStyles("\x1b[31m\x1b[31mab\x1b[1m\x1b[22mcd")
	require.Len(t, spans, 1)
	assert.Equal(t, "abcd", spans[0].Text)
}

func TestDecodeStyles_StripsNonSGR(t *testing.T) {
	spans := DecodeStyles("\x1b]0;title\x07\x1b[32mok\x1b[2K\x1b[0m")
	require.Len(t, spans, 1)
	assert.Equal(t, "ok", spans[0].Text)
	assert.Equal(t, 2, spans[0].Style.Foreground.Index)
}

func TestDecodeStyles_PlainText(t *testing.T) {
	spans := DecodeStyles("hello")
	require.Len(t, spans, 1)
	assert.Equal(t, StyleSpan{Text: "hello"}, spans[0])
	assert.Empty(t, DecodeStyles(""))
}
