package ansi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzStrip(f *testing.F) {
	f.Add("plain text")
	f.Add("\x1b[1;31mred\x1b[0m")
	f.Add("\x1b]0;title\x07after")
	f.Add("\x1bP1$r\x1b\\x")
	f.Add("\x1b\x1b[[31mm")
	f.Add("\u009b2Kline")
	f.Add("trailing \x1b[")
	f.Add("\x1b(B\x1b7\x1b8")

	f.Fuzz(func(t *testing.T, s string) {
		out := Strip(s)
		assert.NotContains(t, out, "\x1b")
		assert.False(t, strings.ContainsRune(out, '\u009b'), "8-bit CSI left in %q", out)
		assert.Equal(t, out, Strip(out))
	})
}

func FuzzCleanLine(f *testing.F) {
	f.Add("progress 10%\rprogress 100%")
	f.Add("\x1b[2K\rdone\r\n")
	f.Add("tab\tand\x07bell\x7f")

	f.Fuzz(func(t *testing.T, s string) {
		out := CleanLine(s)
		for i := 0; i < len(out); i++ {
			assert.False(t, isControl(out[i]), "control byte %#x in %q", out[i], out)
		}
		assert.Equal(t, out, CleanLine(out))
	})
}
