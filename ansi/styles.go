package ansi

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var sgrPattern = regexp.MustCompile(`\x1b\[([0-9;:]*)m`)

// Color is a terminal color. Palette colors carry their index (0-15 for the
// basic and bright colors, up to 255 for the extended palette); 24-bit
// colors have Index -1 and a "#rrggbb" Hex value.
type Color struct {
	Hex   string `json:"hex,omitempty"`
	Index int    `json:"index"`
}

// PaletteColor returns the palette color with the given index.
func PaletteColor(index int) *Color {
	return &Color{Index: index}
}

// RGBColor returns a 24-bit color.
func RGBColor(r, g, b uint8) *Color {
	return &Color{Index: -1, Hex: fmt.Sprintf("#%02x%02x%02x", r, g, b)}
}

// String returns the palette index or hex value.
func (c *Color) String() string {
	if c == nil {
		return ""
	}
	if c.Index < 0 {
		return c.Hex
	}
	return strconv.Itoa(c.Index)
}

// Style is the accumulated SGR state at a point in the text.
type Style struct {
	Foreground    *Color `json:"foreground,omitempty"`
	Background    *Color `json:"background,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	Dim           bool   `json:"dim,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Inverse       bool   `json:"inverse,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
}

// IsZero reports whether no attribute or color is set.
func (s Style) IsZero() bool {
	return s.Equal(Style{})
}

// Equal compares two styles by value, including colors.
func (s Style) Equal(o Style) bool {
	return s.Bold == o.Bold &&
		s.Dim == o.Dim &&
		s.Italic == o.Italic &&
		s.Underline == o.Underline &&
		s.Inverse == o.Inverse &&
		s.Strikethrough == o.Strikethrough &&
		colorEqual(s.Foreground, o.Foreground) &&
		colorEqual(s.Background, o.Background)
}

func colorEqual(a, b *Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// StyleSpan is a run of text rendered with one style.
type StyleSpan struct {
	Text  string `json:"text"`
	Style Style  `json:"style"`
}

// DecodeStyles splits s into styled spans by interpreting SGR sequences.
// Other escape sequences are removed from the span text, not interpreted.
// Unknown SGR codes are ignored.
func DecodeStyles(s string) []StyleSpan {
	var (
		spans []StyleSpan
		cur   Style
	)
	appendSpan := func(text string) {
		text = Strip(text)
		if text == "" {
			return
		}
		if n := len(spans); n > 0 && spans[n-1].Style.Equal(cur) {
			spans[n-1].Text += text
			return
		}
		spans = append(spans, StyleSpan{Text: text, Style: cur})
	}

	pos := 0
	for _, m := range sgrPattern.FindAllStringSubmatchIndex(s, -1) {
		appendSpan(s[pos:m[0]])
		cur = applySGR(cur, parseParams(s[m[2]:m[3]]))
		pos = m[1]
	}
	appendSpan(s[pos:])
	return spans
}

// parseParams splits an SGR parameter string. Empty fields read as 0, so
// "\x1b[m", "\x1b[;1m" and "\x1b[1;;4m" behave like terminals expect.
// Colon-separated sub-parameters (38:2:r:g:b) are flattened, skipping an
// empty color space id as in "38:2::r:g:b".
func parseParams(raw string) []int {
	fields := strings.Split(raw, ";")
	params := make([]int, 0, len(fields))
	for _, f := range fields {
		if !strings.Contains(f, ":") {
			params = append(params, atoiParam(f))
			continue
		}
		for _, sub := range strings.Split(f, ":") {
			if sub != "" {
				params = append(params, atoiParam(sub))
			}
		}
	}
	return params
}

func atoiParam(f string) int {
	if f == "" {
		return 0
	}
	n, err := strconv.Atoi(f)
	if err != nil {
		return -1
	}
	return n
}

func applySGR(st Style, params []int) Style {
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			st = Style{}
		case p == 1:
			st.Bold = true
		case p == 2:
			st.Dim = true
		case p == 3:
			st.Italic = true
		case p == 4:
			st.Underline = true
		case p == 7:
			st.Inverse = true
		case p == 9:
			st.Strikethrough = true
		case p == 22:
			st.Bold = false
			st.Dim = false
		case p == 23:
			st.Italic = false
		case p == 24:
			st.Underline = false
		case p == 27:
			st.Inverse = false
		case p == 29:
			st.Strikethrough = false
		case p >= 30 && p <= 37:
			st.Foreground = PaletteColor(p - 30)
		case p == 38:
			var c *Color
			c, i = extendedColor(params, i)
			if c != nil {
				st.Foreground = c
			}
		case p == 39:
			st.Foreground = nil
		case p >= 40 && p <= 47:
			st.Background = PaletteColor(p - 40)
		case p == 48:
			var c *Color
			c, i = extendedColor(params, i)
			if c != nil {
				st.Background = c
			}
		case p == 49:
			st.Background = nil
		case p >= 90 && p <= 97:
			st.Foreground = PaletteColor(p - 90 + 8)
		case p >= 100 && p <= 107:
			st.Background = PaletteColor(p - 100 + 8)
		}
	}
	return st
}

// extendedColor reads the arguments of a 38/48 code starting at params[i]
// and returns the color plus the index of the last consumed parameter.
func extendedColor(params []int, i int) (*Color, int) {
	if i+1 >= len(params) {
		return nil, i
	}
	switch params[i+1] {
	case 5:
		if i+2 >= len(params) {
			return nil, len(params) - 1
		}
		n := params[i+2]
		if n < 0 || n > 255 {
			return nil, i + 2
		}
		return PaletteColor(n), i + 2
	case 2:
		if i+4 >= len(params) {
			return nil, len(params) - 1
		}
		r, g, b := params[i+2], params[i+3], params[i+4]
		if !inByte(r) || !inByte(g) || !inByte(b) {
			return nil, i + 4
		}
		return RGBColor(uint8(r), uint8(g), uint8(b)), i + 4
	}
	return nil, i + 1
}

func inByte(n int) bool { return n >= 0 && n <= 255 }
