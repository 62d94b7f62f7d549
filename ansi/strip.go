// Package ansi strips and decodes ANSI escape sequences in terminal output.
//
// Strip removes every control sequence so text can be classified, and
// DecodeStyles turns SGR sequences into styled spans for renderers that want
// to keep color. Neither function interprets cursor movement; the package
// treats its input as a linear string.
package ansi

import (
	"regexp"
	"strings"
)

// Sequence patterns, applied in order. Longer forms with explicit
// terminators come before the catch-all two-byte escape, otherwise the
// catch-all would eat "ESC ]" and leave the OSC payload behind.
var sequencePatterns = []*regexp.Regexp{
	// OSC: ESC ] ... (BEL | ESC \)
	regexp.MustCompile(`\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`),
	// DCS, SOS, PM, APC: ESC P|X|^|_ ... ESC \
	regexp.MustCompile(`(?s)\x1b[PX^_].*?\x1b\\`),
	// CSI, SGR included: ESC [ params intermediates final
	regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`),
	// 8-bit CSI as it appears once decoded to UTF-8.
	regexp.MustCompile("\u009b[0-?]*[ -/]*[@-~]"),
	// Charset designation and other escapes with intermediates: ESC ( B
	regexp.MustCompile(`\x1b[ -/]+[0-~]`),
	// Bare two-byte escapes: ESC 7, ESC M, ESC =, ...
	regexp.MustCompile(`\x1b[0-~]`),
}

// Strip removes ANSI escape sequences from s.
//
// After any pattern removes something, matching restarts from the most
// specific pattern, because deleting an inner sequence can join its
// neighbours into a new one. Introducers left over from truncated sequences
// are dropped so the result never contains ESC and Strip(Strip(s)) ==
// Strip(s) for every s.
func Strip(s string) string {
	if !hasIntroducer(s) {
		return s
	}
	for changed := true; changed; {
		changed = false
		for _, re := range sequencePatterns {
			if next := re.ReplaceAllString(s, ""); next != s {
				s = next
				changed = true
				break
			}
		}
	}
	return strings.Map(func(r rune) rune {
		if r == '\x1b' || r == '\u009b' {
			return -1
		}
		return r
	}, s)
}

func hasIntroducer(s string) bool {
	return strings.ContainsRune(s, '\x1b') || strings.ContainsRune(s, '\u009b')
}

// CleanLine prepares one terminal line for classification: escapes are
// stripped, a lone carriage return keeps only the text written after it (a
// spinner or progress bar redrawing itself), and remaining C0 control
// characters other than tab are removed.
func CleanLine(s string) string {
	s = Strip(s)
	s = strings.TrimRight(s, "\r")
	if i := strings.LastIndexByte(s, '\r'); i >= 0 {
		s = s[i+1:]
	}
	return dropControls(s)
}

func dropControls(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if isControl(s[i]) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !isControl(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isControl(c byte) bool {
	return (c < 0x20 && c != '\t') || c == 0x7f
}
