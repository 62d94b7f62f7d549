package ptyparse

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// textDecoder turns raw line bytes into valid UTF-8 text.
type textDecoder struct {
	charset *encoding.Decoder
}

// newTextDecoder returns a decoder for the named charset. Empty and UTF-8
// names decode without transcoding.
func newTextDecoder(name string) (textDecoder, error) {
	if name == "" {
		return textDecoder{}, nil
	}
	canonical, err := lookupEncoding(name)
	if err != nil {
		return textDecoder{}, err
	}
	if canonical == "utf-8" {
		return textDecoder{}, nil
	}
	enc, err := htmlindex.Get(canonical)
	if err != nil {
		return textDecoder{}, err
	}
	return textDecoder{charset: enc.NewDecoder()}, nil
}

// decode converts a complete line. Invalid sequences become U+FFFD.
func (d textDecoder) decode(b []byte) string {
	if d.charset != nil {
		if out, err := d.charset.Bytes(b); err == nil {
			b = out
		}
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// decodePartial converts an unterminated tail, leaving out a trailing
// multi-byte character that has not fully arrived yet.
func (d textDecoder) decodePartial(b []byte) string {
	if d.charset == nil {
		b = b[:completePrefix(b)]
	}
	return d.decode(b)
}

// completePrefix returns the length of b without an incomplete trailing
// UTF-8 sequence.
func completePrefix(b []byte) int {
	// A UTF-8 sequence is at most four bytes, so only the last three can
	// start an incomplete one.
	for i := len(b) - 1; i >= 0 && i >= len(b)-3; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return i
		}
		break
	}
	return len(b)
}
