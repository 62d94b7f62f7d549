package ptyparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineAssembler_Take(t *testing.T) {
	var a lineAssembler
	now := time.Now()

	a.append([]byte("one\r\ntwo\nthr"), now)
	lines := a.take()
	require.Len(t, lines, 2)
	assert.Equal(t, "one", string(lines[0]))
	assert.Equal(t, "two", string(lines[1]))
	assert.Equal(t, "thr", string(a.tail()))

	a.append([]byte("ee\n\n"), now)
	lines = a.take()
	require.Len(t, lines, 2)
	assert.Equal(t, "three", string(lines[0]))
	assert.Equal(t, "", string(lines[1]))
	assert.Zero(t, a.len())

	// Lines already returned are not overwritten by later appends.
	a.append([]byte("x\n"), now)
	first := a.take()
	a.append([]byte("yyyyyyyy\n"), now)
	assert.Equal(t, "x", string(first[0]))
}

func TestLineAssembler_NoTerminatorKeepsEverything(t *testing.T) {
	var a lineAssembler
	a.append([]byte("partial"), time.Now())
	assert.Nil(t, a.take())
	assert.Equal(t, "partial", string(a.tail()))
}

func TestLineAssembler_Delay(t *testing.T) {
	var a lineAssembler
	start := time.Now()
	interval, maxDelay := 100*time.Millisecond, 500*time.Millisecond

	a.append([]byte("a"), start)
	assert.Equal(t, interval, a.delay(start, interval, maxDelay))
	assert.Equal(t, 50*time.Millisecond, a.delay(start.Add(450*time.Millisecond), interval, maxDelay))
	assert.Equal(t, time.Duration(0), a.delay(start.Add(time.Second), interval, maxDelay))
	assert.Equal(t, interval, a.delay(start.Add(time.Second), interval, 0), "no bound")

	a.take()
	later := start.Add(time.Second)
	a.append([]byte("b"), later)
	assert.Equal(t, interval, a.delay(later, interval, maxDelay), "bound restarts after a flush")
}

func TestCompletePrefix(t *testing.T) {
	euro := []byte("€") // e2 82 ac
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{"ascii", []byte("abc"), 3},
		{"complete", append([]byte("a"), euro...), 4},
		{"one of three", append([]byte("a"), euro[:1]...), 1},
		{"two of three", append([]byte("a"), euro[:2]...), 1},
		{"invalid byte", []byte("a\xff"), 2},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, completePrefix(tt.in))
		})
	}
}

func TestTextDecoder(t *testing.T) {
	d, err := newTextDecoder("")
	require.NoError(t, err)
	assert.Equal(t, "ok\uFFFD", d.decode([]byte("ok\xc3")))
	assert.Equal(t, "ok", d.decodePartial([]byte("ok\xc3")))

	d, err = newTextDecoder("UTF-8")
	require.NoError(t, err)
	assert.Nil(t, d.charset)

	d, err = newTextDecoder("latin1")
	require.NoError(t, err)
	assert.Equal(t, "naïve", d.decode([]byte("na\xefve")))

	_, err = newTextDecoder("no-such-charset")
	assert.Error(t, err)
}
