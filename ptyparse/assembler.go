package ptyparse

import (
	"bytes"
	"time"
)

// lineAssembler buffers raw bytes and splits them into lines. Bytes are
// only decoded once a line is complete, so a multi-byte character split
// across writes is never corrupted.
type lineAssembler struct {
	pendingSince time.Time
	buf          []byte
}

// append adds p to the buffer, remembering when the oldest unflushed byte
// arrived.
func (a *lineAssembler) append(p []byte, now time.Time) {
	if a.pendingSince.IsZero() {
		a.pendingSince = now
	}
	a.buf = append(a.buf, p...)
}

// delay returns how long to wait before flushing: the debounce interval,
// shortened so that no byte waits longer than maxDelay.
func (a *lineAssembler) delay(now time.Time, interval, maxDelay time.Duration) time.Duration {
	if a.pendingSince.IsZero() || maxDelay <= 0 {
		return interval
	}
	remaining := a.pendingSince.Add(maxDelay).Sub(now)
	if remaining < 0 {
		return 0
	}
	if remaining < interval {
		return remaining
	}
	return interval
}

// take removes and returns the complete lines, without their terminators.
// The unterminated tail stays buffered.
func (a *lineAssembler) take() [][]byte {
	a.pendingSince = time.Time{}
	end := bytes.LastIndexByte(a.buf, '\n')
	if end < 0 {
		return nil
	}
	complete := bytes.Split(a.buf[:end], []byte{'\n'})
	for i, line := range complete {
		complete[i] = bytes.TrimSuffix(line, []byte{'\r'})
	}
	// Copy the tail so later appends never write into the returned lines.
	a.buf = append([]byte(nil), a.buf[end+1:]...)
	return complete
}

// tail returns the unterminated bytes, which may be empty.
func (a *lineAssembler) tail() []byte {
	return a.buf
}

// len returns the number of buffered bytes.
func (a *lineAssembler) len() int {
	return len(a.buf)
}

func (a *lineAssembler) reset() {
	a.buf = nil
	a.pendingSince = time.Time{}
}
