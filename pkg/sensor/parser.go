// Package sensor decodes distance readings from serial LiDAR sensors and
// feeds them into the poll loop.
package sensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Reading is one decoded distance sample.
type Reading struct {
	Channel  int
	Distance int
	Strength int
}

// FrameParser decodes a byte stream one byte at a time.
type FrameParser interface {
	// Parse consumes one byte and returns a reading when a frame completes.
	Parse(b byte) (Reading, bool)
}

// Formats.
const (
	FormatTFmini = "tfmini"
	FormatASCII  = "ascii"
)

// NewParser creates a FrameParser for format.
func NewParser(format string) (FrameParser, error) {
	switch format {
	case "", FormatTFmini:
		return &TFminiParser{}, nil
	case FormatASCII:
		return &ASCIIParser{}, nil
	}
	return nil, fmt.Errorf("unknown sensor format %q", format)
}

const (
	tfminiHeader    byte = 0x59
	tfminiFrameSize      = 9
)

type tfminiState int

const (
	tfminiHeader1 tfminiState = iota // waiting for first 0x59
	tfminiHeader2                    // waiting for second 0x59
	tfminiPayload                    // collecting the rest of the frame
)

// TFminiParser decodes the 9 byte TFmini frame:
// 0x59 0x59 distL distH strengthL strengthH tempL tempH checksum,
// where checksum is the low byte of the sum of the first 8 bytes.
type TFminiParser struct {
	// BadFrames counts frames dropped on checksum mismatch.
	BadFrames int

	state tfminiState
	frame [tfminiFrameSize]byte
	size  int
}

// Parse implements FrameParser.
func (p *TFminiParser) Parse(b byte) (r Reading, ok bool) {
	switch p.state {
	case tfminiHeader1:
		if b == tfminiHeader {
			p.state = tfminiHeader2
		}
	case tfminiHeader2:
		if b != tfminiHeader {
			p.state = tfminiHeader1
			return
		}
		p.frame[0], p.frame[1], p.size = tfminiHeader, tfminiHeader, 2
		p.state = tfminiPayload
	case tfminiPayload:
		p.frame[p.size] = b
		p.size++
		if p.size < tfminiFrameSize {
			return
		}
		var sum byte
		for _, c := range p.frame[:tfminiFrameSize-1] {
			sum += c
		}
		if sum != p.frame[tfminiFrameSize-1] {
			p.BadFrames++
			p.resync()
			return
		}
		p.state = tfminiHeader1
		r.Distance = int(p.frame[2]) | int(p.frame[3])<<8
		r.Strength = int(p.frame[4]) | int(p.frame[5])<<8
		return r, true
	}
	return
}

// resync drops a bad frame, keeping the bytes from the next header
// candidate on.
func (p *TFminiParser) resync() {
	for i := 1; i < tfminiFrameSize; i++ {
		if p.frame[i] != tfminiHeader {
			continue
		}
		if i+1 < tfminiFrameSize && p.frame[i+1] != tfminiHeader {
			continue
		}
		if p.size = copy(p.frame[:], p.frame[i:]); p.size == 1 {
			p.state = tfminiHeader2
		} else {
			p.state = tfminiPayload
		}
		return
	}
	p.state, p.size = tfminiHeader1, 0
}

// EncodeTFmini builds a TFmini frame, used by simulators and tests.
func EncodeTFmini(distance, strength int) []byte {
	frame := []byte{
		tfminiHeader, tfminiHeader,
		byte(distance), byte(distance >> 8),
		byte(strength), byte(strength >> 8),
		0, 0, 0,
	}
	var sum byte
	for _, c := range frame[:tfminiFrameSize-1] {
		sum += c
	}
	frame[tfminiFrameSize-1] = sum
	return frame
}

const maxASCIILine = 64

// ASCIIParser decodes newline terminated lines whose first field is a
// decimal distance and optional second field a strength. Other lines are
// dropped.
type ASCIIParser struct {
	line []byte
}

// Parse implements FrameParser.
func (p *ASCIIParser) Parse(b byte) (r Reading, ok bool) {
	if b != '\n' {
		if len(p.line) < maxASCIILine {
			p.line = append(p.line, b)
		}
		return
	}
	fields := strings.Fields(string(p.line))
	p.line = p.line[:0]
	if len(fields) == 0 {
		return
	}
	dist, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}
	r.Distance = dist
	if len(fields) > 1 {
		r.Strength, _ = strconv.Atoi(fields[1])
	}
	return r, true
}
