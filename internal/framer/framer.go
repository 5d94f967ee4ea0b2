// Package framer reassembles a raw serial byte stream, possibly noisy,
// desynchronised, or delivered in arbitrary chunks, into UBX frames and
// NMEA text lines.
package framer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/bramburn/gnssephemeris/internal/ubxframe"
)

// ErrFormat wraps a rejected UBX frame: the bytes were already consumed
// from the stream, so the next call to Next resynchronises from scratch
// rather than re-examining them.
type ErrFormat struct{ Err error }

func (e *ErrFormat) Error() string { return fmt.Sprintf("framer: bad ubx frame: %v", e.Err) }
func (e *ErrFormat) Unwrap() error { return e.Err }

// ErrEncoding means an NMEA line was consumed but was not valid UTF-8.
type ErrEncoding struct{ Err error }

func (e *ErrEncoding) Error() string { return fmt.Sprintf("framer: bad nmea encoding: %v", e.Err) }
func (e *ErrEncoding) Unwrap() error { return e.Err }

// Framer holds an append-only reassembly buffer and drives the resync
// state machine described on Next. It is not safe for concurrent
// use.
type Framer struct {
	buf []byte
}

// New returns an empty Framer.
func New() *Framer {
	return &Framer{}
}

// Ingest appends newly read bytes to the reassembly buffer. It has no
// parsing side effect.
func (f *Framer) Ingest(chunk []byte) {
	f.buf = append(f.buf, chunk...)
}

// Next drives the state machine once. It returns exactly one of:
//
//   - (ubxframe.Frame, nil) — a checksum-valid UBX frame
//   - (string, nil) — a complete, valid-UTF-8 NMEA line including its
//     trailing newline
//   - (nil, *ErrFormat) or (nil, *ErrEncoding) — a malformed item was
//     consumed from the buffer; call Next again to keep draining
//   - (nil, nil) — the buffer is exhausted of recognisable input; call
//     Ingest before calling Next again
//
// Every call either consumes at least one byte, returns an item, or
// returns (nil, nil) because there is nothing left to do without more
// input — it never spins without making progress or reading.
func (f *Framer) Next() (interface{}, error) {
	if !f.sync() {
		return nil, nil
	}
	if f.buf[0] == '$' {
		return f.nextNmea()
	}
	return f.nextUbx()
}

// sync scans for the first recognised prefix ("\xb5\x62" or "$A".."$Z")
// and discards everything before it. If no prefix is found anywhere in
// the buffer it leaves the buffer untouched — the final byte might be a
// 0xB5 awaiting its 0x62, so dropping it would risk losing a frame that
// arrives split across two Ingest calls.
func (f *Framer) sync() bool {
	if len(f.buf) < 2 {
		return false
	}
	for i := 0; i < len(f.buf)-1; i++ {
		if f.buf[i] == 0xB5 && f.buf[i+1] == 0x62 {
			f.buf = f.buf[i:]
			return true
		}
		if f.buf[i] == '$' && f.buf[i+1] >= 'A' && f.buf[i+1] <= 'Z' {
			f.buf = f.buf[i:]
			return true
		}
	}
	return false
}

func (f *Framer) nextNmea() (interface{}, error) {
	idx := bytes.IndexByte(f.buf, '\n')
	if idx < 0 {
		return nil, nil
	}
	line := f.buf[:idx+1]
	f.buf = f.buf[idx+1:]
	if !utf8.Valid(line) {
		return nil, &ErrEncoding{Err: fmt.Errorf("invalid utf-8 in nmea line")}
	}
	return string(line), nil
}

func (f *Framer) nextUbx() (interface{}, error) {
	if len(f.buf) < 8 {
		return nil, nil
	}
	length := int(binary.LittleEndian.Uint16(f.buf[4:6]))
	total := 8 + length
	if len(f.buf) < total {
		return nil, nil
	}
	raw := f.buf[:total]
	f.buf = f.buf[total:]

	frame, err := ubxframe.Decode(raw)
	if err != nil {
		return nil, &ErrFormat{Err: err}
	}
	if err := frame.VerifyChecksum(); err != nil {
		return nil, &ErrFormat{Err: err}
	}
	return frame, nil
}
