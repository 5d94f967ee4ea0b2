// Package ubxframe implements the bit-exact UBX binary envelope: the
// 0xB5 0x62-prefixed frame carrying a (class, id) pair, a length-prefixed
// payload, and a two-byte Fletcher-8 checksum.
package ubxframe

import (
	"encoding/binary"
	"fmt"
)

const (
	syncChar1 = 0xB5
	syncChar2 = 0x62

	// headerLen is the sync bytes + class + id + length fields.
	headerLen = 6
	// envelopeOverhead is headerLen plus the two checksum bytes.
	envelopeOverhead = headerLen + 2
)

// ErrHeader means the first two bytes were not the UBX sync sequence.
var ErrHeader = fmt.Errorf("ubxframe: bad sync bytes, expected %#02x %#02x", syncChar1, syncChar2)

// ErrTruncated means fewer bytes were supplied than the announced length requires.
var ErrTruncated = fmt.Errorf("ubxframe: truncated frame")

// ErrChecksum means the stored checksum did not match the recomputed one.
type ErrChecksum struct {
	Want, Got [2]byte
}

func (e *ErrChecksum) Error() string {
	return fmt.Sprintf("ubxframe: checksum mismatch: frame has %02x%02x, computed %02x%02x",
		e.Want[0], e.Want[1], e.Got[0], e.Got[1])
}

// Frame is an immutable UBX message envelope. The zero value is not a
// valid frame; use New or Decode.
type Frame struct {
	class, id byte
	payload   []byte
	checksum  [2]byte
}

// New builds a Frame and recomputes its checksum from class, id, and
// payload, so the result is always self-consistent.
func New(class, id byte, payload []byte) Frame {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return Frame{
		class:    class,
		id:       id,
		payload:  buf,
		checksum: fletcher8(class, id, buf),
	}
}

func (f Frame) Class() byte      { return f.class }
func (f Frame) ID() byte         { return f.id }
func (f Frame) Payload() []byte  { return f.payload }
func (f Frame) Checksum() [2]byte { return f.checksum }

// Encode renders the frame to its on-wire form:
// B5 62 class id len_lo len_hi payload ck_a ck_b.
func (f Frame) Encode() []byte {
	out := make([]byte, envelopeOverhead+len(f.payload))
	out[0] = syncChar1
	out[1] = syncChar2
	out[2] = f.class
	out[3] = f.id
	binary.LittleEndian.PutUint16(out[4:6], uint16(len(f.payload)))
	copy(out[headerLen:], f.payload)
	out[len(out)-2] = f.checksum[0]
	out[len(out)-1] = f.checksum[1]
	return out
}

// Decode parses a complete on-wire frame. It requires at least 8 bytes,
// the UBX sync sequence, and enough bytes to cover the announced payload
// length; it does not itself verify the checksum (that is the framer's
// job once a frame of known length has been isolated — see package
// framer), but VerifyChecksum below is available for callers who want it.
func Decode(b []byte) (Frame, error) {
	if len(b) < envelopeOverhead {
		return Frame{}, ErrTruncated
	}
	if b[0] != syncChar1 || b[1] != syncChar2 {
		return Frame{}, ErrHeader
	}
	length := int(binary.LittleEndian.Uint16(b[4:6]))
	if len(b) < envelopeOverhead+length {
		return Frame{}, ErrTruncated
	}
	class, id := b[2], b[3]
	payload := b[headerLen : headerLen+length]
	f := New(class, id, payload)
	f.checksum = [2]byte{b[headerLen+length], b[headerLen+length+1]}
	return f, nil
}

// VerifyChecksum recomputes the Fletcher-8 checksum from class, id, and
// payload and compares it against the stored checksum, returning
// *ErrChecksum on mismatch.
func (f Frame) VerifyChecksum() error {
	want := fletcher8(f.class, f.id, f.payload)
	if want != f.checksum {
		return &ErrChecksum{Want: f.checksum, Got: want}
	}
	return nil
}

// fletcher8 computes the two wrapping 8-bit accumulators over class, id,
// the little-endian length, and the payload bytes.
func fletcher8(class, id byte, payload []byte) [2]byte {
	var a, b byte
	consume := func(x byte) {
		a += x
		b += a
	}
	consume(class)
	consume(id)
	length := uint16(len(payload))
	consume(byte(length))
	consume(byte(length >> 8))
	for _, x := range payload {
		consume(x)
	}
	return [2]byte{a, b}
}
