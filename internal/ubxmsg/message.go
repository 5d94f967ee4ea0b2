// Package ubxmsg implements the typed UBX message codec: a variant per
// recognised (class, id) pair over the raw envelopes from ubxframe, with
// a catch-all Other variant preserving unrecognised frames verbatim.
package ubxmsg

import (
	"fmt"

	"github.com/bramburn/gnssephemeris/internal/ubxframe"
)

// ErrPayload means a recognised (class, id) pair carried a payload of
// the wrong length or with an out-of-range field.
type ErrPayload struct {
	Class, ID byte
	Reason    string
}

func (e *ErrPayload) Error() string {
	return fmt.Sprintf("ubxmsg: bad payload for class=%#02x id=%#02x: %s", e.Class, e.ID, e.Reason)
}

// Message is the tagged union over recognised UBX (class, id) pairs.
// Concrete variants are CfgPrtGet, CfgPrtSetUsb, CfgPrtOther, CfgMsgGet, CfgMsgSetRate,
// CfgMsgSetRatePorts, CfgRate, CfgGnssPoll, CfgGnssSettings, RxmRawx,
// RxmSfrbx, and the catch-all Other.
type Message interface {
	// ClassID returns the (class, id) pair this variant encodes to.
	ClassID() (byte, byte)
	// payload renders the variant-specific payload bytes (not the full
	// envelope — ubxframe adds the sync bytes, length, and checksum).
	payload() []byte
}

// Other preserves a frame whose (class, id) this codec does not
// recognise, verbatim.
type Other struct {
	Raw ubxframe.Frame
}

func (o Other) ClassID() (byte, byte) { return o.Raw.Class(), o.Raw.ID() }
func (o Other) payload() []byte       { return o.Raw.Payload() }

// Encode renders a typed message to its raw UBX frame.
func Encode(m Message) ubxframe.Frame {
	if other, ok := m.(Other); ok {
		return other.Raw
	}
	class, id := m.ClassID()
	return ubxframe.New(class, id, m.payload())
}

type decoder func(payload []byte) (Message, error)

var dispatch = map[[2]byte]decoder{
	{0x06, 0x00}: decodeCfgPrt,
	{0x06, 0x01}: decodeCfgMsg,
	{0x06, 0x08}: decodeCfgRate,
	{0x06, 0x3E}: decodeCfgGnss,
	{0x02, 0x13}: decodeRxmSfrbx,
	{0x02, 0x15}: decodeRxmRawx,
}

// Decode never fails outright: an unrecognised (class, id) yields
// Other(raw), and only a recognised pair with a malformed payload
// returns a non-nil error (of concrete type *ErrPayload).
func Decode(raw ubxframe.Frame) (Message, error) {
	dec, ok := dispatch[[2]byte{raw.Class(), raw.ID()}]
	if !ok {
		return Other{Raw: raw}, nil
	}
	msg, err := dec(raw.Payload())
	if err != nil {
		return nil, err
	}
	return msg, nil
}
