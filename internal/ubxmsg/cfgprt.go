package ubxmsg

import "encoding/binary"

// USB in/out protocol mask bits (CFG-PRT, port 3 = USB).
const (
	PrtInUBX   uint16 = 0x01
	PrtInNMEA  uint16 = 0x02
	PrtInRTCM  uint16 = 0x04
	PrtInRTCM3 uint16 = 0x20

	PrtOutUBX   uint16 = 0x01
	PrtOutNMEA  uint16 = 0x02
	PrtOutRTCM3 uint16 = 0x20
)

const usbPortID = 3

// CfgPrtGet polls the configuration of a single port (1-byte payload).
type CfgPrtGet struct {
	PortID byte
}

func (m CfgPrtGet) ClassID() (byte, byte) { return 0x06, 0x00 }
func (m CfgPrtGet) payload() []byte       { return []byte{m.PortID} }

// CfgPrtSetUsb configures the USB port's in/out protocol masks
// (20-byte payload, port_id fixed at 3). A 20-byte configuration for
// any other port is not decoded further: it decodes to CfgPrtOther, not
// to an error.
type CfgPrtSetUsb struct {
	InMask, OutMask uint16
}

func (m CfgPrtSetUsb) ClassID() (byte, byte) { return 0x06, 0x00 }

func (m CfgPrtSetUsb) payload() []byte {
	p := make([]byte, 20)
	p[0] = usbPortID
	binary.LittleEndian.PutUint16(p[12:14], m.InMask)
	binary.LittleEndian.PutUint16(p[14:16], m.OutMask)
	return p
}

// CfgPrtOther is a 20-byte port configuration for a port this codec does
// not decode further (anything but USB). It is not an error — the port
// simply isn't one this codec has a typed decoder for.
type CfgPrtOther struct {
	PortID byte
	Raw    []byte
}

func (m CfgPrtOther) ClassID() (byte, byte) { return 0x06, 0x00 }
func (m CfgPrtOther) payload() []byte       { return m.Raw }

func decodeCfgPrt(payload []byte) (Message, error) {
	switch len(payload) {
	case 1:
		return CfgPrtGet{PortID: payload[0]}, nil
	case 20:
		if payload[0] != usbPortID {
			return CfgPrtOther{PortID: payload[0], Raw: append([]byte(nil), payload...)}, nil
		}
		return CfgPrtSetUsb{
			InMask:  binary.LittleEndian.Uint16(payload[12:14]),
			OutMask: binary.LittleEndian.Uint16(payload[14:16]),
		}, nil
	default:
		return nil, &ErrPayload{Class: 0x06, ID: 0x00, Reason: "expected 1 or 20 bytes"}
	}
}
