package ubxmsg

// CfgMsgGet polls the current rate of a (class, id) message (2-byte payload).
type CfgMsgGet struct {
	Class, ID byte
}

func (m CfgMsgGet) ClassID() (byte, byte) { return 0x06, 0x01 }
func (m CfgMsgGet) payload() []byte       { return []byte{m.Class, m.ID} }

// CfgMsgSetRate sets the output rate of a (class, id) message on the
// current port (3-byte payload).
type CfgMsgSetRate struct {
	Class, ID byte
	Rate      byte
}

func (m CfgMsgSetRate) ClassID() (byte, byte) { return 0x06, 0x01 }
func (m CfgMsgSetRate) payload() []byte       { return []byte{m.Class, m.ID, m.Rate} }

// CfgMsgSetRatePorts sets per-port output rates for a (class, id)
// message across all six UBX I/O ports (8-byte payload).
type CfgMsgSetRatePorts struct {
	Class, ID byte
	Rate      [6]byte
}

func (m CfgMsgSetRatePorts) ClassID() (byte, byte) { return 0x06, 0x01 }

func (m CfgMsgSetRatePorts) payload() []byte {
	p := []byte{m.Class, m.ID}
	return append(p, m.Rate[:]...)
}

func decodeCfgMsg(payload []byte) (Message, error) {
	switch len(payload) {
	case 2:
		return CfgMsgGet{Class: payload[0], ID: payload[1]}, nil
	case 3:
		return CfgMsgSetRate{Class: payload[0], ID: payload[1], Rate: payload[2]}, nil
	case 8:
		var rate [6]byte
		copy(rate[:], payload[2:8])
		return CfgMsgSetRatePorts{Class: payload[0], ID: payload[1], Rate: rate}, nil
	default:
		return nil, &ErrPayload{Class: 0x06, ID: 0x01, Reason: "expected 2, 3 or 8 bytes"}
	}
}
