package ubxmsg

import "encoding/binary"

// TimeRef selects the time base for the navigation epoch.
type TimeRef uint16

const (
	TimeRefUTC     TimeRef = 0
	TimeRefGPS     TimeRef = 1
	TimeRefGlonass TimeRef = 2
	TimeRefBeiDou  TimeRef = 3
	TimeRefGalileo TimeRef = 4
)

// CfgRate sets the navigation epoch rate (6-byte payload).
type CfgRate struct {
	MeasRateMS  uint16
	NavCycles   uint16
	TimeRef     TimeRef
}

func (m CfgRate) ClassID() (byte, byte) { return 0x06, 0x08 }

func (m CfgRate) payload() []byte {
	p := make([]byte, 6)
	binary.LittleEndian.PutUint16(p[0:2], m.MeasRateMS)
	binary.LittleEndian.PutUint16(p[2:4], m.NavCycles)
	binary.LittleEndian.PutUint16(p[4:6], uint16(m.TimeRef))
	return p
}

func decodeCfgRate(payload []byte) (Message, error) {
	if len(payload) != 6 {
		return nil, &ErrPayload{Class: 0x06, ID: 0x08, Reason: "expected 6 bytes"}
	}
	timeRef := TimeRef(binary.LittleEndian.Uint16(payload[4:6]))
	if timeRef > TimeRefGalileo {
		return nil, &ErrPayload{Class: 0x06, ID: 0x08, Reason: "time_ref out of range 0..4"}
	}
	return CfgRate{
		MeasRateMS: binary.LittleEndian.Uint16(payload[0:2]),
		NavCycles:  binary.LittleEndian.Uint16(payload[2:4]),
		TimeRef:    timeRef,
	}, nil
}
