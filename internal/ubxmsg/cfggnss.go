package ubxmsg

import "encoding/binary"

// GnssID identifies a GNSS constellation in a CFG-GNSS block.
type GnssID byte

const (
	GnssGPS     GnssID = 0
	GnssSBAS    GnssID = 1
	GnssGalileo GnssID = 2
	GnssBeiDou  GnssID = 3
	GnssIMES    GnssID = 4
	GnssQZSS    GnssID = 5
	GnssGlonass GnssID = 6
)

// GPS signal flags bitset within a CFG-GNSS block's 16-bit flags field.
const (
	GpsFlagL1CA uint16 = 0x01
	GpsFlagL2C  uint16 = 0x10
	GpsFlagL5   uint16 = 0x20
)

// CfgGnssBlock is one 8-byte per-constellation tracking-channel
// allocation block. Flags is the GPS signal bitset for GnssID ==
// GnssGPS; for every other constellation it is opaque and this codec
// round-trips it as zero, per spec.md §9 open question 4 — decoding
// non-GPS signal flags is out of scope.
type CfgGnssBlock struct {
	GnssID     GnssID
	ResTrkCh   byte
	MaxTrkCh   byte
	Enabled    bool
	Flags      uint16
}

func (b CfgGnssBlock) encode() []byte {
	out := make([]byte, 8)
	out[0] = byte(b.GnssID)
	out[1] = b.ResTrkCh
	out[2] = b.MaxTrkCh
	if b.Enabled {
		out[4] = 1
	}
	flags := b.Flags
	if b.GnssID != GnssGPS {
		flags = 0
	}
	binary.LittleEndian.PutUint16(out[6:8], flags)
	return out
}

func decodeCfgGnssBlock(b []byte) (CfgGnssBlock, error) {
	enabled := b[4]
	if enabled != 0 && enabled != 1 {
		return CfgGnssBlock{}, &ErrPayload{Class: 0x06, ID: 0x3E, Reason: "block enabled must be 0 or 1"}
	}
	flags := binary.LittleEndian.Uint16(b[6:8])
	gnssID := GnssID(b[0])
	if gnssID != GnssGPS {
		flags = 0
	}
	return CfgGnssBlock{
		GnssID:   gnssID,
		ResTrkCh: b[1],
		MaxTrkCh: b[2],
		Enabled:  enabled == 1,
		Flags:    flags,
	}, nil
}

// CfgGnssPoll requests the current GNSS configuration (0-byte payload).
type CfgGnssPoll struct{}

func (m CfgGnssPoll) ClassID() (byte, byte) { return 0x06, 0x3E }
func (m CfgGnssPoll) payload() []byte       { return nil }

// CfgGnssSettings is the full GNSS configuration: a 4-byte header
// followed by one 8-byte block per tracked constellation.
type CfgGnssSettings struct {
	Version      byte
	NumTrkChHw   byte
	NumTrkChUse  byte
	Blocks       []CfgGnssBlock
}

func (m CfgGnssSettings) ClassID() (byte, byte) { return 0x06, 0x3E }

func (m CfgGnssSettings) payload() []byte {
	out := []byte{m.Version, m.NumTrkChHw, m.NumTrkChUse, byte(len(m.Blocks))}
	for _, b := range m.Blocks {
		out = append(out, b.encode()...)
	}
	return out
}

func decodeCfgGnss(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return CfgGnssPoll{}, nil
	}
	if len(payload) < 4 || (len(payload)-4)%8 != 0 {
		return nil, &ErrPayload{Class: 0x06, ID: 0x3E, Reason: "expected 0 or 4+8*N bytes"}
	}
	numBlocks := int(payload[3])
	if 4+8*numBlocks != len(payload) {
		return nil, &ErrPayload{Class: 0x06, ID: 0x3E, Reason: "num_blocks does not match payload length"}
	}
	blocks := make([]CfgGnssBlock, 0, numBlocks)
	for i := 0; i < numBlocks; i++ {
		start := 4 + 8*i
		block, err := decodeCfgGnssBlock(payload[start : start+8])
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return CfgGnssSettings{
		Version:     payload[0],
		NumTrkChHw:  payload[1],
		NumTrkChUse: payload[2],
		Blocks:      blocks,
	}, nil
}
