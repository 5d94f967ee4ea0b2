package ubxmsg

import (
	"encoding/binary"
	"math"

	"github.com/bramburn/gnssephemeris/internal/lnav"
)

// RecvStatus is the RXM-RAWX receiver status bitset.
type RecvStatus byte

const (
	RecvStatusLeapSec  RecvStatus = 0x01
	RecvStatusClkReset RecvStatus = 0x02
)

// TrkStatus is the per-measurement tracking status bitset.
type TrkStatus byte

const (
	TrkStatusPRValid     TrkStatus = 0x01
	TrkStatusCPValid     TrkStatus = 0x02
	TrkStatusHalfCyc     TrkStatus = 0x04
	TrkStatusSubHalfCyc  TrkStatus = 0x08
)

// carrierPhaseStdevInvalid is the sentinel byte meaning "no carrier
// phase standard deviation reported".
const carrierPhaseStdevInvalid = 15

// Measurement is one satellite's raw pseudorange observation within an
// RXM-RAWX epoch.
type Measurement struct {
	Pseudorange        float64
	CarrierPhase       float64
	Doppler            float32
	GnssID             GnssID
	SVID               byte
	FreqID             byte
	Locktime           uint16
	Cno                byte
	PseudorangeStdev   float32
	CarrierPhaseStdev  float32 // meaningful only when CarrierPhaseValid is true
	CarrierPhaseValid  bool
	DopplerStdev       float32
	TrkStatus          TrkStatus
}

func encodeLogStdev(stdev, step float32) byte {
	if stdev <= 0 {
		return 0
	}
	n := int(math.Round(math.Log2(float64(stdev / step))))
	if n < 0 {
		n = 0
	}
	if n > 15 {
		n = 15
	}
	return byte(n)
}

func (m Measurement) encode() []byte {
	out := make([]byte, 32)
	binary.LittleEndian.PutUint64(out[0:8], math.Float64bits(m.Pseudorange))
	binary.LittleEndian.PutUint64(out[8:16], math.Float64bits(m.CarrierPhase))
	binary.LittleEndian.PutUint32(out[16:20], math.Float32bits(m.Doppler))
	out[20] = byte(m.GnssID)
	out[21] = m.SVID
	out[23] = m.FreqID
	binary.LittleEndian.PutUint16(out[24:26], m.Locktime)
	out[26] = m.Cno
	out[27] = encodeLogStdev(m.PseudorangeStdev, 0.01)
	if m.CarrierPhaseValid {
		out[28] = byte(math.Round(float64(m.CarrierPhaseStdev / 0.004)))
	} else {
		out[28] = carrierPhaseStdevInvalid
	}
	out[29] = encodeLogStdev(m.DopplerStdev, 0.002)
	out[30] = byte(m.TrkStatus)
	return out
}

func decodeMeasurement(b []byte) (Measurement, error) {
	prStdevByte := b[27]
	if prStdevByte >= 16 {
		return Measurement{}, &ErrPayload{Class: 0x02, ID: 0x15, Reason: "invalid pseudorange stdev"}
	}
	doStdevByte := b[29]
	if doStdevByte >= 16 {
		return Measurement{}, &ErrPayload{Class: 0x02, ID: 0x15, Reason: "invalid doppler stdev"}
	}
	cpStdevByte := b[28]
	if cpStdevByte > carrierPhaseStdevInvalid {
		return Measurement{}, &ErrPayload{Class: 0x02, ID: 0x15, Reason: "invalid carrier phase stdev"}
	}

	m := Measurement{
		Pseudorange:      math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])),
		CarrierPhase:     math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
		Doppler:          math.Float32frombits(binary.LittleEndian.Uint32(b[16:20])),
		GnssID:           GnssID(b[20]),
		SVID:             b[21],
		FreqID:           b[23],
		Locktime:         binary.LittleEndian.Uint16(b[24:26]),
		Cno:              b[26],
		PseudorangeStdev: float32(math.Pow(2, float64(prStdevByte))) * 0.01,
		DopplerStdev:     float32(math.Pow(2, float64(doStdevByte))) * 0.002,
		TrkStatus:        TrkStatus(b[30]),
	}
	if cpStdevByte == carrierPhaseStdevInvalid {
		m.CarrierPhaseValid = false
	} else {
		m.CarrierPhaseValid = true
		m.CarrierPhaseStdev = float32(float64(cpStdevByte) * 0.004)
	}
	return m, nil
}

// RxmRawx is one epoch of raw measurement data (16-byte header + 32
// bytes per measurement).
type RxmRawx struct {
	RcvTow       float64
	Week         uint16
	LeapSec      int8
	RecvStatus   RecvStatus
	Measurements []Measurement
}

func (m RxmRawx) ClassID() (byte, byte) { return 0x02, 0x15 }

func (m RxmRawx) payload() []byte {
	out := make([]byte, 16, 16+32*len(m.Measurements))
	binary.LittleEndian.PutUint64(out[0:8], math.Float64bits(m.RcvTow))
	binary.LittleEndian.PutUint16(out[8:10], m.Week)
	out[10] = byte(m.LeapSec)
	out[11] = byte(len(m.Measurements))
	out[12] = byte(m.RecvStatus)
	for _, meas := range m.Measurements {
		out = append(out, meas.encode()...)
	}
	return out
}

func decodeRxmRawx(payload []byte) (Message, error) {
	if len(payload) < 16 || (len(payload)-16)%32 != 0 {
		return nil, &ErrPayload{Class: 0x02, ID: 0x15, Reason: "expected 16+32*N bytes"}
	}
	numMeas := int(payload[11])
	if 16+32*numMeas != len(payload) {
		return nil, &ErrPayload{Class: 0x02, ID: 0x15, Reason: "num_meas does not match payload length"}
	}

	measurements := make([]Measurement, 0, numMeas)
	for i := 0; i < numMeas; i++ {
		start := 16 + 32*i
		meas, err := decodeMeasurement(payload[start : start+32])
		if err != nil {
			return nil, err
		}
		measurements = append(measurements, meas)
	}

	return RxmRawx{
		RcvTow:       math.Float64frombits(binary.LittleEndian.Uint64(payload[0:8])),
		Week:         binary.LittleEndian.Uint16(payload[8:10]),
		LeapSec:      int8(payload[10]),
		RecvStatus:   RecvStatus(payload[12]),
		Measurements: measurements,
	}, nil
}

// RxmSfrbxData is the tagged union over the per-constellation RXM-SFRBX
// inner data payload.
type RxmSfrbxData interface {
	isRxmSfrbxData()
}

// RxmSfrbxDataGPS is the decoded GPS LNAV navigation data carried by a
// GPS RXM-SFRBX message.
type RxmSfrbxDataGPS struct {
	Nav lnav.NavData
}

func (RxmSfrbxDataGPS) isRxmSfrbxData() {}

// RxmSfrbxDataOther holds the raw word bytes for a non-GPS constellation;
// decoding them is out of scope.
type RxmSfrbxDataOther struct {
	Raw []byte
}

func (RxmSfrbxDataOther) isRxmSfrbxData() {}

// RxmSfrbx is one broadcast navigation subframe from a single satellite.
type RxmSfrbx struct {
	GnssID  GnssID
	SVID    byte
	FreqID  byte
	Version byte
	Data    RxmSfrbxData
}

func (m RxmSfrbx) ClassID() (byte, byte) { return 0x02, 0x13 }

func (m RxmSfrbx) payload() []byte {
	var inner []byte
	switch d := m.Data.(type) {
	case RxmSfrbxDataGPS:
		inner = encodeLnav(d.Nav)
	case RxmSfrbxDataOther:
		inner = d.Raw
	}
	numWords := byte(len(inner) / 4)

	out := make([]byte, 8, 8+len(inner))
	out[0] = byte(m.GnssID)
	out[1] = m.SVID
	out[3] = m.FreqID
	out[4] = numWords
	out[6] = m.Version
	out = append(out, inner...)
	return out
}

func decodeRxmSfrbx(payload []byte) (Message, error) {
	if len(payload) < 8 {
		return nil, &ErrPayload{Class: 0x02, ID: 0x13, Reason: "expected at least 8 bytes"}
	}
	gnssID := GnssID(payload[0])
	numWords := int(payload[4])
	if 8+4*numWords != len(payload) {
		return nil, &ErrPayload{Class: 0x02, ID: 0x13, Reason: "num_words does not match payload length"}
	}

	inner := payload[8:]
	var data RxmSfrbxData
	if gnssID == GnssGPS {
		nav, err := lnav.Decode(inner)
		if err != nil {
			return nil, &ErrPayload{Class: 0x02, ID: 0x13, Reason: err.Error()}
		}
		data = RxmSfrbxDataGPS{Nav: nav}
	} else {
		data = RxmSfrbxDataOther{Raw: append([]byte(nil), inner...)}
	}

	return RxmSfrbx{
		GnssID:  gnssID,
		SVID:    payload[1],
		FreqID:  payload[3],
		Version: payload[6],
		Data:    data,
	}, nil
}

// encodeLnav renders a decoded NavData back to its 40-byte GPS wire
// payload. Only the TLM/HOW words carry real field data on encode; the
// subframe body words are not re-derived, since nothing in this codec
// ever needs to resynthesize a subframe's parity-shifted bits.
func encodeLnav(nav lnav.NavData) []byte {
	var subframeID uint32
	switch nav.Subframe.(type) {
	case lnav.Subframe1:
		subframeID = 1
	case lnav.Subframe2:
		subframeID = 2
	case lnav.Subframe3:
		subframeID = 3
	case lnav.Subframe4:
		subframeID = 4
	case lnav.Subframe5:
		subframeID = 5
	}

	tlmWord := (uint32(0x8B)<<16 | uint32(nav.TLMMessage)<<2) << 6
	if nav.IntegrityBit {
		tlmWord |= 2 << 6
	}

	howWord := (nav.TOW << 7) << 6
	howWord |= (subframeID << 2) << 6
	if nav.AntiSpoof {
		howWord |= 32 << 6
	}
	if nav.Alert {
		howWord |= 64 << 6
	}

	out := make([]byte, 40)
	binary.LittleEndian.PutUint32(out[0:4], tlmWord)
	binary.LittleEndian.PutUint32(out[4:8], howWord)
	return out
}
