package ubxmsg

import (
	"testing"

	"github.com/bramburn/gnssephemeris/internal/ubxframe"
)

func roundTrip(t *testing.T, m Message) Message {
	t.Helper()
	frame := Encode(m)
	got, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestCfgPrtRoundTrip(t *testing.T) {
	got := roundTrip(t, CfgPrtGet{PortID: 3})
	if v, ok := got.(CfgPrtGet); !ok || v.PortID != 3 {
		t.Errorf("got %+v", got)
	}

	got = roundTrip(t, CfgPrtSetUsb{InMask: PrtInUBX, OutMask: PrtOutUBX | PrtOutNMEA})
	v, ok := got.(CfgPrtSetUsb)
	if !ok || v.InMask != PrtInUBX || v.OutMask != PrtOutUBX|PrtOutNMEA {
		t.Errorf("got %+v", got)
	}
}

func TestCfgPrtOtherPortNotAnError(t *testing.T) {
	raw := ubxframe.New(0x06, 0x00, make([]byte, 20)) // port_id = 0 (UART)
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	other, ok := msg.(CfgPrtOther)
	if !ok {
		t.Fatalf("got %T, want CfgPrtOther", msg)
	}
	if other.PortID != 0 || len(other.Raw) != 20 {
		t.Errorf("got %+v", other)
	}
}

func TestCfgPrtBadLength(t *testing.T) {
	raw := ubxframe.New(0x06, 0x00, make([]byte, 5))
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected ErrPayload")
	}
}

func TestCfgMsgRoundTrip(t *testing.T) {
	got := roundTrip(t, CfgMsgGet{Class: 0x02, ID: 0x15})
	if v, ok := got.(CfgMsgGet); !ok || v.Class != 0x02 || v.ID != 0x15 {
		t.Errorf("got %+v", got)
	}

	got = roundTrip(t, CfgMsgSetRate{Class: 0x02, ID: 0x15, Rate: 1})
	if v, ok := got.(CfgMsgSetRate); !ok || v.Rate != 1 {
		t.Errorf("got %+v", got)
	}

	got = roundTrip(t, CfgMsgSetRatePorts{Class: 0x02, ID: 0x15, Rate: [6]byte{0, 1, 0, 0, 0, 0}})
	if v, ok := got.(CfgMsgSetRatePorts); !ok || v.Rate[1] != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestCfgRateRoundTrip(t *testing.T) {
	got := roundTrip(t, CfgRate{MeasRateMS: 1000, NavCycles: 1, TimeRef: TimeRefGPS})
	v, ok := got.(CfgRate)
	if !ok || v.MeasRateMS != 1000 || v.TimeRef != TimeRefGPS {
		t.Errorf("got %+v", got)
	}
}

func TestCfgRateBadTimeRef(t *testing.T) {
	raw := ubxframe.New(0x06, 0x08, []byte{0xE8, 0x03, 0x01, 0x00, 0x09, 0x00})
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected ErrPayload for out-of-range time_ref")
	}
}

func TestCfgGnssRoundTrip(t *testing.T) {
	got := roundTrip(t, CfgGnssPoll{})
	if _, ok := got.(CfgGnssPoll); !ok {
		t.Errorf("got %T, want CfgGnssPoll", got)
	}

	settings := CfgGnssSettings{
		Version:     0,
		NumTrkChHw:  32,
		NumTrkChUse: 32,
		Blocks: []CfgGnssBlock{
			{GnssID: GnssGPS, ResTrkCh: 8, MaxTrkCh: 16, Enabled: true, Flags: GpsFlagL1CA},
			{GnssID: GnssGalileo, ResTrkCh: 0, MaxTrkCh: 8, Enabled: false, Flags: 0xFFFF},
		},
	}
	got = roundTrip(t, settings)
	v, ok := got.(CfgGnssSettings)
	if !ok || len(v.Blocks) != 2 {
		t.Fatalf("got %+v", got)
	}
	if v.Blocks[0].GnssID != GnssGPS || v.Blocks[0].Flags != GpsFlagL1CA {
		t.Errorf("block 0 = %+v", v.Blocks[0])
	}
	// non-GPS flags are opaque and round-trip to zero.
	if v.Blocks[1].Flags != 0 {
		t.Errorf("block 1 flags = %#x, want 0", v.Blocks[1].Flags)
	}
}

func TestDecodeUnrecognisedIsOther(t *testing.T) {
	raw := ubxframe.New(0x0A, 0x04, []byte{1, 2, 3})
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	other, ok := msg.(Other)
	if !ok {
		t.Fatalf("got %T, want Other", msg)
	}
	if other.Raw.Class() != 0x0A || other.Raw.ID() != 0x04 {
		t.Errorf("got %+v", other.Raw)
	}
}
