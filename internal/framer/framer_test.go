package framer

import (
	"testing"

	"github.com/bramburn/gnssephemeris/internal/ubxframe"
)

// s2Bytes is scenario S2/S3 from the spec: prefix noise, a valid UBX
// frame (the S1 round-trip fixture), and an NMEA line.
func s2Bytes() []byte {
	return []byte{
		0x00, 0xFF,
		0xB5, 0x62, 0x01, 0x02, 0x04, 0x00, 't', 'e', 's', 't', 0xC7, 0x87,
		'$', 'G', 'P', 'G', 'G', 'A', ',', ',', '\n',
	}
}

func TestFramerResync(t *testing.T) {
	f := New()
	f.Ingest(s2Bytes())

	item, err := f.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	frame, ok := item.(ubxframe.Frame)
	if !ok {
		t.Fatalf("got %T, want ubxframe.Frame", item)
	}
	if frame.Class() != 0x01 || frame.ID() != 0x02 || string(frame.Payload()) != "test" {
		t.Errorf("got %+v", frame)
	}

	item, err = f.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	line, ok := item.(string)
	if !ok || line != "$GPGGA,,\n" {
		t.Fatalf("got %#v, want NMEA line", item)
	}

	item, err = f.Next()
	if item != nil || err != nil {
		t.Fatalf("Next at end of input = (%v, %v), want (nil, nil)", item, err)
	}
}

func TestFramerSplitDelivery(t *testing.T) {
	all := s2Bytes()
	f := New()

	var items []interface{}
	for i := 0; i < len(all); i += 3 {
		end := i + 3
		if end > len(all) {
			end = len(all)
		}
		f.Ingest(all[i:end])
		for {
			item, err := f.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if item == nil {
				break
			}
			items = append(items, item)
		}
	}

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %#v", len(items), items)
	}
	frame, ok := items[0].(ubxframe.Frame)
	if !ok || frame.Class() != 0x01 {
		t.Errorf("item 0 = %#v", items[0])
	}
	line, ok := items[1].(string)
	if !ok || line != "$GPGGA,,\n" {
		t.Errorf("item 1 = %#v", items[1])
	}
}

func TestFramerBadChecksumResyncs(t *testing.T) {
	f := New()
	bad := []byte{0xB5, 0x62, 0x01, 0x02, 0x04, 0x00, 't', 'e', 's', 't', 0x00, 0x00}
	good := []byte{0xB5, 0x62, 0x01, 0x02, 0x04, 0x00, 't', 'e', 's', 't', 0xC7, 0x87}
	f.Ingest(append(append([]byte{}, bad...), good...))

	item, err := f.Next()
	if item != nil {
		t.Fatalf("got item %#v for bad checksum, want nil", item)
	}
	if _, ok := err.(*ErrFormat); !ok {
		t.Fatalf("err = %v, want *ErrFormat", err)
	}

	item, err = f.Next()
	if err != nil {
		t.Fatalf("Next after resync: %v", err)
	}
	frame, ok := item.(ubxframe.Frame)
	if !ok || frame.Class() != 0x01 {
		t.Fatalf("got %#v, want recovered frame", item)
	}
}

func TestFramerNoPrefixWaitsForMoreInput(t *testing.T) {
	f := New()
	f.Ingest([]byte{0x00, 0x01, 0x02, 0x03})
	item, err := f.Next()
	if item != nil || err != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", item, err)
	}
}

func TestFramerPartialSyncAwaitsSecondByte(t *testing.T) {
	f := New()
	f.Ingest([]byte{0xB5})
	item, err := f.Next()
	if item != nil || err != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", item, err)
	}
	f.Ingest([]byte{0x62, 0x01, 0x02, 0x04, 0x00, 't', 'e', 's', 't', 0xC7, 0x87})
	item, err = f.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, ok := item.(ubxframe.Frame); !ok {
		t.Fatalf("got %#v, want ubxframe.Frame", item)
	}
}

func TestFramerMalformedNmeaUtf8(t *testing.T) {
	f := New()
	f.Ingest([]byte{'$', 'G', 0xFF, 0xFE, '\n'})
	item, err := f.Next()
	if item != nil {
		t.Fatalf("got item %#v, want nil", item)
	}
	if _, ok := err.(*ErrEncoding); !ok {
		t.Fatalf("err = %v, want *ErrEncoding", err)
	}
}
