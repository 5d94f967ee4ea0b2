package device

import (
	"errors"
	"testing"
	"time"

	"go.bug.st/serial/enumerator"
)

type fakeSerialPort struct {
	readData [][]byte
	readErr  error
	written  []byte
}

func (f *fakeSerialPort) Open(string, int) error { return nil }
func (f *fakeSerialPort) Close() error           { return nil }

func (f *fakeSerialPort) Read(buffer []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.readData) == 0 {
		return 0, nil
	}
	chunk := f.readData[0]
	f.readData = f.readData[1:]
	return copy(buffer, chunk), nil
}

func (f *fakeSerialPort) Write(data []byte) (int, error) {
	f.written = append(f.written, data...)
	return len(data), nil
}

func (f *fakeSerialPort) SetReadTimeout(time.Duration) error { return nil }
func (f *fakeSerialPort) ListPorts() ([]string, error)       { return nil, nil }
func (f *fakeSerialPort) GetPortDetails() ([]*enumerator.PortDetails, error) {
	return nil, nil
}

func TestReadAvailableReturnsData(t *testing.T) {
	fake := &fakeSerialPort{readData: [][]byte{[]byte("hello")}}
	src := NewTopGNSSSource(fake)

	got, err := src.ReadAvailable()
	if err != nil {
		t.Fatalf("ReadAvailable: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestReadAvailableTimeoutIsNotAnError(t *testing.T) {
	fake := &fakeSerialPort{}
	src := NewTopGNSSSource(fake)

	got, err := src.ReadAvailable()
	if err != nil || got != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", got, err)
	}
}

func TestReadAvailablePropagatesError(t *testing.T) {
	fake := &fakeSerialPort{readErr: errors.New("boom")}
	src := NewTopGNSSSource(fake)

	if _, err := src.ReadAvailable(); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestWriteAll(t *testing.T) {
	fake := &fakeSerialPort{}
	src := NewTopGNSSSource(fake)

	if err := src.WriteAll([]byte("cmd")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if string(fake.written) != "cmd" {
		t.Errorf("written = %q, want %q", fake.written, "cmd")
	}
}
