// Package device adapts a physical serial connection to the minimal
// byte-source collaborator the session driver depends on: read whatever
// bytes are currently available, write a buffer out, and flush pending
// output. Opening and configuring the physical device itself is outside
// this package's concern — see package port for that.
package device

import (
	"fmt"

	"github.com/bramburn/gnssephemeris/internal/port"
)

// ByteSource is the serial byte-source collaborator: the session driver
// polls ReadAvailable and hands whatever comes back to the framer.
type ByteSource interface {
	ReadAvailable() ([]byte, error)
	WriteAll(data []byte) error
	Flush() error
}

// TopGNSSSource adapts a port.SerialPort — a TOPGNSS TOP708 receiver in
// practice, but any UBX-speaking u-blox module works identically — to
// ByteSource.
type TopGNSSSource struct {
	serialPort port.SerialPort
	buf        []byte
}

// NewTopGNSSSource wraps an already-open serial port.
func NewTopGNSSSource(serialPort port.SerialPort) *TopGNSSSource {
	return &TopGNSSSource{
		serialPort: serialPort,
		buf:        make([]byte, 4096),
	}
}

// ReadAvailable reads whatever is waiting on the port without blocking
// past its configured read timeout. A timeout with no data is not an
// error — it yields a nil slice.
func (s *TopGNSSSource) ReadAvailable() ([]byte, error) {
	n, err := s.serialPort.Read(s.buf)
	if err != nil {
		return nil, fmt.Errorf("device: read: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	copy(out, s.buf[:n])
	return out, nil
}

// WriteAll writes data to the port.
func (s *TopGNSSSource) WriteAll(data []byte) error {
	if _, err := s.serialPort.Write(data); err != nil {
		return fmt.Errorf("device: write: %w", err)
	}
	return nil
}

// Flush is a no-op: go.bug.st/serial writes synchronously, so there is
// no pending output buffer to drain.
func (s *TopGNSSSource) Flush() error {
	return nil
}
