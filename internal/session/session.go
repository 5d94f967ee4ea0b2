// Package session drives the serial conversation with the receiver: a
// startup configuration handshake followed by a blocking read/dispatch
// loop that feeds decoded messages to the ephemeris store. It performs
// all serial reads; the only other writer to the port is the correction
// relay in package corrections.
package session

import (
	"time"

	"github.com/bramburn/gnssephemeris/internal/device"
	"github.com/bramburn/gnssephemeris/internal/diagnostics"
	"github.com/bramburn/gnssephemeris/internal/ephemeris"
	"github.com/bramburn/gnssephemeris/internal/framer"
	"github.com/bramburn/gnssephemeris/internal/lnav"
	"github.com/bramburn/gnssephemeris/internal/ubxframe"
	"github.com/bramburn/gnssephemeris/internal/ubxmsg"
	"github.com/sirupsen/logrus"
)

// pollInterval bounds how long Run blocks on ReadAvailable before
// checking for cancellation again.
const pollInterval = 100 * time.Millisecond

// Driver owns the serial handshake and dispatch loop. A Driver is used
// once, for the lifetime of one open serial connection.
type Driver struct {
	source device.ByteSource
	framer *framer.Framer
	store  *ephemeris.Store
	diag   *diagnostics.Logger
	log    *logrus.Logger
}

// New returns a Driver writing decoded ephemeris updates to store and
// diagnostic NMEA lines to diag.
func New(source device.ByteSource, store *ephemeris.Store, diag *diagnostics.Logger, log *logrus.Logger) *Driver {
	return &Driver{
		source: source,
		framer: framer.New(),
		store:  store,
		diag:   diag,
		log:    log,
	}
}

// Handshake performs the one-time startup configuration sequence:
// enable UBX in/out on USB, set a 1 Hz GPS-timed navigation rate,
// enable RXM-SFRBX and RXM-RAWX output, then poll the GNSS
// configuration (whose reply drives the selective-enable handshake in
// Run's dispatch loop).
func (d *Driver) Handshake() error {
	messages := []ubxmsg.Message{
		ubxmsg.CfgPrtSetUsb{InMask: ubxmsg.PrtInUBX, OutMask: ubxmsg.PrtOutUBX},
		ubxmsg.CfgRate{MeasRateMS: 1000, NavCycles: 1, TimeRef: ubxmsg.TimeRefGPS},
		ubxmsg.CfgMsgSetRate{Class: 0x02, ID: 0x13, Rate: 1},
		ubxmsg.CfgMsgSetRate{Class: 0x02, ID: 0x15, Rate: 1},
		ubxmsg.CfgGnssPoll{},
	}
	for _, m := range messages {
		if err := d.send(m); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) send(m ubxmsg.Message) error {
	return d.source.WriteAll(ubxmsg.Encode(m).Encode())
}

// Run blocks, reading and dispatching framed messages until stop is
// closed or writing a reply to the receiver fails. A read error is
// logged as a warning and the read is retried. A read timeout is not an
// error: it is logged at debug level and the loop retries.
func (d *Driver) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		chunk, err := d.source.ReadAvailable()
		if err != nil {
			d.log.WithError(err).Warn("session: serial read failed, retrying")
			time.Sleep(pollInterval)
			continue
		}
		if len(chunk) == 0 {
			d.log.Debug("session: serial read timed out, retrying")
			time.Sleep(pollInterval)
			continue
		}

		d.framer.Ingest(chunk)
		if err := d.drain(); err != nil {
			return err
		}
	}
}

// drain processes every item the framer currently has buffered.
func (d *Driver) drain() error {
	for {
		item, err := d.framer.Next()
		if err != nil {
			d.log.WithError(err).Debug("session: discarding malformed frame")
			continue
		}
		if item == nil {
			return nil
		}

		switch v := item.(type) {
		case string:
			d.diag.Log(v)
		case ubxframe.Frame:
			if err := d.dispatchFrame(v); err != nil {
				return err
			}
		}
	}
}

func (d *Driver) dispatchFrame(raw ubxframe.Frame) error {
	msg, err := ubxmsg.Decode(raw)
	if err != nil {
		d.log.WithError(err).Debug("session: discarding unrecognised-payload message")
		return nil
	}
	return d.dispatchMessage(msg)
}

func (d *Driver) dispatchMessage(msg ubxmsg.Message) error {
	switch m := msg.(type) {
	case ubxmsg.CfgGnssSettings:
		return d.send(selectiveEnable(m))
	case ubxmsg.RxmRawx:
		d.store.SetTimeCorrection(float64(m.Week)*604800 + m.RcvTow)
	case ubxmsg.RxmSfrbx:
		if gps, ok := m.Data.(ubxmsg.RxmSfrbxDataGPS); ok {
			d.consumeGPS(m.SVID, gps.Nav)
		}
	}
	return nil
}

func (d *Driver) consumeGPS(svID byte, nav lnav.NavData) {
	subframe := nav.Subframe
	if subframe == nil {
		return
	}
	d.store.ConsumeSubframe(svID, subframe)
}

// selectiveEnable rebuilds a CFG-GNSS settings reply with every
// non-GPS constellation disabled and every GPS block's reserved
// tracking channel count raised to its maximum. The caller retransmits
// the result.
func selectiveEnable(settings ubxmsg.CfgGnssSettings) ubxmsg.CfgGnssSettings {
	blocks := make([]ubxmsg.CfgGnssBlock, len(settings.Blocks))
	for i, b := range settings.Blocks {
		if b.GnssID == ubxmsg.GnssGPS {
			b.ResTrkCh = b.MaxTrkCh
			b.Enabled = true
		} else {
			b.Enabled = false
		}
		blocks[i] = b
	}
	settings.Blocks = blocks
	return settings
}
