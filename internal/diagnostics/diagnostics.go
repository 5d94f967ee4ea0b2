// Package diagnostics parses passthrough NMEA lines purely for
// operator-facing structured logging. It never feeds the ephemeris
// pipeline and a parse failure is never fatal — the line is simply
// logged and discarded.
package diagnostics

import (
	"github.com/adrianmo/go-nmea"
	"github.com/sirupsen/logrus"
)

// FixReport is the receiver's own computed position fix, as reported in
// a GGA sentence. This is entirely distinct from the ECEF satellite
// position the ephemeris/orbit components compute and must never be
// substituted for it.
type FixReport struct {
	Latitude   float64
	Longitude  float64
	Altitude   float64
	FixQuality string
	Satellites int64
	HDOP       float64
}

// Logger parses NMEA passthrough lines and emits a one-line structured
// log entry per sentence.
type Logger struct {
	log *logrus.Logger
}

// NewLogger returns a Logger writing to log.
func NewLogger(log *logrus.Logger) *Logger {
	return &Logger{log: log}
}

// Log parses one NMEA line and records it. Malformed input is logged at
// debug level and otherwise ignored.
func (l *Logger) Log(line string) {
	sentence, err := nmea.Parse(line)
	if err != nil {
		l.log.WithError(err).WithField("line", line).Debug("diagnostics: unparsable NMEA sentence")
		return
	}

	fields := logrus.Fields{
		"talker": sentence.TalkerID(),
		"type":   sentence.DataType(),
	}

	if gga, ok := sentence.(nmea.GGA); ok {
		fields["fix"] = fixReportFromGGA(gga)
	}

	l.log.WithFields(fields).Debug("diagnostics: nmea sentence")
}

func fixReportFromGGA(gga nmea.GGA) FixReport {
	return FixReport{
		Latitude:   gga.Latitude,
		Longitude:  gga.Longitude,
		Altitude:   gga.Altitude,
		FixQuality: gga.FixQuality,
		Satellites: gga.NumSatellites,
		HDOP:       gga.HDOP,
	}
}
