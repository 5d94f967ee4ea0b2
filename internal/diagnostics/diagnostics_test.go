package diagnostics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestLogger(buf *bytes.Buffer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log
}

func TestLogValidGGA(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(newTestLogger(&buf))

	l.Log("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")

	out := buf.String()
	if !strings.Contains(out, "talker=GP") {
		t.Errorf("expected talker field in log output, got %q", out)
	}
	if !strings.Contains(out, "type=GGA") {
		t.Errorf("expected type field in log output, got %q", out)
	}
	if !strings.Contains(out, "fix=") {
		t.Errorf("expected fix report in log output, got %q", out)
	}
}

func TestLogNonGGADoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(newTestLogger(&buf))

	l.Log("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")

	if !strings.Contains(buf.String(), "type=RMC") {
		t.Errorf("expected RMC type in log output, got %q", buf.String())
	}
}

func TestLogMalformedSentenceIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(newTestLogger(&buf))

	l.Log("not a valid nmea sentence")

	if !strings.Contains(buf.String(), "unparsable") {
		t.Errorf("expected unparsable-sentence log entry, got %q", buf.String())
	}
}

func TestLogEmptyLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(newTestLogger(&buf))

	l.Log("")

	if !strings.Contains(buf.String(), "unparsable") {
		t.Errorf("expected unparsable-sentence log entry for empty input, got %q", buf.String())
	}
}
