package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bramburn/gnssephemeris/internal/corrections"
	"github.com/bramburn/gnssephemeris/internal/device"
	"github.com/bramburn/gnssephemeris/internal/diagnostics"
	"github.com/bramburn/gnssephemeris/internal/ephemeris"
	"github.com/bramburn/gnssephemeris/internal/port"
	"github.com/bramburn/gnssephemeris/internal/session"
	"github.com/sirupsen/logrus"
)

func main() {
	portName := flag.String("port", "", "serial port the receiver is attached to (e.g. /dev/ttyACM0)")
	baudRate := flag.Int("baud", 38400, "serial baud rate")
	pollInterval := flag.Duration("poll", 5*time.Second, "how often to log known satellite positions")

	casterURL := flag.String("ntrip-url", "", "NTRIP caster URL (leave empty to disable correction relay)")
	casterUser := flag.String("ntrip-user", "", "NTRIP caster username")
	casterPass := flag.String("ntrip-pass", "", "NTRIP caster password")
	casterMount := flag.String("ntrip-mount", "", "NTRIP mountpoint")

	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	serialPort := port.NewGNSSSerialPort()
	name := *portName
	if name == "" {
		selected, err := selectPort(serialPort)
		if err != nil {
			log.WithError(err).Fatal("no serial port available")
		}
		name = selected
	}

	if err := serialPort.Open(name, *baudRate); err != nil {
		log.WithError(err).Fatalf("opening serial port %s", name)
	}
	defer serialPort.Close()
	log.WithField("port", name).Info("serial port open")

	source := device.NewTopGNSSSource(serialPort)
	store := ephemeris.NewStore()
	diag := diagnostics.NewLogger(log)
	driver := session.New(source, store, diag, log)

	if err := driver.Handshake(); err != nil {
		log.WithError(err).Fatal("session handshake failed")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	stop := make(chan struct{})

	if *casterURL != "" {
		relay := corrections.NewClient(*casterURL, *casterUser, *casterPass, *casterMount, log)
		go runCorrections(relay, source, stop, log)
	}

	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		close(stop)
	}()

	go reportPositions(store, *pollInterval, stop, log)

	if err := driver.Run(stop); err != nil {
		log.WithError(err).Error("session driver exited")
		os.Exit(1)
	}
}

func runCorrections(relay *corrections.Client, sink corrections.Sink, stop <-chan struct{}, log *logrus.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stop
		cancel()
	}()
	if err := relay.Run(ctx, sink); err != nil {
		log.WithError(err).Warn("correction relay stopped")
	}
}

func reportPositions(store *ephemeris.Store, interval time.Duration, stop <-chan struct{}, log *logrus.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := store.GPSTime()
			for _, sat := range store.CompleteSatellites() {
				pos, err := sat.Elements.Position(now)
				if err != nil {
					log.WithError(err).WithField("sv_id", sat.SVID).Warn("position evaluation failed")
					continue
				}
				log.WithFields(logrus.Fields{
					"sv_id": sat.SVID,
					"x":     pos.X,
					"y":     pos.Y,
					"z":     pos.Z,
				}).Info("satellite position")
			}
		}
	}
}

func selectPort(p *port.GNSSSerialPort) (string, error) {
	ports, err := p.ListPorts()
	if err != nil {
		return "", fmt.Errorf("listing serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("no serial ports found")
	}
	return ports[0], nil
}
