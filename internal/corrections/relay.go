// Package corrections relays RTCM3 correction data from an NTRIP caster
// to the receiver's serial port. It never decodes RTCM messages and
// never touches the ephemeris store — pseudorange-based positioning is
// explicitly out of scope; this package only needs to find valid frame
// boundaries so a dropped connection doesn't forward a half-written
// frame to the receiver.
package corrections

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-gnss/rtcm/rtcm3"
	"github.com/sirupsen/logrus"
)

// Sink is the minimal write surface corrections are relayed onto — the
// device.ByteSource the session driver already writes configuration
// frames to.
type Sink interface {
	WriteAll(data []byte) error
}

// Client connects to an NTRIP v2 caster and relays one mountpoint's
// RTCM3 correction stream onto a Sink.
type Client struct {
	URL        string
	Username   string
	Password   string
	Mountpoint string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient returns a Client for the given caster URL and mountpoint.
func NewClient(url, username, password, mountpoint string, log *logrus.Logger) *Client {
	return &Client{
		URL:        url,
		Username:   username,
		Password:   password,
		Mountpoint: mountpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

func (c *Client) mountpointURL() string {
	fullURL := c.URL
	if c.Mountpoint != "" && !strings.Contains(fullURL, c.Mountpoint) {
		if !strings.HasSuffix(fullURL, "/") {
			fullURL += "/"
		}
		fullURL += c.Mountpoint
	}
	return fullURL
}

func (c *Client) connect(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.mountpointURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("corrections: building request: %w", err)
	}
	req.Header.Set("User-Agent", "NTRIP gnssephemeris/client")
	req.Header.Set("Ntrip-Version", "Ntrip/2.0")
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("corrections: connecting to caster: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("corrections: caster responded %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Run connects to the caster and relays frames to sink until ctx is
// cancelled or the connection drops. Bytes are fed to an rtcm3.Parser
// as they arrive; NextFrame draining stops as soon as the parser has no
// complete frame buffered, and Run goes back to reading more bytes from
// the caster rather than treating that as a fatal error.
func (c *Client) Run(ctx context.Context, sink Sink) error {
	body, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer body.Close()

	parser := rtcm3.NewParser()
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			parser.Write(buf[:n])
			for {
				frame, err := parser.NextFrame()
				if err != nil {
					break
				}
				if err := sink.WriteAll(frame.Data); err != nil {
					return fmt.Errorf("corrections: writing frame to sink: %w", err)
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return fmt.Errorf("corrections: reading from caster: %w", readErr)
		}
	}
}
