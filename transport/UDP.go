// Package transport implements the UDP connection to the race server
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/environment"
	"github.com/samuelfneumann/torcsrl/metrics"
	"github.com/samuelfneumann/torcsrl/sensor"
)

// Control messages of the race server
const (
	Identified = "***identified***"
	Shutdown   = "***shutdown***"
	Restart    = "***restart***"
)

// DefaultAngles are the directions in degrees of the track range
// finders requested when identifying with the server
var DefaultAngles = [sensor.NumTrack]float64{-90, -75, -60, -45, -30, -20,
	-15, -10, -5, 0, 5, 10, 15, 20, 30, 45, 60, 75, 90}

// maxMessage is the size of the receive buffer
const maxMessage = 4096

// InitMessage returns the identification message of a client
func InitMessage(id string, angles [sensor.NumTrack]float64) string {
	var b strings.Builder
	b.WriteString(id)
	b.WriteString("(init")
	for _, a := range angles {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(a, 'g', -1, 64))
	}
	b.WriteByte(')')
	return b.String()
}

// UDP implements the environment.Environment interface over the UDP
// protocol of the race server
type UDP struct {
	conn    *net.UDPConn
	id      string
	angles  [sensor.NumTrack]float64
	timeout time.Duration
	buf     []byte
	log     *slog.Logger
}

// Dial connects to the race server configured by c
func Dial(c config.TransportConfig, log *slog.Logger) (*UDP, error) {
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &UDP{
		conn:    conn,
		id:      c.ID,
		angles:  DefaultAngles,
		timeout: timeout,
		buf:     make([]byte, maxMessage),
		log:     log.With("server", addr),
	}, nil
}

// Start identifies with the server, resending the identification
// message until the server acknowledges it, and returns the first
// snapshot of the race
func (u *UDP) Start(ctx context.Context) (sensor.Snapshot, error) {
	init := InitMessage(u.id, u.angles)
	for {
		if err := u.send(init); err != nil {
			return sensor.Snapshot{}, fmt.Errorf("start: %w", err)
		}

		msg, err := u.receive(ctx)
		if isTimeout(err) {
			u.log.Debug("no answer to identification, retrying")
			continue
		} else if err != nil {
			return sensor.Snapshot{}, fmt.Errorf("start: %w", err)
		}

		if strings.Contains(msg, Identified) {
			u.log.Info("identified", "id", u.id)
			break
		}
	}

	return u.next(ctx)
}

// Step sends a command to the server and returns the snapshot of the
// next tick
func (u *UDP) Step(ctx context.Context, a control.Action) (sensor.Snapshot,
	error) {
	if err := u.send(a.String()); err != nil {
		return sensor.Snapshot{}, fmt.Errorf("step: %w", err)
	}
	return u.next(ctx)
}

// Close closes the connection
func (u *UDP) Close() error {
	return u.conn.Close()
}

// next waits for the next sensor message. Timeouts and messages that
// cannot be parsed are logged and skipped.
func (u *UDP) next(ctx context.Context) (sensor.Snapshot, error) {
	for {
		msg, err := u.receive(ctx)
		if isTimeout(err) {
			metrics.Timeouts.Inc()
			u.log.Warn("server did not respond within the timeout",
				"timeout", u.timeout)
			continue
		} else if err != nil {
			return sensor.Snapshot{}, err
		}

		switch {
		case strings.Contains(msg, Shutdown):
			return sensor.Snapshot{}, environment.ErrShutdown
		case strings.Contains(msg, Restart):
			return sensor.Snapshot{}, environment.ErrRestart
		}

		s, err := sensor.Parse(msg)
		if err != nil {
			u.log.Warn("dropping malformed message", "error", err)
			continue
		}
		return s, nil
	}
}

func (u *UDP) send(msg string) error {
	if _, err := u.conn.Write([]byte(msg)); err != nil {
		return err
	}
	metrics.Messages.WithLabelValues("out").Inc()
	return nil
}

// receive reads a single message, waiting at most the configured
// timeout. Cancelling ctx interrupts the read.
func (u *UDP) receive(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stop := context.AfterFunc(ctx, func() {
		u.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := u.conn.SetReadDeadline(time.Now().Add(u.timeout)); err != nil {
		return "", err
	}
	n, err := u.conn.Read(u.buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}

	metrics.Messages.WithLabelValues("in").Inc()
	return string(u.buf[:n]), nil
}

func isTimeout(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}
