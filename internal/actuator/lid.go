// Package actuator drives the bin's lid controller over a serial line.
package actuator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// Options configures the serial link to the lid controller.
type Options struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
	// OpenCommand is written to trigger the lid; AckToken is the substring
	// the controller answers with once the lid is moving.
	OpenCommand string        `mapstructure:"open_command"`
	AckToken    string        `mapstructure:"ack_token"`
	AckTimeout  time.Duration `mapstructure:"ack_timeout"`
}

// DefaultOptions returns defaults matching the stock controller firmware.
func DefaultOptions() Options {
	return Options{
		BaudRate:    9600,
		OpenCommand: "OPEN\n",
		AckToken:    "OK",
		AckTimeout:  3 * time.Second,
	}
}

// Lid is a serial lid actuator.
type Lid struct {
	opts Options
	port *serial.Port
}

// Connect opens the serial port to the lid controller.
func Connect(opts Options) (*Lid, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        opts.Port,
		Baud:        opts.BaudRate,
		ReadTimeout: 200 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", opts.Port, err)
	}
	return &Lid{opts: opts, port: port}, nil
}

// Open sends the open command and waits for the controller's acknowledgement.
func (l *Lid) Open(ctx context.Context) error {
	if _, err := l.port.Write([]byte(l.opts.OpenCommand)); err != nil {
		return fmt.Errorf("write open command: %w", err)
	}

	deadline := time.Now().Add(l.opts.AckTimeout)
	var response strings.Builder
	buf := make([]byte, 64)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := l.port.Read(buf)
		if err != nil {
			// Read timeouts surface as errors on some platforms; keep
			// polling until the ack deadline
			continue
		}
		response.Write(buf[:n])
		if strings.Contains(response.String(), l.opts.AckToken) {
			return nil
		}
	}
	return fmt.Errorf("lid controller did not acknowledge within %s", l.opts.AckTimeout)
}

// Close releases the serial port.
func (l *Lid) Close() error {
	return l.port.Close()
}
