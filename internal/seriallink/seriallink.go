// Package seriallink provides the real serial-port implementation of the
// engine's Link interface, backed by go.bug.st/serial.
package seriallink

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/dutrun/dutrun/internal/engine"
)

// Options configures a serial link.
type Options struct {
	// BaudRate for the port; framing is fixed at 8N1.
	BaudRate int

	// ReadTimeout bounds a single Read call. A read that sees no data
	// within this window returns (0, nil), which is what the engine's
	// poll loop expects.
	ReadTimeout time.Duration

	// WriteTimeout is the response write deadline. A write that cannot
	// complete in time yields engine.ErrWriteTimeout.
	WriteTimeout time.Duration
}

// Port is an open serial connection implementing engine.Link. The read
// timeout is configured on the device before construction, so only the
// byte-stream surface is held here.
type Port struct {
	name         string
	port         io.ReadWriteCloser
	writeTimeout time.Duration
}

// Open opens the named serial device with 8N1 framing.
func Open(name string, opts Options) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}

	return &Port{
		name:         name,
		port:         port,
		writeTimeout: opts.WriteTimeout,
	}, nil
}

// Name returns the device name the port was opened with.
func (p *Port) Name() string {
	return p.name
}

// Read returns available bytes, or (0, nil) when nothing arrived within
// the read timeout.
func (p *Port) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

type writeResult struct {
	n   int
	err error
}

// Write sends raw bytes with the configured deadline. The underlying
// serial write has no native deadline, so a stalled write is abandoned to
// a background goroutine and reported as engine.ErrWriteTimeout; the
// goroutine finishes (or errors) whenever the driver unblocks.
func (p *Port) Write(b []byte) (int, error) {
	if p.writeTimeout <= 0 {
		return p.port.Write(b)
	}

	done := make(chan writeResult, 1)

	go func() {
		n, err := p.port.Write(b)
		done <- writeResult{n: n, err: err}
	}()

	timer := time.NewTimer(p.writeTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.n, res.err
	case <-timer.C:
		return 0, engine.ErrWriteTimeout
	}
}

// Close closes the port.
func (p *Port) Close() error {
	return p.port.Close()
}

// PortInfo describes one serial device on the machine.
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"isUsb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	Product      string `json:"product,omitempty"`
}

// List enumerates the serial ports present on the machine.
func List() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}

	return ports, nil
}
