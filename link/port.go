package link

import (
	"errors"
	"fmt"
	"io"

	tarm "github.com/tarm/serial"
	"go.bug.st/serial"
)

// Port abstracts the serial drivers for testability.
type Port interface {
	io.ReadWriteCloser

	// ResetInputBuffer discards bytes received but not yet read
	ResetInputBuffer() error

	// ResetOutputBuffer discards bytes written but not yet transmitted
	ResetOutputBuffer() error
}

// opener opens a port for a validated configuration.
type opener func(cfg Config) (Port, error)

var openers = map[string]opener{
	DriverBugst: openBugst,
	DriverTarm:  openTarm,
}

func openBugst(cfg Config) (Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &bugstPort{Port: p}, nil
}

// bugstPort wraps serial.Port so that an output reset never drops bytes the
// caller already handed to Write.
type bugstPort struct {
	serial.Port
}

func (p *bugstPort) ResetOutputBuffer() error {
	if err := p.Port.Drain(); err != nil {
		return err
	}
	return p.Port.ResetOutputBuffer()
}

func openTarm(cfg Config) (Port, error) {
	p, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &tarmPort{port: p}, nil
}

// tarmPort adapts tarm/serial. tarm reports a timed out read as io.EOF and
// only offers a combined flush.
type tarmPort struct {
	port *tarm.Port
}

func (p *tarmPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func (p *tarmPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *tarmPort) Close() error {
	return p.port.Close()
}

func (p *tarmPort) ResetInputBuffer() error {
	return p.port.Flush()
}

// ResetOutputBuffer is a no-op: tarm writes go straight to the device file,
// and its only flush would also drop pending input such as the ready marker.
func (p *tarmPort) ResetOutputBuffer() error {
	return nil
}
