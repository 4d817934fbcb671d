package eeprom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/moffa90/go-meepromer/protocol"
)

// Device is the serial connection to the programmer board.
//
// Read must return (0, nil) when its read timeout expires without data;
// *link.Link satisfies this for every supported driver.
type Device interface {
	io.ReadWriter

	// ResetInputBuffer discards bytes received but not yet read
	ResetInputBuffer() error

	// ResetOutputBuffer discards bytes written but not yet transmitted
	ResetOutputBuffer() error
}

// ReadTimeoutSetter is implemented by devices whose per-read timeout can be
// changed while open, such as *link.Link. It keeps a single read from
// outliving the ready wait budget.
type ReadTimeoutSetter interface {
	ReadTimeout() time.Duration
	SetReadTimeout(d time.Duration) error
}

// Result summarizes a completed transfer.
type Result struct {
	// Request is the window that was transferred
	Request protocol.Request

	// Bytes is the number of payload bytes transferred
	Bytes int

	// Chunks is the number of device writes (write) or reads (dump) issued
	Chunks int

	// Checksum is the CRC-32 of the payload
	Checksum uint32

	// Elapsed is the total operation time
	Elapsed time.Duration
}

// Programmer runs write and dump transfers against a Meepromer board.
//
// A Programmer drives one Device and must not be used concurrently.
type Programmer struct {
	device Device
	config Config
}

// New creates a new Programmer with the given device and options.
//
// Example:
//
//	l, _ := link.Open(ctx, link.DefaultConfig("COM3"))
//	defer l.Close()
//	prog := eeprom.New(l,
//	    eeprom.WithProgressCallback(progressFunc),
//	    eeprom.WithReadyTimeout(10*time.Second),
//	)
func New(device Device, opts ...Option) *Programmer {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		device: device,
		config: cfg,
	}
}

// Write programs the window described by req with bytes read from src:
//  1. Read the whole window from src (a short source fails before any traffic)
//  2. Send the write header
//  3. Wait for the device ready marker, bounded by attempts and time
//  4. Send the start marker
//  5. Stream the payload in chunks of at most ChunkSize bytes
//  6. Reset both link buffers
//
// req.Direction is ignored. The operation can be cancelled via context.
func (p *Programmer) Write(ctx context.Context, req protocol.Request, src io.Reader) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	req.Direction = protocol.Write

	header, err := protocol.BuildCommand(req)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	total := req.Bytes()

	payload := make([]byte, total)
	if n, err := io.ReadFull(src, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, &TransferIncompleteError{
				Direction: protocol.Write,
				Expected:  total,
				Err:       fmt.Errorf("source holds only %d bytes", n),
			}
		}
		return nil, fmt.Errorf("read source: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cancelled: %w", err)
	}

	// Idle -> HeaderSent
	p.reportProgress(Progress{
		Phase:      PhaseHeader,
		Direction:  protocol.Write,
		TotalBytes: total,
	})
	if err := p.sendAll(header); err != nil {
		return nil, fmt.Errorf("send write header: %w", err)
	}
	p.logDebug("header sent", "header", strings.TrimSpace(string(header)))

	if err := p.device.ResetOutputBuffer(); err != nil {
		return nil, fmt.Errorf("reset output buffer: %w", err)
	}

	// HeaderSent -> AwaitingReady
	p.reportProgress(Progress{
		Phase:       PhaseReady,
		Direction:   protocol.Write,
		TotalBytes:  total,
		ElapsedTime: time.Since(startTime),
	})
	if err := p.awaitReady(ctx); err != nil {
		return nil, err
	}

	// AwaitingReady -> Streaming
	p.logInfo("begin writing", "bytes", total, "count", req.Count, "offset", req.Offset)
	if err := p.sendAll([]byte{protocol.StartMarker}); err != nil {
		return nil, fmt.Errorf("send start marker: %w", err)
	}

	chunks, err := p.stream(ctx, payload, startTime)
	if err != nil {
		return nil, err
	}

	// Streaming -> Done
	if err := p.resetBuffers(); err != nil {
		return nil, err
	}

	result := &Result{
		Request:  req,
		Bytes:    total,
		Chunks:   chunks,
		Checksum: protocol.PayloadChecksum(payload),
		Elapsed:  time.Since(startTime),
	}
	p.complete(result)
	return result, nil
}

// Dump reads the window described by req from the device and writes it to dst:
//  1. Discard stale input
//  2. Send the read header
//  3. Receive exactly the window size, failing on a short read
//  4. Write the payload to dst
//  5. Reset both link buffers
//
// Nothing is written to dst unless the whole window was received.
// req.Direction is ignored.
func (p *Programmer) Dump(ctx context.Context, req protocol.Request, dst io.Writer) (*Result, error) {
	if dst == nil {
		return nil, fmt.Errorf("destination cannot be nil")
	}
	return p.dump(ctx, req, func(payload []byte) error {
		if _, err := dst.Write(payload); err != nil {
			return fmt.Errorf("write destination: %w", err)
		}
		return nil
	})
}

// dump runs the read exchange and hands the complete payload to sink.
func (p *Programmer) dump(ctx context.Context, req protocol.Request, sink func([]byte) error) (*Result, error) {
	req.Direction = protocol.Read

	header, err := protocol.BuildCommand(req)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cancelled: %w", err)
	}

	startTime := time.Now()
	total := req.Bytes()

	if err := p.device.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("reset input buffer: %w", err)
	}

	// Idle -> HeaderSent
	p.reportProgress(Progress{
		Phase:      PhaseHeader,
		Direction:  protocol.Read,
		TotalBytes: total,
	})
	if err := p.sendAll(header); err != nil {
		return nil, fmt.Errorf("send read header: %w", err)
	}
	p.logDebug("header sent", "header", strings.TrimSpace(string(header)))

	// HeaderSent -> Receiving
	payload, reads, err := p.receive(ctx, total, startTime)
	if err != nil {
		return nil, err
	}

	if p.config.DumpSettleDelay > 0 {
		if err := sleep(ctx, p.config.DumpSettleDelay); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}
	}

	if err := sink(payload); err != nil {
		return nil, err
	}

	// Receiving -> Done
	if err := p.resetBuffers(); err != nil {
		return nil, err
	}

	result := &Result{
		Request:  req,
		Bytes:    total,
		Chunks:   reads,
		Checksum: protocol.PayloadChecksum(payload),
		Elapsed:  time.Since(startTime),
	}
	p.complete(result)
	return result, nil
}

// awaitReady reads single bytes until the ready marker arrives.
// Every other byte, and every read that times out empty, counts as one attempt.
//
// When the device implements ReadTimeoutSetter, each read is capped at the
// remaining ReadyTimeout budget and the original timeout is restored on return.
func (p *Programmer) awaitReady(ctx context.Context) error {
	start := time.Now()
	deadline := start.Add(p.config.ReadyTimeout)
	buf := make([]byte, 1)

	setter, _ := p.device.(ReadTimeoutSetter)
	var readTimeout time.Duration
	if setter != nil {
		readTimeout = setter.ReadTimeout()
		defer func() {
			if setter.ReadTimeout() == readTimeout {
				return
			}
			if err := setter.SetReadTimeout(readTimeout); err != nil {
				p.logError("restoring read timeout failed", "error", err)
			}
		}()
	}
	capper := setter

	for attempt := 1; attempt <= p.config.ReadyAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled while waiting for device: %w", err)
		}

		if capper != nil {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return p.readyTimeout(attempt-1, start)
			}
			if want := min(readTimeout, remaining); want != capper.ReadTimeout() {
				if err := capper.SetReadTimeout(want); err != nil {
					p.logDebug("read timeout not adjustable", "error", err)
					capper = nil
				}
			}
		}

		n, err := p.device.Read(buf)
		if err != nil {
			return fmt.Errorf("read ready marker: %w", err)
		}
		if n == 1 && buf[0] == protocol.ReadyMarker {
			p.logDebug("device ready", "attempts", attempt, "waited", time.Since(start).String())
			return nil
		}

		if n == 0 {
			p.logInfo("waiting for device", "attempt", attempt)
		} else {
			p.logInfo("waiting for device", "attempt", attempt, "got", fmt.Sprintf("0x%02X", buf[0]))
		}

		if !time.Now().Before(deadline) {
			return p.readyTimeout(attempt, start)
		}
	}

	return p.readyTimeout(p.config.ReadyAttempts, start)
}

func (p *Programmer) readyTimeout(attempts int, start time.Time) error {
	err := &ProtocolTimeoutError{Attempts: attempts, Elapsed: time.Since(start)}
	p.logError("device never signalled ready", "attempts", attempts, "elapsed", err.Elapsed.String())
	return err
}

// stream sends payload in chunks and returns the number of device writes.
func (p *Programmer) stream(ctx context.Context, payload []byte, startTime time.Time) (int, error) {
	chunkSize := p.config.ChunkSize
	total := len(payload)
	sent, chunks := 0, 0

	for sent < total {
		if err := ctx.Err(); err != nil {
			return chunks, &TransferIncompleteError{
				Direction:   protocol.Write,
				Transferred: sent,
				Expected:    total,
				Err:         err,
			}
		}

		end := sent + chunkSize
		if end > total {
			end = total
		}
		chunk := payload[sent:end]

		n, err := p.device.Write(chunk)
		chunks++
		if n > 0 {
			sent += min(n, len(chunk))
		}
		if err == nil && n < len(chunk) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return chunks, &TransferIncompleteError{
				Direction:   protocol.Write,
				Transferred: sent,
				Expected:    total,
				Err:         err,
			}
		}

		p.reportProgress(Progress{
			Phase:       PhaseStreaming,
			Direction:   protocol.Write,
			Bytes:       sent,
			TotalBytes:  total,
			Percentage:  percentOf(sent, total),
			ElapsedTime: time.Since(startTime),
		})
	}

	return chunks, nil
}

// receive reads exactly total bytes. A read that returns no data means the
// link timed out and ends the transfer as incomplete.
func (p *Programmer) receive(ctx context.Context, total int, startTime time.Time) ([]byte, int, error) {
	payload := make([]byte, total)
	got, reads := 0, 0

	for got < total {
		if err := ctx.Err(); err != nil {
			return nil, reads, &TransferIncompleteError{
				Direction:   protocol.Read,
				Transferred: got,
				Expected:    total,
				Err:         err,
			}
		}

		n, err := p.device.Read(payload[got:])
		reads++
		got += n

		if err != nil && !errors.Is(err, io.EOF) {
			return nil, reads, &TransferIncompleteError{
				Direction:   protocol.Read,
				Transferred: got,
				Expected:    total,
				Err:         err,
			}
		}
		if n == 0 {
			p.logError("dump timed out", "received", got, "expected", total)
			return nil, reads, &TransferIncompleteError{
				Direction:   protocol.Read,
				Transferred: got,
				Expected:    total,
			}
		}

		p.reportProgress(Progress{
			Phase:       PhaseReceiving,
			Direction:   protocol.Read,
			Bytes:       got,
			TotalBytes:  total,
			Percentage:  percentOf(got, total),
			ElapsedTime: time.Since(startTime),
		})
	}

	return payload, reads, nil
}

// sendAll writes b to the device, treating a short write as an error.
func (p *Programmer) sendAll(b []byte) error {
	n, err := p.device.Write(b)
	if err != nil {
		return err
	}
	if n < len(b) {
		return io.ErrShortWrite
	}
	return nil
}

// resetBuffers discards anything left in either direction after a transfer.
func (p *Programmer) resetBuffers() error {
	if err := p.device.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input buffer: %w", err)
	}
	if err := p.device.ResetOutputBuffer(); err != nil {
		return fmt.Errorf("reset output buffer: %w", err)
	}
	return nil
}

func (p *Programmer) complete(result *Result) {
	p.reportProgress(Progress{
		Phase:       PhaseComplete,
		Direction:   result.Request.Direction,
		Bytes:       result.Bytes,
		TotalBytes:  result.Bytes,
		Percentage:  100,
		ElapsedTime: result.Elapsed,
	})

	p.logInfo(result.Request.Direction.String()+" complete",
		"bytes", result.Bytes,
		"chunks", result.Chunks,
		"crc32", fmt.Sprintf("0x%08X", result.Checksum),
		"elapsed", result.Elapsed.String(),
	)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
