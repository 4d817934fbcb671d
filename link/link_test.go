package link

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-meepromer/eeprom"
	"github.com/moffa90/go-meepromer/protocol"
)

// fakePort records every call made by the link
type fakePort struct {
	rx       *bytes.Buffer
	tx       bytes.Buffer
	calls    []string
	closeErr error

	// respond returns what the board sends back after a host write
	respond func(b []byte) []byte

	timeouts   []time.Duration
	timeoutErr error
}

func newFakePort(rx []byte) *fakePort {
	return &fakePort{rx: bytes.NewBuffer(rx)}
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.calls = append(p.calls, "read")
	if p.rx.Len() == 0 {
		return 0, nil
	}
	return p.rx.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.calls = append(p.calls, "write")
	if p.respond != nil {
		p.rx.Write(p.respond(b))
	}
	return p.tx.Write(b)
}

func (p *fakePort) SetReadTimeout(d time.Duration) error {
	if p.timeoutErr != nil {
		return p.timeoutErr
	}
	p.timeouts = append(p.timeouts, d)
	return nil
}

// fixedPort hides SetReadTimeout, like the tarm driver
type fixedPort struct {
	Port
}

func (p *fakePort) Close() error {
	p.calls = append(p.calls, "close")
	return p.closeErr
}

func (p *fakePort) ResetInputBuffer() error {
	p.calls = append(p.calls, "reset-input")
	p.rx.Reset()
	return nil
}

func (p *fakePort) ResetOutputBuffer() error {
	p.calls = append(p.calls, "reset-output")
	return nil
}

type recordingLogger struct {
	msgs []string
}

func (l *recordingLogger) Debug(msg string, kv ...interface{}) { l.msgs = append(l.msgs, msg) }
func (l *recordingLogger) Info(msg string, kv ...interface{})  { l.msgs = append(l.msgs, msg) }
func (l *recordingLogger) Error(msg string, kv ...interface{}) { l.msgs = append(l.msgs, msg) }

func testConfig() Config {
	cfg := DefaultConfig("/dev/ttyTEST0")
	cfg.SettleDelay = 0
	return cfg
}

func openFake(port *fakePort) Option {
	return withOpener(func(Config) (Port, error) { return port, nil })
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty driver", mutate: func(c *Config) { c.Driver = "" }},
		{name: "tarm driver", mutate: func(c *Config) { c.Driver = DriverTarm }},
		{name: "missing port", mutate: func(c *Config) { c.Port = "" }, wantErr: "port is required"},
		{name: "zero baud", mutate: func(c *Config) { c.Baud = 0 }, wantErr: "baud rate must be positive"},
		{name: "zero timeout", mutate: func(c *Config) { c.ReadTimeout = 0 }, wantErr: "read timeout"},
		{name: "negative settle", mutate: func(c *Config) { c.SettleDelay = -time.Second }, wantErr: "settle delay"},
		{name: "unknown driver", mutate: func(c *Config) { c.Driver = "usb" }, wantErr: "unknown serial driver"},
		{name: "tarm at its timeout limit", mutate: func(c *Config) { c.Driver, c.ReadTimeout = DriverTarm, MaxTarmReadTimeout }},
		{name: "tarm timeout too long", mutate: func(c *Config) { c.Driver, c.ReadTimeout = DriverTarm, time.Minute }, wantErr: "exceeds"},
		{name: "bugst long timeout", mutate: func(c *Config) { c.ReadTimeout = time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("COM3")
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("COM3")

	assert.Equal(t, "COM3", cfg.Port)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay)
	assert.Equal(t, 20*time.Second, cfg.ReadTimeout)
	assert.Equal(t, DriverBugst, cfg.Driver)
	assert.NotEmpty(t, DefaultPort())
}

func TestOpen(t *testing.T) {
	port := newFakePort(nil)
	logger := &recordingLogger{}

	l, err := Open(context.Background(), testConfig(), openFake(port), WithLogger(logger))
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.Equal(t, "/dev/ttyTEST0", l.Config().Port)
	assert.Empty(t, port.calls, "no traffic expected before the first operation")
	assert.Contains(t, logger.msgs, "serial port opened")
}

func TestOpenConnectionError(t *testing.T) {
	tests := []struct {
		name       string
		openErr    error
		wantReason Reason
	}{
		{name: "not found", openErr: fmt.Errorf("open: %w", fs.ErrNotExist), wantReason: ReasonNotFound},
		{name: "permission", openErr: fmt.Errorf("open: %w", fs.ErrPermission), wantReason: ReasonPermissionDenied},
		{name: "other", openErr: errors.New("boom"), wantReason: ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failing := withOpener(func(Config) (Port, error) { return nil, tt.openErr })

			l, err := Open(context.Background(), testConfig(), failing)
			require.Error(t, err)
			assert.Nil(t, l)

			var ce *ConnectionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "/dev/ttyTEST0", ce.Port)
			assert.Equal(t, tt.wantReason, ce.Reason)
			assert.ErrorIs(t, err, tt.openErr)
			assert.True(t, IsConnectionError(err))
			assert.Contains(t, err.Error(), "is not valid")
		})
	}
}

func TestOpenInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Baud = -1

	_, err := Open(context.Background(), cfg, openFake(newFakePort(nil)))
	require.Error(t, err)
	assert.False(t, IsConnectionError(err))
	assert.Contains(t, err.Error(), "invalid link config")
}

func TestOpenSettleCancelled(t *testing.T) {
	port := newFakePort(nil)
	cfg := testConfig()
	cfg.SettleDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, cfg, openFake(port))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"reset-input", "reset-output", "close"}, port.calls)
}

func TestOpenSettleWaits(t *testing.T) {
	cfg := testConfig()
	cfg.SettleDelay = 20 * time.Millisecond

	start := time.Now()
	l, err := Open(context.Background(), cfg, openFake(newFakePort(nil)))
	require.NoError(t, err)
	defer l.Close()

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestClose(t *testing.T) {
	port := newFakePort([]byte("stale"))

	l, err := Open(context.Background(), testConfig(), openFake(port))
	require.NoError(t, err)

	require.NoError(t, l.Close())
	assert.Equal(t, []string{"reset-input", "reset-output", "close"}, port.calls)

	// Second close must not touch the port again
	require.NoError(t, l.Close())
	assert.Len(t, port.calls, 3)
}

func TestCloseError(t *testing.T) {
	port := newFakePort(nil)
	port.closeErr = errors.New("handle gone")

	l, err := Open(context.Background(), testConfig(), openFake(port))
	require.NoError(t, err)

	err = l.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handle gone")
}

func TestRun(t *testing.T) {
	t.Run("closes after success", func(t *testing.T) {
		port := newFakePort(nil)

		err := Run(context.Background(), testConfig(), func(l *Link) error {
			_, err := l.Write([]byte("W 0001 0000\n"))
			return err
		}, openFake(port))

		require.NoError(t, err)
		assert.Equal(t, "W 0001 0000\n", port.tx.String())
		assert.Equal(t, []string{"write", "reset-input", "reset-output", "close"}, port.calls)
	})

	t.Run("closes after failure", func(t *testing.T) {
		port := newFakePort(nil)
		opErr := errors.New("file cannot be opened")

		err := Run(context.Background(), testConfig(), func(*Link) error {
			return opErr
		}, openFake(port))

		assert.ErrorIs(t, err, opErr)
		assert.Equal(t, []string{"reset-input", "reset-output", "close"}, port.calls)
	})

	t.Run("joins close error", func(t *testing.T) {
		port := newFakePort(nil)
		port.closeErr = errors.New("handle gone")
		opErr := errors.New("op failed")

		err := Run(context.Background(), testConfig(), func(*Link) error {
			return opErr
		}, openFake(port))

		assert.ErrorIs(t, err, opErr)
		assert.Contains(t, err.Error(), "handle gone")
	})

	t.Run("does not call fn when open fails", func(t *testing.T) {
		called := false
		failing := withOpener(func(Config) (Port, error) { return nil, fs.ErrNotExist })

		err := Run(context.Background(), testConfig(), func(*Link) error {
			called = true
			return nil
		}, failing)

		assert.True(t, IsConnectionError(err))
		assert.False(t, called)
	})
}

func TestLinkReadTimeout(t *testing.T) {
	l, err := Open(context.Background(), testConfig(), openFake(newFakePort(nil)))
	require.NoError(t, err)
	defer l.Close()

	buf := make([]byte, 1)
	n, err := l.Read(buf)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestWriteLogsHead(t *testing.T) {
	logger := &recordingLogger{}
	l, err := Open(context.Background(), testConfig(), openFake(newFakePort(nil)), WithLogger(logger))
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Write(bytes.Repeat([]byte{0xAA}, 64))
	require.NoError(t, err)
	assert.Contains(t, logger.msgs, "write")
}

func TestSetReadTimeout(t *testing.T) {
	t.Run("adjustable driver", func(t *testing.T) {
		port := newFakePort(nil)
		l, err := Open(context.Background(), testConfig(), openFake(port))
		require.NoError(t, err)
		defer l.Close()

		assert.Equal(t, DefaultReadTimeout, l.ReadTimeout())
		require.NoError(t, l.SetReadTimeout(3*time.Second))
		assert.Equal(t, 3*time.Second, l.ReadTimeout())
		assert.Equal(t, []time.Duration{3 * time.Second}, port.timeouts)
	})

	t.Run("driver error keeps the old timeout", func(t *testing.T) {
		port := newFakePort(nil)
		port.timeoutErr = errors.New("ioctl failed")
		l, err := Open(context.Background(), testConfig(), openFake(port))
		require.NoError(t, err)
		defer l.Close()

		err = l.SetReadTimeout(time.Second)
		assert.ErrorIs(t, err, port.timeoutErr)
		assert.Equal(t, DefaultReadTimeout, l.ReadTimeout())
	})

	t.Run("fixed driver", func(t *testing.T) {
		fixed := withOpener(func(Config) (Port, error) { return fixedPort{newFakePort(nil)}, nil })
		l, err := Open(context.Background(), testConfig(), fixed)
		require.NoError(t, err)
		defer l.Close()

		assert.ErrorIs(t, l.SetReadTimeout(time.Second), ErrReadTimeoutFixed)
		assert.Equal(t, DefaultReadTimeout, l.ReadTimeout())
	})
}

func TestRunDumpToDirectory(t *testing.T) {
	dir := t.TempDir()
	port := newFakePort(nil)
	port.respond = func(b []byte) []byte {
		if len(b) > 0 && b[0] == protocol.TagRead {
			return bytes.Repeat([]byte{0x5A}, protocol.UnitSizeBytes)
		}
		return nil
	}

	err := Run(context.Background(), testConfig(), func(l *Link) error {
		_, err := eeprom.New(l).DumpFile(context.Background(), protocol.Request{Count: 1}, dir)
		return err
	}, openFake(port))

	var fileErr *eeprom.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, dir, fileErr.Path)

	assert.Equal(t, "R 0001 0000 \n", port.tx.String())
	require.GreaterOrEqual(t, len(port.calls), 3)
	assert.Equal(t, "reset-input", port.calls[0], "stale input is discarded before the header")
	assert.Equal(t, []string{"reset-input", "reset-output", "close"}, port.calls[len(port.calls)-3:])
}

func TestAwaitReadyCapsLinkTimeout(t *testing.T) {
	port := newFakePort(nil)
	port.respond = func(b []byte) []byte {
		if len(b) > 0 && b[0] == protocol.TagWrite {
			return []byte{protocol.ReadyMarker}
		}
		return nil
	}

	err := Run(context.Background(), testConfig(), func(l *Link) error {
		_, err := eeprom.New(l).Write(context.Background(), protocol.Request{Count: 1}, bytes.NewReader(make([]byte, 1024)))
		return err
	}, openFake(port))
	require.NoError(t, err)

	// capped to the 10s ready budget, then restored
	require.Len(t, port.timeouts, 2)
	assert.LessOrEqual(t, port.timeouts[0], eeprom.DefaultReadyTimeout)
	assert.Equal(t, DefaultReadTimeout, port.timeouts[1])
}
