package protocol

// Command direction tags.
const (
	// TagWrite starts a host-to-device transfer
	TagWrite = 'W'

	// TagRead starts a device-to-host transfer
	TagRead = 'R'
)

// Handshake markers.
const (
	// ReadyMarker is sent by the device when it can accept write data (0x2D)
	ReadyMarker = '-'

	// StartMarker is sent by the host right before the write payload (0x7E)
	StartMarker = '~'

	// Terminator ends every command header
	Terminator = '\n'

	// FieldSeparator separates the header fields
	FieldSeparator = ' '
)

// Header layout.
const (
	// FieldDigits is the number of hex digits per numeric header field
	FieldDigits = 4

	// MaxFieldValue is the largest value a 4-digit hex field can carry
	MaxFieldValue = 0xFFFF

	// WriteHeaderSize is len("W 0040 0000\n")
	WriteHeaderSize = 1 + 1 + FieldDigits + 1 + FieldDigits + 1

	// ReadHeaderSize is len("R 0040 0000 \n")
	ReadHeaderSize = WriteHeaderSize + 1
)

// Transfer sizing.
//
// UnitSizeBytes and StreamChunkBytes are numerically equal today but are
// independent: the first defines what one COUNT/OFFSET unit means on the
// device, the second is only the host's write granularity.
const (
	// UnitSizeBytes is the size of one COUNT/OFFSET unit
	UnitSizeBytes = 1024

	// StreamChunkBytes is the maximum payload size per device write
	StreamChunkBytes = 1024
)

// Defaults used by the original command line tool.
const (
	// DefaultCount is the default window end in kilobyte units (64 KiB parts)
	DefaultCount = 64

	// DefaultOffset is the default window start in kilobyte units
	DefaultOffset = 0

	// DefaultBaudRate is the firmware's UART speed
	DefaultBaudRate = 115200
)
