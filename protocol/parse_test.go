package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    Request
		wantErr string
	}{
		{
			name:   "write header",
			header: "W 0040 0000\n",
			want:   Request{Direction: Write, Count: 64, Offset: 0},
		},
		{
			name:   "read header with trailing space",
			header: "R 0040 0010 \n",
			want:   Request{Direction: Read, Count: 64, Offset: 16},
		},
		{
			name:   "upper-case hex",
			header: "W FFFF 00AB\n",
			want:   Request{Direction: Write, Count: 0xFFFF, Offset: 0xAB},
		},
		{
			name:    "too short",
			header:  "W 40 0\n",
			wantErr: "header too short",
		},
		{
			name:    "unknown tag",
			header:  "X 0040 0000\n",
			wantErr: "unknown direction tag",
		},
		{
			name:    "read header without trailing space",
			header:  "R 0040 0000\n",
			wantErr: "unexpected header length",
		},
		{
			name:    "bad separator",
			header:  "W_0040 0000\n",
			wantErr: "missing field separator",
		},
		{
			name:    "missing terminator",
			header:  "W 0040 0000 ",
			wantErr: "missing terminator",
		},
		{
			name:    "non hex count",
			header:  "W 00zz 0000\n",
			wantErr: "invalid count field",
		},
		{
			name:    "non hex offset",
			header:  "R 0040 -001 \n",
			wantErr: "invalid offset field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseCommand([]byte(tt.header))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsHeaderError(err), "error type = %T, want *HeaderError", err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, req)
		})
	}
}

func TestParseCommandRoundTrip(t *testing.T) {
	for _, dir := range []Direction{Write, Read} {
		for _, w := range [][2]uint16{{64, 0}, {0x1234, 0x0042}, {0, 0}, {0xFFFF, 0xFFFE}} {
			req := Request{Direction: dir, Count: w[0], Offset: w[1]}

			header, err := BuildCommand(req)
			require.NoError(t, err)

			got, err := ParseCommand(header)
			require.NoError(t, err)
			assert.Equal(t, req, got, "header %q", header)
		}
	}
}

func TestSplitHeader(t *testing.T) {
	header, rest, ok := SplitHeader([]byte("W 0001 0000\n~payload"))
	require.True(t, ok)
	assert.Equal(t, "W 0001 0000\n", string(header))
	assert.Equal(t, "~payload", string(rest))

	_, rest, ok = SplitHeader([]byte("R 0001 00"))
	assert.False(t, ok)
	assert.Equal(t, "R 0001 00", string(rest))
}
