package serialport

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort answers each written command with the scripted response.
type fakePort struct {
	mu        sync.Mutex
	responses map[string][]byte
	pending   bytes.Buffer
	written   [][]byte
	resets    int
	closed    bool
	chunk     int
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = append(p.written, append([]byte(nil), b...))
	p.pending.Write(p.responses[string(b)])
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending.Len() == 0 {
		return 0, nil
	}
	if p.chunk > 0 && len(b) > p.chunk {
		b = b[:p.chunk]
	}
	return p.pending.Read(b)
}

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
	p.pending.Reset()
	return nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func openFake(p *fakePort) Opener {
	return func(string, int) (Port, error) { return p, nil }
}

func TestConn_Query(t *testing.T) {
	tests := map[string]struct {
		responses map[string][]byte
		chunk     int
		size      int
		want      []byte
		wantErr   error
	}{
		"whole frame": {
			responses: map[string][]byte{"<GETCPM>>": {0x00, 0x2a}},
			size:      2,
			want:      []byte{0x00, 0x2a},
		},
		"frame split across reads": {
			responses: map[string][]byte{"<GETCPM>>": {0x00, 0x00, 0x00, 0x2a}},
			chunk:     1,
			size:      4,
			want:      []byte{0x00, 0x00, 0x00, 0x2a},
		},
		"short response times out": {
			responses: map[string][]byte{"<GETCPM>>": {0x01}},
			size:      2,
			wantErr:   ErrTimeout,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			port := &fakePort{responses: tt.responses, chunk: tt.chunk}
			c := New("/dev/fake", WithOpener(openFake(port)), WithReadTimeout(50*time.Millisecond))
			require.NoError(t, c.Open())

			got, err := c.Query([]byte("<GETCPM>>"), tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, port.resets)
		})
	}
}

func TestConn_OpenFailure(t *testing.T) {
	boom := errors.New("no such device")
	c := New("/dev/missing", WithOpener(func(string, int) (Port, error) { return nil, boom }))

	assert.ErrorIs(t, c.Open(), boom)
	_, err := c.Query([]byte("<GETVER>>"), 14)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConn_WriteAndClose(t *testing.T) {
	port := &fakePort{}
	var gotBaud int
	c := New("/dev/fake", WithBaudRate(115200), WithOpener(func(_ string, baud int) (Port, error) {
		gotBaud = baud
		return port, nil
	}))
	require.NoError(t, c.Open())
	assert.Equal(t, 115200, gotBaud)

	require.NoError(t, c.Write([]byte("<HEARTBEAT0>>")))
	require.NoError(t, c.Flush())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.True(t, port.closed)
	assert.Equal(t, [][]byte{[]byte("<HEARTBEAT0>>")}, port.written)
	assert.ErrorIs(t, c.Write([]byte("x")), ErrClosed)
}
