// Package serialport wraps a serial device with a request/response
// helper for command protocols that answer with fixed-size frames.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	DefaultBaudRate    = 57600
	DefaultReadTimeout = 2 * time.Second

	pollInterval = 100 * time.Millisecond
)

var (
	ErrClosed  = errors.New("closed connection")
	ErrTimeout = errors.New("timed out waiting for response")
)

// Port is the part of a serial device Conn depends on.
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
}

// Opener opens the named device.
type Opener func(name string, baudRate int) (Port, error)

type Connection interface {
	Open() error
	Query(cmd []byte, size int) ([]byte, error)
	Write(cmd []byte) error
	Flush() error
	io.Closer
}

type Conn struct {
	mu          sync.Mutex
	name        string
	port        Port
	baudRate    int
	readTimeout time.Duration
	open        Opener
}

func New(name string, opts ...func(*Conn)) *Conn {
	c := &Conn{
		name:        name,
		baudRate:    DefaultBaudRate,
		readTimeout: DefaultReadTimeout,
		open:        openSerial,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func openSerial(name string, baudRate int) (Port, error) {
	return serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}

func (c *Conn) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	port, err := c.open(c.name, c.baudRate)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.name, err)
	}
	if err := port.SetReadTimeout(pollInterval); err != nil {
		_ = port.Close()
		return fmt.Errorf("set read timeout on %s: %w", c.name, err)
	}
	c.port = port
	return nil
}

// Write sends cmd without waiting for a response.
func (c *Conn) Write(cmd []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port == nil {
		return ErrClosed
	}
	_, err := c.port.Write(cmd)
	return err
}

// Query discards pending input, writes cmd and reads exactly size bytes.
func (c *Conn) Query(cmd []byte, size int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port == nil {
		return nil, ErrClosed
	}
	if err := c.port.ResetInputBuffer(); err != nil {
		return nil, err
	}
	if _, err := c.port.Write(cmd); err != nil {
		return nil, err
	}
	return c.readFull(size)
}

func (c *Conn) readFull(size int) ([]byte, error) {
	buf := make([]byte, size)
	read := 0
	deadline := time.Now().Add(c.readTimeout)
	for read < size {
		n, err := c.port.Read(buf[read:])
		read += n
		if err != nil && !errors.Is(err, io.EOF) {
			return buf[:read], err
		}
		if read < size && time.Now().After(deadline) {
			return buf[:read], fmt.Errorf("%w: got %d of %d bytes", ErrTimeout, read, size)
		}
	}
	return buf, nil
}

// Flush drops anything the device has sent that was not read.
func (c *Conn) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port == nil {
		return ErrClosed
	}
	return c.port.ResetInputBuffer()
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil
	return err
}
