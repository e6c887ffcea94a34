package serialport

import "time"

func WithBaudRate(baud int) func(*Conn) {
	return func(c *Conn) {
		c.baudRate = baud
	}
}

// WithReadTimeout bounds how long Query waits for a complete response.
func WithReadTimeout(d time.Duration) func(*Conn) {
	return func(c *Conn) {
		c.readTimeout = d
	}
}

// WithOpener replaces the function used to open the device.
func WithOpener(open Opener) func(*Conn) {
	return func(c *Conn) {
		c.open = open
	}
}
