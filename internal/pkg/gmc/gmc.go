// Package gmc drives GQ Electronics GMC Geiger counters over their serial
// link using the GQ-RFC1201 command set.
package gmc

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/anicoll/gqgmc-mqtt/pkg/serialport"
)

const (
	cmdHeartbeatOff = "<HEARTBEAT0>>"
	cmdGetVersion   = "<GETVER>>"
	cmdGetSerial    = "<GETSERIAL>>"
	cmdGetCPM       = "<GETCPM>>"

	versionSize = 14
	serialSize  = 7
)

var (
	// ErrConnect means the instrument could not be opened at startup.
	ErrConnect = errors.New("can't connect to unit")
	// ErrTimeout means the instrument did not answer a query in time.
	ErrTimeout = errors.New("instrument did not respond")
)

type GMC struct {
	mu      sync.Mutex
	conn    serialport.Connection
	version string
	logger  *zap.Logger
}

// Open connects to the instrument on port and disables heartbeat output
// so that only query responses arrive on the link.
func Open(port string, baudRate int, opts ...func(*serialport.Conn)) (*GMC, error) {
	opts = append([]func(*serialport.Conn){serialport.WithBaudRate(baudRate)}, opts...)
	conn := serialport.New(port, opts...)
	if err := conn.Open(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	g := New(conn)
	if err := g.conn.Write([]byte(cmdHeartbeatOff)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	if err := g.conn.Flush(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	g.logger.Info("connected to unit", zap.String("port", port), zap.Int("baud_rate", baudRate))
	return g, nil
}

// New wraps an already open connection.
func New(conn serialport.Connection) *GMC {
	return &GMC{
		conn:   conn,
		logger: zap.L(),
	}
}

func (g *GMC) query(ctx context.Context, cmd string, size int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := g.conn.Query([]byte(cmd), size)
	if err != nil {
		if errors.Is(err, serialport.ErrTimeout) {
			return nil, fmt.Errorf("%s: %w: %w", cmd, ErrTimeout, err)
		}
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	return res, nil
}

// GetVersion returns the model and firmware string, e.g. "GMC-500+Re 2.42".
func (g *GMC) GetVersion(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	res, err := g.query(ctx, cmdGetVersion, versionSize)
	if err != nil {
		return "", err
	}
	g.version = parseVersion(res)
	return g.version, nil
}

// GetSerialNumber returns the 7 byte serial number as upper case hex.
func (g *GMC) GetSerialNumber(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	res, err := g.query(ctx, cmdGetSerial, serialSize)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(res)), nil
}

// GetCPM returns the current counts per minute. The response width
// depends on the model family, so GetVersion is queried first if the
// model is not known yet.
func (g *GMC) GetCPM(ctx context.Context) (uint32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.version == "" {
		res, err := g.query(ctx, cmdGetVersion, versionSize)
		if err != nil {
			return 0, err
		}
		g.version = parseVersion(res)
	}

	size := cpmSize(g.version)
	res, err := g.query(ctx, cmdGetCPM, size)
	if err != nil {
		return 0, err
	}
	return decodeCPM(res), nil
}

func (g *GMC) Close() error {
	return g.conn.Close()
}

func parseVersion(res []byte) string {
	return strings.TrimSpace(strings.Trim(string(res), "\x00"))
}

// cpmSize is 4 bytes for the GMC-500, GMC-600 and GMC-800 families and
// 2 bytes for older units.
func cpmSize(version string) int {
	for _, family := range []string{"GMC-5", "GMC-6", "GMC-8"} {
		if strings.HasPrefix(version, family) {
			return 4
		}
	}
	return 2
}

func decodeCPM(res []byte) uint32 {
	if len(res) == 4 {
		return uint32(res[0])<<24 | uint32(res[1])<<16 | uint32(res[2])<<8 | uint32(res[3])
	}
	// the two high bits of the 2 byte form are flags
	return (uint32(res[0])<<8 | uint32(res[1])) & 0x3fff
}
