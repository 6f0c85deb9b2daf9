package scanlink

import (
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// ByteSource is the transport the worker reads frames from and writes
// commands to. Read and Write may be called from different goroutines;
// the implementation must tolerate that. Close must be idempotent.
type ByteSource interface {
	io.ReadWriter
	io.Closer
}

// OpenFunc opens a transport. Workers default to OpenSerial; tests swap
// in an in-memory source.
type OpenFunc func(Params) (ByteSource, error)

// Params are the connection parameters for a serial session. Zero values
// mean the defaults noted per field.
type Params struct {
	Port        string
	BaudRate    int // default 115200
	DataBits    int // default 8
	Parity      serial.Parity
	StopBits    serial.StopBits
	ReadTimeout time.Duration // default 1s
}

func (p Params) withDefaults() Params {
	if p.BaudRate == 0 {
		p.BaudRate = 115200
	}
	if p.DataBits == 0 {
		p.DataBits = 8
	}
	if p.ReadTimeout == 0 {
		p.ReadTimeout = time.Second
	}
	return p
}

// OpenSerial opens the serial port described by p. Reads block until at
// least one byte is available or the read timeout expires, then return
// whatever is immediately buffered, so a loop around Read bounds both
// latency and idle CPU.
func OpenSerial(p Params) (ByteSource, error) {
	p = p.withDefaults()
	port, err := serial.Open(p.Port, &serial.Mode{
		BaudRate: p.BaudRate,
		DataBits: p.DataBits,
		Parity:   p.Parity,
		StopBits: p.StopBits,
	})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(p.ReadTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return &serialSource{port: port}, nil
}

type serialSource struct {
	port      serial.Port
	closeOnce sync.Once
	closeErr  error
}

func (s *serialSource) Read(b []byte) (int, error)  { return s.port.Read(b) }
func (s *serialSource) Write(b []byte) (int, error) { return s.port.Write(b) }

func (s *serialSource) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.port.Close() })
	return s.closeErr
}
