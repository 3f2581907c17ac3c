package link

import (
	"fmt"
	"time"

	"github.com/goburrow/serial"
)

// SerialConfig describes a UART between the halves.
type SerialConfig struct {
	Address  string        `help:"Serial device" default:"/dev/ttyUSB0"`
	BaudRate int           `help:"Baud rate" default:"115200"`
	DataBits int           `help:"Data bits" default:"8"`
	StopBits int           `help:"Stop bits" default:"1"`
	Parity   string        `help:"Parity (N, E, O)" default:"N" enum:"N,E,O"`
	Timeout  time.Duration `help:"Read timeout; an idle line reports a timeout after this long" default:"100ms"`
}

// OpenSerial opens the UART described by c.
func OpenSerial(c SerialConfig) (serial.Port, error) {
	port, err := serial.Open(&serial.Config{
		Address:  c.Address,
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
		Timeout:  c.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", c.Address, err)
	}
	return port, nil
}
