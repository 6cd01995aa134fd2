package lr1120

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// The chip supports up to 16 MHz on the control interface; stay well under it
// so long jumper wiring still works.
const defaultSPISpeed = 8 * physic.MegaHertz

// SPIBus is a Bus over a periph.io SPI port. The port is opened without
// hardware chip select: the driver frames transactions with its own NSS pin
// because a single logical transaction spans two bus phases.
type SPIBus struct {
	port spi.PortCloser
	conn spi.Conn
}

// OpenSPI opens the SPI port registered under path (e.g. "/dev/spidev0.0" or
// "SPI0.0"). An empty path opens the first available port.
func OpenSPI(path string) (*SPIBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	port, err := spireg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spi port %q: %w", path, err)
	}
	conn, err := port.Connect(defaultSPISpeed, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		if cerr := port.Close(); cerr != nil {
			err = fmt.Errorf("%w (also failed to close port: %v)", err, cerr)
		}
		return nil, fmt.Errorf("failed to configure spi port %q: %w", path, err)
	}
	return &SPIBus{port: port, conn: conn}, nil
}

// Tx performs one full-duplex transfer.
func (s *SPIBus) Tx(w, r []byte) error {
	return s.conn.Tx(w, r)
}

// Close releases the port.
func (s *SPIBus) Close() error {
	return s.port.Close()
}

// GPIOPin is a Pin over a periph.io GPIO output, used for NSS when the board
// is driven directly rather than through an rdk board component.
type GPIOPin struct {
	pin gpio.PinOut
}

// OpenGPIOPin resolves a GPIO by name (e.g. "GPIO8") and configures it as an
// output, initially high (NSS deasserted).
func OpenGPIOPin(name string) (*GPIOPin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no gpio pin named %q", name)
	}
	if err := pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("failed to configure pin %q: %w", name, err)
	}
	return &GPIOPin{pin: pin}, nil
}

// Set drives the pin level.
func (g *GPIOPin) Set(ctx context.Context, high bool) error {
	return g.pin.Out(gpio.Level(high))
}

// BusyPin is a ReadySource over the chip's dedicated busy line: the chip is
// ready when the line reads low. Level triggered, sampled on every poll.
type BusyPin struct {
	pin gpio.PinIO
}

// OpenBusyPin resolves the busy line by name and configures it as an input.
func OpenBusyPin(name string) (*BusyPin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no gpio pin named %q", name)
	}
	if err := pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure pin %q: %w", name, err)
	}
	return &BusyPin{pin: pin}, nil
}

// Ready samples the busy line.
func (b *BusyPin) Ready(ctx context.Context) (bool, error) {
	return b.pin.Read() == gpio.Low, nil
}
