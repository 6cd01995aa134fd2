// Package lr1120 is a host-side driver for the Semtech LR1120 transceiver.
//
// The chip is controlled over SPI with an auxiliary busy line. Every command is
// a two-byte opcode plus fixed parameter bytes, optionally followed by a
// variable-length payload; every response begins with a one or two byte status
// header decoded by the status package. The Device serializes transactions and
// enforces the chip's timing contract: the result of a command is not on the
// wire until the busy line releases, so read phases always sit behind an
// explicit readiness wait.
package lr1120

import (
	"context"
	"sync"
	"time"

	"go.viam.com/rdk/logging"
	"go.viam.com/utils"
)

// Bus is the full-duplex serial link to the chip. Tx shifts w out while
// shifting the same number of bytes into r; w and r may alias. It matches the
// shape of a periph.io spi.Conn.
type Bus interface {
	Tx(w, r []byte) error
}

// Pin drives the chip-select (NSS) line. Implementations come from periph.io
// GPIO or an rdk board pin. NSS is active low: Set(ctx, false) asserts.
type Pin interface {
	Set(ctx context.Context, high bool) error
}

// ReadySource samples the chip's readiness. A dedicated busy pin reports ready
// when the line is low; boards with no busy line wired can substitute
// FixedDelay, which degrades to a timing assumption. Readiness is never
// cached: every wait re-samples the source.
type ReadySource interface {
	Ready(ctx context.Context) (bool, error)
}

// FixedDelay is the fallback ReadySource for hardware with no busy line
// wired: it treats a fixed short delay as sufficient. This is a deliberate
// degradation, not an error.
type FixedDelay struct {
	Delay time.Duration
}

// Ready waits the fixed delay and reports ready.
func (f FixedDelay) Ready(ctx context.Context) (bool, error) {
	if !utils.SelectContextOrWait(ctx, f.Delay) {
		return false, ctx.Err()
	}
	return true, nil
}

const readyPollInterval = 100 * time.Microsecond

// Device is a handle to one LR1120. It exclusively owns its chip-select line
// and bus; the busy line is read-only and may be shared. Methods never run
// concurrently on one handle - a transaction is atomic with respect to the
// chip-select line. Independent devices are independent.
type Device struct {
	mu     sync.Mutex
	bus    Bus
	nss    Pin
	ready  ReadySource
	buf    *buffer
	logger logging.Logger
}

// NewDevice builds a device handle over the given resources. The handle takes
// exclusive ownership of bus and nss.
func NewDevice(bus Bus, nss Pin, ready ReadySource, logger logging.Logger) *Device {
	return &Device{
		bus:    bus,
		nss:    nss,
		ready:  ready,
		buf:    newBuffer(defaultBufferCap),
		logger: logger,
	}
}

// BufferCapacity returns the fixed transaction buffer capacity. Responses and
// request+payload frames above this length are caller errors.
func (d *Device) BufferCapacity() int {
	return len(d.buf.data)
}
