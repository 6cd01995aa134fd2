package lr1120_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.viam.com/rdk/logging"
	"go.viam.com/test"

	"github.com/viam-modules/lr1120/lr1120"
	"github.com/viam-modules/lr1120/status"
	"github.com/viam-modules/lr1120/testutils"
)

func newTestDevice(t *testing.T, busyFor int) (*lr1120.Device, *testutils.ScriptedBus, *testutils.RecordingPin, *testutils.ScriptedReady) {
	t.Helper()
	bus := &testutils.ScriptedBus{}
	nss := &testutils.RecordingPin{}
	ready := &testutils.ScriptedReady{BusyFor: busyFor}
	return lr1120.NewDevice(bus, nss, ready, logging.NewTestLogger(t)), bus, nss, ready
}

func TestWriteReadOrdering(t *testing.T) {
	ctx := context.Background()
	dev, bus, nss, ready := newTestDevice(t, 3)

	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0xAB})

	req := []byte{0x01, 0x01}
	resp, err := dev.WriteRead(ctx, req, 2, time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp, test.ShouldResemble, []byte{0x04, 0xAB})

	// The read phase must not start until the busy line released: three busy
	// samples plus the releasing one, all before the second transfer.
	test.That(t, ready.Polls(), test.ShouldEqual, 4)

	transfers := bus.Transfers()
	test.That(t, len(transfers), test.ShouldEqual, 2)
	test.That(t, transfers[0], test.ShouldResemble, req)
	// The probe frame clocks out zeros so no stray command is latched.
	test.That(t, transfers[1], test.ShouldResemble, []byte{0x00, 0x00})

	// Chip select framed each phase and ended released.
	test.That(t, nss.History(), test.ShouldResemble, []bool{false, true, false, true})
}

func TestWriteReadReadyTimeout(t *testing.T) {
	ctx := context.Background()
	dev, bus, nss, _ := newTestDevice(t, -1)

	_, err := dev.WriteRead(ctx, []byte{0x01, 0x01}, 2, 2*time.Millisecond)
	test.That(t, errors.Is(err, lr1120.ErrReadyTimeout), test.ShouldBeTrue)

	// Only the request went out, and the chip was deselected before the
	// failure surfaced.
	test.That(t, len(bus.Transfers()), test.ShouldEqual, 1)
	test.That(t, nss.Released(), test.ShouldBeTrue)
}

func TestWriteCheckedRejection(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	bus.Respond(nil)
	bus.Respond([]byte{0x02}) // invalid parameters

	err := dev.WriteChecked(ctx, []byte{0x02, 0x0B, 0x00, 0x00, 0x00, 0x00}, time.Second)
	test.That(t, errors.Is(err, status.ErrInvalidParams), test.ShouldBeTrue)

	// A rejection ends the transaction; nothing else goes on the bus.
	test.That(t, len(bus.Transfers()), test.ShouldEqual, 2)
}

func TestWriteCheckedFailure(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	bus.Respond(nil)
	bus.Respond([]byte{0x00}) // could not be executed

	err := dev.WriteChecked(ctx, []byte{0x01, 0x1C, 0x00}, time.Second)
	test.That(t, errors.Is(err, status.ErrCommandFailed), test.ShouldBeTrue)
}

func TestWriteCheckedSuccess(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 1)

	bus.Respond(nil)
	bus.Respond([]byte{0x04})

	err := dev.WriteChecked(ctx, []byte{0x01, 0x1C, 0x00}, time.Second)
	test.That(t, err, test.ShouldBeNil)
}

func TestWriteWithPayloadFraming(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	req := []byte{0x01, 0x09}
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	err := dev.WriteWithPayload(ctx, req, payload)
	test.That(t, err, test.ShouldBeNil)

	transfers := bus.Transfers()
	test.That(t, len(transfers), test.ShouldEqual, 1)
	test.That(t, transfers[0], test.ShouldResemble, []byte{0x01, 0x09, 0xDE, 0xAD, 0xBE, 0xEF})
}

func TestWritePayloadOverflow(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	payload := make([]byte, dev.BufferCapacity())
	err := dev.WriteWithPayload(ctx, []byte{0x01, 0x09}, payload)
	test.That(t, errors.Is(err, lr1120.ErrBufferOverflow), test.ShouldBeTrue)

	// The overflow is detected at staging; nothing touches the bus.
	test.That(t, len(bus.Transfers()), test.ShouldEqual, 0)
}

func TestReadStreaming(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0x01, 0x02, 0x03})
	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0x04})

	var offsets []int
	build := func(offset int) []byte {
		offsets = append(offsets, offset)
		return []byte{0x01, 0x0A, byte(offset)}
	}

	out, err := dev.ReadStreaming(ctx, build, 6, 4, time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, []byte{0x04, 0x01, 0x02, 0x03, 0x04, 0x04})
	test.That(t, offsets, test.ShouldResemble, []int{0, 4})
}

func TestReadStreamingPartialFailure(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0x01, 0x02, 0x03})
	boom := errors.New("wire fell out")
	bus.FailOn(2, boom) // second chunk's request phase

	build := func(offset int) []byte {
		return []byte{0x01, 0x0A, byte(offset)}
	}

	out, err := dev.ReadStreaming(ctx, build, 6, 4, time.Second)
	test.That(t, errors.Is(err, boom), test.ShouldBeTrue)
	// The first chunk survives; assembly is abandoned, not retried.
	test.That(t, out, test.ShouldResemble, []byte{0x04, 0x01, 0x02, 0x03})
}

func TestReadStreamingChunkBudget(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	_, err := dev.ReadStreaming(ctx, func(int) []byte { return nil }, 10, dev.BufferCapacity()+1, time.Second)
	test.That(t, errors.Is(err, lr1120.ErrBufferOverflow), test.ShouldBeTrue)
	test.That(t, len(bus.Transfers()), test.ShouldEqual, 0)
}

func TestTransportErrorWrapped(t *testing.T) {
	ctx := context.Background()
	dev, bus, nss, _ := newTestDevice(t, 0)

	boom := errors.New("spidev gone")
	bus.FailOn(0, boom)

	err := dev.Write(ctx, []byte{0x01, 0x0E})
	var terr *lr1120.TransportError
	test.That(t, errors.As(err, &terr), test.ShouldBeTrue)
	test.That(t, errors.Is(err, boom), test.ShouldBeTrue)
	test.That(t, nss.Released(), test.ShouldBeTrue)
}

func TestWaitReadyContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dev, _, _, _ := newTestDevice(t, -1)

	err := dev.WaitReady(ctx, time.Second)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
