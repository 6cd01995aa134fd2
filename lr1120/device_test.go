package lr1120_test

import (
	"context"
	"errors"
	"testing"

	"go.viam.com/test"

	"github.com/viam-modules/lr1120/lr1120"
	"github.com/viam-modules/lr1120/opcodes"
	"github.com/viam-modules/lr1120/status"
)

func TestGetStatus(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	hdr := status.EncodeStatus(status.CmdOk, true, status.ResetExternal, status.ModeRc)
	bus.Respond(nil)
	bus.Respond([]byte{hdr[0], hdr[1], 0x00, 0x00, 0x00, 0x0C})

	cs, err := dev.GetStatus(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cs.Status.Cmd(), test.ShouldEqual, status.CmdOk)
	test.That(t, cs.Status.IrqPending(), test.ShouldBeTrue)
	test.That(t, cs.Status.ResetSource(), test.ShouldEqual, status.ResetExternal)
	test.That(t, cs.Status.ChipMode(), test.ShouldEqual, status.ModeRc)
	test.That(t, cs.Intr.Match(status.IrqTxDone), test.ShouldBeTrue)
	test.That(t, cs.Intr.Match(status.IrqRxDone), test.ShouldBeTrue)
	test.That(t, cs.Intr.Match(status.IrqTimeout), test.ShouldBeFalse)
}

func TestGetStatusReportsFailures(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	hdr := status.EncodeStatus(status.CmdFail, false, status.ResetCleared, status.ModeSleep)
	bus.Respond(nil)
	bus.Respond([]byte{hdr[0], hdr[1], 0, 0, 0, 0})

	// A failed previous command is part of the report, not an error.
	cs, err := dev.GetStatus(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cs.Status.Cmd(), test.ShouldEqual, status.CmdFail)
}

func TestGetVersion(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0x22, 0x02, 0x01, 0x01})

	v, err := dev.GetVersion(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v.HWVersion, test.ShouldEqual, 0x22)
	test.That(t, v.HWType, test.ShouldEqual, opcodes.HWLr1120)
	test.That(t, v.FirmwareMajor, test.ShouldEqual, 1)
	test.That(t, v.FirmwareMinor, test.ShouldEqual, 1)
}

func TestGetVbat(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0xFF})

	volts, err := dev.GetVbat(ctx)
	test.That(t, err, test.ShouldBeNil)
	// Full scale reads (5 - 1) * 1.35.
	test.That(t, volts, test.ShouldAlmostEqual, 5.4, 0.001)
}

func TestReadRxBufferCopiesOut(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0x11, 0x22, 0x33})

	first, err := dev.ReadRxBuffer(ctx, 0, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first, test.ShouldResemble, []byte{0x11, 0x22, 0x33})

	// A later transaction must not clobber an already returned payload.
	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0xAA, 0xBB, 0xCC})
	_, err = dev.ReadRxBuffer(ctx, 0, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first, test.ShouldResemble, []byte{0x11, 0x22, 0x33})
}

func TestComputeAesCmac(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0x00, 0xDE, 0xAD, 0xBE, 0xEF})

	mic, err := dev.ComputeAesCmac(ctx, opcodes.KeyNwk, []byte{0x01, 0x02, 0x03})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mic, test.ShouldEqual, uint32(0xDEADBEEF))

	// The CMAC payload rides in the same frame as the command.
	transfers := bus.Transfers()
	test.That(t, transfers[0], test.ShouldResemble, []byte{0x05, 0x05, 0x02, 0x01, 0x02, 0x03})
}

func TestVerifyAesCmacMismatch(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0x01}) // engine reports a cmac mismatch

	err := dev.VerifyAesCmac(ctx, opcodes.KeyNwk, 0x11223344, []byte{0x01})
	var cerr *lr1120.CryptoError
	test.That(t, errors.As(err, &cerr), test.ShouldBeTrue)
	test.That(t, cerr.Status, test.ShouldEqual, opcodes.CeFailCmac)
}

func TestReadWifiResultsChunksOnRecordBoundaries(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	// Count query.
	bus.Respond(nil)
	bus.Respond([]byte{0x04, 2})
	// Two 9-byte basic records in one chunk.
	rec1 := []byte{0x01, 0x0B, 0xB0, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	rec2 := []byte{0x02, 0x06, 0xC5, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	bus.Respond(nil)
	bus.Respond(append(append([]byte{0x04}, rec1...), rec2...))

	results, err := dev.ReadWifiResults(ctx, opcodes.WifiFormatBasic)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(results), test.ShouldEqual, 2)
	test.That(t, results[0].RssiDbm, test.ShouldEqual, int8(-80))
	test.That(t, results[0].Channel(), test.ShouldEqual, 11)
	test.That(t, results[0].Mac, test.ShouldResemble, [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF})
	test.That(t, results[1].Channel(), test.ShouldEqual, 6)

	// The read request asked for both records starting at index zero.
	transfers := bus.Transfers()
	test.That(t, transfers[2], test.ShouldResemble, []byte{0x03, 0x06, 0x00, 0x02, 0x04})
}

func TestGnssResultsRead(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	// Size query, then the NAV stream.
	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0x00, 0x04})
	bus.Respond(nil)
	bus.Respond([]byte{0x04, 0x01, 0x2A, 0x2B, 0x2C})

	nav, err := dev.ReadGnssResults(ctx)
	test.That(t, err, test.ShouldBeNil)
	// First byte of the stream is the destination tag.
	test.That(t, nav, test.ShouldResemble, []byte{0x01, 0x2A, 0x2B, 0x2C})
}

func TestUpdateGnssAlmanacRejectsRaggedImage(t *testing.T) {
	ctx := context.Background()
	dev, bus, _, _ := newTestDevice(t, 0)

	err := dev.UpdateGnssAlmanac(ctx, make([]byte, 25))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(bus.Transfers()), test.ShouldEqual, 0)
}
