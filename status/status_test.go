package status

import (
	"testing"

	"go.viam.com/test"
)

func TestDecodeStatusFields(t *testing.T) {
	// Ok outcome, no interrupt, sleep mode: only bit 10 set.
	s := DecodeStatus([]byte{0x04, 0x00})
	test.That(t, s.Cmd(), test.ShouldEqual, CmdOk)
	test.That(t, s.IrqPending(), test.ShouldBeFalse)
	test.That(t, s.ResetSource(), test.ShouldEqual, ResetCleared)
	test.That(t, s.ChipMode(), test.ShouldEqual, ModeSleep)
	test.That(t, s.Check(), test.ShouldBeNil)

	// Data outcome with interrupt pending, external reset, RX mode.
	s = DecodeStatus([]byte{0x07, 0x24})
	test.That(t, s.Cmd(), test.ShouldEqual, CmdData)
	test.That(t, s.IrqPending(), test.ShouldBeTrue)
	test.That(t, s.ResetSource(), test.ShouldEqual, ResetExternal)
	test.That(t, s.ChipMode(), test.ShouldEqual, ModeRx)
	test.That(t, s.Check(), test.ShouldBeNil)

	// Fail outcome.
	s = DecodeStatus([]byte{0x00, 0x00})
	test.That(t, s.Cmd(), test.ShouldEqual, CmdFail)
	test.That(t, s.Check(), test.ShouldBeError, ErrCommandFailed)

	// Parameter error outcome.
	s = DecodeStatus([]byte{0x02, 0x00})
	test.That(t, s.Cmd(), test.ShouldEqual, CmdPerr)
	test.That(t, s.Check(), test.ShouldBeError, ErrInvalidParams)

	// Bit pattern outside the defined outcomes.
	s = DecodeStatus([]byte{0x48, 0x00})
	test.That(t, s.Cmd(), test.ShouldEqual, CmdUnknown)
	test.That(t, s.Check(), test.ShouldBeError, ErrUnknownStatus)
}

func TestDecodeStatusBitOffsets(t *testing.T) {
	// Pin the documented field offsets: outcome 11:9, irq 8, reset 7:4, mode 2:0.
	s := Status(2 << 9)
	test.That(t, s.Cmd(), test.ShouldEqual, CmdOk)
	s = Status(1 << 8)
	test.That(t, s.IrqPending(), test.ShouldBeTrue)
	s = Status(4 << 4)
	test.That(t, s.ResetSource(), test.ShouldEqual, ResetWatchdog)
	s = Status(5)
	test.That(t, s.ChipMode(), test.ShouldEqual, ModeTx)
	test.That(t, s.Context(), test.ShouldEqual, ContextFlash)
	test.That(t, Status(4).Context(), test.ShouldEqual, ContextBootloader)
}

func TestStatusRoundTrip(t *testing.T) {
	outcomes := []CmdStatus{CmdFail, CmdPerr, CmdOk, CmdData}
	resets := []ResetSource{
		ResetCleared, ResetAnalog, ResetExternal, ResetSystem,
		ResetWatchdog, ResetIocd, ResetRtc,
	}
	modes := []ChipMode{ModeSleep, ModeRc, ModeXosc, ModeFs, ModeRx, ModeTx, ModeLoc}

	for _, cmd := range outcomes {
		for _, irq := range []bool{false, true} {
			for _, rst := range resets {
				for _, mode := range modes {
					b := EncodeStatus(cmd, irq, rst, mode)
					s := DecodeStatus(b[:])
					test.That(t, s.Cmd(), test.ShouldEqual, cmd)
					test.That(t, s.IrqPending(), test.ShouldEqual, irq)
					test.That(t, s.ResetSource(), test.ShouldEqual, rst)
					test.That(t, s.ChipMode(), test.ShouldEqual, mode)
				}
			}
		}
	}
}

func TestShortFormEquivalence(t *testing.T) {
	// A single status byte decodes exactly like the two-byte form with the
	// low byte forced to zero, for every possible byte value.
	for v := 0; v < 256; v++ {
		b := byte(v)
		short := DecodeStatus([]byte{b})
		long := DecodeStatus([]byte{b, 0x00})
		test.That(t, short, test.ShouldEqual, long)
	}

	s := DecodeStatus([]byte{0x40})
	test.That(t, s, test.ShouldEqual, DecodeStatus([]byte{0x40, 0x00}))

	// Short form never reports a reset source or chip mode.
	test.That(t, s.ResetSource(), test.ShouldEqual, ResetCleared)
	test.That(t, s.ChipMode(), test.ShouldEqual, ModeSleep)
}

func TestDecodeStatusEmpty(t *testing.T) {
	s := DecodeStatus(nil)
	test.That(t, s, test.ShouldEqual, Status(0))
	test.That(t, s.Cmd(), test.ShouldEqual, CmdFail)
}
