package status

import (
	"testing"

	"go.viam.com/test"
)

func TestDecodeIntrScenario(t *testing.T) {
	// 0x00000408: RxDone (bit 3) and Timeout (bit 10), nothing else.
	i := DecodeIntr([]byte{0x00, 0x00, 0x04, 0x08})
	test.That(t, i.RxDone(), test.ShouldBeTrue)
	test.That(t, i.Timeout(), test.ShouldBeTrue)

	test.That(t, i.TxDone(), test.ShouldBeFalse)
	test.That(t, i.PreambleDetected(), test.ShouldBeFalse)
	test.That(t, i.SyncHeaderValid(), test.ShouldBeFalse)
	test.That(t, i.HeaderErr(), test.ShouldBeFalse)
	test.That(t, i.CrcError(), test.ShouldBeFalse)
	test.That(t, i.CadDone(), test.ShouldBeFalse)
	test.That(t, i.CadDetected(), test.ShouldBeFalse)
	test.That(t, i.LrFhssHop(), test.ShouldBeFalse)
	test.That(t, i.GnssDone(), test.ShouldBeFalse)
	test.That(t, i.GnssAbort(), test.ShouldBeFalse)
	test.That(t, i.WifiDone(), test.ShouldBeFalse)
	test.That(t, i.LowBat(), test.ShouldBeFalse)
	test.That(t, i.CmdError(), test.ShouldBeFalse)
	test.That(t, i.Error(), test.ShouldBeFalse)
	test.That(t, i.LenError(), test.ShouldBeFalse)
	test.That(t, i.AddrError(), test.ShouldBeFalse)
	test.That(t, i.RxTimestamp(), test.ShouldBeFalse)
}

func TestIntrAccessorsAreIndependent(t *testing.T) {
	// Each accessor tests its own bit regardless of the others.
	all := Intr(0xFFFFFFFF)
	test.That(t, all.RxDone(), test.ShouldBeTrue)
	test.That(t, all.TxDone(), test.ShouldBeTrue)
	test.That(t, all.Timeout(), test.ShouldBeTrue)
	test.That(t, all.WifiDone(), test.ShouldBeTrue)
	test.That(t, all.GnssDone(), test.ShouldBeTrue)
	test.That(t, all.RxError(), test.ShouldBeTrue)

	masks := []Intr{
		IrqTxDone, IrqRxDone, IrqPreambleDetected, IrqSyncHeaderValid,
		IrqHeaderErr, IrqCrcError, IrqCadDone, IrqCadDetected, IrqTimeout,
		IrqLrFhssHop, IrqGnssDone, IrqWifiDone, IrqLowBat, IrqCmdError,
		IrqError, IrqLenError, IrqAddrError, IrqRxTimestamp, IrqGnssAbort,
	}
	for _, m := range masks {
		test.That(t, m.Match(m), test.ShouldBeTrue)
		test.That(t, (^m).Match(m), test.ShouldBeFalse)
	}
}

func TestIrqMasksAreIntrTyped(t *testing.T) {
	// Combined masks pass straight into Intr-typed parameters without
	// conversion; mixing them with a snapshot stays in one type.
	var combined Intr = IrqTxDone | IrqRxDone | IrqTimeout
	snapshot := DecodeIntr([]byte{0x00, 0x00, 0x04, 0x0C})
	test.That(t, snapshot.Match(combined), test.ShouldBeTrue)
	test.That(t, snapshot.Match(IrqLoraTxRx), test.ShouldBeTrue)
	test.That(t, snapshot.Match(IrqRxError), test.ShouldBeFalse)
}

func TestIntrAccessorsCommuteWithOr(t *testing.T) {
	// OR-ing two snapshots sets an accessor iff it was set in either one.
	a := IrqRxDone | IrqCrcError
	b := IrqTimeout | IrqWifiDone
	or := a | b

	masks := []Intr{IrqRxDone, IrqCrcError, IrqTimeout, IrqWifiDone, IrqTxDone}
	for _, m := range masks {
		test.That(t, or.Match(m), test.ShouldEqual, a.Match(m) || b.Match(m))
	}
}

func TestDecodeIntrShortSlices(t *testing.T) {
	// Interrupt values riding along short commands are zero-extended.
	test.That(t, DecodeIntr(nil), test.ShouldEqual, Intr(0))
	test.That(t, DecodeIntr([]byte{0x00, 0x40}), test.ShouldEqual, Intr(0x00400000))
	test.That(t, DecodeIntr([]byte{0x00, 0x00, 0x04, 0x08, 0xFF}), test.ShouldEqual, Intr(0x408))
}

func TestIntrString(t *testing.T) {
	test.That(t, Intr(0).String(), test.ShouldEqual, "none")
	test.That(t, (IrqRxDone | IrqTimeout).String(), test.ShouldEqual, "Timeout RxDone")
}
