package status

import "strings"

// Intr is a read-only snapshot of the 32-bit interrupt word. It is cleared on
// the chip by an explicit clear-interrupts transaction, not by reading.
type Intr uint32

// Interrupt bit masks. Each bit is an independent event; all events raised
// since the last clear are OR'ed together with no ordering between them.
const (
	// IrqTxDone - packet transmission completed.
	IrqTxDone Intr = 0x00000004
	// IrqRxDone - packet received.
	IrqRxDone Intr = 0x00000008
	// IrqPreambleDetected - preamble detected.
	IrqPreambleDetected Intr = 0x00000010
	// IrqSyncHeaderValid - LoRa header detected / valid FSK sync word.
	IrqSyncHeaderValid Intr = 0x00000020
	// IrqHeaderErr - LoRa header CRC error.
	IrqHeaderErr Intr = 0x00000040
	// IrqCrcError - packet received with a wrong CRC.
	IrqCrcError Intr = 0x00000080
	// IrqCadDone - channel activity detection finished.
	IrqCadDone Intr = 0x00000100
	// IrqCadDetected - channel activity detected.
	IrqCadDetected Intr = 0x00000200
	// IrqTimeout - RX or TX timeout.
	IrqTimeout Intr = 0x00000400
	// IrqLrFhssHop - LR-FHSS intra-packet hop.
	IrqLrFhssHop Intr = 0x00000800
	// IrqGnssDone - GNSS scan finished.
	IrqGnssDone Intr = 0x00080000
	// IrqWifiDone - Wi-Fi scan finished.
	IrqWifiDone Intr = 0x00100000
	// IrqLowBat - low battery detected.
	IrqLowBat Intr = 0x00200000
	// IrqCmdError - a host command fail/error occurred.
	IrqCmdError Intr = 0x00400000
	// IrqError - another kind of error occurred (use GetErrors).
	IrqError Intr = 0x00800000
	// IrqLenError - packet received with a length error.
	IrqLenError Intr = 0x01000000
	// IrqAddrError - packet received with a wrong address match.
	IrqAddrError Intr = 0x02000000
	// IrqRxTimestamp - timestamps end of packet RX without demodulation delay.
	// Only for timestamping, not for changing mode or reconfiguring.
	IrqRxTimestamp Intr = 0x08000000
	// IrqGnssAbort - last GNSS command was aborted.
	IrqGnssAbort Intr = 0x10000000
)

// IrqLoraTxRx enables everything useful for LoRa TX/RX.
const IrqLoraTxRx = IrqPreambleDetected |
	IrqHeaderErr | IrqSyncHeaderValid |
	IrqRxDone | IrqTxDone |
	IrqCadDetected | IrqCadDone |
	IrqTimeout | IrqCrcError

// IrqFskTxRx enables everything useful for FSK TX/RX.
const IrqFskTxRx = IrqPreambleDetected |
	IrqRxDone | IrqTxDone |
	IrqLenError |
	IrqTimeout | IrqCrcError

// IrqRxError covers all reception error sources.
const IrqRxError = IrqHeaderErr | IrqCrcError | IrqLenError | IrqAddrError

// DecodeIntr interprets a big-endian interrupt word. Slices shorter than four
// bytes are zero-extended; this happens when the interrupt value rides along a
// command shorter than six bytes.
func DecodeIntr(bytes []byte) Intr {
	var v uint32
	for i := 0; i < 4; i++ {
		v <<= 8
		if i < len(bytes) {
			v |= uint32(bytes[i])
		}
	}
	return Intr(v)
}

// Value returns the raw interrupt word.
func (i Intr) Value() uint32 { return uint32(i) }

// Match reports whether any bit of mask is set.
func (i Intr) Match(mask Intr) bool { return i&mask != 0 }

// None reports whether no interrupt is raised.
func (i Intr) None() bool { return i == 0 }

// TxDone reports whether packet transmission completed.
func (i Intr) TxDone() bool { return i.Match(IrqTxDone) }

// RxDone reports whether a packet was received.
func (i Intr) RxDone() bool { return i.Match(IrqRxDone) }

// PreambleDetected reports whether a preamble was detected.
func (i Intr) PreambleDetected() bool { return i.Match(IrqPreambleDetected) }

// SyncHeaderValid reports a detected LoRa header or valid sync word.
func (i Intr) SyncHeaderValid() bool { return i.Match(IrqSyncHeaderValid) }

// HeaderErr reports a LoRa header CRC error.
func (i Intr) HeaderErr() bool { return i.Match(IrqHeaderErr) }

// CrcError reports a packet received with a wrong CRC.
func (i Intr) CrcError() bool { return i.Match(IrqCrcError) }

// CadDone reports channel activity detection finished.
func (i Intr) CadDone() bool { return i.Match(IrqCadDone) }

// CadDetected reports channel activity detected.
func (i Intr) CadDetected() bool { return i.Match(IrqCadDetected) }

// Timeout reports an RX or TX timeout.
func (i Intr) Timeout() bool { return i.Match(IrqTimeout) }

// LrFhssHop reports an LR-FHSS intra-packet hop.
func (i Intr) LrFhssHop() bool { return i.Match(IrqLrFhssHop) }

// GnssDone reports a finished GNSS scan.
func (i Intr) GnssDone() bool { return i.Match(IrqGnssDone) }

// GnssAbort reports an aborted GNSS command.
func (i Intr) GnssAbort() bool { return i.Match(IrqGnssAbort) }

// WifiDone reports a finished Wi-Fi scan.
func (i Intr) WifiDone() bool { return i.Match(IrqWifiDone) }

// LowBat reports a low battery level.
func (i Intr) LowBat() bool { return i.Match(IrqLowBat) }

// CmdError reports a host command fail/error.
func (i Intr) CmdError() bool { return i.Match(IrqCmdError) }

// Error reports an error other than a command error (see GetErrors).
func (i Intr) Error() bool { return i.Match(IrqError) }

// LenError reports a packet received with a length error.
func (i Intr) LenError() bool { return i.Match(IrqLenError) }

// AddrError reports a packet received with a wrong address match.
func (i Intr) AddrError() bool { return i.Match(IrqAddrError) }

// RxTimestamp reports the end-of-packet RX timestamp event.
func (i Intr) RxTimestamp() bool { return i.Match(IrqRxTimestamp) }

// RxError reports any reception error (address/length/header/CRC).
func (i Intr) RxError() bool { return i.Match(IrqRxError) }

func (i Intr) String() string {
	if i.None() {
		return "none"
	}
	names := []struct {
		mask Intr
		name string
	}{
		{IrqError, "Error"},
		{IrqCmdError, "CmdError"},
		{IrqLowBat, "LowBattery"},
		{IrqPreambleDetected, "PreambleDetected"},
		{IrqCadDetected, "CadDetected"},
		{IrqTimeout, "Timeout"},
		{IrqCrcError, "CrcError"},
		{IrqLenError, "LenError"},
		{IrqAddrError, "AddrError"},
		{IrqSyncHeaderValid, "SyncHeaderValid"},
		{IrqHeaderErr, "HeaderError"},
		{IrqLrFhssHop, "LrFhssHop"},
		{IrqRxDone, "RxDone"},
		{IrqTxDone, "TxDone"},
		{IrqCadDone, "CadDone"},
		{IrqRxTimestamp, "RxTimestamp"},
		{IrqGnssDone, "GnssDone"},
		{IrqGnssAbort, "GnssAbort"},
		{IrqWifiDone, "WifiDone"},
	}
	var set []string
	for _, n := range names {
		if i.Match(n.mask) {
			set = append(set, n.name)
		}
	}
	return strings.Join(set, " ")
}
