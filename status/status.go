// Package status decodes the status header and interrupt words returned by the LR1120.
//
// Every SPI response begins with a one or two byte status header carrying the
// outcome of the previous command, an interrupt-pending flag, the source of the
// last reset and the current chip mode. Commands acknowledged with a single
// byte only carry the outcome and the interrupt flag; the remaining fields are
// not knowable from the short form.
package status

import "errors"

// Errors reported when a decoded command outcome is not successful.
var (
	// ErrCommandFailed means the chip could not execute the command in its
	// current state. The caller may change the device state and retry.
	ErrCommandFailed = errors.New("command could not be executed")
	// ErrInvalidParams means the chip rejected the request bytes as out of
	// range or the opcode as unknown. Retrying the same bytes will not help.
	ErrInvalidParams = errors.New("command had invalid parameters or unknown opcode")
	// ErrUnknownStatus means the status bits decoded to a value outside the
	// defined set. This should never happen with a conformant chip and
	// usually indicates a framing or buffer alignment bug on the host side.
	ErrUnknownStatus = errors.New("status bits outside defined values")
)

// CmdStatus is the outcome of the previous command, bits 11:9 of the status word.
type CmdStatus uint8

const (
	// CmdFail - the previous command could not be executed.
	CmdFail CmdStatus = 0
	// CmdPerr - the previous command had invalid parameters or an unknown opcode.
	CmdPerr CmdStatus = 1
	// CmdOk - the previous command succeeded.
	CmdOk CmdStatus = 2
	// CmdData - the previous command succeeded and the chip is streaming data.
	CmdData CmdStatus = 3
	// CmdUnknown - any other bit pattern.
	CmdUnknown CmdStatus = 8
)

func (c CmdStatus) String() string {
	switch c {
	case CmdFail:
		return "fail"
	case CmdPerr:
		return "param error"
	case CmdOk:
		return "ok"
	case CmdData:
		return "ok (streaming)"
	default:
		return "unknown"
	}
}

// Check maps the outcome to the error taxonomy. Ok and Data are both success:
// Data only signals that more read phases are expected.
func (c CmdStatus) Check() error {
	switch c {
	case CmdOk, CmdData:
		return nil
	case CmdFail:
		return ErrCommandFailed
	case CmdPerr:
		return ErrInvalidParams
	default:
		return ErrUnknownStatus
	}
}

// ResetSource is the cause of the last chip reset, bits 7:4 of the status word.
type ResetSource uint8

const (
	ResetCleared  ResetSource = 0
	ResetAnalog   ResetSource = 1
	ResetExternal ResetSource = 2
	ResetSystem   ResetSource = 3
	ResetWatchdog ResetSource = 4
	ResetIocd     ResetSource = 5
	ResetRtc      ResetSource = 6
	ResetUnknown  ResetSource = 16
)

func (r ResetSource) String() string {
	switch r {
	case ResetCleared:
		return "cleared"
	case ResetAnalog:
		return "analog"
	case ResetExternal:
		return "external"
	case ResetSystem:
		return "system"
	case ResetWatchdog:
		return "watchdog"
	case ResetIocd:
		return "io clock detect"
	case ResetRtc:
		return "rtc"
	default:
		return "unknown"
	}
}

// ChipMode is the chip's current operating mode, bits 2:0 of the status word.
type ChipMode uint8

const (
	ModeSleep   ChipMode = 0
	ModeRc      ChipMode = 1
	ModeXosc    ChipMode = 2
	ModeFs      ChipMode = 3
	ModeRx      ChipMode = 4
	ModeTx      ChipMode = 5
	ModeLoc     ChipMode = 6
	ModeUnknown ChipMode = 8
)

func (m ChipMode) String() string {
	switch m {
	case ModeSleep:
		return "sleep"
	case ModeRc:
		return "standby rc"
	case ModeXosc:
		return "standby xosc"
	case ModeFs:
		return "fs"
	case ModeRx:
		return "rx"
	case ModeTx:
		return "tx"
	case ModeLoc:
		return "localization"
	default:
		return "unknown"
	}
}

// ExecutionContext reports whether the chip is running the bootloader or the
// flash firmware, bit 0 of the status word on bootloader acknowledgements.
type ExecutionContext uint8

const (
	ContextBootloader ExecutionContext = 0
	ContextFlash      ExecutionContext = 1
)

// Status is the 16-bit status word prefixed to (almost) every response.
//
// Bit layout:
//
//	11:9 command outcome
//	   8 interrupt pending
//	 7:4 reset source
//	 2:0 chip mode
//	   0 execution context (bootloader responses)
type Status uint16

// DecodeStatus interprets a 1 or 2 byte status header. For a single byte the
// low byte of the word is forced to zero: the outcome and interrupt flag are
// intact, but the reset source and chip mode fields read as zero regardless of
// the actual chip state. Callers that care about those fields must issue a
// command with a full two-byte status header.
func DecodeStatus(bytes []byte) Status {
	var v uint16
	if len(bytes) > 0 {
		v = uint16(bytes[0]) << 8
	}
	if len(bytes) > 1 {
		v |= uint16(bytes[1])
	}
	return Status(v)
}

// EncodeStatus packs the given fields into the 2-byte wire form. Used by test
// fixtures scripting chip responses.
func EncodeStatus(cmd CmdStatus, irqPending bool, reset ResetSource, mode ChipMode) [2]byte {
	v := (uint16(cmd)&7)<<9 | (uint16(reset)&15)<<4 | uint16(mode)&7
	if irqPending {
		v |= 1 << 8
	}
	return [2]byte{byte(v >> 8), byte(v)}
}

// Cmd returns the command outcome field.
func (s Status) Cmd() CmdStatus {
	switch bits := (s >> 9) & 7; bits {
	case 0:
		return CmdFail
	case 1:
		return CmdPerr
	case 2:
		return CmdOk
	case 3:
		return CmdData
	default:
		return CmdUnknown
	}
}

// IsOk reports a successful outcome (Ok or Data).
func (s Status) IsOk() bool {
	c := s.Cmd()
	return c == CmdOk || c == CmdData
}

// IrqPending reports whether an unacknowledged interrupt exists.
func (s Status) IrqPending() bool {
	return s&0x0100 != 0
}

// ResetSource returns the cause of the last reset.
func (s Status) ResetSource() ResetSource {
	switch bits := (s >> 4) & 15; bits {
	case 0:
		return ResetCleared
	case 1:
		return ResetAnalog
	case 2:
		return ResetExternal
	case 3:
		return ResetSystem
	case 4:
		return ResetWatchdog
	case 5:
		return ResetIocd
	case 6:
		return ResetRtc
	default:
		return ResetUnknown
	}
}

// ChipMode returns the chip's operating mode at the time the header was produced.
func (s Status) ChipMode() ChipMode {
	switch bits := s & 7; bits {
	case 0:
		return ModeSleep
	case 1:
		return ModeRc
	case 2:
		return ModeXosc
	case 3:
		return ModeFs
	case 4:
		return ModeRx
	case 5:
		return ModeTx
	case 6:
		return ModeLoc
	default:
		return ModeUnknown
	}
}

// Context reports whether the response came from the bootloader or flash firmware.
func (s Status) Context() ExecutionContext {
	if s&1 == 1 {
		return ContextFlash
	}
	return ContextBootloader
}

// Check maps the command outcome to the error taxonomy.
func (s Status) Check() error {
	return s.Cmd().Check()
}
