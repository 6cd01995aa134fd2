package opcodes

import "github.com/viam-modules/lr1120/status"

// HWType identifies the device family reported by GetVersion.
type HWType uint8

const (
	HWLr1110     HWType = 1
	HWLr1120     HWType = 2
	HWLr1121     HWType = 3
	HWBootloader HWType = 223
)

func (h HWType) String() string {
	switch h {
	case HWLr1110:
		return "LR1110"
	case HWLr1120:
		return "LR1120"
	case HWLr1121:
		return "LR1121"
	case HWBootloader:
		return "bootloader"
	default:
		return "unknown"
	}
}

// LfClock selects the 32.768kHz clock source.
type LfClock uint8

const (
	LfClockRc    LfClock = 0
	LfClockXtal  LfClock = 1
	LfClockDio11 LfClock = 2
)

// TcxoVoltage is the supply voltage driven on the VTCXO pin.
type TcxoVoltage uint8

const (
	Tcxo1V6 TcxoVoltage = 0
	Tcxo1V7 TcxoVoltage = 1
	Tcxo1V8 TcxoVoltage = 2
	Tcxo2V2 TcxoVoltage = 3
	Tcxo2V4 TcxoVoltage = 4
	Tcxo2V7 TcxoVoltage = 5
	Tcxo3V0 TcxoVoltage = 6
	Tcxo3V3 TcxoVoltage = 7
)

// StandbyMode selects the oscillator kept running in standby.
type StandbyMode uint8

const (
	StandbyRc   StandbyMode = 0
	StandbyXosc StandbyMode = 1
)

// RegulatorMode selects LDO-only or automatic DC-DC operation.
type RegulatorMode uint8

const (
	RegulatorLdo  RegulatorMode = 0
	RegulatorDcdc RegulatorMode = 1
)

// RebootMode controls whether the chip stays in its bootloader after a
// firmware restart.
type RebootMode uint8

const (
	RebootNormal     RebootMode = 0
	RebootBootloader RebootMode = 3
)

// CalibFlags selects which blocks a Calibrate command runs on.
type CalibFlags uint8

const (
	CalibLfRc  CalibFlags = 1 << 0
	CalibHfRc  CalibFlags = 1 << 1
	CalibPll   CalibFlags = 1 << 2
	CalibAdc   CalibFlags = 1 << 3
	CalibImg   CalibFlags = 1 << 4
	CalibPllTx CalibFlags = 1 << 5

	CalibAll = CalibLfRc | CalibHfRc | CalibPll | CalibAdc | CalibImg | CalibPllTx
)

// GetStatus returns the full status header plus the 32-bit interrupt word.
// Reading it clears the reset-source field.
func GetStatus() []byte { return req(0x0100, 2) }

const StatusResponseLen = 6

// StatusResponse is the GetStatus read-phase payload.
type StatusResponse []byte

func (r StatusResponse) Status() status.Status {
	return status.DecodeStatus(r[:2])
}

func (r StatusResponse) Intr() status.Intr {
	return status.DecodeIntr(r[2:6])
}

// GetVersion reads hardware and firmware version information.
func GetVersion() []byte { return req(0x0101, 2) }

const VersionResponseLen = 5

type VersionResponse []byte

func (r VersionResponse) Status() status.Status { return respStatus(r) }
func (r VersionResponse) HWVersion() uint8      { return r[1] }
func (r VersionResponse) HWType() HWType        { return HWType(r[2]) }
func (r VersionResponse) FirmwareMajor() uint8  { return r[3] }
func (r VersionResponse) FirmwareMinor() uint8  { return r[4] }

// GetErrors reads the error flags pending since startup or the last ClearErrors.
func GetErrors() []byte { return req(0x010D, 2) }

// ClearErrors clears every pending error flag. Flags cannot be cleared
// individually.
func ClearErrors() []byte { return req(0x010E, 2) }

const ErrorsResponseLen = 3

type ErrorsResponse []byte

func (r ErrorsResponse) Status() status.Status { return respStatus(r) }
func (r ErrorsResponse) Value() uint16         { return be16(r[1:3]) }
func (r ErrorsResponse) None() bool            { return r[1] == 0 && r[2] == 0 }

func (r ErrorsResponse) LfRcCalibErr() bool    { return r[1]&0x01 != 0 }
func (r ErrorsResponse) HfRcCalibErr() bool    { return r[1]&0x02 != 0 }
func (r ErrorsResponse) AdcCalibErr() bool     { return r[1]&0x04 != 0 }
func (r ErrorsResponse) PllCalibErr() bool     { return r[1]&0x08 != 0 }
func (r ErrorsResponse) ImgCalibErr() bool     { return r[1]&0x10 != 0 }
func (r ErrorsResponse) HfXoscStartErr() bool  { return r[1]&0x20 != 0 }
func (r ErrorsResponse) LfXoscStartErr() bool  { return r[1]&0x40 != 0 }
func (r ErrorsResponse) PllLockErr() bool      { return r[1]&0x80 != 0 }
func (r ErrorsResponse) RxAdcOffsetErr() bool  { return r[2]&0x01 != 0 }

// WriteBuffer prepends the opcode for a TX buffer write. The payload bytes
// follow the opcode on the wire.
func WriteBuffer() []byte { return req(0x0109, 2) }

// ReadBuffer reads n bytes of the radio RX ring buffer starting at offset.
func ReadBuffer(offset, n uint8) []byte {
	b := req(0x010A, 4)
	b[2] = offset
	b[3] = n
	return b
}

// ReadBufferResponseLen is the read-phase length for a ReadBuffer of n bytes.
func ReadBufferResponseLen(n uint8) int { return 1 + int(n) }

// ClearRxBuffer zeroes the whole RX buffer.
func ClearRxBuffer() []byte { return req(0x010B, 2) }

// GetRandomNumber reads a 32-bit random number. Not for security purposes.
func GetRandomNumber() []byte { return req(0x0120, 2) }

const RandomNumberResponseLen = 5

type RandomNumberResponse []byte

func (r RandomNumberResponse) Status() status.Status { return respStatus(r) }
func (r RandomNumberResponse) Value() uint32         { return be32(r[1:5]) }

// Calibrate runs calibration on the selected blocks and returns the chip to
// standby RC when done.
func Calibrate(flags CalibFlags) []byte {
	b := req(0x010F, 3)
	b[2] = byte(flags)
	return b
}

// CalibImage runs image rejection calibration for the band between freq1 and
// freq2, both expressed in 4MHz steps.
func CalibImage(freq1, freq2 uint8) []byte {
	b := req(0x0111, 4)
	b[2] = freq1
	b[3] = freq2
	return b
}

// SetRegMode enables or disables the DC-DC converter for XOSC, FS, RX and TX
// modes. Only valid in standby RC.
func SetRegMode(mode RegulatorMode) []byte {
	b := req(0x0110, 3)
	b[2] = byte(mode)
	return b
}

// SetDioAsRFSwitch configures DIO5-DIO8 and DIO10 as RF switch controls for the
// sub-GHz, HF, GNSS and Wi-Fi paths. Only the low 5 bits of each field are used.
func SetDioAsRFSwitch(enable, standby, rx, tx, txHP, txHF, gnss, wifi uint8) []byte {
	b := req(0x0112, 10)
	b[2] = enable
	b[3] = standby
	b[4] = rx
	b[5] = tx
	b[6] = txHP
	b[7] = txHF
	b[8] = gnss
	b[9] = wifi
	return b
}

// SetDioIrqParams routes interrupt sources to the DIO9 and DIO11 IRQ pins.
func SetDioIrqParams(irq1, irq2 status.Intr) []byte {
	b := req(0x0113, 10)
	put32(b[2:], irq1.Value())
	put32(b[6:], irq2.Value())
	return b
}

// ClearIrq clears the interrupt flags set in mask.
func ClearIrq(mask status.Intr) []byte {
	b := req(0x0114, 6)
	put32(b[2:], mask.Value())
	return b
}

// ConfigLfClock selects the 32kHz clock source. With busyRelease set the BUSY
// line is held until the clock is ready.
func ConfigLfClock(src LfClock, busyRelease bool) []byte {
	b := req(0x0116, 3)
	b[2] = byte(src) & 0x3
	if busyRelease {
		b[2] |= 0x4
	}
	return b
}

// SetTcxoMode configures a connected TCXO. delay is the startup time in
// 30.52us steps, 24 bits. Only valid in standby RC.
func SetTcxoMode(v TcxoVoltage, delay uint32) []byte {
	b := req(0x0117, 6)
	b[2] = byte(v)
	put24(b[3:], delay)
	return b
}

// Reboot restarts the chip firmware. The 32kHz clock configuration is kept.
func Reboot(mode RebootMode) []byte {
	b := req(0x0118, 3)
	b[2] = byte(mode)
	return b
}

// GetVbat reads the battery supply voltage measurement.
func GetVbat() []byte { return req(0x0119, 2) }

const VbatResponseLen = 2

type VbatResponse []byte

func (r VbatResponse) Status() status.Status { return respStatus(r) }
func (r VbatResponse) Raw() uint8            { return r[1] }

// Volts converts the raw measurement to a supply voltage.
func (r VbatResponse) Volts() float64 {
	return (5*float64(r[1])/255 - 1) * 1.35
}

// GetTemp reads the built-in temperature sensor. SetTcxoMode must be called
// first when a TCXO is connected.
func GetTemp() []byte { return req(0x011A, 2) }

const TempResponseLen = 3

type TempResponse []byte

func (r TempResponse) Status() status.Status { return respStatus(r) }
func (r TempResponse) Raw() uint16           { return be16(r[1:3]) & 0x07FF }

// Celsius converts the 11-bit raw ADC value to degrees.
func (r TempResponse) Celsius() float64 {
	return 25 - (1000/1.7)*(float64(r.Raw())/2047*1.35-0.7295)
}

// SetSleep puts the chip in sleep mode, optionally retaining memory and waking
// on the RTC after sleepTime ticks of the 32kHz clock.
func SetSleep(wakeupRtc, retention bool, sleepTime uint32) []byte {
	b := req(0x011B, 7)
	if retention {
		b[2] |= 0x1
	}
	if wakeupRtc {
		b[2] |= 0x2
	}
	put32(b[3:], sleepTime)
	return b
}

// SetStandby puts the chip in standby with the chosen 32MHz oscillator.
func SetStandby(mode StandbyMode) []byte {
	b := req(0x011C, 3)
	b[2] = byte(mode)
	return b
}

// SetFs puts the chip in frequency synthesis mode.
func SetFs() []byte { return req(0x011D, 2) }

// GetChipEui reads the factory-provisioned 8-byte chip EUI.
func GetChipEui() []byte { return req(0x0125, 2) }

// GetJoinEui reads the Semtech-provisioned join EUI.
func GetJoinEui() []byte { return req(0x0126, 2) }

const EuiResponseLen = 9

type EuiResponse []byte

func (r EuiResponse) Status() status.Status { return respStatus(r) }
func (r EuiResponse) Value() uint64         { return be64(r[1:9]) }

// Bytes returns the EUI in big-endian wire order.
func (r EuiResponse) Bytes() [8]byte {
	var eui [8]byte
	copy(eui[:], r[1:9])
	return eui
}

// EnableSPICRC toggles the 8-bit CRC on the SPI link. The command itself is
// always CRC protected; crc must cover the first three frame bytes.
func EnableSPICRC(enable bool, crc uint8) []byte {
	b := req(0x0128, 4)
	if enable {
		b[2] = 1
	}
	b[3] = crc
	return b
}

// DriveDiosInSleep enables pull resistors on RF-switch and IRQ DIOs while the
// chip sleeps.
func DriveDiosInSleep(enable bool) []byte {
	b := req(0x012A, 3)
	if enable {
		b[2] = 1
	}
	return b
}
