package opcodes

import "github.com/viam-modules/lr1120/status"

// PacketType selects the modem used for RF transactions.
type PacketType uint8

const (
	PacketNone     PacketType = 0
	PacketGfsk     PacketType = 1
	PacketLora     PacketType = 2
	PacketSigfoxUl PacketType = 3
	PacketLrFhss   PacketType = 4
	PacketRanging  PacketType = 5
	PacketBle      PacketType = 6
)

func (p PacketType) String() string {
	switch p {
	case PacketNone:
		return "none"
	case PacketGfsk:
		return "gfsk"
	case PacketLora:
		return "lora"
	case PacketSigfoxUl:
		return "sigfox-ul"
	case PacketLrFhss:
		return "lr-fhss"
	case PacketRanging:
		return "ranging"
	case PacketBle:
		return "ble"
	default:
		return "unknown"
	}
}

// IntermediaryMode is the mode held between the two halves of an AutoTxRx.
type IntermediaryMode uint8

const (
	IntermediarySleep     IntermediaryMode = 0
	IntermediaryStdbyRc   IntermediaryMode = 1
	IntermediaryStdbyXosc IntermediaryMode = 2
	IntermediaryFs        IntermediaryMode = 3
)

// FallbackMode is the mode entered after a TX or RX completes.
type FallbackMode uint8

const (
	FallbackStdbyRc   FallbackMode = 1
	FallbackStdbyXosc FallbackMode = 2
	FallbackFs        FallbackMode = 3
)

// PaSel selects the low-power, high-power or high-frequency PA.
type PaSel uint8

const (
	PaLowPower  PaSel = 0
	PaHighPower PaSel = 1
	PaHighFreq  PaSel = 2
)

// PaSupply selects the PA power source. Vbat is required above 14dBm.
type PaSupply uint8

const (
	PaSupplyVreg PaSupply = 0
	PaSupplyVbat PaSupply = 1
)

// RampTime is the PA power ramping time. Ramp48u is the recommended
// trade-off between RF establishment and spurious emissions.
type RampTime uint8

const (
	Ramp16u  RampTime = 0
	Ramp32u  RampTime = 1
	Ramp48u  RampTime = 2
	Ramp64u  RampTime = 3
	Ramp80u  RampTime = 4
	Ramp96u  RampTime = 5
	Ramp112u RampTime = 6
	Ramp128u RampTime = 7
	Ramp144u RampTime = 8
	Ramp160u RampTime = 9
	Ramp176u RampTime = 10
	Ramp192u RampTime = 11
	Ramp208u RampTime = 12
	Ramp240u RampTime = 13
	Ramp272u RampTime = 14
	Ramp304u RampTime = 15
)

// ResetStats clears the received-packet statistics counters.
func ResetStats() []byte { return req(0x0200, 2) }

// GetStats reads the received-packet statistics counters.
func GetStats() []byte { return req(0x0201, 2) }

const StatsResponseLen = 9

type StatsResponse []byte

func (r StatsResponse) Status() status.Status { return respStatus(r) }
func (r StatsResponse) PktRx() uint16         { return be16(r[1:3]) }
func (r StatsResponse) CrcError() uint16      { return be16(r[3:5]) }
func (r StatsResponse) HeaderError() uint16   { return be16(r[5:7]) }

// FalseSync counts false synchronisations. LoRa only.
func (r StatsResponse) FalseSync() uint16 { return be16(r[7:9]) }

// GetPacketType reads the currently selected modem.
func GetPacketType() []byte { return req(0x0202, 2) }

const PacketTypeResponseLen = 2

type PacketTypeResponse []byte

func (r PacketTypeResponse) Status() status.Status { return respStatus(r) }
func (r PacketTypeResponse) PacketType() PacketType {
	if r[1] > uint8(PacketBle) {
		return PacketNone
	}
	return PacketType(r[1])
}

// GetRxBufferStatus reads the length and buffer offset of the last received
// packet.
func GetRxBufferStatus() []byte { return req(0x0203, 2) }

const RxBufferStatusResponseLen = 3

type RxBufferStatusResponse []byte

func (r RxBufferStatusResponse) Status() status.Status { return respStatus(r) }
func (r RxBufferStatusResponse) PayloadLen() uint8     { return r[1] }
func (r RxBufferStatusResponse) Offset() uint8         { return r[2] }

// GetRssiInst reads the instantaneous RSSI. With no packet on the air it
// reports RF noise.
func GetRssiInst() []byte { return req(0x0205, 2) }

const RssiInstResponseLen = 2

type RssiInstResponse []byte

func (r RssiInstResponse) Status() status.Status { return respStatus(r) }

// Dbm converts the raw reading to dBm.
func (r RssiInstResponse) Dbm() float64 { return -float64(r[1]) / 2 }

// SetRfFrequency sets the PLL frequency in Hz. The sub-GHz path is used at or
// below 1.5GHz, the HF path above.
func SetRfFrequency(hz uint32) []byte {
	b := req(0x020B, 6)
	put32(b[2:], hz)
	return b
}

// SetRx enters RX mode with a 24-bit RTC timeout in 30.52us steps. 0 is
// single-shot without timeout, 0xFFFFFF is continuous.
func SetRx(timeout uint32) []byte {
	b := req(0x0209, 5)
	put24(b[2:], timeout)
	return b
}

// SetTx enters TX mode and starts transmitting the staged packet, with a
// 24-bit RTC timeout.
func SetTx(timeout uint32) []byte {
	b := req(0x020A, 5)
	put24(b[2:], timeout)
	return b
}

// AutoTxRx chains a TX after RX (or RX after TX) with an intermediary mode
// held for delay ticks between the two.
func AutoTxRx(delay uint32, mode IntermediaryMode, timeout uint32) []byte {
	b := req(0x020C, 9)
	put24(b[2:], delay)
	b[5] = byte(mode)
	put24(b[6:], timeout)
	return b
}

// SetPacketType selects the modem. Must be the first radio configuration
// command; only valid in standby or FS mode.
func SetPacketType(pt PacketType) []byte {
	b := req(0x020E, 3)
	b[2] = byte(pt)
	return b
}

// SetTxParams sets the TX power in dBm and the PA ramp time. SetPaConfig must
// be sent first.
func SetTxParams(power int8, ramp RampTime) []byte {
	b := req(0x0211, 4)
	b[2] = byte(power)
	b[3] = byte(ramp)
	return b
}

// SetRxTxFallbackMode sets the mode entered after a packet completes.
func SetRxTxFallbackMode(mode FallbackMode) []byte {
	b := req(0x0213, 3)
	b[2] = byte(mode)
	return b
}

// SetRxDutyCycle opens periodic RX (or CAD) windows, sleeping with retention
// in between.
func SetRxDutyCycle(rxPeriod, sleepPeriod uint32, useCad bool) []byte {
	b := req(0x0214, 9)
	put24(b[2:], rxPeriod)
	put24(b[5:], sleepPeriod)
	if useCad {
		b[8] = 1
	}
	return b
}

// SetPaConfig selects the PA and its supply. Must be sent before SetTxParams.
func SetPaConfig(sel PaSel, supply PaSupply, dutyCycle, hpSel uint8) []byte {
	b := req(0x0215, 6)
	b[2] = byte(sel)
	b[3] = byte(supply)
	b[4] = dutyCycle
	b[5] = hpSel
	return b
}

// StopTimeoutOnPreamble stops the RX timeout on preamble detection instead of
// syncword/header detection.
func StopTimeoutOnPreamble(stop bool) []byte {
	b := req(0x0217, 3)
	if stop {
		b[2] = 1
	}
	return b
}

// SetTxCw transmits an unmodulated carrier. Frequency and PA configuration
// must be set first.
func SetTxCw() []byte { return req(0x0219, 2) }

// SetTxInfinitePreamble transmits an endless preamble sequence.
func SetTxInfinitePreamble() []byte { return req(0x021A, 2) }

// SetRxBoosted trades ~2mA of RX current for ~2dB of sensitivity.
func SetRxBoosted(enable bool) []byte {
	b := req(0x0227, 3)
	if enable {
		b[2] = 1
	}
	return b
}

// RssiCalibration holds the per-gain-step tuning words for on-chip power
// estimation. Calibrated per hardware design, not per device.
type RssiCalibration struct {
	TuneG4, TuneG5, TuneG6, TuneG7, TuneG8     uint8
	TuneG9, TuneG10, TuneG11, TuneG12, TuneG13 uint8
	TuneG13Hp1, TuneG13Hp2, TuneG13Hp3         uint8
	TuneG13Hp4, TuneG13Hp5, TuneG13Hp6         uint8
	TuneG13Hp7                                 uint8
	GainOffset                                 uint16
}

// SetRssiCalibration writes the gain-step tuning table. Each tune value packs
// into a nibble.
func SetRssiCalibration(c RssiCalibration) []byte {
	b := req(0x0229, 12)
	b[2] = (c.TuneG4&0xF)<<4 | c.TuneG5&0xF
	b[3] = (c.TuneG6&0xF)<<4 | c.TuneG7&0xF
	b[4] = (c.TuneG8&0xF)<<4 | c.TuneG9&0xF
	b[5] = (c.TuneG10&0xF)<<4 | c.TuneG11&0xF
	b[6] = (c.TuneG12&0xF)<<4 | c.TuneG13&0xF
	b[7] = (c.TuneG13Hp1&0xF)<<4 | c.TuneG13Hp2&0xF
	b[8] = (c.TuneG13Hp3&0xF)<<4 | c.TuneG13Hp4&0xF
	b[9] = (c.TuneG13Hp5&0xF)<<4 | c.TuneG13Hp6&0xF
	b[10] = (c.TuneG13Hp7&0xF)<<4 | byte(c.GainOffset>>8)
	b[11] = byte(c.GainOffset)
	return b
}
