package opcodes

import "github.com/viam-modules/lr1120/status"

// Sf is the LoRa spreading factor.
type Sf uint8

const (
	Sf5  Sf = 5
	Sf6  Sf = 6
	Sf7  Sf = 7
	Sf8  Sf = 8
	Sf9  Sf = 9
	Sf10 Sf = 10
	Sf11 Sf = 11
	Sf12 Sf = 12
)

// LoraBw is the LoRa bandwidth selector.
type LoraBw uint8

const (
	Bw7    LoraBw = 0
	Bw15   LoraBw = 1
	Bw31   LoraBw = 2
	Bw62   LoraBw = 3
	Bw125  LoraBw = 4
	Bw250  LoraBw = 5
	Bw500  LoraBw = 6
	Bw1000 LoraBw = 7
	Bw10   LoraBw = 8
	Bw20   LoraBw = 9
	Bw41   LoraBw = 10
	Bw83   LoraBw = 11
	Bw101  LoraBw = 12
	Bw203  LoraBw = 13
	Bw406  LoraBw = 14
	Bw812  LoraBw = 15
)

// Hz returns the bandwidth in Hz.
func (b LoraBw) Hz() uint32 {
	switch b {
	case Bw1000:
		return 1000000
	case Bw812:
		return 812500
	case Bw500:
		return 500000
	case Bw406:
		return 406250
	case Bw250:
		return 250000
	case Bw203:
		return 203125
	case Bw125:
		return 125000
	case Bw101:
		return 101562
	case Bw83:
		return 83333
	case Bw62:
		return 62500
	case Bw41:
		return 41666
	case Bw31:
		return 31250
	case Bw20:
		return 20833
	case Bw15:
		return 15625
	default:
		return 7812
	}
}

// Fractional reports whether the bandwidth is one of the fractional bands
// shared with the SX1280.
func (b LoraBw) Fractional() bool {
	switch b {
	case Bw812, Bw406, Bw203, Bw101:
		return true
	}
	return false
}

// CodingRate is the LoRa coding rate. Long-interleaver rates require payloads
// between 8 and 253 bytes (CRC on) or 255 bytes (CRC off).
type CodingRate uint8

const (
	CrNone   CodingRate = 0
	Cr45     CodingRate = 1
	Cr46     CodingRate = 2
	Cr47     CodingRate = 3
	Cr48     CodingRate = 4
	Cr45Long CodingRate = 5
	Cr46Long CodingRate = 6
	Cr48Long CodingRate = 7
)

// LongInterleaver reports whether the rate uses long interleaving.
func (c CodingRate) LongInterleaver() bool {
	return c >= Cr45Long && c <= Cr48Long
}

// Denominator returns the coding-rate denominator assuming a numerator of 4.
func (c CodingRate) Denominator() uint8 {
	switch c {
	case Cr45, Cr45Long:
		return 5
	case Cr46, Cr46Long:
		return 6
	case Cr47:
		return 7
	case Cr48, Cr48Long:
		return 8
	default:
		return 4
	}
}

// HeaderType selects explicit or implicit LoRa headers.
type HeaderType uint8

const (
	HeaderExplicit HeaderType = 0
	HeaderImplicit HeaderType = 1
)

// CadExitMode is the mode entered after channel activity detection completes.
type CadExitMode uint8

const (
	CadOnly CadExitMode = 0x00
	CadRx   CadExitMode = 0x01
	CadLbt  CadExitMode = 0x10
)

// RangingResultKind selects which ranging result GetRangingResult returns.
type RangingResultKind uint8

const (
	RangingDistance RangingResultKind = 0
	RangingRssi     RangingResultKind = 1
)

// AddrLen is how many ranging address bytes are checked against the
// initiator's request, starting from the LSB.
type AddrLen uint8

const (
	Addr8  AddrLen = 1
	Addr16 AddrLen = 2
	Addr24 AddrLen = 3
	Addr32 AddrLen = 4
)

// GetPacketStatus reads RSSI and SNR of the last received LoRa packet.
func GetPacketStatus() []byte { return req(0x0204, 2) }

const LoraPacketStatusResponseLen = 4

type LoraPacketStatusResponse []byte

func (r LoraPacketStatusResponse) Status() status.Status { return respStatus(r) }

// RssiDbm is the average packet RSSI in dBm.
func (r LoraPacketStatusResponse) RssiDbm() float64 { return -float64(r[1]) / 2 }

// SnrDb is the estimated packet SNR in dB.
func (r LoraPacketStatusResponse) SnrDb() float64 { return float64(int8(r[2])) / 4 }

// SignalRssiDbm is the RSSI of the despread LoRa signal in dBm.
func (r LoraPacketStatusResponse) SignalRssiDbm() float64 { return -float64(r[3]) / 2 }

// SetLoraCadParams tunes channel activity detection. detPeak and detMin
// depend on SF, bandwidth and symbol count.
func SetLoraCadParams(nbSymbols, detPeak, detMin uint8, exit CadExitMode, timeout uint32) []byte {
	b := req(0x020D, 9)
	b[2] = nbSymbols
	b[3] = detPeak
	b[4] = detMin
	b[5] = byte(exit)
	put24(b[6:], timeout)
	return b
}

// SetLoraModulationParams configures SF, bandwidth, coding rate and low data
// rate optimisation. Fails unless the packet type is LoRa. LDRO is mandatory
// for SF11/SF12 at BW125 and SF12 at BW250.
func SetLoraModulationParams(sf Sf, bw LoraBw, cr CodingRate, ldro bool) []byte {
	b := req(0x020F, 6)
	b[2] = byte(sf)
	b[3] = byte(bw)
	b[4] = byte(cr) & 0x7
	if ldro {
		b[5] = 1
	}
	return b
}

// SetLoraPacketParams configures preamble length, header type, payload length,
// CRC and IQ inversion.
func SetLoraPacketParams(preambleLen uint16, header HeaderType, payloadLen uint8, crc, invertIq bool) []byte {
	b := req(0x0210, 8)
	put16(b[2:], preambleLen)
	b[4] = byte(header)
	b[5] = payloadLen
	if crc {
		b[6] = 1
	}
	if invertIq {
		b[7] = 1
	}
	return b
}

// SetLoraCad starts channel activity detection. CadDone fires when the scan
// completes, CadDetected if a LoRa signal was found.
func SetLoraCad() []byte { return req(0x0218, 2) }

// SetLoraSynchTimeout makes the modem raise an RX timeout after exactly
// symbolNum symbols without packet detection.
func SetLoraSynchTimeout(symbolNum uint8) []byte {
	b := req(0x021B, 3)
	b[2] = symbolNum
	return b
}

// SetLoraSyncword sets the syncword, valid for all spreading factors.
func SetLoraSyncword(syncword uint8) []byte {
	b := req(0x022B, 3)
	b[2] = syncword
	return b
}

// GetLoraRxHeaderInfos reads the CRC and coding rate information carried in
// the last received explicit header, or the configured settings in implicit
// mode.
func GetLoraRxHeaderInfos() []byte { return req(0x0230, 2) }

const LoraRxHeaderInfosResponseLen = 2

type LoraRxHeaderInfosResponse []byte

func (r LoraRxHeaderInfosResponse) Status() status.Status { return respStatus(r) }
func (r LoraRxHeaderInfosResponse) Crc() bool             { return r[1]&0x10 != 0 }
func (r LoraRxHeaderInfosResponse) CodingRate() CodingRate {
	return CodingRate(r[1] & 0x7)
}

// SetRangingAddr sets this responder's ranging address and how many of its
// bytes are checked against incoming requests.
func SetRangingAddr(addr uint32, check AddrLen) []byte {
	b := req(0x021C, 7)
	put32(b[2:], addr)
	b[6] = byte(check) & 0x7
	return b
}

// SetRangingReqAddr sets the address the initiator puts in its ranging
// request.
func SetRangingReqAddr(addr uint32) []byte {
	b := req(0x021D, 6)
	put32(b[2:], addr)
	return b
}

// GetRangingResult reads the last ranging distance or RSSI result on the
// initiator side.
func GetRangingResult(kind RangingResultKind) []byte {
	b := req(0x021E, 3)
	b[2] = byte(kind)
	return b
}

const RangingResultResponseLen = 4

type RangingResultResponse []byte

func (r RangingResultResponse) Status() status.Status { return respStatus(r) }
func (r RangingResultResponse) Raw() uint32           { return be24(r[1:4]) }

// Meters converts a distance result given the LoRa bandwidth in Hz.
func (r RangingResultResponse) Meters(bwHz uint32) float64 {
	return float64(r.Raw()) * 150e6 / (4096 * float64(bwHz))
}

// SetRangingTxRxDelay calibrates out the fixed processing delay of a ranging
// exchange. The same value must be set on both sides.
func SetRangingTxRxDelay(delay uint32) []byte {
	b := req(0x021F, 6)
	put32(b[2:], delay)
	return b
}

// SetRangingParams sets the number of symbols used during ranging
// synchronisation. 15 is the recommended accuracy/airtime compromise.
func SetRangingParams(symbolCount uint8) []byte {
	b := req(0x0228, 4)
	b[3] = symbolCount
	return b
}
