package lr1120

import (
	"context"
	"time"

	"github.com/viam-modules/lr1120/opcodes"
)

// LoraModulation bundles the four LoRa modulation parameters.
type LoraModulation struct {
	Sf   opcodes.Sf
	Bw   opcodes.LoraBw
	Cr   opcodes.CodingRate
	Ldro bool
}

// NeedsLdro reports whether the SF/BW combination requires low data rate
// optimisation.
func (m LoraModulation) NeedsLdro() bool {
	switch {
	case m.Bw == opcodes.Bw125 && m.Sf >= opcodes.Sf11:
		return true
	case m.Bw == opcodes.Bw250 && m.Sf == opcodes.Sf12:
		return true
	}
	return false
}

// SetLoraModulation configures SF, bandwidth, coding rate and LDRO. Fails
// unless the packet type is LoRa.
func (d *Device) SetLoraModulation(ctx context.Context, m LoraModulation) error {
	return d.WriteChecked(ctx, opcodes.SetLoraModulationParams(m.Sf, m.Bw, m.Cr, m.Ldro), defaultCmdTimeout)
}

// LoraPacketParams bundles the LoRa packet layout parameters.
type LoraPacketParams struct {
	PreambleLen uint16
	Header      opcodes.HeaderType
	PayloadLen  uint8
	Crc         bool
	InvertIq    bool
}

// SetLoraPacketParams configures the LoRa packet layout.
func (d *Device) SetLoraPacketParams(ctx context.Context, p LoraPacketParams) error {
	return d.WriteChecked(ctx, opcodes.SetLoraPacketParams(p.PreambleLen, p.Header, p.PayloadLen, p.Crc, p.InvertIq), defaultCmdTimeout)
}

// SetLoraSyncword sets the LoRa syncword. 0x34 is the public network value,
// 0x12 private.
func (d *Device) SetLoraSyncword(ctx context.Context, syncword uint8) error {
	return d.WriteChecked(ctx, opcodes.SetLoraSyncword(syncword), defaultCmdTimeout)
}

// SetLoraSynchTimeout raises an RX timeout after symbolNum symbols without a
// detected packet.
func (d *Device) SetLoraSynchTimeout(ctx context.Context, symbolNum uint8) error {
	return d.WriteChecked(ctx, opcodes.SetLoraSynchTimeout(symbolNum), defaultCmdTimeout)
}

// LoraCadParams tunes channel activity detection. DetPeak and DetMin depend
// on SF, bandwidth and symbol count and need hardware-level tuning.
type LoraCadParams struct {
	NbSymbols uint8
	DetPeak   uint8
	DetMin    uint8
	ExitMode  opcodes.CadExitMode
	Timeout   time.Duration
}

// SetLoraCadParams configures channel activity detection.
func (d *Device) SetLoraCadParams(ctx context.Context, p LoraCadParams) error {
	return d.WriteChecked(ctx,
		opcodes.SetLoraCadParams(p.NbSymbols, p.DetPeak, p.DetMin, p.ExitMode, rtcSteps(p.Timeout)),
		defaultCmdTimeout)
}

// StartCad starts channel activity detection. CadDone fires when it
// completes, CadDetected if activity was found.
func (d *Device) StartCad(ctx context.Context) error {
	return d.WriteChecked(ctx, opcodes.SetLoraCad(), defaultCmdTimeout)
}

// LoraPacketStatus is RSSI and SNR of the last received LoRa packet.
type LoraPacketStatus struct {
	RssiDbm       float64
	SnrDb         float64
	SignalRssiDbm float64
}

// GetLoraPacketStatus reads RSSI and SNR of the last received packet.
func (d *Device) GetLoraPacketStatus(ctx context.Context) (LoraPacketStatus, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetPacketStatus(), opcodes.LoraPacketStatusResponseLen, defaultCmdTimeout)
	if err != nil {
		return LoraPacketStatus{}, err
	}
	r := opcodes.LoraPacketStatusResponse(resp)
	return LoraPacketStatus{
		RssiDbm:       r.RssiDbm(),
		SnrDb:         r.SnrDb(),
		SignalRssiDbm: r.SignalRssiDbm(),
	}, nil
}

// LoraRxHeader is the information carried in the last received explicit
// header.
type LoraRxHeader struct {
	Crc        bool
	CodingRate opcodes.CodingRate
}

// GetLoraRxHeader reads the last received header information, or the
// configured settings in implicit mode.
func (d *Device) GetLoraRxHeader(ctx context.Context) (LoraRxHeader, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetLoraRxHeaderInfos(), opcodes.LoraRxHeaderInfosResponseLen, defaultCmdTimeout)
	if err != nil {
		return LoraRxHeader{}, err
	}
	r := opcodes.LoraRxHeaderInfosResponse(resp)
	return LoraRxHeader{Crc: r.Crc(), CodingRate: r.CodingRate()}, nil
}

// SetRangingAddr sets this responder's ranging address and how many of its
// bytes incoming requests are matched on.
func (d *Device) SetRangingAddr(ctx context.Context, addr uint32, check opcodes.AddrLen) error {
	return d.WriteChecked(ctx, opcodes.SetRangingAddr(addr, check), defaultCmdTimeout)
}

// SetRangingReqAddr sets the address used in outgoing ranging requests.
func (d *Device) SetRangingReqAddr(ctx context.Context, addr uint32) error {
	return d.WriteChecked(ctx, opcodes.SetRangingReqAddr(addr), defaultCmdTimeout)
}

// SetRangingTxRxDelay calibrates out the fixed ranging processing delay. Both
// sides must use the same value.
func (d *Device) SetRangingTxRxDelay(ctx context.Context, delay uint32) error {
	return d.WriteChecked(ctx, opcodes.SetRangingTxRxDelay(delay), defaultCmdTimeout)
}

// SetRangingSymbolCount sets the synchronisation symbol count for ranging.
func (d *Device) SetRangingSymbolCount(ctx context.Context, count uint8) error {
	return d.WriteChecked(ctx, opcodes.SetRangingParams(count), defaultCmdTimeout)
}

// GetRangingDistance reads the last ranging exchange's round-trip distance in
// meters, given the LoRa bandwidth used.
func (d *Device) GetRangingDistance(ctx context.Context, bw opcodes.LoraBw) (float64, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetRangingResult(opcodes.RangingDistance), opcodes.RangingResultResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.RangingResultResponse(resp).Meters(bw.Hz()), nil
}

// GetRangingRssi reads the RSSI of the last ranging exchange in dBm.
func (d *Device) GetRangingRssi(ctx context.Context) (float64, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetRangingResult(opcodes.RangingRssi), opcodes.RangingResultResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return -float64(opcodes.RangingResultResponse(resp).Raw()&0xFF) / 2, nil
}
