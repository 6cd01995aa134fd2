package lr1120

import (
	"context"
	"time"

	"github.com/viam-modules/lr1120/opcodes"
)

// SetPacketType selects the modem. Must precede all other radio
// configuration.
func (d *Device) SetPacketType(ctx context.Context, pt opcodes.PacketType) error {
	return d.WriteChecked(ctx, opcodes.SetPacketType(pt), defaultCmdTimeout)
}

// GetPacketType reads the currently selected modem.
func (d *Device) GetPacketType(ctx context.Context) (opcodes.PacketType, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetPacketType(), opcodes.PacketTypeResponseLen, defaultCmdTimeout)
	if err != nil {
		return opcodes.PacketNone, err
	}
	return opcodes.PacketTypeResponse(resp).PacketType(), nil
}

// SetRfFrequency sets the PLL frequency in Hz.
func (d *Device) SetRfFrequency(ctx context.Context, hz uint32) error {
	return d.WriteChecked(ctx, opcodes.SetRfFrequency(hz), defaultCmdTimeout)
}

// SetPaConfig selects and configures the power amplifier. Must precede
// SetTxParams.
func (d *Device) SetPaConfig(ctx context.Context, sel opcodes.PaSel, supply opcodes.PaSupply, dutyCycle, hpSel uint8) error {
	return d.WriteChecked(ctx, opcodes.SetPaConfig(sel, supply, dutyCycle, hpSel), defaultCmdTimeout)
}

// SetTxParams sets TX power in dBm and the PA ramp time.
func (d *Device) SetTxParams(ctx context.Context, power int8, ramp opcodes.RampTime) error {
	return d.WriteChecked(ctx, opcodes.SetTxParams(power, ramp), defaultCmdTimeout)
}

// SetRssiCalibration writes the per-gain-step RSSI tuning table.
func (d *Device) SetRssiCalibration(ctx context.Context, c opcodes.RssiCalibration) error {
	return d.WriteChecked(ctx, opcodes.SetRssiCalibration(c), defaultCmdTimeout)
}

// rtcSteps converts a duration to the radio's 30.52us RTC timeout steps,
// saturating at the 24-bit maximum.
func rtcSteps(d time.Duration) uint32 {
	steps := d.Microseconds() * 100 / 3052
	if steps > 0xFFFFFE {
		return 0xFFFFFE
	}
	return uint32(steps)
}

// RxContinuous makes SetRx listen until explicitly stopped.
const RxContinuous = time.Duration(-1)

// SetRx enters RX mode. A zero timeout arms a single reception with no time
// limit; RxContinuous listens forever.
func (d *Device) SetRx(ctx context.Context, timeout time.Duration) error {
	steps := uint32(0)
	switch {
	case timeout == RxContinuous:
		steps = 0xFFFFFF
	case timeout > 0:
		steps = rtcSteps(timeout)
	}
	return d.WriteChecked(ctx, opcodes.SetRx(steps), defaultCmdTimeout)
}

// SetTx starts transmitting the staged TX buffer. TxDone or Timeout signals
// completion via interrupt.
func (d *Device) SetTx(ctx context.Context, timeout time.Duration) error {
	return d.WriteChecked(ctx, opcodes.SetTx(rtcSteps(timeout)), defaultCmdTimeout)
}

// SetTxCw transmits an unmodulated carrier for compliance testing.
func (d *Device) SetTxCw(ctx context.Context) error {
	return d.WriteChecked(ctx, opcodes.SetTxCw(), defaultCmdTimeout)
}

// SetTxInfinitePreamble transmits an endless preamble for compliance testing.
func (d *Device) SetTxInfinitePreamble(ctx context.Context) error {
	return d.WriteChecked(ctx, opcodes.SetTxInfinitePreamble(), defaultCmdTimeout)
}

// AutoTxRx chains the opposite mode after the next TX or RX with a
// configurable gap.
func (d *Device) AutoTxRx(ctx context.Context, delay time.Duration, mode opcodes.IntermediaryMode, timeout time.Duration) error {
	return d.WriteChecked(ctx, opcodes.AutoTxRx(rtcSteps(delay), mode, rtcSteps(timeout)), defaultCmdTimeout)
}

// SetFallbackMode sets the mode entered after a packet completes.
func (d *Device) SetFallbackMode(ctx context.Context, mode opcodes.FallbackMode) error {
	return d.WriteChecked(ctx, opcodes.SetRxTxFallbackMode(mode), defaultCmdTimeout)
}

// SetRxDutyCycle opens periodic RX or CAD windows, sleeping with retention in
// between.
func (d *Device) SetRxDutyCycle(ctx context.Context, rxPeriod, sleepPeriod time.Duration, useCad bool) error {
	return d.WriteChecked(ctx, opcodes.SetRxDutyCycle(rtcSteps(rxPeriod), rtcSteps(sleepPeriod), useCad), defaultCmdTimeout)
}

// StopTimeoutOnPreamble stops the RX timer on preamble detection instead of
// header detection.
func (d *Device) StopTimeoutOnPreamble(ctx context.Context, stop bool) error {
	return d.WriteChecked(ctx, opcodes.StopTimeoutOnPreamble(stop), defaultCmdTimeout)
}

// SetRxBoosted trades RX current for about 2dB of sensitivity.
func (d *Device) SetRxBoosted(ctx context.Context, enable bool) error {
	return d.WriteChecked(ctx, opcodes.SetRxBoosted(enable), defaultCmdTimeout)
}

// GetRssiInst reads the instantaneous RSSI in dBm.
func (d *Device) GetRssiInst(ctx context.Context) (float64, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetRssiInst(), opcodes.RssiInstResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.RssiInstResponse(resp).Dbm(), nil
}

// GetRssiAvg averages nbMeas instantaneous RSSI measurements, in dBm.
func (d *Device) GetRssiAvg(ctx context.Context, nbMeas int) (float64, error) {
	if nbMeas < 1 {
		nbMeas = 1
	}
	var sum float64
	for i := 0; i < nbMeas; i++ {
		rssi, err := d.GetRssiInst(ctx)
		if err != nil {
			return 0, err
		}
		sum += rssi
	}
	return sum / float64(nbMeas), nil
}

// PacketStats are the cumulative RX counters since the last reset.
type PacketStats struct {
	Received     uint16
	CrcErrors    uint16
	HeaderErrors uint16
	FalseSyncs   uint16
}

// GetStats reads the packet statistics counters.
func (d *Device) GetStats(ctx context.Context) (PacketStats, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetStats(), opcodes.StatsResponseLen, defaultCmdTimeout)
	if err != nil {
		return PacketStats{}, err
	}
	r := opcodes.StatsResponse(resp)
	return PacketStats{
		Received:     r.PktRx(),
		CrcErrors:    r.CrcError(),
		HeaderErrors: r.HeaderError(),
		FalseSyncs:   r.FalseSync(),
	}, nil
}

// ResetStats clears the packet statistics counters.
func (d *Device) ResetStats(ctx context.Context) error {
	return d.WriteChecked(ctx, opcodes.ResetStats(), defaultCmdTimeout)
}

// RxBufferStatus locates the last received packet in the RX ring buffer.
type RxBufferStatus struct {
	PayloadLen uint8
	Offset     uint8
}

// GetRxBufferStatus reads the length and offset of the last received packet.
func (d *Device) GetRxBufferStatus(ctx context.Context) (RxBufferStatus, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetRxBufferStatus(), opcodes.RxBufferStatusResponseLen, defaultCmdTimeout)
	if err != nil {
		return RxBufferStatus{}, err
	}
	r := opcodes.RxBufferStatusResponse(resp)
	return RxBufferStatus{PayloadLen: r.PayloadLen(), Offset: r.Offset()}, nil
}

// ReadRxPacket locates the last received packet and reads its payload out of
// the RX buffer.
func (d *Device) ReadRxPacket(ctx context.Context) ([]byte, error) {
	st, err := d.GetRxBufferStatus(ctx)
	if err != nil {
		return nil, err
	}
	if st.PayloadLen == 0 {
		return nil, nil
	}
	return d.ReadRxBuffer(ctx, st.Offset, st.PayloadLen)
}

// Transmit stages a payload in the TX buffer and starts transmission.
func (d *Device) Transmit(ctx context.Context, payload []byte, timeout time.Duration) error {
	if err := d.WriteTxBuffer(ctx, payload); err != nil {
		return err
	}
	if err := d.WaitReady(ctx, defaultCmdTimeout); err != nil {
		return err
	}
	return d.SetTx(ctx, timeout)
}
