package lr1120

import (
	"context"
	"time"

	"github.com/viam-modules/lr1120/opcodes"
	"github.com/viam-modules/lr1120/status"
)

// defaultCmdTimeout is the readiness budget for register-level commands. The
// chip releases the busy line within tens of microseconds for these; 50ms is
// generous without masking a wedged chip for long. Calibration, scans and
// sleep recovery take their budget from the caller.
const defaultCmdTimeout = 50 * time.Millisecond

// cmdRead issues a request, waits for readiness and harvests respLen bytes,
// then validates the status byte of the response. The returned view is only
// valid until the next transaction.
func (d *Device) cmdRead(ctx context.Context, req []byte, respLen int, timeout time.Duration) ([]byte, error) {
	resp, err := d.WriteRead(ctx, req, respLen, timeout)
	if err != nil {
		return nil, err
	}
	return resp, d.checkResp(resp)
}

// checkResp validates the short-form status byte leading a harvested
// response.
func (d *Device) checkResp(resp []byte) error {
	if len(resp) == 0 {
		return nil
	}
	st := status.DecodeStatus(resp[:1])
	err := st.Check()
	if err == status.ErrUnknownStatus && d.logger != nil {
		d.logger.Errorf("undefined status bits %#04x - response framing is likely misaligned", uint16(st))
	}
	return err
}

// payloadCmd issues a command carrying a data block, waits for readiness and
// validates the status byte.
func (d *Device) payloadCmd(ctx context.Context, req, payload []byte, timeout time.Duration) error {
	resp, err := d.writePayloadRead(ctx, req, payload, 1, timeout)
	if err != nil {
		return err
	}
	return d.checkResp(resp)
}

// ChipStatus is the decoded GetStatus response: the full status header plus
// the pending interrupt word.
type ChipStatus struct {
	Status status.Status
	Intr   status.Intr
}

// GetStatus reads the chip status and pending interrupts. Reading clears the
// reset-source field on the chip.
func (d *Device) GetStatus(ctx context.Context) (ChipStatus, error) {
	resp, err := d.WriteRead(ctx, opcodes.GetStatus(), opcodes.StatusResponseLen, defaultCmdTimeout)
	if err != nil {
		return ChipStatus{}, err
	}
	r := opcodes.StatusResponse(resp)
	cs := ChipStatus{Status: r.Status(), Intr: r.Intr()}
	// GetStatus reports rather than fails: an Unknown outcome here still
	// surfaces, but Fail/PErr are part of the report, not an error.
	if cs.Status.Cmd() == status.CmdUnknown {
		return cs, d.checkResp(resp)
	}
	return cs, nil
}

// Version describes the hardware and firmware revision of the chip.
type Version struct {
	HWVersion     uint8
	HWType        opcodes.HWType
	FirmwareMajor uint8
	FirmwareMinor uint8
}

// GetVersion reads the chip version.
func (d *Device) GetVersion(ctx context.Context) (Version, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetVersion(), opcodes.VersionResponseLen, defaultCmdTimeout)
	if err != nil {
		return Version{}, err
	}
	r := opcodes.VersionResponse(resp)
	return Version{
		HWVersion:     r.HWVersion(),
		HWType:        r.HWType(),
		FirmwareMajor: r.FirmwareMajor(),
		FirmwareMinor: r.FirmwareMinor(),
	}, nil
}

// GetErrors reads the pending error flags as a raw 16-bit word.
func (d *Device) GetErrors(ctx context.Context) (uint16, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetErrors(), opcodes.ErrorsResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.ErrorsResponse(resp).Value(), nil
}

// ClearErrors clears every pending error flag.
func (d *Device) ClearErrors(ctx context.Context) error {
	return d.WriteChecked(ctx, opcodes.ClearErrors(), defaultCmdTimeout)
}

// Calibrate runs calibration on the selected blocks. Image calibration can
// take tens of milliseconds; the budget is the caller's.
func (d *Device) Calibrate(ctx context.Context, flags opcodes.CalibFlags, timeout time.Duration) error {
	return d.WriteChecked(ctx, opcodes.Calibrate(flags), timeout)
}

// CalibImage calibrates image rejection for the band between the two
// frequencies, given in 4MHz steps.
func (d *Device) CalibImage(ctx context.Context, freq1, freq2 uint8, timeout time.Duration) error {
	return d.WriteChecked(ctx, opcodes.CalibImage(freq1, freq2), timeout)
}

// SetRegMode selects LDO-only or automatic DC-DC regulation.
func (d *Device) SetRegMode(ctx context.Context, mode opcodes.RegulatorMode) error {
	return d.WriteChecked(ctx, opcodes.SetRegMode(mode), defaultCmdTimeout)
}

// SetDioIrqParams routes interrupt masks to the two IRQ pins.
func (d *Device) SetDioIrqParams(ctx context.Context, irq1, irq2 status.Intr) error {
	return d.WriteChecked(ctx, opcodes.SetDioIrqParams(irq1, irq2), defaultCmdTimeout)
}

// ClearIrqs clears the masked interrupt flags.
func (d *Device) ClearIrqs(ctx context.Context, mask status.Intr) error {
	return d.WriteChecked(ctx, opcodes.ClearIrq(mask), defaultCmdTimeout)
}

// SetDioAsRFSwitch configures the DIOs driving external RF switches.
func (d *Device) SetDioAsRFSwitch(ctx context.Context, enable, standby, rx, tx, txHP, txHF, gnss, wifi uint8) error {
	return d.WriteChecked(ctx, opcodes.SetDioAsRFSwitch(enable, standby, rx, tx, txHP, txHF, gnss, wifi), defaultCmdTimeout)
}

// ConfigLfClock selects the 32kHz clock source.
func (d *Device) ConfigLfClock(ctx context.Context, src opcodes.LfClock, busyRelease bool) error {
	return d.WriteChecked(ctx, opcodes.ConfigLfClock(src, busyRelease), defaultCmdTimeout)
}

// SetTcxoMode configures a connected TCXO with its startup delay. Only valid
// in standby RC; required before GetTemperature on TCXO designs.
func (d *Device) SetTcxoMode(ctx context.Context, v opcodes.TcxoVoltage, delay time.Duration) error {
	// The chip counts startup delay in 30.52us RTC steps.
	steps := uint32(delay.Microseconds() * 100 / 3052)
	return d.WriteChecked(ctx, opcodes.SetTcxoMode(v, steps), defaultCmdTimeout)
}

// Reboot restarts the chip firmware and waits for it to come back within
// timeout. The 32kHz clock configuration survives the restart.
func (d *Device) Reboot(ctx context.Context, stayInBootloader bool, timeout time.Duration) error {
	mode := opcodes.RebootNormal
	if stayInBootloader {
		mode = opcodes.RebootBootloader
	}
	if err := d.Write(ctx, opcodes.Reboot(mode)); err != nil {
		return err
	}
	return d.WaitReady(ctx, timeout)
}

// SetSleep puts the chip to sleep. With wakeupRtc the chip restarts by itself
// after sleepTime ticks of the 32kHz clock; either way the next chip-select
// assertion wakes it.
func (d *Device) SetSleep(ctx context.Context, wakeupRtc, retention bool, sleepTime uint32) error {
	// Busy goes high for the whole sleep, so no status read follows.
	return d.Write(ctx, opcodes.SetSleep(wakeupRtc, retention, sleepTime))
}

// SetStandby enters standby with the chosen 32MHz oscillator.
func (d *Device) SetStandby(ctx context.Context, mode opcodes.StandbyMode) error {
	return d.WriteChecked(ctx, opcodes.SetStandby(mode), defaultCmdTimeout)
}

// SetFs enters frequency synthesis mode.
func (d *Device) SetFs(ctx context.Context) error {
	return d.WriteChecked(ctx, opcodes.SetFs(), defaultCmdTimeout)
}

// GetTemperature reads the die temperature in degrees Celsius.
func (d *Device) GetTemperature(ctx context.Context) (float64, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetTemp(), opcodes.TempResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.TempResponse(resp).Celsius(), nil
}

// GetVbat reads the battery supply voltage in volts.
func (d *Device) GetVbat(ctx context.Context) (float64, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetVbat(), opcodes.VbatResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.VbatResponse(resp).Volts(), nil
}

// GetRandomNumber reads a 32-bit hardware random number. Not suitable for key
// material.
func (d *Device) GetRandomNumber(ctx context.Context) (uint32, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetRandomNumber(), opcodes.RandomNumberResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.RandomNumberResponse(resp).Value(), nil
}

// ChipEUI reads the factory-provisioned chip EUI.
func (d *Device) ChipEUI(ctx context.Context) ([8]byte, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetChipEui(), opcodes.EuiResponseLen, defaultCmdTimeout)
	if err != nil {
		return [8]byte{}, err
	}
	return opcodes.EuiResponse(resp).Bytes(), nil
}

// JoinEUI reads the Semtech-provisioned join EUI.
func (d *Device) JoinEUI(ctx context.Context) ([8]byte, error) {
	resp, err := d.cmdRead(ctx, opcodes.GetJoinEui(), opcodes.EuiResponseLen, defaultCmdTimeout)
	if err != nil {
		return [8]byte{}, err
	}
	return opcodes.EuiResponse(resp).Bytes(), nil
}

// DriveDiosInSleep enables pull resistors on RF-switch and IRQ DIOs during
// sleep.
func (d *Device) DriveDiosInSleep(ctx context.Context, enable bool) error {
	return d.WriteChecked(ctx, opcodes.DriveDiosInSleep(enable), defaultCmdTimeout)
}

// WriteTxBuffer stages payload bytes in the radio TX buffer.
func (d *Device) WriteTxBuffer(ctx context.Context, payload []byte) error {
	return d.WriteWithPayload(ctx, opcodes.WriteBuffer(), payload)
}

// ReadRxBuffer reads n bytes of the radio RX ring buffer starting at offset.
// The returned slice is freshly allocated and safe to keep.
func (d *Device) ReadRxBuffer(ctx context.Context, offset, n uint8) ([]byte, error) {
	resp, err := d.cmdRead(ctx, opcodes.ReadBuffer(offset, n), opcodes.ReadBufferResponseLen(n), defaultCmdTimeout)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, resp[1:])
	return out, nil
}

// ClearRxBuffer zeroes the radio RX buffer.
func (d *Device) ClearRxBuffer(ctx context.Context) error {
	return d.WriteChecked(ctx, opcodes.ClearRxBuffer(), defaultCmdTimeout)
}

// ReadRegister reads one 32-bit word of register/memory space.
func (d *Device) ReadRegister(ctx context.Context, addr uint32) (uint32, error) {
	resp, err := d.cmdRead(ctx, opcodes.ReadRegMem(addr, 1), opcodes.ReadRegMemResponseLen(1), defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.ReadRegMemResponse(resp).Word(0), nil
}

// ReadRegisters reads words consecutive 32-bit words starting at addr, up to
// 64 at a time.
func (d *Device) ReadRegisters(ctx context.Context, addr uint32, words uint8) ([]uint32, error) {
	resp, err := d.cmdRead(ctx, opcodes.ReadRegMem(addr, words), opcodes.ReadRegMemResponseLen(words), defaultCmdTimeout)
	if err != nil {
		return nil, err
	}
	r := opcodes.ReadRegMemResponse(resp)
	out := make([]uint32, r.Words())
	for i := range out {
		out[i] = r.Word(i)
	}
	return out, nil
}

// WriteRegister writes one 32-bit word of register/memory space.
func (d *Device) WriteRegister(ctx context.Context, addr, value uint32) error {
	return d.WriteChecked(ctx, opcodes.WriteRegMem(addr, value), defaultCmdTimeout)
}

// WriteRegisterMask read-modify-writes the masked bits of one register word.
func (d *Device) WriteRegisterMask(ctx context.Context, addr, mask, value uint32) error {
	return d.WriteChecked(ctx, opcodes.WriteRegMemMask(addr, mask, value), defaultCmdTimeout)
}

// WriteRegisterField writes a field of width bits at a bit offset within a
// register word, leaving the rest untouched.
func (d *Device) WriteRegisterField(ctx context.Context, addr uint32, shift, width uint, value uint32) error {
	mask := uint32(1)<<width - 1
	return d.WriteRegisterMask(ctx, addr, mask<<shift, (value&mask)<<shift)
}
