package lr1120

import (
	"context"
	"fmt"
	"time"

	"github.com/viam-modules/lr1120/opcodes"
)

// gnssCoordScale converts degrees to the 16-bit fixed point the chip uses for
// assistance positions.
const gnssCoordScale = 2048.0 / 90.0

// GnssScanParams configures a GNSS scan.
type GnssScanParams struct {
	Effort opcodes.GnssEffort
	// ResultMask selects the intermediate results appended to the NAV
	// message (doppler, bit change, ...).
	ResultMask uint8
	MaxSv      uint8
}

// SetGnssConstellations selects which constellations scans use.
func (d *Device) SetGnssConstellations(ctx context.Context, mask opcodes.GnssConstellation) error {
	return d.WriteChecked(ctx, opcodes.GnssSetConstellation(mask), defaultCmdTimeout)
}

// GnssConstellations reads the configured constellation mask.
func (d *Device) GnssConstellations(ctx context.Context) (opcodes.GnssConstellation, error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssReadConstellation(), opcodes.GnssConstellationResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.GnssConstellationResponse(resp).Mask(), nil
}

// GnssSupportedConstellations reads the constellations the firmware supports.
func (d *Device) GnssSupportedConstellations(ctx context.Context) (opcodes.GnssConstellation, error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssReadSupportedConstellations(), opcodes.GnssConstellationResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.GnssConstellationResponse(resp).Mask(), nil
}

// SetGnssMode selects legacy single or advanced multiple scanning.
func (d *Device) SetGnssMode(ctx context.Context, mode opcodes.GnssMode) error {
	return d.WriteChecked(ctx, opcodes.GnssSetMode(mode), defaultCmdTimeout)
}

// StartGnssScan starts a scan on firmware 02.01 or later. The busy line stays
// high until GnssDone, typically for several seconds; use AwaitScan or the
// GnssDone interrupt before reading results.
func (d *Device) StartGnssScan(ctx context.Context, p GnssScanParams) error {
	return d.Write(ctx, opcodes.GnssScan(p.Effort, p.ResultMask, p.MaxSv))
}

// StartGnssAutonomous starts a scan without assistance data on older
// firmware. gpsTime is seconds since the GPS epoch, zero if unknown.
func (d *Device) StartGnssAutonomous(ctx context.Context, gpsTime uint32, p GnssScanParams) error {
	return d.Write(ctx, opcodes.GnssAutonomous(gpsTime, p.Effort, p.ResultMask, p.MaxSv))
}

// StartGnssAssisted starts a scan using time and position assistance on older
// firmware.
func (d *Device) StartGnssAssisted(ctx context.Context, gpsTime uint32, p GnssScanParams) error {
	return d.Write(ctx, opcodes.GnssAssisted(gpsTime, p.Effort, p.ResultMask, p.MaxSv))
}

// GnssResultSize reads the byte size of the pending scan result.
func (d *Device) GnssResultSize(ctx context.Context) (int, error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssGetResultSize(), opcodes.GnssResultSizeResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return int(opcodes.GnssResultSizeResponse(resp).Size()), nil
}

// ReadGnssResults reads the NAV message of the last scan. The first byte of
// the returned stream is the destination tag telling whether the message is
// for the solver or the host. The result must be read in a single
// transaction, so its size is bounded by the transaction buffer.
func (d *Device) ReadGnssResults(ctx context.Context) ([]byte, error) {
	size, err := d.GnssResultSize(ctx)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	resp, err := d.cmdRead(ctx, opcodes.GnssReadResults(), 1+size, defaultCmdTimeout)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, resp[1:])
	return out, nil
}

// GnssSvDetected is one satellite seen by the last scan.
type GnssSvDetected struct {
	ID      uint8
	Snr     int8
	Doppler int16
}

// GnssDetectedSatellites reads the per-satellite records of the last scan.
func (d *Device) GnssDetectedSatellites(ctx context.Context) ([]GnssSvDetected, error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssGetNbSvDetected(), opcodes.GnssNbSvDetectedResponseLen, defaultCmdTimeout)
	if err != nil {
		return nil, err
	}
	nb := int(opcodes.GnssNbSvDetectedResponse(resp).NbSv())
	if nb == 0 {
		return nil, nil
	}
	resp, err = d.cmdRead(ctx, opcodes.GnssGetSvDetected(), 1+nb*opcodes.GnssSvDetectedSize, defaultCmdTimeout)
	if err != nil {
		return nil, err
	}
	out := make([]GnssSvDetected, 0, nb)
	for i := 0; i < nb; i++ {
		rec := resp[1+i*opcodes.GnssSvDetectedSize:]
		out = append(out, GnssSvDetected{
			ID:      rec[0],
			Snr:     int8(rec[1]),
			Doppler: int16(uint16(rec[2])<<8 | uint16(rec[3])),
		})
	}
	return out, nil
}

// UpdateGnssAlmanac pushes a full almanac image: a 20-byte header followed by
// 20-byte satellite entries. The header goes first in its own transaction,
// then entries in chunks of 25.
func (d *Device) UpdateGnssAlmanac(ctx context.Context, almanac []byte) error {
	if len(almanac) < opcodes.GnssAlmanacHeaderSize ||
		(len(almanac)-opcodes.GnssAlmanacHeaderSize)%opcodes.GnssAlmanacSvSize != 0 {
		return fmt.Errorf("almanac image must be a %d byte header plus whole %d byte entries, got %d bytes",
			opcodes.GnssAlmanacHeaderSize, opcodes.GnssAlmanacSvSize, len(almanac))
	}
	if err := d.payloadCmd(ctx, opcodes.GnssAlmanacUpdate(),
		almanac[:opcodes.GnssAlmanacHeaderSize], defaultCmdTimeout); err != nil {
		return err
	}
	rest := almanac[opcodes.GnssAlmanacHeaderSize:]
	chunk := opcodes.GnssAlmanacSvsPerChunk * opcodes.GnssAlmanacSvSize
	for off := 0; off < len(rest); off += chunk {
		end := off + chunk
		if end > len(rest) {
			end = len(rest)
		}
		if err := d.payloadCmd(ctx, opcodes.GnssAlmanacUpdate(), rest[off:end], defaultCmdTimeout); err != nil {
			return err
		}
	}
	return nil
}

// PushGnssSolverMessage pushes a message from the geolocation solver back to
// the chip.
func (d *Device) PushGnssSolverMessage(ctx context.Context, msg []byte) error {
	return d.payloadCmd(ctx, opcodes.GnssPushSolverMsg(), msg, defaultCmdTimeout)
}

// PushGnssDmMessage pushes a device-management message from the network to
// the chip.
func (d *Device) PushGnssDmMessage(ctx context.Context, msg []byte) error {
	return d.payloadCmd(ctx, opcodes.GnssPushDmMsg(), msg, defaultCmdTimeout)
}

// SetGnssAssistancePosition sets the approximate position used by assisted
// scans, in degrees.
func (d *Device) SetGnssAssistancePosition(ctx context.Context, latitude, longitude float64) error {
	lat := uint16(int16(latitude * gnssCoordScale))
	lon := uint16(int16(longitude * gnssCoordScale))
	return d.WriteChecked(ctx, opcodes.GnssSetAssistancePosition(lat, lon), defaultCmdTimeout)
}

// GnssAssistancePosition reads back the assistance position in degrees.
func (d *Device) GnssAssistancePosition(ctx context.Context) (latitude, longitude float64, err error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssReadAssistancePosition(), opcodes.GnssAssistancePositionResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, 0, err
	}
	r := opcodes.GnssAssistancePositionResponse(resp)
	latitude = float64(int16(r.Latitude())) / gnssCoordScale
	longitude = float64(int16(r.Longitude())) / gnssCoordScale
	return latitude, longitude, nil
}

// GnssContext is the scanner context: firmware version, almanac state and
// error flags.
type GnssContext struct {
	FirmwareVersion   uint8
	AlmanacCrc        uint32
	ErrorCode         uint8
	AlmanacUpdateMask opcodes.GnssConstellation
}

// GnssContextStatus reads the scanner context.
func (d *Device) GnssContextStatus(ctx context.Context) (GnssContext, error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssGetContextStatus(), opcodes.GnssContextStatusResponseLen, defaultCmdTimeout)
	if err != nil {
		return GnssContext{}, err
	}
	r := opcodes.GnssContextStatusResponse(resp)
	return GnssContext{
		FirmwareVersion:   r.FirmwareVersion(),
		AlmanacCrc:        r.AlmanacCrc(),
		ErrorCode:         r.ErrorCode(),
		AlmanacUpdateMask: r.AlmanacUpdateMask(),
	}, nil
}

// GnssFirmwareVersion reads the GNSS firmware and almanac format versions.
func (d *Device) GnssFirmwareVersion(ctx context.Context) (firmware, almanac uint8, err error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssReadVersion(), opcodes.GnssVersionResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, 0, err
	}
	r := opcodes.GnssVersionResponse(resp)
	return r.Firmware(), r.Almanac(), nil
}

// SetGnssAlmanacDemodulation enables almanac updates from satellite signals
// during scans for the masked constellations.
func (d *Device) SetGnssAlmanacDemodulation(ctx context.Context, mask opcodes.GnssConstellation) error {
	return d.WriteChecked(ctx, opcodes.GnssSetAlmanacUpdate(mask), defaultCmdTimeout)
}

// GnssConsumption reads the cumulative CPU and radio time spent scanning.
func (d *Device) GnssConsumption(ctx context.Context) (cpu, radio time.Duration, err error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssGetConsumption(), opcodes.GnssConsumptionResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, 0, err
	}
	r := opcodes.GnssConsumptionResponse(resp)
	return time.Duration(r.CpuMs()) * time.Millisecond,
		time.Duration(r.RadioMs()) * time.Millisecond, nil
}

// GnssVisibleSatellites computes how many satellites are visible at a time
// and place without running a scan.
func (d *Device) GnssVisibleSatellites(ctx context.Context, gpsTime uint32, latitude, longitude float64, mask opcodes.GnssConstellation) (uint8, error) {
	lat := uint16(int16(latitude * gnssCoordScale))
	lon := uint16(int16(longitude * gnssCoordScale))
	resp, err := d.cmdRead(ctx, opcodes.GnssGetSvVisible(gpsTime, lat, lon, mask), opcodes.GnssSvVisibleResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.GnssSvVisibleResponse(resp).NbSv(), nil
}

// StartGnssTimeFetch demodulates GPS time from satellite signals. Busy stays
// high until GnssDone.
func (d *Device) StartGnssTimeFetch(ctx context.Context, sensi opcodes.GnssDemodSensi) error {
	return d.Write(ctx, opcodes.GnssFetchTime(sensi, 0))
}

// GnssTime reads the demodulated GPS time and its accuracy.
func (d *Device) GnssTime(ctx context.Context) (gpsTime uint32, accuracy time.Duration, err error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssReadTime(), opcodes.GnssTimeResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, 0, err
	}
	r := opcodes.GnssTimeResponse(resp)
	return r.GpsTime(), time.Duration(r.AccuracyMs()) * time.Millisecond, nil
}

// SetGnssTime sets GPS time in seconds with an accuracy bound in
// milliseconds.
func (d *Device) SetGnssTime(ctx context.Context, gpsTime uint32, accuracyMs uint16) error {
	return d.WriteChecked(ctx, opcodes.GnssSetTime(gpsTime, accuracyMs), defaultCmdTimeout)
}

// ResetGnssTime discards the stored GPS time.
func (d *Device) ResetGnssTime(ctx context.Context) error {
	return d.WriteChecked(ctx, opcodes.GnssResetTime(), defaultCmdTimeout)
}

// ResetGnssPosition discards the stored assistance position.
func (d *Device) ResetGnssPosition(ctx context.Context) error {
	return d.WriteChecked(ctx, opcodes.GnssResetPosition(), defaultCmdTimeout)
}

// GnssPosition is a 2D doppler solver estimate in degrees.
type GnssPosition struct {
	Latitude  float64
	Longitude float64
	// Accuracy is the position accuracy estimate, LSB 0.1km.
	Accuracy uint16
}

// GnssSolverResult holds both estimates of the integrated doppler solver.
type GnssSolverResult struct {
	ErrorCode uint8
	NbSvUsed  uint8
	OneShot   GnssPosition
	Filtered  GnssPosition
}

// GnssDopplerSolverResult reads the integrated 2D doppler solver output after
// a scan.
func (d *Device) GnssDopplerSolverResult(ctx context.Context) (GnssSolverResult, error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssReadDopplerSolverRes(), opcodes.GnssDopplerSolverResponseLen, defaultCmdTimeout)
	if err != nil {
		return GnssSolverResult{}, err
	}
	r := opcodes.GnssDopplerSolverResponse(resp)
	return GnssSolverResult{
		ErrorCode: r.ErrorCode(),
		NbSvUsed:  r.NbSvUsed(),
		OneShot: GnssPosition{
			Latitude:  float64(int16(r.OneShotLatitude())) / gnssCoordScale,
			Longitude: float64(int16(r.OneShotLongitude())) / gnssCoordScale,
			Accuracy:  r.OneShotAccuracy(),
		},
		Filtered: GnssPosition{
			Latitude:  float64(int16(r.FilteredLatitude())) / gnssCoordScale,
			Longitude: float64(int16(r.FilteredLongitude())) / gnssCoordScale,
			Accuracy:  r.FilteredAccuracy(),
		},
	}, nil
}

// SetGnssAssistanceResetDelay sets how long the chip keeps its assistance
// position before falling back to a cold start, in seconds.
func (d *Device) SetGnssAssistanceResetDelay(ctx context.Context, delay uint32) error {
	return d.WriteChecked(ctx, opcodes.GnssConfigDelayResetAp(delay), defaultCmdTimeout)
}

// GnssAssistanceResetDelay reads the assistance reset delay in seconds.
func (d *Device) GnssAssistanceResetDelay(ctx context.Context) (uint32, error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssReadDelayResetAp(), opcodes.GnssDelayResetApResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.GnssDelayResetApResponse(resp).Delay(), nil
}

// GnssLastScanMode reads which scan type ran last.
func (d *Device) GnssLastScanMode(ctx context.Context) (uint8, error) {
	resp, err := d.cmdRead(ctx, opcodes.GnssReadLastScanModeLaunched(), opcodes.GnssLastScanModeResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.GnssLastScanModeResponse(resp).Mode(), nil
}
