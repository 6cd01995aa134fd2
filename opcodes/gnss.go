package opcodes

import "github.com/viam-modules/lr1120/status"

// GnssConstellation is the constellation bitmask used by the GNSS scanner.
type GnssConstellation uint8

const (
	GnssGps    GnssConstellation = 1 << 0
	GnssBeidou GnssConstellation = 1 << 1
)

// GnssMode selects legacy single scanning or advanced multiple scanning.
type GnssMode uint8

const (
	GnssLegacySingle     GnssMode = 0
	GnssAdvancedMultiple GnssMode = 3
)

// GnssEffort controls whether a scan stops early when no strong satellite is
// found.
type GnssEffort uint8

const (
	GnssLowPower   GnssEffort = 0
	GnssBestEffort GnssEffort = 1
)

// GnssDemodSensi selects the time-fetch demodulation sensitivity.
type GnssDemodSensi uint8

const (
	GnssSensiLow GnssDemodSensi = 0
	GnssSensiMid GnssDemodSensi = 1
)

// Sizes of the chunks a manual almanac update is pushed in.
const (
	GnssAlmanacHeaderSize  = 20
	GnssAlmanacSvSize      = 20
	GnssAlmanacSvsPerChunk = 25
)

// GnssSetConstellation selects the constellations scanned. With both set, GPS
// scans first and BeiDou follows.
func GnssSetConstellation(mask GnssConstellation) []byte {
	b := req(0x0400, 3)
	b[2] = byte(mask)
	return b
}

// GnssReadConstellation reads the configured constellation mask.
func GnssReadConstellation() []byte { return req(0x0401, 2) }

// GnssReadSupportedConstellations reads the constellations the firmware
// supports.
func GnssReadSupportedConstellations() []byte { return req(0x0407, 2) }

const GnssConstellationResponseLen = 2

type GnssConstellationResponse []byte

func (r GnssConstellationResponse) Status() status.Status   { return respStatus(r) }
func (r GnssConstellationResponse) Mask() GnssConstellation { return GnssConstellation(r[1]) }

// GnssSetMode selects legacy or advanced scanning.
func GnssSetMode(mode GnssMode) []byte {
	b := req(0x0408, 3)
	b[2] = byte(mode)
	return b
}

// GnssAutonomous starts a scan without assistance data. time is GPS time in
// seconds. GnssDone fires when the scan completes.
func GnssAutonomous(time uint32, effort GnssEffort, resultMask, maxSv uint8) []byte {
	b := req(0x0409, 9)
	put32(b[2:], time)
	b[6] = byte(effort)
	b[7] = resultMask
	b[8] = maxSv
	return b
}

// GnssAssisted starts a scan using time, position and almanac assistance.
// Replaced by GnssScan on firmware 02.01 and later.
func GnssAssisted(time uint32, effort GnssEffort, resultMask, maxSv uint8) []byte {
	b := req(0x040A, 9)
	put32(b[2:], time)
	b[6] = byte(effort)
	b[7] = resultMask
	b[8] = maxSv
	return b
}

// GnssScan starts a scan that works with or without assistance data.
// Firmware 02.01 and later only.
func GnssScan(effort GnssEffort, resultMask, maxSv uint8) []byte {
	b := req(0x040B, 5)
	b[2] = byte(effort)
	b[3] = resultMask
	b[4] = maxSv
	return b
}

// GnssAlmanacUpdate prepends the opcode for a manual almanac write. The
// 20-byte header or up to 25 20-byte satellite entries follow as payload.
func GnssAlmanacUpdate() []byte { return req(0x040E, 2) }

// GnssSetAssistancePosition sets the approximate position for assisted scans.
// Latitude and longitude are 16-bit fixed point, value = degrees*2048/90.
func GnssSetAssistancePosition(latitude, longitude uint16) []byte {
	b := req(0x0410, 6)
	put16(b[2:], latitude)
	put16(b[4:], longitude)
	return b
}

// GnssReadAssistancePosition reads the assistance position.
func GnssReadAssistancePosition() []byte { return req(0x0411, 2) }

const GnssAssistancePositionResponseLen = 5

type GnssAssistancePositionResponse []byte

func (r GnssAssistancePositionResponse) Status() status.Status { return respStatus(r) }
func (r GnssAssistancePositionResponse) Latitude() uint16      { return be16(r[1:3]) }
func (r GnssAssistancePositionResponse) Longitude() uint16     { return be16(r[3:5]) }

// GnssPushSolverMsg pushes a message from the GNSS solver back to the chip,
// for example an assistance position update. The message bytes follow as
// payload.
func GnssPushSolverMsg() []byte { return req(0x0414, 2) }

// GnssPushDmMsg pushes a device-management message from the LoRaWAN network
// to the chip. The message bytes follow as payload.
func GnssPushDmMsg() []byte { return req(0x0415, 2) }

// GnssGetContextStatus reads firmware version, almanac CRC, error codes and
// frequency search space.
func GnssGetContextStatus() []byte { return req(0x0416, 2) }

const GnssContextStatusResponseLen = 10

type GnssContextStatusResponse []byte

func (r GnssContextStatusResponse) Status() status.Status  { return respStatus(r) }
func (r GnssContextStatusResponse) FirmwareVersion() uint8 { return r[3] }

// AlmanacCrc is the 32-bit CRC over the full almanac flash.
func (r GnssContextStatusResponse) AlmanacCrc() uint32 { return be32(r[4:8]) }

// ErrorCode is 0 for none, 1 almanac too old, 2 update CRC mismatch, 3 flash
// integrity error, 4 update not allowed.
func (r GnssContextStatusResponse) ErrorCode() uint8 { return r[8] >> 4 & 0xF }

// AlmanacUpdateMask is the constellation mask almanac demodulation runs on.
func (r GnssContextStatusResponse) AlmanacUpdateMask() GnssConstellation {
	return GnssConstellation(r[8] >> 1 & 0x7)
}

// GnssReadVersion reads the GNSS firmware and almanac format versions.
func GnssReadVersion() []byte { return req(0x0406, 2) }

const GnssVersionResponseLen = 3

type GnssVersionResponse []byte

func (r GnssVersionResponse) Status() status.Status { return respStatus(r) }
func (r GnssVersionResponse) Firmware() uint8       { return r[1] }
func (r GnssVersionResponse) Almanac() uint8        { return r[2] }

// GnssSetAlmanacUpdate enables almanac demodulation for the masked
// constellations during scans.
func GnssSetAlmanacUpdate(mask GnssConstellation) []byte {
	b := req(0x0402, 3)
	b[2] = byte(mask)
	return b
}

// GnssReadAlmanacUpdate reads the almanac update configuration.
func GnssReadAlmanacUpdate() []byte { return req(0x0403, 2) }

// GnssGetResultSize reads the byte size of the pending scan result.
func GnssGetResultSize() []byte { return req(0x040C, 2) }

const GnssResultSizeResponseLen = 3

type GnssResultSizeResponse []byte

func (r GnssResultSizeResponse) Status() status.Status { return respStatus(r) }
func (r GnssResultSizeResponse) Size() uint16          { return be16(r[1:3]) }

// GnssReadResults reads the scan result bytes. The first byte of the result
// stream is the destination tag (solver or host).
func GnssReadResults() []byte { return req(0x040D, 2) }

// GnssGetNbSvDetected reads the number of satellites detected by the last
// scan.
func GnssGetNbSvDetected() []byte { return req(0x0417, 2) }

const GnssNbSvDetectedResponseLen = 2

type GnssNbSvDetectedResponse []byte

func (r GnssNbSvDetectedResponse) Status() status.Status { return respStatus(r) }
func (r GnssNbSvDetectedResponse) NbSv() uint8           { return r[1] }

// GnssGetSvDetected reads the per-satellite detection records. Each record is
// id, SNR and doppler.
func GnssGetSvDetected() []byte { return req(0x0418, 2) }

// GnssSvDetectedSize is the per-satellite record size of GnssGetSvDetected.
const GnssSvDetectedSize = 4

// GnssGetConsumption reads the cumulative radio time spent scanning.
func GnssGetConsumption() []byte { return req(0x0419, 2) }

const GnssConsumptionResponseLen = 9

type GnssConsumptionResponse []byte

func (r GnssConsumptionResponse) Status() status.Status { return respStatus(r) }

// CpuMs is the cumulative CPU time in milliseconds.
func (r GnssConsumptionResponse) CpuMs() uint32 { return be32(r[1:5]) }

// RadioMs is the cumulative radio capture time in milliseconds.
func (r GnssConsumptionResponse) RadioMs() uint32 { return be32(r[5:9]) }

// GnssGetSvVisible computes the satellites visible at a time and place
// without scanning.
func GnssGetSvVisible(time uint32, latitude, longitude uint16, constellation GnssConstellation) []byte {
	b := req(0x041F, 11)
	put32(b[2:], time)
	put16(b[6:], latitude)
	put16(b[8:], longitude)
	b[10] = byte(constellation)
	return b
}

const GnssSvVisibleResponseLen = 2

type GnssSvVisibleResponse []byte

func (r GnssSvVisibleResponse) Status() status.Status { return respStatus(r) }
func (r GnssSvVisibleResponse) NbSv() uint8           { return r[1] }

// GnssFetchTime demodulates GPS time from satellite signals.
func GnssFetchTime(sensi GnssDemodSensi, options uint8) []byte {
	b := req(0x0432, 4)
	b[2] = byte(sensi)
	b[3] = options
	return b
}

// GnssReadTime reads the demodulated GPS time and its accuracy.
func GnssReadTime() []byte { return req(0x0434, 2) }

const GnssTimeResponseLen = 9

type GnssTimeResponse []byte

func (r GnssTimeResponse) Status() status.Status { return respStatus(r) }

// GpsTime is seconds since 6 Jan 1980 00:00:00.
func (r GnssTimeResponse) GpsTime() uint32 { return be32(r[1:5]) }

// AccuracyMs is the time accuracy in milliseconds.
func (r GnssTimeResponse) AccuracyMs() uint32 { return be32(r[5:9]) }

// GnssResetTime discards the stored GPS time.
func GnssResetTime() []byte { return req(0x0435, 2) }

// GnssResetPosition discards the stored assistance position.
func GnssResetPosition() []byte { return req(0x0437, 2) }

// GnssSetTime sets GPS time in seconds with an accuracy bound.
func GnssSetTime(gpsTime uint32, accuracy uint16) []byte {
	b := req(0x044B, 8)
	put32(b[2:], gpsTime)
	put16(b[6:], accuracy)
	return b
}

// GnssConfigDelayResetAp sets the delay after which the chip drops its
// assistance position and falls back to cold start.
func GnssConfigDelayResetAp(delay uint32) []byte {
	b := req(0x0465, 5)
	put24(b[2:], delay)
	return b
}

// GnssReadDelayResetAp reads the assistance-position reset delay.
func GnssReadDelayResetAp() []byte { return req(0x0453, 2) }

const GnssDelayResetApResponseLen = 4

type GnssDelayResetApResponse []byte

func (r GnssDelayResetApResponse) Status() status.Status { return respStatus(r) }
func (r GnssDelayResetApResponse) Delay() uint32         { return be24(r[1:4]) }

// GnssReadLastScanModeLaunched reads which scan type ran last.
func GnssReadLastScanModeLaunched() []byte { return req(0x0426, 2) }

const GnssLastScanModeResponseLen = 2

type GnssLastScanModeResponse []byte

func (r GnssLastScanModeResponse) Status() status.Status { return respStatus(r) }
func (r GnssLastScanModeResponse) Mode() uint8           { return r[1] }

// GnssReadDopplerSolverRes reads the result of the integrated 2D doppler
// solver: error code, number of satellites used and the two position
// estimates.
func GnssReadDopplerSolverRes() []byte { return req(0x044F, 2) }

const GnssDopplerSolverResponseLen = 19

type GnssDopplerSolverResponse []byte

func (r GnssDopplerSolverResponse) Status() status.Status { return respStatus(r) }
func (r GnssDopplerSolverResponse) ErrorCode() uint8      { return r[1] }
func (r GnssDopplerSolverResponse) NbSvUsed() uint8       { return r[2] }
func (r GnssDopplerSolverResponse) OneShotLatitude() uint16 {
	return be16(r[3:5])
}
func (r GnssDopplerSolverResponse) OneShotLongitude() uint16 {
	return be16(r[5:7])
}
func (r GnssDopplerSolverResponse) OneShotAccuracy() uint16 {
	return be16(r[7:9])
}
func (r GnssDopplerSolverResponse) FilteredLatitude() uint16 {
	return be16(r[11:13])
}
func (r GnssDopplerSolverResponse) FilteredLongitude() uint16 {
	return be16(r[13:15])
}
func (r GnssDopplerSolverResponse) FilteredAccuracy() uint16 {
	return be16(r[15:17])
}
