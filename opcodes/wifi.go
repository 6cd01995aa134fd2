package opcodes

import "github.com/viam-modules/lr1120/status"

// WifiSignalType selects which 802.11 signals a passive scan searches for.
type WifiSignalType uint8

const (
	WifiTypeB   WifiSignalType = 1
	WifiTypeG   WifiSignalType = 2
	WifiTypeN   WifiSignalType = 3
	WifiTypeAll WifiSignalType = 4
)

// WifiAcqMode is the acquisition mode of a passive scan.
type WifiAcqMode uint8

const (
	WifiBeaconSearch    WifiAcqMode = 1
	WifiBeaconAndPacket WifiAcqMode = 2
	WifiFullTraffic     WifiAcqMode = 3
	WifiFullBeacon      WifiAcqMode = 4
	WifiSsidBeacon      WifiAcqMode = 5
)

// WifiResultFormat selects how much of each scan result is read back.
type WifiResultFormat uint8

const (
	// WifiFormatFull yields 22-byte records (79 bytes in full-beacon mode).
	WifiFormatFull WifiResultFormat = 1
	// WifiFormatBasic yields 9-byte MAC/type/channel records.
	WifiFormatBasic WifiResultFormat = 4
)

// Per-record sizes of the Wi-Fi result read formats.
const (
	WifiBasicResultSize       = 9
	WifiFullResultSize        = 22
	WifiFullBeaconResultSize  = 79
	WifiCountryCodeResultSize = 10
)

// WifiScan captures Wi-Fi packets on the RFIO_HF pin. BUSY stays high for the
// duration of the scan; WifiDone fires at the end when enabled.
func WifiScan(
	signal WifiSignalType,
	chanMask uint16,
	acq WifiAcqMode,
	maxResults, scansPerChannel uint8,
	timeoutMs uint16,
	abortOnTimeout bool,
) []byte {
	b := req(0x0300, 11)
	b[2] = byte(signal)
	put16(b[3:], chanMask)
	b[5] = byte(acq)
	b[6] = maxResults
	b[7] = scansPerChannel
	put16(b[8:], timeoutMs)
	if abortOnTimeout {
		b[10] = 1
	}
	return b
}

// WifiScanTimeLimit scans with a capped time per channel instead of a scan
// count.
func WifiScanTimeLimit(
	signal WifiSignalType,
	chanMask uint16,
	acq WifiAcqMode,
	maxResults uint8,
	scanTimePerChannel, timeoutPerScan uint16,
) []byte {
	b := req(0x0301, 11)
	b[2] = byte(signal)
	put16(b[3:], chanMask)
	b[5] = byte(acq)
	b[6] = maxResults
	put16(b[7:], scanTimePerChannel)
	put16(b[9:], timeoutPerScan)
	return b
}

// WifiCountryCode extracts country codes from Wi-Fi b beacons and probe
// responses, deduplicated by MAC address.
func WifiCountryCode(chanMask uint16, maxResults, scansPerChannel uint8, timeoutMs uint16, abortOnTimeout bool) []byte {
	b := req(0x0302, 9)
	put16(b[2:], chanMask)
	b[4] = maxResults
	b[5] = scansPerChannel
	put16(b[6:], timeoutMs)
	if abortOnTimeout {
		b[8] = 1
	}
	return b
}

// WifiCountryCodeTimeLimit is the time-capped variant of WifiCountryCode.
func WifiCountryCodeTimeLimit(chanMask uint16, maxResults uint8, scanTimePerChannel, timeoutPerScan uint16) []byte {
	b := req(0x0303, 9)
	put16(b[2:], chanMask)
	b[4] = maxResults
	put16(b[5:], scanTimePerChannel)
	put16(b[7:], timeoutPerScan)
	return b
}

// WifiGetNbResults reads the number of results captured by the last scan.
// Must be called before WifiReadResults.
func WifiGetNbResults() []byte { return req(0x0305, 2) }

const WifiNbResultsResponseLen = 2

type WifiNbResultsResponse []byte

func (r WifiNbResultsResponse) Status() status.Status { return respStatus(r) }
func (r WifiNbResultsResponse) NbResults() uint8      { return r[1] }

// WifiReadResults reads nbResults scan records starting at index in the given
// format. At most 1020 bytes can be read per command.
func WifiReadResults(index, nbResults uint8, format WifiResultFormat) []byte {
	b := req(0x0306, 5)
	b[2] = index
	b[3] = nbResults
	b[4] = byte(format)
	return b
}

// WifiResetCumulTimings resets the cumulative scan timing counters.
func WifiResetCumulTimings() []byte { return req(0x0307, 2) }

// WifiReadCumulTimings reads the cumulative scan timings in microseconds.
func WifiReadCumulTimings() []byte { return req(0x0308, 2) }

const WifiCumulTimingsResponseLen = 17

type WifiCumulTimingsResponse []byte

func (r WifiCumulTimingsResponse) Status() status.Status { return respStatus(r) }

// PreambleDetectionUs is the total time spent in preamble detection.
func (r WifiCumulTimingsResponse) PreambleDetectionUs() uint32 { return be32(r[5:9]) }

// CaptureUs is the total time spent in capture mode.
func (r WifiCumulTimingsResponse) CaptureUs() uint32 { return be32(r[9:13]) }

// DemodulationUs is the total time spent demodulating.
func (r WifiCumulTimingsResponse) DemodulationUs() uint32 { return be32(r[13:17]) }

// WifiGetNbCountryCodeResults reads the number of country code results.
func WifiGetNbCountryCodeResults() []byte { return req(0x0309, 2) }

// WifiReadCountryCodeResults reads nbResults 10-byte country code records
// starting at index.
func WifiReadCountryCodeResults(index, nbResults uint8) []byte {
	b := req(0x030A, 4)
	b[2] = index
	b[3] = nbResults
	return b
}

// WifiCfgTimestampApPhone sets the beacon timestamp threshold in seconds used
// to tell mobile access points from fixed gateways. Defaults to one day.
func WifiCfgTimestampApPhone(threshold uint32) []byte {
	b := req(0x030B, 6)
	put32(b[2:], threshold)
	return b
}

// WifiReadVersion reads the Wi-Fi firmware version.
func WifiReadVersion() []byte { return req(0x0320, 2) }

const WifiVersionResponseLen = 3

type WifiVersionResponse []byte

func (r WifiVersionResponse) Status() status.Status { return respStatus(r) }
func (r WifiVersionResponse) Major() uint8          { return r[1] }
func (r WifiVersionResponse) Minor() uint8          { return r[2] }
