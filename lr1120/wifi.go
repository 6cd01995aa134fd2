package lr1120

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/viam-modules/lr1120/opcodes"
)

// WifiScanParams configures a passive Wi-Fi scan.
type WifiScanParams struct {
	Signal          opcodes.WifiSignalType
	ChanMask        uint16
	AcqMode         opcodes.WifiAcqMode
	MaxResults      uint8
	ScansPerChannel uint8
	Timeout         time.Duration
	AbortOnTimeout  bool
}

// DefaultWifiScanParams scans all channels for any signal type, keeping up to
// 16 results with 8 scans and 105ms per channel.
func DefaultWifiScanParams() WifiScanParams {
	return WifiScanParams{
		Signal:          opcodes.WifiTypeAll,
		ChanMask:        0x3FFF,
		AcqMode:         opcodes.WifiBeaconAndPacket,
		MaxResults:      16,
		ScansPerChannel: 8,
		Timeout:         105 * time.Millisecond,
		AbortOnTimeout:  true,
	}
}

// StartWifiScan starts a passive scan. The busy line stays high for the
// duration (typically a few hundred milliseconds); WifiDone fires when
// results are ready. No status byte is fetched because the chip is not
// addressable until the scan ends.
func (d *Device) StartWifiScan(ctx context.Context, p WifiScanParams) error {
	timeoutMs := uint16(p.Timeout / time.Millisecond)
	return d.Write(ctx, opcodes.WifiScan(
		p.Signal, p.ChanMask, p.AcqMode, p.MaxResults, p.ScansPerChannel, timeoutMs, p.AbortOnTimeout))
}

// StartWifiCountryCodeScan starts a country-code extraction scan over Wi-Fi b
// beacons.
func (d *Device) StartWifiCountryCodeScan(ctx context.Context, p WifiScanParams) error {
	timeoutMs := uint16(p.Timeout / time.Millisecond)
	return d.Write(ctx, opcodes.WifiCountryCode(
		p.ChanMask, p.MaxResults, p.ScansPerChannel, timeoutMs, p.AbortOnTimeout))
}

// AwaitScan blocks until the busy line releases after a Wi-Fi or GNSS scan,
// or the budget elapses.
func (d *Device) AwaitScan(ctx context.Context, timeout time.Duration) error {
	return d.WaitReady(ctx, timeout)
}

// WifiResultCount reads the number of results the last scan captured.
func (d *Device) WifiResultCount(ctx context.Context) (uint8, error) {
	resp, err := d.cmdRead(ctx, opcodes.WifiGetNbResults(), opcodes.WifiNbResultsResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	return opcodes.WifiNbResultsResponse(resp).NbResults(), nil
}

// WifiResult is one scanned access point. Timing fields are only populated
// when the full result format was read.
type WifiResult struct {
	DataRateInfo uint8
	ChannelInfo  uint8
	RssiDbm      int8
	FrameType    uint8
	Mac          [6]byte

	PhiOffset      int16
	TimestampUs    uint64
	BeaconPeriodTu uint16
}

// Channel extracts the channel number from the channel info byte.
func (r WifiResult) Channel() uint8 { return r.ChannelInfo & 0x0F }

func parseWifiBasic(rec []byte) WifiResult {
	r := WifiResult{
		DataRateInfo: rec[0],
		ChannelInfo:  rec[1],
		RssiDbm:      int8(rec[2]),
	}
	copy(r.Mac[:], rec[3:9])
	return r
}

func parseWifiFull(rec []byte) WifiResult {
	r := WifiResult{
		DataRateInfo: rec[0],
		ChannelInfo:  rec[1],
		RssiDbm:      int8(rec[2]),
		FrameType:    rec[3],
	}
	copy(r.Mac[:], rec[4:10])
	r.PhiOffset = int16(binary.BigEndian.Uint16(rec[10:12]))
	r.TimestampUs = binary.BigEndian.Uint64(rec[12:20])
	r.BeaconPeriodTu = binary.BigEndian.Uint16(rec[20:22])
	return r
}

// ReadWifiResults reads every result of the last scan in the given format.
// Reads are chunked on record boundaries so each chunk is an independent
// transaction against the fixed buffer.
func (d *Device) ReadWifiResults(ctx context.Context, format opcodes.WifiResultFormat) ([]WifiResult, error) {
	nb, err := d.WifiResultCount(ctx)
	if err != nil {
		return nil, err
	}
	if nb == 0 {
		return nil, nil
	}

	recSize := opcodes.WifiFullResultSize
	parse := parseWifiFull
	if format == opcodes.WifiFormatBasic {
		recSize = opcodes.WifiBasicResultSize
		parse = parseWifiBasic
	}
	perChunk := (d.BufferCapacity() - 1) / recSize

	out := make([]WifiResult, 0, nb)
	for index := 0; index < int(nb); index += perChunk {
		n := perChunk
		if remaining := int(nb) - index; remaining < n {
			n = remaining
		}
		resp, err := d.cmdRead(ctx,
			opcodes.WifiReadResults(uint8(index), uint8(n), format),
			1+n*recSize, defaultCmdTimeout)
		if err != nil {
			return out, err
		}
		for i := 0; i < n; i++ {
			out = append(out, parse(resp[1+i*recSize:1+(i+1)*recSize]))
		}
	}
	return out, nil
}

// WifiCountryCodeResult is one country-code extraction record.
type WifiCountryCodeResult struct {
	CountryCode  [2]byte
	IoRegulation uint8
	ChannelInfo  uint8
	Mac          [6]byte
}

// ReadWifiCountryCodes reads every country-code result of the last scan.
func (d *Device) ReadWifiCountryCodes(ctx context.Context) ([]WifiCountryCodeResult, error) {
	resp, err := d.cmdRead(ctx, opcodes.WifiGetNbCountryCodeResults(), opcodes.WifiNbResultsResponseLen, defaultCmdTimeout)
	if err != nil {
		return nil, err
	}
	nb := opcodes.WifiNbResultsResponse(resp).NbResults()
	if nb == 0 {
		return nil, nil
	}

	recSize := opcodes.WifiCountryCodeResultSize
	resp, err = d.cmdRead(ctx,
		opcodes.WifiReadCountryCodeResults(0, nb),
		1+int(nb)*recSize, defaultCmdTimeout)
	if err != nil {
		return nil, err
	}
	out := make([]WifiCountryCodeResult, 0, nb)
	for i := 0; i < int(nb); i++ {
		rec := resp[1+i*recSize : 1+(i+1)*recSize]
		var r WifiCountryCodeResult
		copy(r.CountryCode[:], rec[0:2])
		r.IoRegulation = rec[2]
		r.ChannelInfo = rec[3]
		copy(r.Mac[:], rec[4:10])
		out = append(out, r)
	}
	return out, nil
}

// WifiTimings are the cumulative scan mode timings in microseconds.
type WifiTimings struct {
	PreambleDetectionUs uint32
	CaptureUs           uint32
	DemodulationUs      uint32
}

// ResetWifiTimings resets the cumulative timing counters. Must be called
// before a scan whose timings will be read.
func (d *Device) ResetWifiTimings(ctx context.Context) error {
	return d.WriteChecked(ctx, opcodes.WifiResetCumulTimings(), defaultCmdTimeout)
}

// ReadWifiTimings reads the cumulative scan timings.
func (d *Device) ReadWifiTimings(ctx context.Context) (WifiTimings, error) {
	resp, err := d.cmdRead(ctx, opcodes.WifiReadCumulTimings(), opcodes.WifiCumulTimingsResponseLen, defaultCmdTimeout)
	if err != nil {
		return WifiTimings{}, err
	}
	r := opcodes.WifiCumulTimingsResponse(resp)
	return WifiTimings{
		PreambleDetectionUs: r.PreambleDetectionUs(),
		CaptureUs:           r.CaptureUs(),
		DemodulationUs:      r.DemodulationUs(),
	}, nil
}

// SetWifiTimestampThreshold sets the beacon timestamp age in seconds used to
// tell fixed gateways from mobile access points.
func (d *Device) SetWifiTimestampThreshold(ctx context.Context, threshold uint32) error {
	return d.WriteChecked(ctx, opcodes.WifiCfgTimestampApPhone(threshold), defaultCmdTimeout)
}

// WifiFirmwareVersion reads the Wi-Fi scanning firmware version.
func (d *Device) WifiFirmwareVersion(ctx context.Context) (major, minor uint8, err error) {
	resp, err := d.cmdRead(ctx, opcodes.WifiReadVersion(), opcodes.WifiVersionResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, 0, err
	}
	r := opcodes.WifiVersionResponse(resp)
	return r.Major(), r.Minor(), nil
}
