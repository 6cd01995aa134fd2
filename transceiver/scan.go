package transceiver

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/viam-modules/lr1120/lr1120"
	"github.com/viam-modules/lr1120/opcodes"
)

// runWifiScan performs a passive wifi survey and archives the sighted access
// points. The chip holds busy for the whole scan, so completion is just a
// readiness wait.
func (t *transceiver) runWifiScan(ctx context.Context) (map[string]interface{}, error) {
	if err := t.device.StartWifiScan(ctx, lr1120.DefaultWifiScanParams()); err != nil {
		return nil, err
	}
	if err := t.device.AwaitScan(ctx, scanBudget); err != nil {
		return nil, fmt.Errorf("wifi scan did not complete: %w", err)
	}

	results, err := t.device.ReadWifiResults(ctx, opcodes.WifiFormatBasic)
	if err != nil {
		return nil, err
	}

	aps := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		aps = append(aps, map[string]interface{}{
			"mac":      hex.EncodeToString(r.Mac[:]),
			"rssi_dbm": int(r.RssiDbm),
			"channel":  int(r.Channel()),
			"type":     int(r.DataRateInfo & 0x03),
		})
	}

	if err := t.insertScanInDB(ctx, "wifi", aps); err != nil {
		t.logger.Errorf("failed to archive wifi scan: %v", err)
	}
	t.noteScan("wifi", len(aps))

	return map[string]interface{}{
		"count":         len(aps),
		"access_points": aps,
	}, nil
}

// runGnssScan performs an autonomous GNSS capture and returns the raw NAV
// message plus the detected satellites. The NAV message is meant for a
// cloud solver, so it is archived and returned hex encoded.
func (t *transceiver) runGnssScan(ctx context.Context) (map[string]interface{}, error) {
	if err := t.device.StartGnssScan(ctx, lr1120.GnssScanParams{
		Effort:     opcodes.GnssBestEffort,
		ResultMask: 0x00,
		MaxSv:      16,
	}); err != nil {
		return nil, err
	}
	if err := t.device.AwaitScan(ctx, scanBudget); err != nil {
		return nil, fmt.Errorf("gnss scan did not complete: %w", err)
	}

	nav, err := t.device.ReadGnssResults(ctx)
	if err != nil {
		return nil, err
	}
	svs, err := t.device.GnssDetectedSatellites(ctx)
	if err != nil {
		return nil, err
	}

	sats := make([]map[string]interface{}, 0, len(svs))
	for _, sv := range svs {
		sats = append(sats, map[string]interface{}{
			"id":      int(sv.ID),
			"snr_db":  int(sv.Snr),
			"doppler": int(sv.Doppler),
		})
	}

	scan := map[string]interface{}{
		"nav_message": hex.EncodeToString(nav),
		"satellites":  sats,
	}
	if err := t.insertScanInDB(ctx, "gnss", scan); err != nil {
		t.logger.Errorf("failed to archive gnss scan: %v", err)
	}
	t.noteScan("gnss", len(sats))

	return map[string]interface{}{
		"count":       len(sats),
		"nav_message": scan["nav_message"],
		"satellites":  sats,
	}, nil
}

func (t *transceiver) noteScan(kind string, count int) {
	t.readingsMu.Lock()
	defer t.readingsMu.Unlock()
	t.lastReadings["last_"+kind+"_scan_at"] = time.Now().UTC().Format(time.RFC3339)
	t.lastReadings["last_"+kind+"_scan_count"] = count
}
