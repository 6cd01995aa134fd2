// Package transceiver implements the lr1120-transceiver sensor model.
package transceiver

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.viam.com/rdk/components/board"
	"go.viam.com/rdk/components/sensor"
	"go.viam.com/rdk/data"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/utils"

	"github.com/viam-modules/lr1120/lr1120"
	"github.com/viam-modules/lr1120/opcodes"
	"github.com/viam-modules/lr1120/regions"
	"github.com/viam-modules/lr1120/status"
)

// Model represents the lr1120 transceiver model.
var Model = resource.NewModel("viam", "lorawan", "lr1120-transceiver")

// Error variables for validation and operations.
var (
	errInvalidRegion  = errors.New("region must be US915 or EU868 - defaults to US915")
	errDevEUILength   = errors.New("dev EUI must be 8 bytes")
	errAppKeyLength   = errors.New("app key must be 16 bytes")
	errJoinEUILength  = errors.New("join EUI must be 8 bytes")
	errNotJoined      = errors.New("no session keys - join the network first")
	errUnexpectedChip = errors.New("device at spi path is not an LR1120")
)

var noReadings = map[string]interface{}{"": "no readings available yet"}

const (
	// Delay between health polls of the background worker.
	pollInterval = 5 * time.Second

	// The chip datasheet allows up to 250ms from reset to ready.
	resetBudget = 300 * time.Millisecond
	calibBudget = 100 * time.Millisecond
	txBudget    = 10 * time.Second
	scanBudget  = 30 * time.Second
)

// Config describes the configuration of the transceiver.
type Config struct {
	BoardName string `json:"board"`
	SpiPath   string `json:"spi_path,omitempty"`
	NssPin    *int   `json:"nss_pin"`
	ResetPin  *int   `json:"reset_pin"`
	BusyPin   *int   `json:"busy_pin,omitempty"`

	Region      string `json:"region_code,omitempty"`
	TxPower     *int   `json:"tx_power_dbm,omitempty"`
	DecoderPath string `json:"decoder_path,omitempty"`

	DevEUI  string `json:"dev_eui,omitempty"`
	AppKey  string `json:"app_key,omitempty"`
	JoinEUI string `json:"join_eui,omitempty"`
}

func init() {
	resource.RegisterComponent(
		sensor.API,
		Model,
		resource.Registration[sensor.Sensor, *Config]{
			Constructor: NewTransceiver,
		})
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) ([]string, error) {
	var deps []string
	if len(conf.BoardName) == 0 {
		return nil, resource.NewConfigValidationFieldRequiredError(path, "board")
	}
	if conf.NssPin == nil {
		return nil, resource.NewConfigValidationFieldRequiredError(path, "nss_pin")
	}
	if conf.ResetPin == nil {
		return nil, resource.NewConfigValidationFieldRequiredError(path, "reset_pin")
	}
	if conf.Region != "" && regions.GetRegion(conf.Region) == regions.Unspecified {
		return nil, resource.NewConfigValidationError(path, errInvalidRegion)
	}
	if conf.DevEUI != "" {
		if eui, err := hex.DecodeString(conf.DevEUI); err != nil || len(eui) != 8 {
			return nil, resource.NewConfigValidationError(path, errDevEUILength)
		}
	}
	if conf.AppKey != "" {
		if key, err := hex.DecodeString(conf.AppKey); err != nil || len(key) != 16 {
			return nil, resource.NewConfigValidationError(path, errAppKeyLength)
		}
	}
	if conf.JoinEUI != "" {
		if eui, err := hex.DecodeString(conf.JoinEUI); err != nil || len(eui) != 8 {
			return nil, resource.NewConfigValidationError(path, errJoinEUILength)
		}
	}
	deps = append(deps, conf.BoardName)
	return deps, nil
}

// spiPort is what Reconfigure opens for the radio. A package variable does
// the opening so tests can substitute scripted hardware for a real port.
type spiPort interface {
	lr1120.Bus
	Close() error
}

var openSPI = func(path string) (spiPort, error) { return lr1120.OpenSPI(path) }

// transceiver defines an lr1120 LoRaWAN end device.
type transceiver struct {
	resource.Named
	logger logging.Logger
	mu     sync.Mutex

	device *lr1120.Device
	bus    spiPort
	rstPin board.GPIOPin

	region      regions.Info
	txPower     int8
	decoderPath string

	devEUI  []byte
	joinEUI []byte
	appKey  []byte

	db      *sql.DB
	session *session

	worker *utils.StoppableWorkers

	lastReadings map[string]interface{}
	readingsMu   sync.Mutex
}

// nssPin adapts an rdk GPIO pin to the driver's chip-select shape.
type nssPin struct {
	pin board.GPIOPin
}

func (p nssPin) Set(ctx context.Context, high bool) error {
	return p.pin.Set(ctx, high, nil)
}

// busyReady adapts an rdk GPIO pin wired to the chip's busy line: ready when
// the line reads low.
type busyReady struct {
	pin board.GPIOPin
}

func (b busyReady) Ready(ctx context.Context) (bool, error) {
	high, err := b.pin.Get(ctx, nil)
	if err != nil {
		return false, err
	}
	return !high, nil
}

// NewTransceiver creates a new transceiver.
func NewTransceiver(
	ctx context.Context,
	deps resource.Dependencies,
	conf resource.Config,
	logger logging.Logger,
) (sensor.Sensor, error) {
	t := &transceiver{
		Named:  conf.ResourceName().AsNamed(),
		logger: logger,
	}

	if err := t.Reconfigure(ctx, deps, conf); err != nil {
		return nil, err
	}
	return t, nil
}

// Reconfigure reconfigures the transceiver.
func (t *transceiver) Reconfigure(ctx context.Context, deps resource.Dependencies, conf resource.Config) error {
	// Stop the previous worker before taking the lock: its loop acquires the
	// same lock, so stopping under it would deadlock.
	if t.worker != nil {
		t.worker.Stop()
		t.worker = nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cfg, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return err
	}

	b, err := board.FromDependencies(deps, cfg.BoardName)
	if err != nil {
		return err
	}

	if t.bus != nil {
		if err := t.bus.Close(); err != nil {
			t.logger.Errorf("failed to close previous spi port: %v", err)
		}
		t.bus = nil
	}

	if t.lastReadings == nil {
		t.lastReadings = make(map[string]interface{})
	}

	// adding io before the pin allows you to use the GPIO number.
	nss, err := b.GPIOPinByName("io" + strconv.Itoa(*cfg.NssPin))
	if err != nil {
		return err
	}
	rst, err := b.GPIOPinByName("io" + strconv.Itoa(*cfg.ResetPin))
	if err != nil {
		return err
	}
	t.rstPin = rst

	// not every carrier board has the busy line wired, so it is optional.
	var ready lr1120.ReadySource = lr1120.FixedDelay{Delay: 500 * time.Microsecond}
	if cfg.BusyPin != nil {
		busy, err := b.GPIOPinByName("io" + strconv.Itoa(*cfg.BusyPin))
		if err != nil {
			return err
		}
		ready = busyReady{pin: busy}
	}

	bus, err := openSPI(cfg.SpiPath)
	if err != nil {
		return err
	}
	t.bus = bus
	t.device = lr1120.NewDevice(bus, nssPin{pin: nss}, ready, t.logger)

	t.region = regions.GetInfo(regions.GetRegion(cfg.Region))
	t.txPower = 14
	if cfg.TxPower != nil {
		t.txPower = int8(*cfg.TxPower)
	}
	t.decoderPath = cfg.DecoderPath

	t.devEUI, _ = hex.DecodeString(cfg.DevEUI)
	t.joinEUI, _ = hex.DecodeString(cfg.JoinEUI)
	t.appKey, _ = hex.DecodeString(cfg.AppKey)

	if err := t.resetRadio(ctx); err != nil {
		return fmt.Errorf("error initializing the transceiver: %w", err)
	}
	if err := t.configureRadio(ctx); err != nil {
		return fmt.Errorf("error configuring the transceiver: %w", err)
	}

	if err := t.setupSqlite(ctx); err != nil {
		return err
	}
	if sess, err := t.findSessionInDB(ctx, hex.EncodeToString(t.devEUI)); err == nil {
		t.session = sess
		t.logger.Infof("restored session for device %s with address %s", sess.DevEUI, sess.DevAddr)
	}

	t.worker = utils.NewBackgroundStoppableWorkers(t.pollRadio)
	return nil
}

// resetRadio pulses the reset line and waits for the chip to boot. NRESET is
// active low; the chip needs settle time around each edge.
func (t *transceiver) resetRadio(ctx context.Context) error {
	if err := t.rstPin.Set(ctx, false, nil); err != nil {
		return err
	}
	if !utils.SelectContextOrWait(ctx, 10*time.Millisecond) {
		return ctx.Err()
	}
	if err := t.rstPin.Set(ctx, true, nil); err != nil {
		return err
	}
	return t.device.WaitReady(ctx, resetBudget)
}

// configureRadio probes the chip and applies the regional LoRa configuration.
func (t *transceiver) configureRadio(ctx context.Context) error {
	v, err := t.device.GetVersion(ctx)
	if err != nil {
		return err
	}
	if v.HWType != opcodes.HWLr1120 {
		return errUnexpectedChip
	}
	t.logger.Infof("found %s hw 0x%02X firmware %d.%d", v.HWType, v.HWVersion, v.FirmwareMajor, v.FirmwareMinor)

	if err := t.device.ClearErrors(ctx); err != nil {
		return err
	}
	if err := t.device.Calibrate(ctx, opcodes.CalibAll, calibBudget); err != nil {
		return err
	}
	if err := t.device.SetPacketType(ctx, opcodes.PacketLora); err != nil {
		return err
	}
	if err := t.device.SetRfFrequency(ctx, t.region.UplinkFreq); err != nil {
		return err
	}
	if err := t.device.SetPaConfig(ctx, opcodes.PaLowPower, opcodes.PaSupplyVreg, 4, 7); err != nil {
		return err
	}
	if err := t.device.SetTxParams(ctx, t.txPower, opcodes.Ramp48u); err != nil {
		return err
	}
	if err := t.device.SetLoraModulation(ctx, lr1120.LoraModulation{
		Sf: opcodes.Sf7, Bw: opcodes.Bw125, Cr: opcodes.Cr45,
	}); err != nil {
		return err
	}
	if err := t.device.SetLoraPacketParams(ctx, lr1120.LoraPacketParams{
		PreambleLen: 8,
		Header:      opcodes.HeaderExplicit,
		PayloadLen:  255,
		Crc:         true,
	}); err != nil {
		return err
	}
	// Public network syncword; LoRaWAN traffic is invisible without it.
	if err := t.device.SetLoraSyncword(ctx, 0x34); err != nil {
		return err
	}
	return t.device.SetDioIrqParams(ctx,
		status.IrqTxDone|status.IrqRxDone|status.IrqTimeout|status.IrqError|
			status.IrqWifiDone|status.IrqGnssDone,
		0)
}

// pollRadio is the background worker keeping the health readings fresh and
// draining received packets.
func (t *transceiver) pollRadio(ctx context.Context) {
	for {
		if !utils.SelectContextOrWait(ctx, pollInterval) {
			return
		}
		t.mu.Lock()
		if t.device == nil {
			t.mu.Unlock()
			return
		}
		t.updateHealth(ctx)
		t.drainReceived(ctx)
		t.mu.Unlock()
	}
}

func (t *transceiver) updateHealth(ctx context.Context) {
	temp, err := t.device.GetTemperature(ctx)
	if err != nil {
		t.logger.Debugf("temperature read failed: %v", err)
		return
	}
	vbat, err := t.device.GetVbat(ctx)
	if err != nil {
		t.logger.Debugf("vbat read failed: %v", err)
		return
	}
	cs, err := t.device.GetStatus(ctx)
	if err != nil {
		return
	}

	t.readingsMu.Lock()
	defer t.readingsMu.Unlock()
	t.lastReadings["temperature_c"] = temp
	t.lastReadings["vbat_v"] = vbat
	t.lastReadings["chip_mode"] = cs.Status.ChipMode().String()
	t.lastReadings["joined"] = t.session != nil
}

// drainReceived picks up a packet if one finished while we were not looking.
func (t *transceiver) drainReceived(ctx context.Context) {
	cs, err := t.device.GetStatus(ctx)
	if err != nil || !cs.Intr.Match(status.IrqRxDone) {
		return
	}
	pkt, err := t.device.ReadRxPacket(ctx)
	if err != nil {
		t.logger.Errorf("failed to read received packet: %v", err)
		return
	}
	if err := t.device.ClearIrqs(ctx, status.IrqRxDone|status.IrqTimeout); err != nil {
		t.logger.Debugf("failed to clear irqs: %v", err)
	}
	t.handleDownlink(ctx, pkt)
}

// Readings returns the transceiver's readings.
func (t *transceiver) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	t.readingsMu.Lock()
	defer t.readingsMu.Unlock()

	if len(t.lastReadings) == 0 {
		// If the readings call came from data capture, return
		// noCaptureToStore to indicate not to capture data.
		if extra[data.FromDMString] == true {
			return map[string]interface{}{}, data.ErrNoCaptureToStore
		}
		return noReadings, nil
	}

	out := make(map[string]interface{}, len(t.lastReadings))
	for k, v := range t.lastReadings {
		out[k] = v
	}
	return out, nil
}

// DoCommand runs radio operations on demand.
func (t *transceiver) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := cmd["get_version"]; ok {
		v, err := t.device.GetVersion(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"hardware": fmt.Sprintf("0x%02X", v.HWVersion),
			"type":     v.HWType.String(),
			"firmware": fmt.Sprintf("%d.%d", v.FirmwareMajor, v.FirmwareMinor),
			"chip_eui": t.readEUI(ctx, t.device.ChipEUI),
			"join_eui": t.readEUI(ctx, t.device.JoinEUI),
		}, nil
	}
	if _, ok := cmd["join"]; ok {
		if err := t.join(ctx); err != nil {
			return nil, err
		}
		return map[string]interface{}{"join": "joined", "dev_addr": t.session.DevAddr}, nil
	}
	if payload, ok := cmd["send"]; ok {
		hexPayload, ok := payload.(string)
		if !ok {
			return nil, errors.New("send expects a hex payload string")
		}
		raw, err := hex.DecodeString(hexPayload)
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %w", err)
		}
		if err := t.sendUplink(ctx, raw); err != nil {
			return nil, err
		}
		return map[string]interface{}{"send": "sent"}, nil
	}
	if payload, ok := cmd["tx"]; ok {
		hexPayload, ok := payload.(string)
		if !ok {
			return nil, errors.New("tx expects a hex payload string")
		}
		raw, err := hex.DecodeString(hexPayload)
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %w", err)
		}
		if err := t.transmitRaw(ctx, raw); err != nil {
			return nil, err
		}
		return map[string]interface{}{"tx": "sent"}, nil
	}
	if _, ok := cmd["wifi_scan"]; ok {
		return t.runWifiScan(ctx)
	}
	if _, ok := cmd["gnss_scan"]; ok {
		return t.runGnssScan(ctx)
	}
	if kind, ok := cmd["get_scans"]; ok {
		kindStr, ok := kind.(string)
		if !ok {
			return nil, errors.New("get_scans expects \"wifi\" or \"gnss\"")
		}
		scans, err := t.scansFromDB(ctx, kindStr, 20)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, 0, len(scans))
		for _, s := range scans {
			out = append(out, s)
		}
		return map[string]interface{}{"get_scans": out}, nil
	}
	if addr, ok := cmd["read_reg"]; ok {
		addrF, ok := addr.(float64)
		if !ok {
			return nil, errors.New("read_reg expects a numeric address")
		}
		val, err := t.device.ReadRegister(ctx, uint32(addrF))
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"read_reg": float64(val)}, nil
	}
	if args, ok := cmd["write_reg"]; ok {
		m, ok := args.(map[string]interface{})
		if !ok {
			return nil, errors.New("write_reg expects {address, value}")
		}
		addrF, okA := m["address"].(float64)
		valF, okV := m["value"].(float64)
		if !okA || !okV {
			return nil, errors.New("write_reg expects numeric address and value")
		}
		if err := t.device.WriteRegister(ctx, uint32(addrF), uint32(valF)); err != nil {
			return nil, err
		}
		return map[string]interface{}{"write_reg": "ok"}, nil
	}
	return map[string]interface{}{}, nil
}

func (t *transceiver) readEUI(ctx context.Context, read func(context.Context) ([8]byte, error)) string {
	eui, err := read(ctx)
	if err != nil {
		return ""
	}
	return hex.EncodeToString(eui[:])
}

// transmitRaw stages and sends a raw LoRa frame, waiting for TxDone.
func (t *transceiver) transmitRaw(ctx context.Context, payload []byte) error {
	if err := t.device.Transmit(ctx, payload, txBudget); err != nil {
		return err
	}
	return t.awaitIrq(ctx, status.IrqTxDone, txBudget)
}

// awaitIrq polls the chip status until the wanted interrupt fires or the
// budget elapses, then acknowledges it.
func (t *transceiver) awaitIrq(ctx context.Context, want status.Intr, budget time.Duration) error {
	deadline := time.Now().Add(budget)
	for {
		cs, err := t.device.GetStatus(ctx)
		if err != nil {
			return err
		}
		if cs.Intr.Match(status.IrqError) {
			errs, _ := t.device.GetErrors(ctx)
			return fmt.Errorf("radio error during operation: flags %#04x", errs)
		}
		if cs.Intr.Match(want) {
			return t.device.ClearIrqs(ctx, cs.Intr)
		}
		if cs.Intr.Match(status.IrqTimeout) {
			_ = t.device.ClearIrqs(ctx, cs.Intr)
			return errors.New("radio operation timed out")
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("interrupt %v did not fire within %v", want, budget)
		}
		if !utils.SelectContextOrWait(ctx, 10*time.Millisecond) {
			return ctx.Err()
		}
	}
}

// Close shuts the radio down.
func (t *transceiver) Close(ctx context.Context) error {
	if t.worker != nil {
		t.worker.Stop()
		t.worker = nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.device != nil {
		if err := t.device.SetSleep(ctx, false, true, 0); err != nil {
			t.logger.Debugf("failed to sleep the radio: %v", err)
		}
		t.device = nil
	}
	if t.db != nil {
		if err := t.db.Close(); err != nil {
			t.logger.Errorf("failed to close db: %v", err)
		}
		t.db = nil
	}
	if t.bus != nil {
		err := t.bus.Close()
		t.bus = nil
		return err
	}
	return nil
}
