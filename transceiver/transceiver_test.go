package transceiver

import (
	"context"
	"testing"

	"go.viam.com/rdk/components/sensor"
	"go.viam.com/rdk/data"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/test"

	"github.com/viam-modules/lr1120/opcodes"
	"github.com/viam-modules/lr1120/regions"
	"github.com/viam-modules/lr1120/testutils"
)

func intPtr(i int) *int { return &i }

// scriptedPort lends a Close to the scripted bus so it can stand in for a
// real SPI port.
type scriptedPort struct {
	*testutils.ScriptedBus
	closed bool
}

func (p *scriptedPort) Close() error {
	p.closed = true
	return nil
}

// scriptStartup queues the chip's side of the whole Reconfigure conversation:
// a version probe and one accepted status per configuration command.
func scriptStartup(bus *testutils.ScriptedBus) {
	bus.Respond(nil) // GetVersion write phase
	bus.Respond([]byte{0x04, 0x22, 0x02, 0x01, 0x01})
	for i := 0; i < 10; i++ { // checked configuration commands
		bus.Respond(nil)
		bus.Respond([]byte{0x04})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		BoardName: "pi",
		NssPin:    intPtr(8),
		ResetPin:  intPtr(25),
	}

	deps, err := valid.Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"pi"})

	cfg := valid
	cfg.BoardName = ""
	_, err = cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "board")

	cfg = valid
	cfg.NssPin = nil
	_, err = cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "nss_pin")

	cfg = valid
	cfg.ResetPin = nil
	_, err = cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "reset_pin")

	cfg = valid
	cfg.Region = "JP923"
	_, err = cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "region")

	cfg = valid
	cfg.Region = "eu868"
	deps, err = cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"pi"})

	cfg = valid
	cfg.DevEUI = "0123"
	_, err = cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dev EUI")

	cfg = valid
	cfg.AppKey = "not hex at all"
	_, err = cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "app key")

	cfg = valid
	cfg.JoinEUI = "0123456789"
	_, err = cfg.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "join EUI")

	cfg = valid
	cfg.DevEUI = testutils.TestDevEUI
	cfg.AppKey = testutils.TestAppKey
	cfg.JoinEUI = testutils.TestJoinEUI
	deps, err = cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"pi"})
}

func TestReconfigureWiresTheRadio(t *testing.T) {
	ctx := context.Background()
	deps, decoderPath := testutils.NewTransceiverTestEnv(t, "pi")

	port := &scriptedPort{ScriptedBus: &testutils.ScriptedBus{}}
	scriptStartup(port.ScriptedBus)

	var openedPath string
	orig := openSPI
	openSPI = func(path string) (spiPort, error) {
		openedPath = path
		return port, nil
	}
	t.Cleanup(func() { openSPI = orig })

	conf := resource.Config{
		Name:  "radio",
		API:   sensor.API,
		Model: Model,
		ConvertedAttributes: &Config{
			BoardName:   "pi",
			SpiPath:     "/dev/spidev0.0",
			NssPin:      intPtr(8),
			ResetPin:    intPtr(25),
			BusyPin:     intPtr(6),
			Region:      "EU868",
			DecoderPath: decoderPath,
		},
	}

	s, err := NewTransceiver(ctx, deps, conf, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	tr, ok := s.(*transceiver)
	test.That(t, ok, test.ShouldBeTrue)

	test.That(t, openedPath, test.ShouldEqual, "/dev/spidev0.0")
	test.That(t, tr.device, test.ShouldNotBeNil)
	test.That(t, tr.region, test.ShouldResemble, regions.InfoEU)
	test.That(t, tr.decoderPath, test.ShouldEqual, decoderPath)
	test.That(t, tr.worker, test.ShouldNotBeNil)

	// version probe first, then the regional radio configuration on the wire
	transfers := port.Transfers()
	test.That(t, transfers, test.ShouldHaveLength, 22)
	test.That(t, transfers[0], test.ShouldResemble, opcodes.GetVersion())
	test.That(t, transfers[8], test.ShouldResemble, opcodes.SetRfFrequency(regions.InfoEU.UplinkFreq))

	test.That(t, tr.Close(ctx), test.ShouldBeNil)
	test.That(t, port.closed, test.ShouldBeTrue)
}

func TestReconfigureRejectsWrongChip(t *testing.T) {
	ctx := context.Background()
	deps, _ := testutils.NewTransceiverTestEnv(t, "pi")

	port := &scriptedPort{ScriptedBus: &testutils.ScriptedBus{}}
	port.Respond(nil)
	// an LR1110 answering the version probe
	port.Respond([]byte{0x04, 0x22, 0x01, 0x01, 0x01})

	orig := openSPI
	openSPI = func(path string) (spiPort, error) { return port, nil }
	t.Cleanup(func() { openSPI = orig })

	conf := resource.Config{
		Name:  "radio",
		API:   sensor.API,
		Model: Model,
		ConvertedAttributes: &Config{
			BoardName: "pi",
			NssPin:    intPtr(8),
			ResetPin:  intPtr(25),
			BusyPin:   intPtr(6),
		},
	}

	_, err := NewTransceiver(ctx, deps, conf, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not an LR1120")
}

func TestReadings(t *testing.T) {
	tr := &transceiver{lastReadings: map[string]interface{}{}}
	ctx := context.Background()

	// nothing collected yet
	readings, err := tr.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings, test.ShouldResemble, noReadings)

	// data manager should skip the capture instead of storing the placeholder
	readings, err = tr.Readings(ctx, map[string]interface{}{data.FromDMString: true})
	test.That(t, err, test.ShouldBeError, data.ErrNoCaptureToStore)
	test.That(t, readings, test.ShouldBeEmpty)

	tr.lastReadings["temperature_c"] = 21.5
	readings, err = tr.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings["temperature_c"], test.ShouldEqual, 21.5)

	// the returned map is a copy, not the live one
	readings["temperature_c"] = 99.0
	test.That(t, tr.lastReadings["temperature_c"], test.ShouldEqual, 21.5)
}
