package parser

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func buildFrame(mhdr byte, fCtrl byte, fCnt uint16, fOpts []byte, fPort byte, payload []byte) []byte {
	frame := []byte{mhdr, 0x67, 0x45, 0x23, 0x01, fCtrl}
	frame = binary.LittleEndian.AppendUint16(frame, fCnt)
	frame = append(frame, fOpts...)
	frame = append(frame, fPort)
	frame = append(frame, payload...)
	frame = append(frame, 0xDE, 0xAD, 0xBE, 0xEF)
	return frame
}

func TestParseDownlink(t *testing.T) {
	frame := buildFrame(0x60, 0x00, 258, nil, 0x01, []byte{0xAA, 0xBB})

	dl, err := ParseDownlink(frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dl.DevAddr, test.ShouldResemble, []byte{0x01, 0x23, 0x45, 0x67})
	test.That(t, dl.Confirmed, test.ShouldBeFalse)
	test.That(t, dl.FCnt, test.ShouldEqual, uint16(258))
	test.That(t, dl.FOpts, test.ShouldBeEmpty)
	test.That(t, dl.FPort, test.ShouldEqual, uint8(1))
	test.That(t, dl.Payload, test.ShouldResemble, []byte{0xAA, 0xBB})
	test.That(t, dl.MIC, test.ShouldResemble, []byte{0xDE, 0xAD, 0xBE, 0xEF})
}

func TestParseDownlinkConfirmedWithFOpts(t *testing.T) {
	fOpts := []byte{0x02, 0x30, 0x01}
	frame := buildFrame(0xA0, 0x03, 7, fOpts, 0x0A, []byte{0x01})

	dl, err := ParseDownlink(frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dl.Confirmed, test.ShouldBeTrue)
	test.That(t, dl.FOpts, test.ShouldResemble, fOpts)
	test.That(t, dl.FPort, test.ShouldEqual, uint8(10))
	test.That(t, dl.Payload, test.ShouldResemble, []byte{0x01})
}

func TestParseDownlinkRejectsBadFrames(t *testing.T) {
	_, err := ParseDownlink([]byte{0x60, 0x01, 0x02})
	test.That(t, err, test.ShouldBeError, errFrameTooShort)

	// an uplink MHDR is not a downlink
	uplink := buildFrame(0x40, 0x00, 1, nil, 0x01, []byte{0xAA})
	_, err = ParseDownlink(uplink)
	test.That(t, err, test.ShouldBeError, errNotADownlink)

	// fOpts length pointing past the end of the frame
	short := buildFrame(0x60, 0x0F, 1, nil, 0x01, nil)
	_, err = ParseDownlink(short)
	test.That(t, err, test.ShouldBeError, errFrameTooShort)
}

func TestReverseBytes(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03}
	out := ReverseBytes(in)
	test.That(t, out, test.ShouldResemble, []byte{0x03, 0x02, 0x01})
	// input untouched
	test.That(t, in, test.ShouldResemble, []byte{0x01, 0x02, 0x03})
}

func TestDecodePayload(t *testing.T) {
	script := `function Decode(fPort, bytes) {
	return {"temp": bytes[0], "port": fPort};
}`
	path := filepath.Join(t.TempDir(), "decoder.js")
	test.That(t, os.WriteFile(path, []byte(script), 0o600), test.ShouldBeNil)

	readings, err := DecodePayload(3, path, []byte{0x17})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings["temp"], test.ShouldEqual, 0x17)
	test.That(t, readings["port"], test.ShouldEqual, 3)
}

func TestDecodePayloadBadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decoder.js")
	test.That(t, os.WriteFile(path, []byte(`function Decode(fPort, bytes) { return 42; }`), 0o600), test.ShouldBeNil)

	_, err := DecodePayload(1, path, []byte{0x01})
	test.That(t, err, test.ShouldBeError, errBadDecoderValue)

	_, err = DecodePayload(1, filepath.Join(t.TempDir(), "missing.js"), []byte{0x01})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDecodePayloadInfiniteLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decoder.js")
	test.That(t, os.WriteFile(path, []byte(`function Decode(fPort, bytes) { while (true) {} }`), 0o600), test.ShouldBeNil)

	_, err := DecodePayload(1, path, []byte{0x01})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParseDownlinkFOptsOnly(t *testing.T) {
	// a frame carrying only MAC commands has no FPort and no payload
	frame := []byte{0x60, 0x67, 0x45, 0x23, 0x01, 0x02}
	frame = binary.LittleEndian.AppendUint16(frame, 1)
	frame = append(frame, 0x02, 0x30) // fOpts
	frame = append(frame, 0xDE, 0xAD, 0xBE, 0xEF)

	dl, err := ParseDownlink(frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dl.FOpts, test.ShouldResemble, []byte{0x02, 0x30})
	test.That(t, dl.FPort, test.ShouldEqual, uint8(0))
	test.That(t, dl.Payload, test.ShouldBeEmpty)
}
