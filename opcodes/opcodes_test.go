package opcodes

import (
	"testing"

	"go.viam.com/test"

	"github.com/viam-modules/lr1120/status"
)

func TestRequestFraming(t *testing.T) {
	// Every builder must put the opcode in the first two bytes and pack
	// multi-byte fields big endian.
	frame := SetRfFrequency(868100000)
	test.That(t, frame, test.ShouldResemble, []byte{0x02, 0x0B, 0x33, 0xBE, 0x27, 0xA0})

	frame = SetDioIrqParams(status.IrqTxDone|status.IrqRxDone|status.IrqTimeout, 0)
	test.That(t, frame[:2], test.ShouldResemble, []byte{0x01, 0x13})
	test.That(t, frame[2:6], test.ShouldResemble, []byte{0x00, 0x00, 0x04, 0x0C})
	test.That(t, frame[6:10], test.ShouldResemble, []byte{0x00, 0x00, 0x00, 0x00})

	frame = SetLoraModulationParams(Sf9, Bw125, Cr45, false)
	test.That(t, frame, test.ShouldResemble, []byte{0x02, 0x0F, 0x09, 0x04, 0x01, 0x00})

	frame = SetLoraPacketParams(8, HeaderExplicit, 32, true, true)
	test.That(t, frame, test.ShouldResemble, []byte{0x02, 0x10, 0x00, 0x08, 0x00, 0x20, 0x01, 0x01})

	// TX power is two's complement.
	frame = SetTxParams(-9, Ramp48u)
	test.That(t, frame, test.ShouldResemble, []byte{0x02, 0x11, 0xF7, 0x02})

	frame = SetRx(0xFFFFFF)
	test.That(t, frame, test.ShouldResemble, []byte{0x02, 0x09, 0xFF, 0xFF, 0xFF})
}

func TestWifiScanFraming(t *testing.T) {
	frame := WifiScan(WifiTypeAll, 0x3FFF, WifiBeaconAndPacket, 16, 8, 105, true)
	test.That(t, frame, test.ShouldResemble,
		[]byte{0x03, 0x00, 0x04, 0x3F, 0xFF, 0x02, 0x10, 0x08, 0x00, 0x69, 0x01})

	frame = WifiReadResults(4, 12, WifiFormatBasic)
	test.That(t, frame, test.ShouldResemble, []byte{0x03, 0x06, 0x04, 0x0C, 0x04})
}

func TestCryptoSetKeyPlacement(t *testing.T) {
	var key [16]byte
	for i := range key {
		key[i] = byte(i + 1)
	}
	frame := CryptoSetKey(KeyNwk, key)
	test.That(t, frame[:3], test.ShouldResemble, []byte{0x05, 0x02, 0x02})
	test.That(t, frame[3:], test.ShouldResemble, key[:])

	frame = CryptoVerifyAesCmac(KeyApp, 0xDEADBEEF)
	test.That(t, frame, test.ShouldResemble, []byte{0x05, 0x06, 0x03, 0xDE, 0xAD, 0xBE, 0xEF})
}

func TestKeyIDClasses(t *testing.T) {
	test.That(t, KeyNwk.Root(), test.ShouldBeTrue)
	test.That(t, KeyApp.Root(), test.ShouldBeTrue)
	test.That(t, KeyAppS.Root(), test.ShouldBeFalse)
	test.That(t, KeyAppS.Session(), test.ShouldBeTrue)
	test.That(t, KeyNwkSEnc.Session(), test.ShouldBeTrue)
	test.That(t, KeyMcAppS0.Multicast(), test.ShouldBeTrue)
	test.That(t, KeyGp0.GeneralPurpose(), test.ShouldBeTrue)
	test.That(t, KeyGp0.Session(), test.ShouldBeFalse)
	test.That(t, KeyJsEnc.Lifetime(), test.ShouldBeTrue)
}

func TestVersionResponse(t *testing.T) {
	r := VersionResponse{0x04, 0x22, 0x02, 0x01, 0x02}
	test.That(t, r.Status().IsOk(), test.ShouldBeTrue)
	test.That(t, r.HWVersion(), test.ShouldEqual, 0x22)
	test.That(t, r.HWType(), test.ShouldEqual, HWLr1120)
	test.That(t, r.HWType().String(), test.ShouldEqual, "LR1120")
	test.That(t, r.FirmwareMajor(), test.ShouldEqual, 1)
	test.That(t, r.FirmwareMinor(), test.ShouldEqual, 2)
}

func TestErrorsResponse(t *testing.T) {
	r := ErrorsResponse{0x04, 0x00, 0x00}
	test.That(t, r.None(), test.ShouldBeTrue)

	r = ErrorsResponse{0x04, 0x21, 0x01}
	test.That(t, r.None(), test.ShouldBeFalse)
	test.That(t, r.LfRcCalibErr(), test.ShouldBeTrue)
	test.That(t, r.HfXoscStartErr(), test.ShouldBeTrue)
	test.That(t, r.RxAdcOffsetErr(), test.ShouldBeTrue)
	test.That(t, r.HfRcCalibErr(), test.ShouldBeFalse)
	test.That(t, r.Value(), test.ShouldEqual, uint16(0x2101))
}

func TestRadioResponses(t *testing.T) {
	stats := StatsResponse{0x04, 0x00, 0x10, 0x00, 0x02, 0x00, 0x01, 0x00, 0x03}
	test.That(t, stats.PktRx(), test.ShouldEqual, 16)
	test.That(t, stats.CrcError(), test.ShouldEqual, 2)
	test.That(t, stats.HeaderError(), test.ShouldEqual, 1)
	test.That(t, stats.FalseSync(), test.ShouldEqual, 3)

	rxbuf := RxBufferStatusResponse{0x04, 0x11, 0x20}
	test.That(t, rxbuf.PayloadLen(), test.ShouldEqual, 0x11)
	test.That(t, rxbuf.Offset(), test.ShouldEqual, 0x20)

	// -80dBm comes back as 160.
	rssi := RssiInstResponse{0x04, 160}
	test.That(t, rssi.Dbm(), test.ShouldEqual, -80.0)

	pkt := LoraPacketStatusResponse{0x04, 140, 0xE8, 150}
	test.That(t, pkt.RssiDbm(), test.ShouldEqual, -70.0)
	test.That(t, pkt.SnrDb(), test.ShouldEqual, -6.0)
	test.That(t, pkt.SignalRssiDbm(), test.ShouldEqual, -75.0)
}

func TestEuiResponse(t *testing.T) {
	r := EuiResponse{0x04, 0x00, 0x16, 0xC0, 0x01, 0xFF, 0xFE, 0x2B, 0x68}
	test.That(t, r.Value(), test.ShouldEqual, uint64(0x0016C001FFFE2B68))
	test.That(t, r.Bytes(), test.ShouldResemble,
		[8]byte{0x00, 0x16, 0xC0, 0x01, 0xFF, 0xFE, 0x2B, 0x68})
}

func TestCmacResponse(t *testing.T) {
	r := CryptoCmacResponse{0x04, 0x00, 0x12, 0x34, 0x56, 0x78}
	test.That(t, r.CeStatus(), test.ShouldEqual, CeSuccess)
	test.That(t, r.Mic(), test.ShouldEqual, uint32(0x12345678))

	bad := CryptoStatusResponse{0x04, 0x01}
	test.That(t, bad.CeStatus(), test.ShouldEqual, CeFailCmac)
	test.That(t, bad.CeStatus().String(), test.ShouldEqual, "cmac mismatch")
}

func TestLoraBwOrdering(t *testing.T) {
	test.That(t, Bw125.Hz(), test.ShouldEqual, uint32(125000))
	test.That(t, Bw500.Hz(), test.ShouldBeGreaterThan, Bw250.Hz())
	test.That(t, Bw812.Fractional(), test.ShouldBeTrue)
	test.That(t, Bw500.Fractional(), test.ShouldBeFalse)
	test.That(t, Cr45.Denominator(), test.ShouldEqual, 5)
	test.That(t, Cr48Long.LongInterleaver(), test.ShouldBeTrue)
}

func TestReadRegMemResponse(t *testing.T) {
	r := ReadRegMemResponse{0x04, 0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00, 0x00, 0x2A}
	test.That(t, r.Words(), test.ShouldEqual, 2)
	test.That(t, r.Word(0), test.ShouldEqual, uint32(0xDEADBEEF))
	test.That(t, r.Word(1), test.ShouldEqual, uint32(42))
}
