package transceiver

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.thethings.network/lorawan-stack/v3/pkg/crypto"
	"go.thethings.network/lorawan-stack/v3/pkg/types"

	"github.com/viam-modules/lr1120/lr1120"
	"github.com/viam-modules/lr1120/opcodes"
	"github.com/viam-modules/lr1120/parser"
	"github.com/viam-modules/lr1120/status"
)

// Format of Join Accept message:
// | MHDR | JOIN NONCE | NETID |   DEV ADDR  | DL | RX DELAY |   CFLIST   | MIC  |
// | 1 B  |     3 B    |   3 B |     4 B     | 1B |    1B    |  0 or 16   | 4 B  |
// https://lora-alliance.org/wp-content/uploads/2020/11/lorawan1.0.3.pdf page 35 for more info on join accept.
const joinAcceptMinLen = 17

var errJoinNoCredentials = errors.New("join requires dev_eui, join_eui and app_key in the config")

// join performs the OTAA join handshake: transmit a join request, listen on
// the RX2 parameters for the accept, then derive and persist session keys.
func (t *transceiver) join(ctx context.Context) error {
	if len(t.devEUI) != 8 || len(t.joinEUI) != 8 || len(t.appKey) != 16 {
		return errJoinNoCredentials
	}

	// the dev nonce must not repeat under the same app key, so seed it from
	// the chip's entropy source rather than a counter we could lose.
	rnd, err := t.device.GetRandomNumber(ctx)
	if err != nil {
		return err
	}
	devNonce := []byte{byte(rnd), byte(rnd >> 8)}

	// everything in the join request payload is little endian.
	payload := make([]byte, 0, 23)
	payload = append(payload, 0x00) // MHDR: join request
	payload = append(payload, parser.ReverseBytes(t.joinEUI)...)
	payload = append(payload, parser.ReverseBytes(t.devEUI)...)
	payload = append(payload, devNonce...)

	mic, err := crypto.ComputeJoinRequestMIC(types.AES128Key(t.appKey), payload)
	if err != nil {
		return err
	}
	payload = append(payload, mic[:]...)

	if err := t.transmitRaw(ctx, payload); err != nil {
		return fmt.Errorf("failed to send join request: %w", err)
	}

	accept, err := t.receiveRx2(ctx, t.region.JoinAcceptDelay2+2*time.Second)
	if err != nil {
		return fmt.Errorf("no join accept received: %w", err)
	}
	if len(accept) < joinAcceptMinLen || accept[0] != 0x20 {
		return errors.New("received frame is not a join accept")
	}

	dec, err := crypto.DecryptJoinAccept(types.AES128Key(t.appKey), accept[1:])
	if err != nil {
		return err
	}

	// verify the MIC over MHDR plus the decrypted fields.
	micIn := append([]byte{accept[0]}, dec[:len(dec)-4]...)
	wantMIC, err := crypto.ComputeLegacyJoinAcceptMIC(types.AES128Key(t.appKey), micIn)
	if err != nil {
		return err
	}
	if !bytes.Equal(dec[len(dec)-4:], wantMIC[:]) {
		return errors.New("join accept MIC mismatch")
	}

	// the accept fields are little endian; TTN key derivation wants big endian.
	joinNonce := parser.ReverseBytes(dec[0:3])
	netID := parser.ReverseBytes(dec[3:6])
	devAddr := parser.ReverseBytes(dec[6:10])
	devNonceBE := parser.ReverseBytes(devNonce)

	appSKey := crypto.DeriveLegacyAppSKey(
		types.AES128Key(t.appKey),
		types.JoinNonce(joinNonce),
		types.NetID(netID),
		types.DevNonce(devNonceBE),
	)
	nwkSKey := crypto.DeriveLegacyNwkSKey(
		types.AES128Key(t.appKey),
		types.JoinNonce(joinNonce),
		types.NetID(netID),
		types.DevNonce(devNonceBE),
	)

	sess := &session{
		DevEUI:  hex.EncodeToString(t.devEUI),
		DevAddr: hex.EncodeToString(devAddr),
		AppSKey: appSKey[:],
		NwkSKey: nwkSKey[:],
	}
	if err := t.insertSessionInDB(ctx, sess); err != nil {
		return fmt.Errorf("joined but failed to persist session: %w", err)
	}
	t.session = sess
	t.logger.Infof("joined the network with device address %s", sess.DevAddr)
	return nil
}

// receiveRx2 retunes to the region's RX2 parameters, opens a receive window
// and returns the captured frame. The radio is restored to the uplink
// configuration afterwards.
func (t *transceiver) receiveRx2(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if err := t.device.SetRfFrequency(ctx, t.region.Rx2Freq); err != nil {
		return nil, err
	}
	if err := t.device.SetLoraModulation(ctx, lr1120.LoraModulation{
		Sf:   opcodes.Sf(t.region.Rx2Sf),
		Bw:   opcodes.LoraBw(t.region.Rx2Bw),
		Cr:   opcodes.Cr45,
		Ldro: true,
	}); err != nil {
		return nil, err
	}
	// downlinks invert IQ so end devices do not hear each other.
	if err := t.device.SetLoraPacketParams(ctx, lr1120.LoraPacketParams{
		PreambleLen: 8,
		Header:      opcodes.HeaderExplicit,
		PayloadLen:  255,
		Crc:         false,
		InvertIq:    true,
	}); err != nil {
		return nil, err
	}
	defer func() {
		if err := t.restoreUplinkConfig(ctx); err != nil {
			t.logger.Errorf("failed to restore uplink radio config: %v", err)
		}
	}()

	if err := t.device.SetRx(ctx, timeout); err != nil {
		return nil, err
	}
	if err := t.awaitIrq(ctx, status.IrqRxDone, timeout+time.Second); err != nil {
		return nil, err
	}
	return t.device.ReadRxPacket(ctx)
}

func (t *transceiver) restoreUplinkConfig(ctx context.Context) error {
	if err := t.device.SetRfFrequency(ctx, t.region.UplinkFreq); err != nil {
		return err
	}
	if err := t.device.SetLoraModulation(ctx, lr1120.LoraModulation{
		Sf: opcodes.Sf7, Bw: opcodes.Bw125, Cr: opcodes.Cr45,
	}); err != nil {
		return err
	}
	return t.device.SetLoraPacketParams(ctx, lr1120.LoraPacketParams{
		PreambleLen: 8,
		Header:      opcodes.HeaderExplicit,
		PayloadLen:  255,
		Crc:         true,
	})
}

// sendUplink frames, encrypts and transmits an unconfirmed data uplink on
// FPort 1 using the current session.
func (t *transceiver) sendUplink(ctx context.Context, appPayload []byte) error {
	if t.session == nil {
		return errNotJoined
	}

	devAddrBE, err := hex.DecodeString(t.session.DevAddr)
	if err != nil {
		return err
	}
	var addr types.DevAddr
	copy(addr[:], devAddrBE)

	fCnt := t.session.FCntUp
	enc, err := crypto.EncryptUplink(types.AES128Key(t.session.AppSKey), addr, fCnt, appPayload)
	if err != nil {
		return err
	}

	frame := make([]byte, 0, 13+len(enc))
	frame = append(frame, 0x40) // MHDR: unconfirmed data up
	frame = append(frame, parser.ReverseBytes(devAddrBE)...)
	frame = append(frame, 0x00) // FCtrl: no ADR, no FOpts
	frame = binary.LittleEndian.AppendUint16(frame, uint16(fCnt))
	frame = append(frame, 0x01) // FPort
	frame = append(frame, enc...)

	mic, err := crypto.ComputeLegacyUplinkMIC(types.AES128Key(t.session.NwkSKey), addr, fCnt, frame)
	if err != nil {
		return err
	}
	frame = append(frame, mic[:]...)

	if err := t.transmitRaw(ctx, frame); err != nil {
		return err
	}

	t.session.FCntUp++
	if err := t.insertSessionInDB(ctx, t.session); err != nil {
		t.logger.Errorf("failed to persist frame counter: %v", err)
	}
	return nil
}

// handleDownlink decrypts a received data downlink addressed to us and folds
// its decoded readings into lastReadings.
func (t *transceiver) handleDownlink(ctx context.Context, frame []byte) {
	dl, err := parser.ParseDownlink(frame)
	if err != nil {
		t.logger.Debugf("ignoring received frame: %v", err)
		return
	}
	if t.session == nil || hex.EncodeToString(dl.DevAddr) != t.session.DevAddr {
		t.logger.Debugf("downlink for %x is not for us", dl.DevAddr)
		return
	}

	var addr types.DevAddr
	copy(addr[:], dl.DevAddr)
	dec, err := crypto.DecryptDownlink(types.AES128Key(t.session.AppSKey), addr, uint32(dl.FCnt), dl.Payload)
	if err != nil {
		t.logger.Errorf("failed to decrypt downlink: %v", err)
		return
	}

	t.session.FCntDown = uint32(dl.FCnt)
	if err := t.insertSessionInDB(ctx, t.session); err != nil {
		t.logger.Errorf("failed to persist frame counter: %v", err)
	}

	readings := map[string]interface{}{"raw": hex.EncodeToString(dec)}
	if t.decoderPath != "" {
		decoded, err := parser.DecodePayload(dl.FPort, t.decoderPath, dec)
		if err != nil {
			t.logger.Errorf("payload decoder failed: %v", err)
		} else {
			readings = decoded
		}
	}

	t.readingsMu.Lock()
	defer t.readingsMu.Unlock()
	t.lastReadings["last_downlink_at"] = time.Now().UTC().Format(time.RFC3339)
	t.lastReadings["last_downlink_fcnt"] = int(dl.FCnt)
	for k, v := range readings {
		t.lastReadings[k] = v
	}
}
