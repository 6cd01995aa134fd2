package lr1120

import (
	"context"
	"fmt"

	"github.com/viam-modules/lr1120/opcodes"
)

// CryptoError reports a command the chip executed but the crypto engine
// rejected, for example a CMAC mismatch or a key slot the operation is not
// allowed on.
type CryptoError struct {
	Status opcodes.CeStatus
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto engine: %s", e.Status)
}

func ceErr(st opcodes.CeStatus) error {
	if st == opcodes.CeSuccess {
		return nil
	}
	return &CryptoError{Status: st}
}

// cryptoCmd issues a crypto command with no payload and checks both the
// status byte and the crypto engine status.
func (d *Device) cryptoCmd(ctx context.Context, req []byte) error {
	resp, err := d.cmdRead(ctx, req, opcodes.CryptoStatusResponseLen, defaultCmdTimeout)
	if err != nil {
		return err
	}
	return ceErr(opcodes.CryptoStatusResponse(resp).CeStatus())
}

// SetCryptoKey loads an AES-128 key into a slot of the crypto engine key
// table. Keys are write-only; there is no read-back command.
func (d *Device) SetCryptoKey(ctx context.Context, id opcodes.KeyID, key [16]byte) error {
	return d.cryptoCmd(ctx, opcodes.CryptoSetKey(id, key))
}

// DeriveCryptoKey derives dst from src using the LoRaWAN key derivation
// scheme, keeping the derived key inside the engine.
func (d *Device) DeriveCryptoKey(ctx context.Context, src, dst opcodes.KeyID, input [16]byte) error {
	return d.cryptoCmd(ctx, opcodes.CryptoDeriveKey(src, dst, input))
}

// ProcessJoinAccept decrypts a join-accept frame and verifies its MIC inside
// the crypto engine. header is the MHDR for LoRaWAN 1.0 or the 12-byte
// join-request header for 1.1; enc is the encrypted join-accept payload
// including the MIC. The decrypted payload is returned on success.
func (d *Device) ProcessJoinAccept(
	ctx context.Context,
	decKey, verifyKey opcodes.KeyID,
	version opcodes.LorawanVersion,
	header, enc []byte,
) ([]byte, error) {
	payload := make([]byte, 0, len(header)+len(enc))
	payload = append(payload, header...)
	payload = append(payload, enc...)
	resp, err := d.writePayloadRead(ctx,
		opcodes.CryptoProcessJoinAccept(decKey, verifyKey, version),
		payload,
		opcodes.CryptoProcessJoinAcceptResponseLen(len(enc)),
		defaultCmdTimeout)
	if err != nil {
		return nil, err
	}
	if err := d.checkResp(resp); err != nil {
		return nil, err
	}
	r := opcodes.CryptoDataResponse(resp)
	if err := ceErr(r.CeStatus()); err != nil {
		return nil, err
	}
	out := make([]byte, len(enc))
	copy(out, r.Data())
	return out, nil
}

// ComputeAesCmac computes the AES-CMAC MIC of data with the key in the given
// slot. data may be up to 256 bytes.
func (d *Device) ComputeAesCmac(ctx context.Context, id opcodes.KeyID, data []byte) (uint32, error) {
	resp, err := d.writePayloadRead(ctx,
		opcodes.CryptoComputeAesCmac(id), data,
		opcodes.CryptoCmacResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	if err := d.checkResp(resp); err != nil {
		return 0, err
	}
	r := opcodes.CryptoCmacResponse(resp)
	if err := ceErr(r.CeStatus()); err != nil {
		return 0, err
	}
	return r.Mic(), nil
}

// VerifyAesCmac recomputes the CMAC of data and compares it against
// expectedMic inside the engine. A mismatch surfaces as a CryptoError with
// CeFailCmac.
func (d *Device) VerifyAesCmac(ctx context.Context, id opcodes.KeyID, expectedMic uint32, data []byte) error {
	resp, err := d.writePayloadRead(ctx,
		opcodes.CryptoVerifyAesCmac(id, expectedMic), data,
		opcodes.CryptoStatusResponseLen, defaultCmdTimeout)
	if err != nil {
		return err
	}
	if err := d.checkResp(resp); err != nil {
		return err
	}
	return ceErr(opcodes.CryptoStatusResponse(resp).CeStatus())
}

// cryptoData runs one of the encrypt/decrypt commands and copies out the
// processed bytes.
func (d *Device) cryptoData(ctx context.Context, req, data []byte) ([]byte, error) {
	resp, err := d.writePayloadRead(ctx, req, data,
		opcodes.CryptoDataResponseLen(len(data)), defaultCmdTimeout)
	if err != nil {
		return nil, err
	}
	if err := d.checkResp(resp); err != nil {
		return nil, err
	}
	r := opcodes.CryptoDataResponse(resp)
	if err := ceErr(r.CeStatus()); err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, r.Data())
	return out, nil
}

// AesEncrypt01 encrypts data with a 0x01-prefixed block scheme for LoRaWAN
// use. Rejected on root and lifetime key slots.
func (d *Device) AesEncrypt01(ctx context.Context, id opcodes.KeyID, data []byte) ([]byte, error) {
	return d.cryptoData(ctx, opcodes.CryptoAesEncrypt01(id), data)
}

// AesEncrypt encrypts data using the engine as a plain AES-128 accelerator.
// Only general purpose key slots are accepted.
func (d *Device) AesEncrypt(ctx context.Context, id opcodes.KeyID, data []byte) ([]byte, error) {
	return d.cryptoData(ctx, opcodes.CryptoAesEncrypt(id), data)
}

// AesDecrypt decrypts data with a general purpose key.
func (d *Device) AesDecrypt(ctx context.Context, id opcodes.KeyID, data []byte) ([]byte, error) {
	return d.cryptoData(ctx, opcodes.CryptoAesDecrypt(id), data)
}

// cryptoFirmwareChunk is the largest image block the verifier accepts per
// command.
const cryptoFirmwareChunk = 256

// CheckEncryptedFirmwareImage streams an encrypted firmware image through the
// engine's verifier in 256-byte chunks. offset is the 32-bit word offset the
// image starts at. Call FirmwareImageOk for the verdict once the whole image
// has been fed.
func (d *Device) CheckEncryptedFirmwareImage(ctx context.Context, offset uint32, image []byte) error {
	for off := 0; off < len(image); off += cryptoFirmwareChunk {
		end := off + cryptoFirmwareChunk
		if end > len(image) {
			end = len(image)
		}
		req := opcodes.CryptoCheckFirmwareImage(offset + uint32(off)/4)
		if err := d.payloadCmd(ctx, req, image[off:end], defaultCmdTimeout); err != nil {
			return err
		}
	}
	return nil
}

// FirmwareImageOk reads the verifier's verdict over all chunks fed so far.
func (d *Device) FirmwareImageOk(ctx context.Context) (bool, error) {
	resp, err := d.cmdRead(ctx, opcodes.CryptoCheckFirmwareImageResult(), opcodes.CryptoFirmwareImageResultResponseLen, defaultCmdTimeout)
	if err != nil {
		return false, err
	}
	return opcodes.CryptoFirmwareImageResultResponse(resp).Success(), nil
}

// StoreCryptoToFlash persists the key table and crypto parameters so they
// survive a reboot.
func (d *Device) StoreCryptoToFlash(ctx context.Context) error {
	return d.cryptoCmd(ctx, opcodes.CryptoStoreToFlash())
}

// RestoreCryptoFromFlash reloads the key table and crypto parameters from
// flash.
func (d *Device) RestoreCryptoFromFlash(ctx context.Context) error {
	return d.cryptoCmd(ctx, opcodes.CryptoRestoreFromFlash())
}

// SetCryptoParam writes a crypto engine parameter.
func (d *Device) SetCryptoParam(ctx context.Context, id uint8, value uint32) error {
	return d.cryptoCmd(ctx, opcodes.CryptoSetParam(id, value))
}

// CryptoParam reads a crypto engine parameter.
func (d *Device) CryptoParam(ctx context.Context, id uint8) (uint32, error) {
	resp, err := d.cmdRead(ctx, opcodes.CryptoGetParam(id), opcodes.CryptoParamResponseLen, defaultCmdTimeout)
	if err != nil {
		return 0, err
	}
	r := opcodes.CryptoParamResponse(resp)
	if err := ceErr(r.CeStatus()); err != nil {
		return 0, err
	}
	return r.Value(), nil
}
