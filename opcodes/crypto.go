package opcodes

import "github.com/viam-modules/lr1120/status"

// KeyID identifies a slot in the crypto engine key table. Slot numbering
// follows the LoRaWAN key hierarchy.
type KeyID uint8

const (
	KeyNwk      KeyID = 2
	KeyApp      KeyID = 3
	KeyJsEnc    KeyID = 4
	KeyJsInt    KeyID = 5
	KeyGpKe0    KeyID = 6
	KeyGpKe1    KeyID = 7
	KeyGpKe2    KeyID = 8
	KeyGpKe3    KeyID = 9
	KeyGpKe4    KeyID = 10
	KeyGpKe5    KeyID = 11
	KeyAppS     KeyID = 12
	KeyFNwkSInt KeyID = 13
	KeySNwkSInt KeyID = 14
	KeyNwkSEnc  KeyID = 15
	KeyRfu0     KeyID = 16
	KeyRfu1     KeyID = 17
	KeyMcAppS0  KeyID = 18
	KeyMcAppS1  KeyID = 19
	KeyMcAppS2  KeyID = 20
	KeyMcAppS3  KeyID = 21
	KeyMcNwkS0  KeyID = 22
	KeyMcNwkS1  KeyID = 23
	KeyMcNwkS2  KeyID = 24
	KeyMcNwkS3  KeyID = 25
	KeyGp0      KeyID = 26
	KeyGp1      KeyID = 27
)

// Root reports whether the key is a LoRaWAN root key (NwkKey/AppKey).
func (k KeyID) Root() bool { return k == KeyNwk || k == KeyApp }

// Lifetime reports whether the key is a join-server lifetime key.
func (k KeyID) Lifetime() bool { return k == KeyJsEnc || k == KeyJsInt }

// Session reports whether the key is a unicast session key slot.
func (k KeyID) Session() bool { return k >= KeyAppS && k <= KeyRfu1 }

// Multicast reports whether the key is a multicast session key slot.
func (k KeyID) Multicast() bool { return k >= KeyMcAppS0 && k <= KeyMcNwkS3 }

// GeneralPurpose reports whether the key is usable with the raw AES
// encrypt/decrypt commands.
func (k KeyID) GeneralPurpose() bool { return k == KeyGp0 || k == KeyGp1 }

// CeStatus is the crypto engine outcome carried in every crypto response.
type CeStatus uint8

const (
	CeSuccess      CeStatus = 0
	CeFailCmac     CeStatus = 1
	CeInvalidKeyID CeStatus = 3
	CeBufferSize   CeStatus = 5
	CeError        CeStatus = 6
)

func (c CeStatus) String() string {
	switch c {
	case CeSuccess:
		return "success"
	case CeFailCmac:
		return "cmac mismatch"
	case CeInvalidKeyID:
		return "invalid key id"
	case CeBufferSize:
		return "bad buffer size"
	default:
		return "error"
	}
}

// LorawanVersion selects the join-accept header size: 1-byte MHDR for 1.0,
// 12 bytes for 1.1.
type LorawanVersion uint8

const (
	Lorawan1v0 LorawanVersion = 0
	Lorawan1v1 LorawanVersion = 1
)

// CryptoSetKey loads a 16-byte AES-128 key into the given slot.
func CryptoSetKey(id KeyID, key [16]byte) []byte {
	b := req(0x0502, 19)
	b[2] = byte(id)
	copy(b[3:], key[:])
	return b
}

const CryptoStatusResponseLen = 2

// CryptoStatusResponse is the two-byte response shared by most crypto
// commands.
type CryptoStatusResponse []byte

func (r CryptoStatusResponse) Status() status.Status { return respStatus(r) }
func (r CryptoStatusResponse) CeStatus() CeStatus    { return CeStatus(r[1]) }

// CryptoDeriveKey derives dst from src with a 16-byte derivation input, per
// the LoRaWAN key derivation scheme.
func CryptoDeriveKey(src, dst KeyID, input [16]byte) []byte {
	b := req(0x0503, 20)
	b[2] = byte(src)
	b[3] = byte(dst)
	copy(b[4:], input[:])
	return b
}

// CryptoProcessJoinAccept decrypts a join-accept and verifies its MIC. The
// header and encrypted payload follow as payload; the decrypted payload comes
// back after the CE status.
func CryptoProcessJoinAccept(decKey, verifyKey KeyID, version LorawanVersion) []byte {
	b := req(0x0504, 5)
	b[2] = byte(decKey)
	b[3] = byte(verifyKey)
	b[4] = byte(version)
	return b
}

// CryptoProcessJoinAcceptResponseLen is the read-phase length for a
// join-accept of n payload bytes.
func CryptoProcessJoinAcceptResponseLen(n int) int { return 2 + n }

type CryptoDataResponse []byte

func (r CryptoDataResponse) Status() status.Status { return respStatus(r) }
func (r CryptoDataResponse) CeStatus() CeStatus    { return CeStatus(r[1]) }

// Data is the processed payload bytes.
func (r CryptoDataResponse) Data() []byte { return r[2:] }

// CryptoComputeAesCmac computes the AES-CMAC MIC of the payload that follows,
// up to 256 bytes.
func CryptoComputeAesCmac(id KeyID) []byte {
	b := req(0x0505, 3)
	b[2] = byte(id)
	return b
}

const CryptoCmacResponseLen = 6

type CryptoCmacResponse []byte

func (r CryptoCmacResponse) Status() status.Status { return respStatus(r) }
func (r CryptoCmacResponse) CeStatus() CeStatus    { return CeStatus(r[1]) }

// Mic is the first four CMAC bytes.
func (r CryptoCmacResponse) Mic() uint32 { return be32(r[2:6]) }

// CryptoVerifyAesCmac recomputes the payload CMAC and compares it with
// expectedMic. CeFailCmac reports a mismatch.
func CryptoVerifyAesCmac(id KeyID, expectedMic uint32) []byte {
	b := req(0x0506, 7)
	b[2] = byte(id)
	put32(b[3:], expectedMic)
	return b
}

// CryptoAesEncrypt01 encrypts the payload for LoRaWAN use. Rejected on key
// slots 2-11 so session keys cannot be recomputed by the host.
func CryptoAesEncrypt01(id KeyID) []byte {
	b := req(0x0507, 3)
	b[2] = byte(id)
	return b
}

// CryptoAesEncrypt encrypts the payload with a general purpose key, using the
// crypto engine as a plain AES accelerator.
func CryptoAesEncrypt(id KeyID) []byte {
	b := req(0x0508, 3)
	b[2] = byte(id)
	return b
}

// CryptoAesDecrypt decrypts the payload with a general purpose key.
func CryptoAesDecrypt(id KeyID) []byte {
	b := req(0x0509, 3)
	b[2] = byte(id)
	return b
}

// CryptoDataResponseLen is the read-phase length for an encrypt/decrypt of n
// payload bytes.
func CryptoDataResponseLen(n int) int { return 2 + n }

// CryptoCheckFirmwareImage feeds a chunk of an encrypted firmware image to
// the verifier, starting at the given word offset. Chunks are at most 256
// bytes; the busy line releases when the engine is ready for the next one.
func CryptoCheckFirmwareImage(offset uint32) []byte {
	b := req(0x050F, 6)
	put32(b[2:], offset)
	return b
}

// CryptoCheckFirmwareImageResult reads the verdict after the last chunk.
func CryptoCheckFirmwareImageResult() []byte { return req(0x0510, 2) }

const CryptoFirmwareImageResultResponseLen = 2

type CryptoFirmwareImageResultResponse []byte

func (r CryptoFirmwareImageResultResponse) Status() status.Status { return respStatus(r) }

// Success reports whether every chunk of the image verified.
func (r CryptoFirmwareImageResultResponse) Success() bool { return r[1]&0x1 != 0 }

// CryptoStoreToFlash persists the key table and parameters to flash.
func CryptoStoreToFlash() []byte { return req(0x050A, 2) }

// CryptoRestoreFromFlash reloads the key table and parameters from flash.
func CryptoRestoreFromFlash() []byte { return req(0x050B, 2) }

// CryptoSetParam writes a crypto engine parameter.
func CryptoSetParam(id uint8, data uint32) []byte {
	b := req(0x050D, 7)
	b[2] = id
	put32(b[3:], data)
	return b
}

// CryptoGetParam reads a crypto engine parameter.
func CryptoGetParam(id uint8) []byte {
	b := req(0x050E, 3)
	b[2] = id
	return b
}

const CryptoParamResponseLen = 6

type CryptoParamResponse []byte

func (r CryptoParamResponse) Status() status.Status { return respStatus(r) }
func (r CryptoParamResponse) CeStatus() CeStatus    { return CeStatus(r[1]) }
func (r CryptoParamResponse) Value() uint32         { return be32(r[2:6]) }
