// Package opcodes builds LR1120 command frames and decodes the typed
// responses returned by the read phase of a transaction. Builders return a
// ready-to-send frame with the two opcode bytes in front; response types are
// thin views over the harvested bytes with fixed-offset accessors.
package opcodes

import "github.com/viam-modules/lr1120/status"

func req(op uint16, n int) []byte {
	b := make([]byte, n)
	b[0] = byte(op >> 8)
	b[1] = byte(op)
	return b
}

func put16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func put24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func put32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func be24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func be64(b []byte) uint64 {
	return uint64(be32(b[:4]))<<32 | uint64(be32(b[4:8]))
}

// respStatus reads the one-byte status header every response starts with.
func respStatus(b []byte) status.Status {
	if len(b) == 0 {
		return status.DecodeStatus(nil)
	}
	return status.DecodeStatus(b[:1])
}
