package opcodes

import "github.com/viam-modules/lr1120/status"

// WriteRegMem writes one 32-bit word at addr. The address must be 32-bit
// aligned.
func WriteRegMem(addr, data uint32) []byte {
	b := req(0x0105, 10)
	put32(b[2:], addr)
	put32(b[6:], data)
	return b
}

// ReadRegMem reads up to 64 consecutive 32-bit words starting at addr.
func ReadRegMem(addr uint32, words uint8) []byte {
	b := req(0x0106, 7)
	put32(b[2:], addr)
	b[6] = words
	return b
}

// ReadRegMemResponseLen is the read-phase length for a ReadRegMem of n words.
func ReadRegMemResponseLen(words uint8) int { return 1 + 4*int(words) }

type ReadRegMemResponse []byte

func (r ReadRegMemResponse) Status() status.Status { return respStatus(r) }

// Words returns the number of 32-bit words carried in the response.
func (r ReadRegMemResponse) Words() int { return (len(r) - 1) / 4 }

// Word returns the i-th 32-bit word.
func (r ReadRegMemResponse) Word(i int) uint32 {
	return be32(r[1+4*i:])
}

// WriteRegMemMask read-modify-writes the mask bits of one 32-bit word at addr.
func WriteRegMemMask(addr, mask, data uint32) []byte {
	b := req(0x010C, 14)
	put32(b[2:], addr)
	put32(b[6:], mask)
	put32(b[10:], data)
	return b
}
