package lr1120

import "github.com/viam-modules/lr1120/status"

// The largest single transaction: a 2-byte opcode plus the 256-byte radio
// buffer, with headroom for the longest fixed parameter block.
const defaultBufferCap = 280

// buffer is the single staging area shared by the outgoing and incoming phases
// of a transaction. The bus is full duplex, so the bytes shifted in during a
// transfer land in the same region the request was staged in; keeping one
// region makes that aliasing explicit. Capacity is fixed at construction and
// the buffer never grows.
type buffer struct {
	data []byte
	n    int
}

func newBuffer(capacity int) *buffer {
	return &buffer{data: make([]byte, capacity)}
}

// stage copies the request and optional trailing payload into the buffer and
// returns the staged frame. The frame aliases the buffer: it is overwritten by
// the shadow bytes of the transfer and invalidated by the next transaction.
func (b *buffer) stage(req, payload []byte) ([]byte, error) {
	total := len(req) + len(payload)
	if total > len(b.data) {
		return nil, ErrBufferOverflow
	}
	copy(b.data, req)
	copy(b.data[len(req):], payload)
	b.n = total
	return b.data[:total], nil
}

// probe zero-fills the first n bytes and returns them. Zero is the NOP
// convention: the value shifted out during a read phase determines nothing,
// but it must be well defined so a stray command is never clocked in.
func (b *buffer) probe(n int) ([]byte, error) {
	if n > len(b.data) {
		return nil, ErrBufferOverflow
	}
	for i := 0; i < n; i++ {
		b.data[i] = 0
	}
	b.n = n
	return b.data[:n], nil
}

// bytes returns the harvested region of the last transfer.
func (b *buffer) bytes() []byte {
	return b.data[:b.n]
}

// status decodes the status header at the start of the harvested region.
func (b *buffer) status() status.Status {
	end := b.n
	if end > 2 {
		end = 2
	}
	return status.DecodeStatus(b.data[:end])
}
