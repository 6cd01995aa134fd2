package opcodes

// PulseShape is the (G)FSK pulse shaping filter.
type PulseShape uint8

const (
	ShapeNone  PulseShape = 0
	ShapeBt0p3 PulseShape = 8
	ShapeBt0p5 PulseShape = 9
	ShapeBt0p7 PulseShape = 10
	ShapeBt1p0 PulseShape = 11
	ShapeRc0p7 PulseShape = 22
)

// FskRxBw is the (G)FSK double-sideband RX bandwidth selector.
type FskRxBw uint8

const (
	FskBw4800   FskRxBw = 31
	FskBw5800   FskRxBw = 23
	FskBw7300   FskRxBw = 15
	FskBw9700   FskRxBw = 30
	FskBw11700  FskRxBw = 22
	FskBw14600  FskRxBw = 14
	FskBw19500  FskRxBw = 29
	FskBw23400  FskRxBw = 21
	FskBw29300  FskRxBw = 13
	FskBw39000  FskRxBw = 28
	FskBw46900  FskRxBw = 20
	FskBw58600  FskRxBw = 12
	FskBw78200  FskRxBw = 27
	FskBw93800  FskRxBw = 19
	FskBw117300 FskRxBw = 11
	FskBw156200 FskRxBw = 26
	FskBw187200 FskRxBw = 18
	FskBw234300 FskRxBw = 10
	FskBw312000 FskRxBw = 25
	FskBw373600 FskRxBw = 17
	FskBw467000 FskRxBw = 9
)

// PreambleDetect is the preamble detector length. Must be shorter than the
// syncword.
type PreambleDetect uint8

const (
	PreambleDetectOff PreambleDetect = 0
	PreambleDetect8   PreambleDetect = 4
	PreambleDetect16  PreambleDetect = 5
	PreambleDetect24  PreambleDetect = 6
	PreambleDetect32  PreambleDetect = 7
)

// AddrFilter selects address filtering on received (G)FSK packets.
type AddrFilter uint8

const (
	AddrFilterOff       AddrFilter = 0
	AddrFilterNode      AddrFilter = 1
	AddrFilterNodeBcast AddrFilter = 2
)

// FskPacketFormat selects fixed or variable length packets.
type FskPacketFormat uint8

const (
	FskFixedLength   FskPacketFormat = 0
	FskVariable8bit  FskPacketFormat = 1
	FskVariable9bit  FskPacketFormat = 2
)

// FskCrc is the (G)FSK CRC configuration.
type FskCrc uint8

const (
	FskCrc1Byte    FskCrc = 0
	FskCrcOff      FskCrc = 1
	FskCrc2Byte    FskCrc = 2
	FskCrc1ByteInv FskCrc = 4
	FskCrc2ByteInv FskCrc = 6
)

// Whitening selects the (G)FSK whitening scheme.
type Whitening uint8

const (
	WhiteningOff    Whitening = 0
	WhiteningSx126x Whitening = 1
	WhiteningSx128x Whitening = 3
)

// SetFskModulationParams configures bitrate, pulse shape, RX bandwidth and
// frequency deviation. highPrecision adds 8 fractional bitrate bits. The
// bandwidth must satisfy 2*fdev+bitrate < bw.
func SetFskModulationParams(highPrecision bool, bitrate uint32, shape PulseShape, bw FskRxBw, fdev uint32) []byte {
	b := req(0x020F, 12)
	put32(b[2:], bitrate)
	if highPrecision {
		b[2] |= 0x1
	}
	b[6] = byte(shape)
	b[7] = byte(bw)
	put32(b[8:], fdev)
	return b
}

// SetFskPacketParams configures the (G)FSK packet layout. A preamble of at
// least 16 bits is recommended.
func SetFskPacketParams(
	preambleLen uint16,
	detect PreambleDetect,
	syncwordBits uint8,
	addr AddrFilter,
	format FskPacketFormat,
	payloadLen uint8,
	crc FskCrc,
	whitening Whitening,
) []byte {
	b := req(0x0210, 11)
	put16(b[2:], preambleLen)
	b[4] = byte(detect)
	b[5] = syncwordBits
	b[6] = byte(addr) & 0x3
	b[7] = byte(format) & 0x3
	b[8] = payloadLen
	b[9] = byte(crc)
	b[10] = byte(whitening)
	return b
}

// SetFskSyncWord sets the (G)FSK syncword. For RX the configured length must
// be a multiple of 8 bits.
func SetFskSyncWord(syncword uint64) []byte {
	b := req(0x0206, 10)
	put32(b[2:], uint32(syncword>>32))
	put32(b[6:], uint32(syncword))
	return b
}

// SetFskAddress sets the node and broadcast addresses used when address
// filtering is enabled.
func SetFskAddress(node, broadcast uint8) []byte {
	b := req(0x0212, 4)
	b[2] = node
	b[3] = broadcast
	return b
}

// SetFskCrcParams sets the CRC seed and polynomial.
func SetFskCrcParams(init, polynomial uint32) []byte {
	b := req(0x0224, 10)
	put32(b[2:], init)
	put32(b[6:], polynomial)
	return b
}

// SetFskWhitParams sets the whitening seed. Must match on all peers.
func SetFskWhitParams(seed uint16) []byte {
	b := req(0x0225, 4)
	put16(b[2:], seed)
	return b
}
