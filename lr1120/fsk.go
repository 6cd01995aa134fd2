package lr1120

import (
	"context"

	"github.com/viam-modules/lr1120/opcodes"
)

// FskModulation bundles the (G)FSK modulation parameters. The bandwidth must
// satisfy 2*Fdev + Bitrate < Bw.
type FskModulation struct {
	HighPrecision bool
	Bitrate       uint32
	Shape         opcodes.PulseShape
	Bw            opcodes.FskRxBw
	Fdev          uint32
}

// SetFskModulation configures the (G)FSK modulation. Fails unless the packet
// type is GFSK.
func (d *Device) SetFskModulation(ctx context.Context, m FskModulation) error {
	return d.WriteChecked(ctx,
		opcodes.SetFskModulationParams(m.HighPrecision, m.Bitrate, m.Shape, m.Bw, m.Fdev),
		defaultCmdTimeout)
}

// FskPacketParams bundles the (G)FSK packet layout parameters.
type FskPacketParams struct {
	PreambleLen  uint16
	Detect       opcodes.PreambleDetect
	SyncwordBits uint8
	AddrFilter   opcodes.AddrFilter
	Format       opcodes.FskPacketFormat
	PayloadLen   uint8
	Crc          opcodes.FskCrc
	Whitening    opcodes.Whitening
}

// SetFskPacketParams configures the (G)FSK packet layout.
func (d *Device) SetFskPacketParams(ctx context.Context, p FskPacketParams) error {
	return d.WriteChecked(ctx,
		opcodes.SetFskPacketParams(p.PreambleLen, p.Detect, p.SyncwordBits, p.AddrFilter, p.Format, p.PayloadLen, p.Crc, p.Whitening),
		defaultCmdTimeout)
}

// SetFskSyncWord sets the (G)FSK syncword.
func (d *Device) SetFskSyncWord(ctx context.Context, syncword uint64) error {
	return d.WriteChecked(ctx, opcodes.SetFskSyncWord(syncword), defaultCmdTimeout)
}

// SetFskAddress sets the node and broadcast filter addresses.
func (d *Device) SetFskAddress(ctx context.Context, node, broadcast uint8) error {
	return d.WriteChecked(ctx, opcodes.SetFskAddress(node, broadcast), defaultCmdTimeout)
}

// SetFskCrcParams sets the CRC seed and polynomial.
func (d *Device) SetFskCrcParams(ctx context.Context, init, polynomial uint32) error {
	return d.WriteChecked(ctx, opcodes.SetFskCrcParams(init, polynomial), defaultCmdTimeout)
}

// SetFskWhitening sets the whitening seed.
func (d *Device) SetFskWhitening(ctx context.Context, seed uint16) error {
	return d.WriteChecked(ctx, opcodes.SetFskWhitParams(seed), defaultCmdTimeout)
}
