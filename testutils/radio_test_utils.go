package testutils

import (
	"context"
	"sync"
)

// ScriptedBus is a fake SPI link. Each Tx call pops the next scripted
// response into the read buffer and records a copy of what was shifted out.
// Transfers with no scripted response read back zeros, which is what a real
// chip shifts during a write phase.
type ScriptedBus struct {
	mu        sync.Mutex
	responses [][]byte
	transfers [][]byte
	failures  map[int]error
}

// Respond queues the bytes the chip returns on a future transfer. Every
// transfer pops one entry, so queue nil for write phases whose shadow bytes
// the driver discards.
func (b *ScriptedBus) Respond(resp []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses = append(b.responses, resp)
}

// FailOn makes the nth transfer (counting from zero) return err instead of
// transferring.
func (b *ScriptedBus) FailOn(n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures == nil {
		b.failures = map[int]error{}
	}
	b.failures[n] = err
}

// Tx implements the serial link. w and r may alias, so w is recorded before r
// is filled.
func (b *ScriptedBus) Tx(w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sent := make([]byte, len(w))
	copy(sent, w)
	b.transfers = append(b.transfers, sent)

	if err := b.failures[len(b.transfers)-1]; err != nil {
		return err
	}
	for i := range r {
		r[i] = 0
	}
	if len(b.responses) > 0 {
		copy(r, b.responses[0])
		b.responses = b.responses[1:]
	}
	return nil
}

// Transfers returns copies of everything shifted out so far, one entry per
// chip-select frame.
func (b *ScriptedBus) Transfers() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.transfers))
	copy(out, b.transfers)
	return out
}

// RecordingPin is a fake chip-select line that records every level change.
type RecordingPin struct {
	mu      sync.Mutex
	history []bool
	err     error
}

// FailWith makes every Set return err.
func (p *RecordingPin) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Set implements the pin.
func (p *RecordingPin) Set(ctx context.Context, high bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, high)
	return p.err
}

// Released reports whether the line ended high, i.e. the chip is deselected.
func (p *RecordingPin) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.history) == 0 || p.history[len(p.history)-1]
}

// History returns every level the pin was driven to, in order.
func (p *RecordingPin) History() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]bool, len(p.history))
	copy(out, p.history)
	return out
}

// ScriptedReady is a fake busy line that reports busy for a set number of
// samples before releasing.
type ScriptedReady struct {
	mu sync.Mutex
	// BusyFor is how many samples report not-ready before the line releases.
	// Zero means ready immediately; a negative value never releases.
	BusyFor int
	polls   int
	err     error
}

// FailWith makes every sample return err.
func (s *ScriptedReady) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Ready implements the readiness source.
func (s *ScriptedReady) Ready(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if s.err != nil {
		return false, s.err
	}
	if s.BusyFor < 0 {
		return false, nil
	}
	if s.polls <= s.BusyFor {
		return false, nil
	}
	return true, nil
}

// Polls returns how many times the line was sampled.
func (s *ScriptedReady) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// Rearm resets the sample counter so the next wait sees the busy window
// again.
func (s *ScriptedReady) Rearm(busyFor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BusyFor = busyFor
	s.polls = 0
}
