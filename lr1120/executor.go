package lr1120

import (
	"context"
	"fmt"
	"time"

	"go.viam.com/utils"

	"github.com/viam-modules/lr1120/status"
)

// Write issues a fire-and-forget command: no response payload is expected
// beyond the status header, and the shadow bytes received while the request is
// shifted out are discarded (they are undefined during the write phase).
//
// The caller must have observed readiness for the previous transaction, e.g.
// via WaitReady or by using WriteRead/WriteChecked, before issuing another
// command. The chip's own rejection of the opcode is not checked here; use
// WriteChecked for that.
func (d *Device) Write(ctx context.Context, req []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(ctx, req, nil)
}

// WriteChecked issues the command, waits for readiness within timeout and
// fetches the short-form status byte, translating a Fail outcome into
// status.ErrCommandFailed and a parameter rejection into
// status.ErrInvalidParams. No further bus activity happens after a rejection.
func (d *Device) WriteChecked(ctx context.Context, req []byte, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeLocked(ctx, req, nil); err != nil {
		return err
	}
	if err := d.waitReadyLocked(ctx, timeout); err != nil {
		return err
	}
	if _, err := d.readLocked(ctx, 1); err != nil {
		return err
	}
	return d.checkStatus()
}

// WriteRead issues the request phase, releases chip select, waits for the chip
// to become ready within timeout and then pumps out respLen response bytes
// with a zero-valued probe frame. Reading before readiness would yield
// undefined data rather than an error, so the read phase never starts early.
//
// The returned slice is a view into the transaction buffer, valid only until
// the next transaction on this device. Byte 0 (and byte 1 for commands with a
// two-byte header) is the status header.
func (d *Device) WriteRead(ctx context.Context, req []byte, respLen int, timeout time.Duration) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeLocked(ctx, req, nil); err != nil {
		return nil, err
	}
	if err := d.waitReadyLocked(ctx, timeout); err != nil {
		return nil, err
	}
	return d.readLocked(ctx, respLen)
}

// WriteWithPayload issues a command whose request carries a variable-length
// data block after the fixed parameter bytes. Opcode-specific length limits
// belong to the opcode layer; only total buffer capacity is enforced here.
func (d *Device) WriteWithPayload(ctx context.Context, req, payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(ctx, req, payload)
}

// ReadStreaming retrieves total bytes in independent chunks of at most
// chunkBudget, for results that exceed the transaction buffer. build is called
// with the running byte offset to produce each chunk's request. A mid-stream
// failure aborts the whole read and returns what was read plus the error;
// there is no partial-chunk retry, and result assembly beyond concatenation is
// left to the caller.
func (d *Device) ReadStreaming(
	ctx context.Context,
	build func(offset int) []byte,
	total, chunkBudget int,
	timeout time.Duration,
) ([]byte, error) {
	if chunkBudget <= 0 || chunkBudget > d.BufferCapacity() {
		return nil, ErrBufferOverflow
	}
	out := make([]byte, 0, total)
	for offset := 0; offset < total; {
		n := chunkBudget
		if remaining := total - offset; remaining < n {
			n = remaining
		}
		resp, err := d.WriteRead(ctx, build(offset), n, timeout)
		// The response view dies with the next transaction, so copy out.
		out = append(out, resp...)
		if err != nil {
			return out, err
		}
		offset += n
	}
	return out, nil
}

// WaitReady polls the readiness source until it reports ready or the budget
// elapses, yielding between polls. Slow commands (calibration, scans) need a
// longer budget than register reads; there is no default masking that choice.
// A timeout is distinguishable from transport errors because the caller may
// retry it with a longer budget.
func (d *Device) WaitReady(ctx context.Context, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waitReadyLocked(ctx, timeout)
}

func (d *Device) waitReadyLocked(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ready, err := d.ready.Ready(ctx)
		if err != nil {
			return &PinError{Err: err}
		}
		if ready {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w (budget %v)", ErrReadyTimeout, timeout)
		}
		if !utils.SelectContextOrWait(ctx, readyPollInterval) {
			return ctx.Err()
		}
	}
}

// writeLocked runs the request phase: stage, assert NSS, full-duplex transfer,
// release NSS.
func (d *Device) writeLocked(ctx context.Context, req, payload []byte) error {
	frame, err := d.buf.stage(req, payload)
	if err != nil {
		return err
	}
	return d.transfer(ctx, frame)
}

// readLocked runs the response phase: stage a zeroed probe frame and pump out
// n response bytes.
func (d *Device) readLocked(ctx context.Context, n int) ([]byte, error) {
	frame, err := d.buf.probe(n)
	if err != nil {
		return nil, err
	}
	if err := d.transfer(ctx, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// transfer frames one bus phase with the chip-select line. The release is
// guarded so that every exit path, including context cancellation mid
// transfer, leaves the line deasserted; a cancelled context must not be able
// to hold the chip selected.
func (d *Device) transfer(ctx context.Context, frame []byte) (err error) {
	if err := d.nss.Set(ctx, false); err != nil {
		return &PinError{Err: err}
	}
	defer func() {
		rerr := d.nss.Set(context.WithoutCancel(ctx), true)
		if rerr != nil && err == nil {
			err = &PinError{Err: rerr}
		}
	}()
	if err := d.bus.Tx(frame, frame); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

// checkStatus validates the status header of the last harvested response. An
// outcome outside the defined set suggests buffer misalignment and is logged
// loudly before being surfaced.
func (d *Device) checkStatus() error {
	st := d.buf.status()
	err := st.Check()
	if err == status.ErrUnknownStatus && d.logger != nil {
		d.logger.Errorf("undefined status bits %#04x - response framing is likely misaligned", uint16(st))
	}
	return err
}

// writePayloadRead is the combined shape used by crypto and buffer commands: a
// request with trailing payload, a readiness wait, then a response phase.
func (d *Device) writePayloadRead(
	ctx context.Context,
	req, payload []byte,
	respLen int,
	timeout time.Duration,
) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeLocked(ctx, req, payload); err != nil {
		return nil, err
	}
	if err := d.waitReadyLocked(ctx, timeout); err != nil {
		return nil, err
	}
	return d.readLocked(ctx, respLen)
}
