// Package testutils creates helper functions for tests
package testutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/rdk/components/board"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/testutils/inject"
	"go.viam.com/test"
)

const (
	// TestDevEUI is a fake deveui for tests.
	TestDevEUI = "0123456789ABCDEF"
	// TestJoinEUI is a fake joineui for tests.
	TestJoinEUI = "FEDCBA9876543210"
	// TestAppKey is fake app key for tests.
	TestAppKey = "0123456789ABCDEF0123456789ABAAAA"
	// TestDevAddr is fake dev addr for tests.
	TestDevAddr = "01234567"
	// TestAppSKey is fake appskey for tests.
	TestAppSKey = "0123456789ABCDEF0123456789ABCDEE"
	// TestNwkSKey is fake nwkskey for tests.
	TestNwkSKey = "0123456789ABCDEF0123456789ABCDEF"
)

// testDecoderScript is a minimal payload decoder for tests.
const testDecoderScript = `function Decode(fPort, bytes) {
	return {"value": bytes[0], "port": fPort};
}`

// NewFakeBoard returns an injected board whose GPIO pins accept any set and
// always read low, so a busy line adapter reports ready.
func NewFakeBoard() *inject.Board {
	mockBoard := &inject.Board{}
	mockBoard.GPIOPinByNameFunc = func(name string) (board.GPIOPin, error) {
		pin := &inject.GPIOPin{}
		pin.SetFunc = func(ctx context.Context, high bool, extra map[string]interface{}) error {
			return nil
		}
		pin.GetFunc = func(ctx context.Context, extra map[string]interface{}) (bool, error) {
			return false, nil
		}
		return pin, nil
	}
	return mockBoard
}

// NewTransceiverTestEnv creates a mock board dependency, points
// VIAM_MODULE_DATA at a temp dir and writes a working decoder script there.
// It returns the dependencies and the decoder path.
func NewTransceiverTestEnv(t *testing.T, boardName string) (resource.Dependencies, string) {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("VIAM_MODULE_DATA", tmpDir)

	decoderPath := filepath.Join(tmpDir, "decoder.js")
	err := os.WriteFile(decoderPath, []byte(testDecoderScript), 0o600)
	test.That(t, err, test.ShouldBeNil)

	deps := make(resource.Dependencies)
	deps[board.Named(boardName)] = NewFakeBoard()
	return deps, decoderPath
}
