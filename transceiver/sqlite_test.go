package transceiver

import (
	"context"
	"encoding/hex"
	"testing"

	"go.viam.com/test"

	"github.com/viam-modules/lr1120/testutils"
)

func newDBTestTransceiver(t *testing.T) *transceiver {
	t.Helper()
	t.Setenv("VIAM_MODULE_DATA", t.TempDir())

	tr := &transceiver{}
	test.That(t, tr.setupSqlite(context.Background()), test.ShouldBeNil)
	t.Cleanup(func() {
		test.That(t, tr.db.Close(), test.ShouldBeNil)
	})
	return tr
}

func TestSessionRoundTrip(t *testing.T) {
	tr := newDBTestTransceiver(t)
	ctx := context.Background()

	appSKey, err := hex.DecodeString(testutils.TestAppSKey)
	test.That(t, err, test.ShouldBeNil)
	nwkSKey, err := hex.DecodeString(testutils.TestNwkSKey)
	test.That(t, err, test.ShouldBeNil)

	sess := &session{
		DevEUI:   testutils.TestDevEUI,
		DevAddr:  testutils.TestDevAddr,
		AppSKey:  appSKey,
		NwkSKey:  nwkSKey,
		FCntUp:   12,
		FCntDown: 3,
	}
	test.That(t, tr.insertSessionInDB(ctx, sess), test.ShouldBeNil)

	got, err := tr.findSessionInDB(ctx, testutils.TestDevEUI)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, sess)

	// counters overwrite in place, no duplicate rows
	sess.FCntUp = 13
	test.That(t, tr.insertSessionInDB(ctx, sess), test.ShouldBeNil)
	got, err = tr.findSessionInDB(ctx, testutils.TestDevEUI)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.FCntUp, test.ShouldEqual, uint32(13))

	_, err = tr.findSessionInDB(ctx, "AAAAAAAAAAAAAAAA")
	test.That(t, err, test.ShouldBeError, errNoSessionInDB)
}

func TestSessionNoDB(t *testing.T) {
	tr := &transceiver{}
	err := tr.insertSessionInDB(context.Background(), &session{})
	test.That(t, err, test.ShouldBeError, errNoDB)
	_, err = tr.findSessionInDB(context.Background(), testutils.TestDevEUI)
	test.That(t, err, test.ShouldBeError, errNoDB)
}

func TestScanArchive(t *testing.T) {
	tr := newDBTestTransceiver(t)
	ctx := context.Background()

	aps := []map[string]interface{}{
		{"mac": "aabbccddeeff", "rssi_dbm": -70, "channel": 6},
	}
	test.That(t, tr.insertScanInDB(ctx, "wifi", aps), test.ShouldBeNil)
	test.That(t, tr.insertScanInDB(ctx, "gnss", map[string]interface{}{"nav_message": "0102"}), test.ShouldBeNil)

	scans, err := tr.scansFromDB(ctx, "wifi", 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scans, test.ShouldHaveLength, 1)

	results, ok := scans[0]["results"].([]interface{})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, results, test.ShouldHaveLength, 1)
	ap, ok := results[0].(map[string]interface{})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, ap["mac"], test.ShouldEqual, "aabbccddeeff")

	scans, err = tr.scansFromDB(ctx, "gnss", 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scans, test.ShouldHaveLength, 1)
}
