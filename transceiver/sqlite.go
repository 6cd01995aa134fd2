package transceiver

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	// github.com/mattn/go-sqlite3 is for sqlite.
	_ "github.com/mattn/go-sqlite3"
)

var (
	errNoSessionInDB = errors.New("error session not found")
	errNoDB          = errors.New("error session file not found")
)

// session holds the LoRaWAN session state that must survive restarts. Keys
// are stored hex encoded; frame counters must never rewind under one key set.
type session struct {
	DevEUI   string
	DevAddr  string
	AppSKey  []byte
	NwkSKey  []byte
	FCntUp   uint32
	FCntDown uint32
}

// Create or open a sqlite db file used to save session data across restarts.
func (t *transceiver) setupSqlite(ctx context.Context) error {
	if t.db != nil {
		return nil
	}
	moduleDataDir := os.Getenv("VIAM_MODULE_DATA")

	filePathDB := filepath.Join(moduleDataDir, "lr1120.db")
	db, err := sql.Open("sqlite3", filePathDB)
	if err != nil {
		return err
	}
	// create the tables if they do not exist
	sqlStmt := `
	create table if not exists sessions(devEui STRING NOT NULL PRIMARY KEY, devAddr STRING, appSKey STRING, nwkSKey STRING, fCntUp INTEGER, fCntDown INTEGER);
	create table if not exists scans(id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT, kind STRING, capturedAt INTEGER, results STRING);
	`
	if _, err = db.ExecContext(ctx, sqlStmt); err != nil {
		return err
	}
	t.db = db
	return nil
}

func (t *transceiver) insertSessionInDB(ctx context.Context, s *session) error {
	if t.db == nil {
		return errNoDB
	}
	_, err := t.db.ExecContext(ctx,
		"insert or replace into sessions (devEui, devAddr, appSKey, nwkSKey, fCntUp, fCntDown) VALUES(?, ?, ?, ?, ?, ?);",
		s.DevEUI,
		s.DevAddr,
		hex.EncodeToString(s.AppSKey),
		hex.EncodeToString(s.NwkSKey),
		s.FCntUp,
		s.FCntDown)
	return err
}

func (t *transceiver) findSessionInDB(ctx context.Context, devEui string) (*session, error) {
	if t.db == nil {
		return nil, errNoDB
	}
	var appSKey, nwkSKey string
	s := session{}
	if err := t.db.QueryRowContext(ctx, "select * from sessions where devEui = ?",
		devEui).Scan(&s.DevEUI, &s.DevAddr, &appSKey, &nwkSKey, &s.FCntUp, &s.FCntDown); err != nil {
		if strings.Contains(err.Error(), "no rows in result set") {
			return nil, errNoSessionInDB
		}
		return nil, err
	}
	var err error
	if s.AppSKey, err = hex.DecodeString(appSKey); err != nil {
		return nil, err
	}
	if s.NwkSKey, err = hex.DecodeString(nwkSKey); err != nil {
		return nil, err
	}
	return &s, nil
}

// insertScanInDB archives one wifi or gnss scan result set as JSON.
func (t *transceiver) insertScanInDB(ctx context.Context, kind string, results interface{}) error {
	if t.db == nil {
		return errNoDB
	}
	blob, err := json.Marshal(results)
	if err != nil {
		return err
	}
	_, err = t.db.ExecContext(ctx, "insert into scans (kind, capturedAt, results) VALUES(?, ?, ?);",
		kind, time.Now().Unix(), string(blob))
	return err
}

// scansFromDB returns the archived scans of one kind, newest first.
func (t *transceiver) scansFromDB(ctx context.Context, kind string, limit int) ([]map[string]interface{}, error) {
	if t.db == nil {
		return nil, errNoDB
	}
	rows, err := t.db.QueryContext(ctx,
		"select capturedAt, results from scans where kind = ? order by capturedAt desc limit ?", kind, limit)
	if err != nil {
		return nil, err
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	//nolint:errcheck
	defer rows.Close()

	scans := []map[string]interface{}{}
	for rows.Next() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var capturedAt int64
		var blob string
		if err := rows.Scan(&capturedAt, &blob); err != nil {
			return nil, err
		}
		var results interface{}
		if err := json.Unmarshal([]byte(blob), &results); err != nil {
			return nil, err
		}
		scans = append(scans, map[string]interface{}{
			"captured_at": time.Unix(capturedAt, 0).UTC().Format(time.RFC3339),
			"results":     results,
		})
	}
	return scans, nil
}
