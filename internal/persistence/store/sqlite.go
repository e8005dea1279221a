// Package store is the relay's durable gateway: users, rooms and the
// append-only transaction ledger live in a single sqlite database with one
// writer goroutine. Ownership- and identity-affecting writes are barriers:
// the caller blocks until the row is on disk and sees any error.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

type UserRecord struct {
	UserID      string
	Pubkey      string
	DisplayName string
	MapID       string
	X           int
	Y           int
	LastSeen    int64
}

type RoomRecord struct {
	RoomID      string
	OwnerPubkey string
	Price       string
	ForSale     bool
	AccessMode  string
	AccessList  []string
	DisplayName string
	DoorColor   string
}

type TxRecord struct {
	TxID          string
	FromPubkey    string
	ToPubkey      string
	Amount        string
	Fee           string
	Status        string
	Confirmations uint32
	TS            int64
}

type reqKind int

const (
	reqSaveUser reqKind = iota + 1
	reqSaveRoom
	reqAppendTx
	reqUpdateTx
)

type req struct {
	kind reqKind
	user UserRecord
	room RoomRecord
	tx   TxRecord
	done chan error // nil for best-effort writes
}

type Store struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

var ErrClosed = errors.New("store closed")

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-heavy transaction ledger.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id      TEXT PRIMARY KEY,
			pubkey       TEXT NOT NULL UNIQUE,
			display_name TEXT UNIQUE,
			map_id       TEXT NOT NULL,
			x            INTEGER NOT NULL,
			y            INTEGER NOT NULL,
			last_seen    INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS rooms (
			room_id      TEXT PRIMARY KEY,
			owner_pubkey TEXT,
			price        TEXT NOT NULL,
			for_sale     INTEGER NOT NULL,
			access_mode  TEXT NOT NULL,
			access_list  TEXT NOT NULL DEFAULT '[]',
			display_name TEXT,
			door_color   TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			tx_id         TEXT PRIMARY KEY,
			from_pubkey   TEXT NOT NULL,
			to_pubkey     TEXT NOT NULL,
			amount        TEXT NOT NULL,
			fee           TEXT NOT NULL,
			status        TEXT NOT NULL,
			confirmations INTEGER NOT NULL DEFAULT 0,
			ts            INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tx_status ON transactions(status);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

func (s *Store) loop() {
	for r := range s.ch {
		err := s.apply(r)
		if r.done != nil {
			r.done <- err
		}
	}
}

func (s *Store) apply(r req) error {
	switch r.kind {
	case reqSaveUser:
		return s.writeUser(r.user)
	case reqSaveRoom:
		return s.writeRoom(r.room)
	case reqAppendTx:
		return s.writeTx(r.tx, true)
	case reqUpdateTx:
		return s.writeTx(r.tx, false)
	}
	return fmt.Errorf("unknown request kind %d", r.kind)
}

func (s *Store) submit(r req) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if r.done != nil {
		s.ch <- r
		return <-r.done
	}
	select {
	case s.ch <- r:
	default:
		// Best-effort queue full: drop rather than stall the world loop.
	}
	return nil
}

// SaveUser durably writes the user row before returning.
func (s *Store) SaveUser(u UserRecord) error {
	return s.submit(req{kind: reqSaveUser, user: u, done: make(chan error, 1)})
}

// QueueSaveUser is best-effort, for position churn.
func (s *Store) QueueSaveUser(u UserRecord) {
	_ = s.submit(req{kind: reqSaveUser, user: u})
}

func (s *Store) SaveRoom(r RoomRecord) error {
	return s.submit(req{kind: reqSaveRoom, room: r, done: make(chan error, 1)})
}

func (s *Store) QueueSaveRoom(r RoomRecord) {
	_ = s.submit(req{kind: reqSaveRoom, room: r})
}

// AppendTransaction records a new ledger entry durably.
func (s *Store) AppendTransaction(t TxRecord) error {
	return s.submit(req{kind: reqAppendTx, tx: t, done: make(chan error, 1)})
}

// QueueUpdateTransaction refreshes status/confirmations best-effort.
func (s *Store) QueueUpdateTransaction(t TxRecord) {
	_ = s.submit(req{kind: reqUpdateTx, tx: t})
}

func (s *Store) writeUser(u UserRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO users (user_id, pubkey, display_name, map_id, x, y, last_seen)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			map_id = excluded.map_id,
			x = excluded.x,
			y = excluded.y,
			last_seen = excluded.last_seen`,
		u.UserID, u.Pubkey, u.DisplayName, u.MapID, u.X, u.Y, u.LastSeen)
	return err
}

func (s *Store) writeRoom(r RoomRecord) error {
	list, err := json.Marshal(r.AccessList)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO rooms (room_id, owner_pubkey, price, for_sale, access_mode, access_list, display_name, door_color)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))
		ON CONFLICT(room_id) DO UPDATE SET
			owner_pubkey = excluded.owner_pubkey,
			price = excluded.price,
			for_sale = excluded.for_sale,
			access_mode = excluded.access_mode,
			access_list = excluded.access_list,
			display_name = excluded.display_name,
			door_color = excluded.door_color`,
		r.RoomID, r.OwnerPubkey, r.Price, boolInt(r.ForSale), r.AccessMode, string(list), r.DisplayName, r.DoorColor)
	return err
}

func (s *Store) writeTx(t TxRecord, insert bool) error {
	if insert {
		_, err := s.db.Exec(`
			INSERT INTO transactions (tx_id, from_pubkey, to_pubkey, amount, fee, status, confirmations, ts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.TxID, t.FromPubkey, t.ToPubkey, t.Amount, t.Fee, t.Status, t.Confirmations, t.TS)
		return err
	}
	// Terminal rows are immutable.
	_, err := s.db.Exec(`
		UPDATE transactions SET status = ?, confirmations = ?
		WHERE tx_id = ? AND status = 'pending'`,
		t.Status, t.Confirmations, t.TxID)
	return err
}

func (s *Store) LoadUsers() ([]UserRecord, error) {
	rows, err := s.db.Query(`
		SELECT user_id, pubkey, COALESCE(display_name, ''), map_id, x, y, last_seen
		FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var u UserRecord
		if err := rows.Scan(&u.UserID, &u.Pubkey, &u.DisplayName, &u.MapID, &u.X, &u.Y, &u.LastSeen); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) LoadRooms() ([]RoomRecord, error) {
	rows, err := s.db.Query(`
		SELECT room_id, COALESCE(owner_pubkey, ''), price, for_sale, access_mode,
		       access_list, COALESCE(display_name, ''), COALESCE(door_color, '')
		FROM rooms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []RoomRecord
	for rows.Next() {
		var r RoomRecord
		var forSale int
		var list string
		if err := rows.Scan(&r.RoomID, &r.OwnerPubkey, &r.Price, &forSale, &r.AccessMode, &list, &r.DisplayName, &r.DoorColor); err != nil {
			return nil, err
		}
		r.ForSale = forSale != 0
		if err := json.Unmarshal([]byte(list), &r.AccessList); err != nil {
			return nil, fmt.Errorf("room %s access list: %w", r.RoomID, err)
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// Close drains pending writes and closes the database.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
