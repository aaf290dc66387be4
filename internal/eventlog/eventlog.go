// Package eventlog keeps a small, durable history of robot command events,
// translated from machine codes into the phrases the robot speaks. The log
// is advisory: it feeds the operator timeline, nothing else depends on it.
//
// Storage is a single key in a SQLite key/value table holding the JSON
// array of entries, capped at the newest Capacity entries. Append is a
// read-modify-write inside one transaction, so concurrent writers serialize
// on the database's write lock instead of losing updates.
package eventlog

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// DefaultCapacity is how many entries the log retains.
const DefaultCapacity = 20

// logKey is the fixed storage key the entry list lives under.
const logKey = "LOG"

// Kind classifies an event by where it sits in a command's lifecycle.
type Kind string

const (
	KindStarted    Kind = "STARTED"
	KindInProgress Kind = "IN_PROGRESS"
	KindCompleted  Kind = "COMPLETED"
	KindError      Kind = "ERROR"
	KindUnknown    Kind = "UNKNOWN"
)

// kindByType maps the wire-level event type to a lifecycle kind. Closed
// table; anything else is KindUnknown.
var kindByType = map[string]Kind{
	"ack":      KindStarted,
	"progress": KindInProgress,
	"result":   KindCompleted,
	"error":    KindError,
}

// kindLabels are the operator-facing Korean labels for each kind.
var kindLabels = map[Kind]string{
	KindStarted:    "동작시작",
	KindInProgress: "동작중",
	KindCompleted:  "동작완료",
	KindError:      "에러",
	KindUnknown:    "알수없음",
}

// Label returns the display label for a kind.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return kindLabels[KindUnknown]
}

// KindForType translates a wire event type into a Kind.
func KindForType(eventType string) Kind {
	if k, ok := kindByType[eventType]; ok {
		return k
	}
	return KindUnknown
}

// utteranceByCommand maps robot command codes to the phrase spoken while
// executing them.
var utteranceByCommand = map[string]string{
	"init_pose":    "",
	"set_joint":    "로봇 팔 동작 세팅중",
	"make_heart":   "사랑해",
	"make_hug":     "안아줄게",
	"make_hi":      "안녕?",
	"warm_up":      "시작할게",
	"rock":         "바위",
	"scissors":     "가위",
	"paper":        "보",
	"good_morning": "좋은아침~",
	"good_night":   "잘자~",
	"ate_all":      "이 닦을 시간이야~",
	"hungry":       "배고프다 밥먹을 시간이야!",
}

// unknownCommandUtterance is the literal fallback for commands outside the
// table. Never an error: new firmware commands must still show up.
const unknownCommandUtterance = "모르는 명령이야..."

// UtteranceForCommand translates a command code into its spoken phrase.
func UtteranceForCommand(command string) string {
	if u, ok := utteranceByCommand[command]; ok {
		return u
	}
	return unknownCommandUtterance
}

// Entry is one translated log record.
type Entry struct {
	Kind      Kind   `json:"kind"`
	TS        string `json:"ts"`
	Command   string `json:"command"`
	Utterance string `json:"utterance"`
}

// NewEntry translates a raw (type, ts, command) triple into an Entry.
func NewEntry(eventType, ts, command string) Entry {
	return Entry{
		Kind:      KindForType(eventType),
		TS:        ts,
		Command:   command,
		Utterance: UtteranceForCommand(command),
	}
}

// Log is the bounded durable event log.
type Log struct {
	db       *sql.DB
	Capacity int
}

// Open opens (creating if needed) the log database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init event log schema: %w", err)
	}
	return &Log{db: db, Capacity: DefaultCapacity}, nil
}

// Close releases the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Append translates and stores one event, dropping the oldest entries once
// the log exceeds its capacity.
func (l *Log) Append(eventType, ts, command string) error {
	entry := NewEntry(eventType, ts, command)

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	defer tx.Rollback()

	entries := readEntries(tx)
	entries = append(entries, entry)
	if n := len(entries); n > l.Capacity {
		entries = entries[n-l.Capacity:]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		logKey, string(raw),
	); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return tx.Commit()
}

// Read returns every stored entry, oldest first. Absent or corrupt storage
// reads as an empty log, never an error.
func (l *Log) Read() []Entry {
	return readEntries(l.db)
}

// Clear removes the stored list entirely.
func (l *Log) Clear() error {
	_, err := l.db.Exec(`DELETE FROM kv WHERE key = ?`, logKey)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func readEntries(q querier) []Entry {
	var raw string
	if err := q.QueryRow(`SELECT value FROM kv WHERE key = ?`, logKey).Scan(&raw); err != nil {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}
