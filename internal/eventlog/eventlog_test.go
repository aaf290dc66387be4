package eventlog

import (
	"fmt"
	"path/filepath"
	"testing"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestTranslationTables(t *testing.T) {
	cases := []struct {
		eventType string
		command   string
		wantKind  Kind
		wantSays  string
	}{
		{"ack", "make_heart", KindStarted, "사랑해"},
		{"progress", "make_hug", KindInProgress, "안아줄게"},
		{"result", "rock", KindCompleted, "바위"},
		{"error", "warm_up", KindError, "시작할게"},
		{"init_pose_done", "init_pose", KindUnknown, ""},
		{"bogus", "self_destruct", KindUnknown, unknownCommandUtterance},
	}
	for _, c := range cases {
		t.Run(c.eventType+"/"+c.command, func(t *testing.T) {
			e := NewEntry(c.eventType, "2026-01-01T00:00:00Z", c.command)
			if e.Kind != c.wantKind {
				t.Errorf("kind = %s, want %s", e.Kind, c.wantKind)
			}
			if e.Utterance != c.wantSays {
				t.Errorf("utterance = %q, want %q", e.Utterance, c.wantSays)
			}
		})
	}
}

func TestKindLabels(t *testing.T) {
	if KindStarted.Label() != "동작시작" {
		t.Errorf("started label = %q", KindStarted.Label())
	}
	if Kind("WEIRD").Label() != "알수없음" {
		t.Errorf("out-of-enum kind should use the unknown label")
	}
}

func TestAppendAndRead(t *testing.T) {
	l := openTestLog(t)

	if err := l.Append("ack", "T0", "make_heart"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append("result", "T1", "make_heart"); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries := l.Read()
	if len(entries) != 2 {
		t.Fatalf("read %d entries, want 2", len(entries))
	}
	if entries[0].Kind != KindStarted || entries[1].Kind != KindCompleted {
		t.Errorf("kinds = %s, %s; want STARTED, COMPLETED", entries[0].Kind, entries[1].Kind)
	}
	for _, e := range entries {
		if e.Utterance != "사랑해" {
			t.Errorf("utterance = %q, want 사랑해", e.Utterance)
		}
	}
	if entries[0].TS != "T0" || entries[1].TS != "T1" {
		t.Errorf("order not preserved: %s, %s", entries[0].TS, entries[1].TS)
	}
}

func TestTruncationKeepsNewest(t *testing.T) {
	l := openTestLog(t)

	for i := 0; i < 27; i++ {
		if err := l.Append("ack", fmt.Sprintf("T%02d", i), "rock"); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries := l.Read()
	if len(entries) != DefaultCapacity {
		t.Fatalf("read %d entries, want %d", len(entries), DefaultCapacity)
	}
	// Oldest dropped from the front: the survivors are T07..T26 in order.
	if entries[0].TS != "T07" {
		t.Errorf("oldest surviving entry = %s, want T07", entries[0].TS)
	}
	if entries[len(entries)-1].TS != "T26" {
		t.Errorf("newest entry = %s, want T26", entries[len(entries)-1].TS)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].TS <= entries[i-1].TS {
			t.Fatalf("order broken at %d: %s after %s", i, entries[i].TS, entries[i-1].TS)
		}
	}
}

func TestReadEmptyAndClear(t *testing.T) {
	l := openTestLog(t)

	if got := l.Read(); len(got) != 0 {
		t.Errorf("fresh log read %d entries, want 0", len(got))
	}

	if err := l.Append("ack", "T0", "paper"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := l.Read(); len(got) != 0 {
		t.Errorf("read %d entries after clear, want 0", len(got))
	}
}

func TestCorruptStorageReadsEmpty(t *testing.T) {
	l := openTestLog(t)

	if _, err := l.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)`, logKey, "{not json",
	); err != nil {
		t.Fatalf("plant corrupt value: %v", err)
	}

	if got := l.Read(); got != nil {
		t.Errorf("corrupt storage should read as empty, got %v", got)
	}

	// Appending over corrupt storage starts a fresh list.
	if err := l.Append("ack", "T0", "scissors"); err != nil {
		t.Fatalf("append over corrupt storage: %v", err)
	}
	if got := l.Read(); len(got) != 1 {
		t.Errorf("read %d entries, want 1", len(got))
	}
}
