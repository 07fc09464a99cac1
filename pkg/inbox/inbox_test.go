package inbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendThenDrainOnce(t *testing.T) {
	s := &Store{}
	path := filepath.Join(t.TempDir(), "inbox.alice.jsonl")

	if err := s.Append(path, NewMessage(TypeMessage, "lead@core", "alice@core", "ping")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	msgs, err := s.Drain(path)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "ping" || msgs[0].Type != TypeMessage {
		t.Fatalf("msgs = %+v, want one ping", msgs)
	}

	// Drained messages are gone.
	msgs, err = s.Drain(path)
	if err != nil {
		t.Fatalf("second Drain: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("second drain = %+v, want empty", msgs)
	}
}

func TestDrainPreservesAppendOrder(t *testing.T) {
	s := &Store{}
	path := filepath.Join(t.TempDir(), "inbox.bob.jsonl")

	for _, c := range []string{"first", "second", "third"} {
		if err := s.Append(path, NewMessage(TypeMessage, "lead@core", "bob@core", c)); err != nil {
			t.Fatalf("Append(%s): %v", c, err)
		}
	}

	msgs, err := s.Drain(path)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	var got []string
	for _, m := range msgs {
		got = append(got, m.Content)
	}
	if strings.Join(got, ",") != "first,second,third" {
		t.Errorf("order = %v", got)
	}
}

func TestDrainReturnsEmptyWhileLockHeld(t *testing.T) {
	s := &Store{}
	path := filepath.Join(t.TempDir(), "inbox.carol.jsonl")
	if err := s.Append(path, NewMessage(TypeMessage, "lead@core", "carol@core", "waiting")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Hold the lock externally, the way a concurrent drainer would.
	lockPath := path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("acquire external lock: %v", err)
	}
	f.Close()

	msgs, err := s.Drain(path)
	if err != nil {
		t.Fatalf("Drain under contention: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("drain while locked = %+v, want empty", msgs)
	}

	os.Remove(lockPath)

	msgs, err = s.Drain(path)
	if err != nil {
		t.Fatalf("Drain after release: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "waiting" {
		t.Errorf("msgs after release = %+v, want the held-back message", msgs)
	}
}

func TestDrainMissingFileIsEmpty(t *testing.T) {
	s := &Store{}
	msgs, err := s.Drain(filepath.Join(t.TempDir(), "inbox.nobody.jsonl"))
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if msgs != nil {
		t.Errorf("msgs = %+v, want nil", msgs)
	}
}

func TestDrainSkipsCorruptTrailingLine(t *testing.T) {
	var logged []string
	s := &Store{Logf: func(format string, args ...any) {
		logged = append(logged, format)
	}}
	path := filepath.Join(t.TempDir(), "inbox.dave.jsonl")

	if err := s.Append(path, NewMessage(TypeMessage, "lead@core", "dave@core", "intact")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// Simulate a crash mid-append: a partial line with no newline.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.WriteString(`{"type":"mess`)
	f.Close()

	msgs, err := s.Drain(path)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "intact" {
		t.Errorf("msgs = %+v, want only the intact message", msgs)
	}
	if len(logged) != 1 {
		t.Errorf("corrupt line not reported, logged = %v", logged)
	}
}

func TestAppendCreatesParentDirectory(t *testing.T) {
	s := &Store{}
	path := filepath.Join(t.TempDir(), "teams", "core", "inbox.eve.jsonl")

	if err := s.Append(path, NewMessage(TypeBroadcast, "lead@core", "eve@core", "fanout")); err != nil {
		t.Fatalf("Append into missing directory: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("inbox file not created: %v", err)
	}
}

func TestAppendReleasesLock(t *testing.T) {
	s := &Store{}
	path := filepath.Join(t.TempDir(), "inbox.frank.jsonl")

	if err := s.Append(path, NewMessage(TypeMessage, "a@t", "frank@t", "x")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file left behind after Append")
	}
}

func TestValidType(t *testing.T) {
	for _, typ := range []string{TypeMessage, TypeBroadcast, TypeShutdownRequest, TypeShutdownResponse, TypePlanApproval} {
		if !ValidType(typ) {
			t.Errorf("ValidType(%q) = false", typ)
		}
	}
	if ValidType("gossip") {
		t.Error("ValidType(gossip) = true")
	}
}
