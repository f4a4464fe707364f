package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_Migrates(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	version, err := getUserVersion(db)
	if err != nil {
		t.Fatalf("getUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	db.Close()

	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	db.Close()
}

func TestRecordAndRecent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	base := time.Now().Unix()
	entries := []Entry{
		{KeyRaw: "1:2", KeySafe: "1-2", Mode: "metadata", Tool: "get_design_context",
			Path: "/s/1-2.json", Width: 390, Height: 844, Bytes: 52, Matcher: "longform", CreatedAt: base - 2},
		{KeyRaw: "3:4", KeySafe: "3-4", Mode: "code", Tool: "get_code",
			Path: "/s/3-4.txt", Bytes: 1024, CreatedAt: base - 1},
		{KeyRaw: "1:2", KeySafe: "1-2", Mode: "code", Tool: "get_code",
			Path: "/s/1-2.txt", Bytes: 2048, CreatedAt: base},
	}

	for _, e := range entries {
		id, err := Record(db, e)
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if len(id) != 26 {
			t.Errorf("id length = %d, want 26 (ULID)", len(id))
		}
	}

	recent, err := Recent(db, "", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d entries, want 3", len(recent))
	}
	if recent[0].KeyRaw != "1:2" || recent[0].Mode != "code" {
		t.Errorf("newest entry = %+v, want last recorded first", recent[0])
	}
	if recent[2].Matcher != "longform" || recent[2].Width != 390 {
		t.Errorf("oldest entry = %+v", recent[2])
	}
}

func TestRecent_KeyFilter(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	for _, e := range []Entry{
		{KeyRaw: "1:2", KeySafe: "1-2", Mode: "metadata", Path: "/s/1-2.json", Bytes: 10},
		{KeyRaw: "3:4", KeySafe: "3-4", Mode: "metadata", Path: "/s/3-4.json", Bytes: 10},
	} {
		if _, err := Record(db, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := Recent(db, "1-2", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 || got[0].KeySafe != "1-2" {
		t.Errorf("filtered = %+v, want only key 1-2", got)
	}
}

func TestRecent_LimitDefault(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := Record(db, Entry{KeyRaw: "k", KeySafe: "k", Mode: "code", Path: "/p", Bytes: 1}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := Recent(db, "", 0)
	if err != nil {
		t.Fatalf("Recent with zero limit failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d entries, want 1", len(got))
	}
}
