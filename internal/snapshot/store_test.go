package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"figsnap/internal/errors"
	"figsnap/internal/extract"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"node reference", "123:456", "123-456"},
		{"already safe", "123-456", "123-456"},
		{"nested node reference", "1:2;3:4", "1-2-3-4"},
		{"path separators", "a/b\\c", "a-b-c"},
		{"traversal sequence", "../../etc/passwd", "etc-passwd"},
		{"spaces", "hero frame", "hero-frame"},
		{"dots and underscores kept", "v1.2_final", "v1.2_final"},
		{"only junk", ":::", "unnamed"},
		{"empty", "", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeKey(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeKey_Idempotent(t *testing.T) {
	inputs := []string{"123:456", "a b:c/d", "..weird..", "plain", ":::", "I-42:007"}
	for _, in := range inputs {
		once := SanitizeKey(in)
		twice := SanitizeKey(once)
		if once != twice {
			t.Errorf("SanitizeKey not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestSanitizeKey_DistinctKeysStayDistinct(t *testing.T) {
	// Realistic identifier formats from the caller must not collide.
	keys := []string{"1:2", "1:3", "10:2", "2:1", "1:23", "12:3"}
	seen := make(map[string]string)
	for _, k := range keys {
		s := SanitizeKey(k)
		if prev, ok := seen[s]; ok {
			t.Errorf("keys %q and %q both sanitize to %q", prev, k, s)
		}
		seen[s] = k
	}
}

func TestSynthesizeKey(t *testing.T) {
	a, err := SynthesizeKey()
	if err != nil {
		t.Fatalf("SynthesizeKey failed: %v", err)
	}
	if len(a) != 26 {
		t.Errorf("key length = %d, want 26 (ULID)", len(a))
	}
	b, err := SynthesizeKey()
	if err != nil {
		t.Fatalf("SynthesizeKey failed: %v", err)
	}
	if a == b {
		t.Error("two synthesized keys should differ")
	}
	if SanitizeKey(a) != a {
		t.Errorf("synthesized key %q should already be sanitized", a)
	}
}

func TestWriteMetadata_RoundTrip(t *testing.T) {
	store := New(t.TempDir())

	path, err := store.WriteMetadata("123:456", extract.Dimensions{Width: 390, Height: 844})
	if err != nil {
		t.Fatalf("WriteMetadata failed: %v", err)
	}
	if filepath.Base(path) != "123-456.json" {
		t.Errorf("path = %q, want sanitized key + .json", path)
	}

	record, err := store.ReadMetadata("123:456")
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if record.Key != "123:456" {
		t.Errorf("Key = %q, want raw key preserved in record", record.Key)
	}
	if record.Width != 390 || record.Height != 844 {
		t.Errorf("dims = %dx%d, want 390x844", record.Width, record.Height)
	}
}

func TestWriteMetadata_Overwrite(t *testing.T) {
	store := New(t.TempDir())

	if _, err := store.WriteMetadata("k", extract.Dimensions{Width: 1, Height: 2}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := store.WriteMetadata("k", extract.Dimensions{Width: 390, Height: 844}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	record, err := store.ReadMetadata("k")
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if record.Width != 390 || record.Height != 844 {
		t.Errorf("dims = %dx%d, want last write to win", record.Width, record.Height)
	}
}

func TestWriteCode_ByteExact(t *testing.T) {
	store := New(t.TempDir())

	// Whitespace, ordering, and the absence of a trailing newline must
	// all survive the round trip.
	text := "<div>\n\t  <span>a</span>\r\n</div>  "
	path, err := store.WriteCode("7:9", text)
	if err != nil {
		t.Fatalf("WriteCode failed: %v", err)
	}
	if filepath.Base(path) != "7-9.txt" {
		t.Errorf("path = %q, want sanitized key + .txt", path)
	}

	got, err := store.Read("7:9", KindCode)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != text {
		t.Errorf("content = %q, want byte-exact %q", got, text)
	}
}

func TestRead_NotFound(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.Read("missing", KindMetadata)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestWrite_DistinctKeysConcurrently(t *testing.T) {
	store := New(t.TempDir())

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("%d:%d", i, i)
			_, errs[i] = store.WriteMetadata(key, extract.Dimensions{Width: 100 + i, Height: 200 + i})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("writer %d failed: %v", i, err)
		}
	}

	// Each key has exactly one correct, uncorrupted snapshot.
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("%d:%d", i, i)
		record, err := store.ReadMetadata(key)
		if err != nil {
			t.Fatalf("ReadMetadata(%q) failed: %v", key, err)
		}
		if record.Width != 100+i || record.Height != 200+i {
			t.Errorf("key %q: dims = %dx%d, want %dx%d",
				key, record.Width, record.Height, 100+i, 200+i)
		}
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != n {
		t.Errorf("List returned %d entries, want %d", len(entries), n)
	}
}

func TestWrite_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	if _, err := store.WriteCode("k", "content"); err != nil {
		t.Fatalf("WriteCode failed: %v", err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", f.Name())
		}
	}
}

func TestWrite_PersistenceFailure(t *testing.T) {
	// A file standing where the directory should be makes MkdirAll fail.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	store := New(blocked)
	_, err := store.WriteCode("k", "content")
	if !errors.Is(err, errors.ErrPersistence) {
		t.Errorf("err = %v, want PERSISTENCE", err)
	}
}

func TestList_Empty(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-created"))
	entries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
}

func TestList_KindsAndOrder(t *testing.T) {
	store := New(t.TempDir())

	if _, err := store.WriteCode("b:2", "code"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.WriteMetadata("a:1", extract.Dimensions{Width: 1, Height: 1}); err != nil {
		t.Fatal(err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Key != "a-1" || entries[0].Kind != KindMetadata {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Key != "b-2" || entries[1].Kind != KindCode {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestDelete(t *testing.T) {
	store := New(t.TempDir())

	if _, err := store.WriteCode("k", "content"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("k", KindCode); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete("k", KindCode); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete err = %v, want NOT_FOUND", err)
	}
}

func TestPurge(t *testing.T) {
	store := New(t.TempDir())

	for i := 0; i < 3; i++ {
		if _, err := store.WriteCode(fmt.Sprintf("k%d", i), "x"); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.Purge()
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	entries, _ := store.List()
	if len(entries) != 0 {
		t.Errorf("entries after purge = %v", entries)
	}
}

func TestMetadata_SerializedShape(t *testing.T) {
	store := New(t.TempDir())

	path, err := store.WriteMetadata("123:456", extract.Dimensions{Width: 390, Height: 844})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if decoded["key"] != "123:456" || decoded["width"] != float64(390) || decoded["height"] != float64(844) {
		t.Errorf("decoded = %v", decoded)
	}
}
