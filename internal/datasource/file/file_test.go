package file

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func readAll(t *testing.T, s *Source) string {
	t.Helper()
	rc, err := s.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() err=%v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return string(data)
}

func TestOpen_PlainUTF8PassesThrough(t *testing.T) {
	path := writeTemp(t, "plain.jsonl", []byte(`{"a":1}`+"\n"))
	if got := readAll(t, New(path)); got != `{"a":1}`+"\n" {
		t.Fatalf("got %q", got)
	}
}

func TestOpen_StripsUTF8BOM(t *testing.T) {
	path := writeTemp(t, "bom.jsonl", append([]byte{0xEF, 0xBB, 0xBF}, `{"a":1}`...))
	if got := readAll(t, New(path)); got != `{"a":1}` {
		t.Fatalf("BOM not stripped: %q", got)
	}
}

func TestOpen_TranscodesUTF16LE(t *testing.T) {
	text := `{"name":"müller"}`
	units := utf16.Encode([]rune(text))
	buf := []byte{0xFF, 0xFE} // LE BOM
	for _, u := range units {
		buf = binary.LittleEndian.AppendUint16(buf, u)
	}
	path := writeTemp(t, "utf16.jsonl", buf)
	if got := readAll(t, New(path)); got != text {
		t.Fatalf("got %q, want %q", got, text)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.jsonl")).Open(context.Background())
	if err == nil {
		t.Fatalf("Open() err=nil, want failure")
	}
}

func TestOpen_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New("irrelevant").Open(ctx); err == nil {
		t.Fatalf("Open() err=nil, want context error")
	}
}

func TestName(t *testing.T) {
	if got := New("/tmp/data/users.jsonl").Name(); got != "users.jsonl" {
		t.Fatalf("Name()=%q", got)
	}
}
