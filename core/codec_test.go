package core

import (
	"strings"
	"testing"
)

func TestCanonicalJSONSortsKeysRegardlessOfInputOrder(t *testing.T) {
	a, err := CanonicalJSON(map[string]any{"z": 1, "a": 2}, CanonicalJSONOptions{})
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	b, err := CanonicalJSON(map[string]any{"a": 2, "z": 1}, CanonicalJSONOptions{})
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected key-order-independent output, got %q vs %q", a, b)
	}
	if !strings.HasPrefix(string(a), `{"a":2,"z":1}`) {
		t.Fatalf("expected sorted keys, got %q", a)
	}
}

func TestCanonicalJSONOmitEmptyDropsZeroValues(t *testing.T) {
	out, err := CanonicalJSON(map[string]any{"keep": "x", "drop": ""}, CanonicalJSONOptions{OmitEmpty: true})
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	if strings.Contains(string(out), "drop") {
		t.Fatalf("expected empty string leaf to be omitted, got %q", out)
	}
}

func TestCanonicalJSONNormalizeStrings(t *testing.T) {
	out, err := CanonicalJSON(map[string]any{"k": "  MixedCase  "}, CanonicalJSONOptions{NormalizeStrings: true})
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	if !strings.Contains(string(out), `"mixedcase"`) {
		t.Fatalf("expected trimmed+lowercased string, got %q", out)
	}
}

func TestContentHashStringFormat(t *testing.T) {
	h := HashBytes([]byte("hello"))
	s := h.String()
	if !strings.HasPrefix(s, "blake3:") {
		t.Fatalf("expected blake3: prefix, got %q", s)
	}
	if len(s) != len("blake3:")+64 {
		t.Fatalf("expected 64 hex chars after prefix, got %q (len %d)", s, len(s))
	}
}

func TestHashBytesDeterministic(t *testing.T) {
	if HashBytes([]byte("a")) != HashBytes([]byte("a")) {
		t.Fatal("expected identical input to hash identically")
	}
	if HashBytes([]byte("a")) == HashBytes([]byte("b")) {
		t.Fatal("expected different input to hash differently")
	}
}

func TestBinaryWriterReaderRoundTrip(t *testing.T) {
	w := NewBinaryWriter()
	w.WriteUint64(1234567890123)
	w.WriteUint32(42)
	w.WriteByte(7)
	w.WriteBytes([]byte{1, 2, 3})
	w.WriteString("hello")
	w.WriteSortedMap(map[string]string{"b": "2", "a": "1"})

	r := NewBinaryReader(w.Bytes())
	u64, err := r.ReadUint64()
	if err != nil || u64 != 1234567890123 {
		t.Fatalf("ReadUint64: %v, got %d", err, u64)
	}
	u32, err := r.ReadUint32()
	if err != nil || u32 != 42 {
		t.Fatalf("ReadUint32: %v, got %d", err, u32)
	}
	b, err := r.ReadByte()
	if err != nil || b != 7 {
		t.Fatalf("ReadByte: %v, got %d", err, b)
	}
	raw, err := r.ReadBytes()
	if err != nil || string(raw) != "\x01\x02\x03" {
		t.Fatalf("ReadBytes: %v, got %v", err, raw)
	}
	s, err := r.ReadString()
	if err != nil || s != "hello" {
		t.Fatalf("ReadString: %v, got %q", err, s)
	}
	m, err := r.ReadSortedMap()
	if err != nil || m["a"] != "1" || m["b"] != "2" {
		t.Fatalf("ReadSortedMap: %v, got %v", err, m)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected buffer fully consumed, got %d bytes remaining", r.Remaining())
	}
}

func TestBinaryReaderTruncatedBufferErrors(t *testing.T) {
	r := NewBinaryReader([]byte{1, 2, 3})
	if _, err := r.ReadUint64(); err == nil {
		t.Fatal("expected truncated uint64 read to error")
	}
}

func TestBinaryReaderTruncatedBytesErrors(t *testing.T) {
	w := NewBinaryWriter()
	w.WriteUint32(100) // claims 100 bytes follow, but none do
	r := NewBinaryReader(w.Bytes())
	if _, err := r.ReadBytes(); err == nil {
		t.Fatal("expected truncated length-prefixed read to error")
	}
}
