package core

// Every content-addressed payload in this runtime (registers, archive
// references, fact records, witnesses) is hashed over one of two canonical
// encodings: a recursively key-sorted JSON form, or a length-prefixed binary
// form. Both are deterministic so that ContentHash is stable across restarts
// and across nodes.

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"lukechampine.com/blake3"
)

// ContentHash is a 32-byte BLAKE3 digest over a canonical encoding.
type ContentHash [32]byte

// String renders the hash as "blake3:<hex>", the textual form used in logs
// and CLI output.
func (h ContentHash) String() string {
	return fmt.Sprintf("blake3:%x", h[:])
}

// HashBytes returns the BLAKE3 content hash of raw canonical bytes.
func HashBytes(b []byte) ContentHash {
	return ContentHash(blake3.Sum256(b))
}

// CanonicalJSONOptions controls the optional normalizations described in §6.
type CanonicalJSONOptions struct {
	NormalizeStrings bool // trim + lowercase string leaves
	OmitEmpty        bool // drop null/zero/empty leaves from objects
}

// CanonicalJSON recursively sorts object keys, preserves array order, and
// optionally normalizes strings / strips empty values. The result is stable
// byte-for-byte for semantically identical inputs regardless of map
// iteration order.
func CanonicalJSON(v any, opts CanonicalJSONOptions) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicaljson: marshal: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("canonicaljson: unmarshal: %w", err)
	}
	normalized := canonicalize(generic, opts)
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, normalized); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func canonicalize(v any, opts CanonicalJSONOptions) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			cv := canonicalize(val, opts)
			if opts.OmitEmpty && isEmptyValue(cv) {
				continue
			}
			out[k] = cv
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = canonicalize(val, opts)
		}
		return out
	case string:
		if opts.NormalizeStrings {
			return strings.ToLower(strings.TrimSpace(t))
		}
		return t
	default:
		return v
	}
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case float64:
		return t == 0
	case bool:
		return false
	default:
		return false
	}
}

// encodeCanonical writes v with object keys sorted lexicographically.
func encodeCanonical(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeCanonical(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

// --- Canonical binary encoding -------------------------------------------
//
// A minimal deterministic, width-fixed, length-prefixed binary writer/reader.
// Primitives are little-endian; variable-length byte strings and arrays
// carry a uint32 length prefix; map keys are sorted before encoding.

type BinaryWriter struct{ buf bytes.Buffer }

func NewBinaryWriter() *BinaryWriter { return &BinaryWriter{} }

func (w *BinaryWriter) Bytes() []byte { return w.buf.Bytes() }

func (w *BinaryWriter) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w *BinaryWriter) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w *BinaryWriter) WriteByte(b byte) { w.buf.WriteByte(b) }

// WriteBytes writes a uint32 length prefix followed by the raw bytes.
func (w *BinaryWriter) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *BinaryWriter) WriteString(s string) { w.WriteBytes([]byte(s)) }

// WriteSortedMap writes a string-keyed map deterministically: key count,
// then (key, value) pairs in sorted key order, each written as a string.
func (w *BinaryWriter) WriteSortedMap(m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.WriteUint32(uint32(len(keys)))
	for _, k := range keys {
		w.WriteString(k)
		w.WriteString(m[k])
	}
}

type BinaryReader struct {
	buf []byte
	pos int
}

func NewBinaryReader(b []byte) *BinaryReader { return &BinaryReader{buf: b} }

func (r *BinaryReader) ReadUint64() (uint64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, fmt.Errorf("%w: truncated uint64", ErrSerializationError)
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *BinaryReader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("%w: truncated uint32", ErrSerializationError)
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *BinaryReader) ReadByte() (byte, error) {
	if r.pos+1 > len(r.buf) {
		return 0, fmt.Errorf("%w: truncated byte", ErrSerializationError)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *BinaryReader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, fmt.Errorf("%w: truncated bytes", ErrSerializationError)
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

func (r *BinaryReader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *BinaryReader) ReadSortedMap() (map[string]string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, n)
	for i := uint32(0); i < n; i++ {
		k, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// Remaining reports whether unread bytes are left in the buffer.
func (r *BinaryReader) Remaining() int { return len(r.buf) - r.pos }
