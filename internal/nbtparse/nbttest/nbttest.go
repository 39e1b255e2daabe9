// Package nbttest builds NBT fixtures for tests: a minimal big-endian tag
// writer plus the gzip+base64 envelope the feed uses for item payloads.
package nbttest

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Item wraps attrs the way upstream item payloads do: an anonymous root
// compound holding an "i" list with a single item whose "tag" carries
// ExtraAttributes.
func Item(extra map[string]any) map[string]any {
	return map[string]any{
		"i": []any{
			map[string]any{
				"id":    int32(1),
				"Count": int8(1),
				"tag": map[string]any{
					"ExtraAttributes": extra,
				},
			},
		},
	}
}

// Payload encodes root and wraps it gzip+base64, matching item_bytes.
func Payload(root map[string]any) string {
	raw := Encode(root)
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		panic(err)
	}
	if err := gz.Close(); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// PayloadRaw encodes root and base64s it without gzip, for exercising the
// plain-bytes fallback.
func PayloadRaw(root map[string]any) string {
	return base64.StdEncoding.EncodeToString(Encode(root))
}

// Encode serializes root as a named (empty-name) compound document.
func Encode(root map[string]any) []byte {
	var buf bytes.Buffer
	buf.WriteByte(10) // TAG_Compound
	writeString(&buf, "")
	writeCompound(&buf, root)
	return buf.Bytes()
}

func writeCompound(buf *bytes.Buffer, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		buf.WriteByte(tagOf(v))
		writeString(buf, k)
		writePayload(buf, v)
	}
	buf.WriteByte(0) // TAG_End
}

func tagOf(v any) byte {
	switch v.(type) {
	case int8:
		return 1
	case int16:
		return 2
	case int32, int:
		return 3
	case int64:
		return 4
	case float32:
		return 5
	case float64:
		return 6
	case string:
		return 8
	case []any, []string:
		return 9
	case map[string]any:
		return 10
	}
	panic(fmt.Sprintf("nbttest: unsupported fixture type %T", v))
}

func writePayload(buf *bytes.Buffer, v any) {
	switch x := v.(type) {
	case int8:
		buf.WriteByte(byte(x))
	case int16:
		binary.Write(buf, binary.BigEndian, x)
	case int:
		binary.Write(buf, binary.BigEndian, int32(x))
	case int32:
		binary.Write(buf, binary.BigEndian, x)
	case int64:
		binary.Write(buf, binary.BigEndian, x)
	case float32:
		binary.Write(buf, binary.BigEndian, math.Float32bits(x))
	case float64:
		binary.Write(buf, binary.BigEndian, math.Float64bits(x))
	case string:
		writeString(buf, x)
	case []string:
		elems := make([]any, len(x))
		for i, s := range x {
			elems[i] = s
		}
		writeList(buf, elems)
	case []any:
		writeList(buf, x)
	case map[string]any:
		writeCompound(buf, x)
	default:
		panic(fmt.Sprintf("nbttest: unsupported fixture type %T", v))
	}
}

func writeList(buf *bytes.Buffer, elems []any) {
	elemTag := byte(0)
	if len(elems) > 0 {
		elemTag = tagOf(elems[0])
	}
	buf.WriteByte(elemTag)
	binary.Write(buf, binary.BigEndian, int32(len(elems)))
	for _, e := range elems {
		writePayload(buf, e)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, int16(len(s)))
	buf.WriteString(s)
}
