// Package nbtparse decodes the upstream item attribute payload: a base64
// string wrapping (usually gzipped) named-binary-tag data. The result is a
// loosely typed map tree; consumers must tolerate missing keys and type
// drift, so the package also carries tolerant accessors.
package nbtparse

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"reflect"
)

// Tree is a decoded NBT compound. Values are int64, float64, string,
// []byte, []int64, []any or nested Tree.
type Tree = map[string]any

// NBT tag type ids.
const (
	tagEnd byte = iota
	tagByte
	tagShort
	tagInt
	tagLong
	tagFloat
	tagDouble
	tagByteArray
	tagString
	tagList
	tagCompound
	tagIntArray
	tagLongArray
)

var errMalformed = errors.New("nbtparse: malformed tag data")

// maxDepth bounds recursion on hostile payloads.
const maxDepth = 64

// Decode turns the feed's base64 payload into the ExtraAttributes subtree.
// Any failure (bad base64, bad gzip, truncated tags, no ExtraAttributes
// node) yields an empty tree: a row with an unreadable payload still
// persists, it just carries no derived attributes.
func Decode(b64 string) Tree {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		// Some producers omit padding.
		raw, err = base64.RawStdEncoding.DecodeString(b64)
		if err != nil {
			return Tree{}
		}
	}

	payload := raw
	if gz, err := gzip.NewReader(bytes.NewReader(raw)); err == nil {
		if inflated, err := io.ReadAll(gz); err == nil {
			payload = inflated
		}
		gz.Close()
	}

	root, err := Parse(payload)
	if err != nil {
		return Tree{}
	}
	extra := ExtraAttributes(root)
	if extra == nil {
		return Tree{}
	}
	return extra
}

// Parse reads a full NBT document. The document is a single named root tag,
// conventionally a compound with an empty name.
func Parse(data []byte) (Tree, error) {
	r := &reader{buf: data}
	typ, err := r.byte()
	if err != nil {
		return nil, err
	}
	if typ != tagCompound {
		return nil, errMalformed
	}
	if _, err := r.string(); err != nil { // root name, ignored
		return nil, err
	}
	v, err := r.compound(0)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ExtraAttributes walks the tree depth-first and returns the first subtree
// stored under an "ExtraAttributes" child (directly or via the conventional
// "tag" wrapper). Returns nil when no such node exists.
func ExtraAttributes(root Tree) Tree {
	visited := map[uintptr]bool{}
	return findExtra(root, visited)
}

func findExtra(node any, visited map[uintptr]bool) Tree {
	switch v := node.(type) {
	case Tree:
		p := reflect.ValueOf(v).Pointer()
		if visited[p] {
			return nil
		}
		visited[p] = true

		if extra, ok := v["ExtraAttributes"].(Tree); ok {
			return extra
		}
		for _, child := range v {
			if found := findExtra(child, visited); found != nil {
				return found
			}
		}
	case []any:
		for _, child := range v {
			if found := findExtra(child, visited); found != nil {
				return found
			}
		}
	}
	return nil
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, errMalformed
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) int16() (int16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (r *reader) int32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *reader) int64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *reader) string() (string, error) {
	n, err := r.int16()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", errMalformed
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) compound(depth int) (Tree, error) {
	if depth > maxDepth {
		return nil, errMalformed
	}
	out := Tree{}
	for {
		typ, err := r.byte()
		if err != nil {
			return nil, err
		}
		if typ == tagEnd {
			return out, nil
		}
		name, err := r.string()
		if err != nil {
			return nil, err
		}
		v, err := r.payload(typ, depth+1)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
}

func (r *reader) payload(typ byte, depth int) (any, error) {
	if depth > maxDepth {
		return nil, errMalformed
	}
	switch typ {
	case tagByte:
		b, err := r.byte()
		return int64(int8(b)), err
	case tagShort:
		v, err := r.int16()
		return int64(v), err
	case tagInt:
		v, err := r.int32()
		return int64(v), err
	case tagLong:
		return r.int64()
	case tagFloat:
		v, err := r.int32()
		return float64(math.Float32frombits(uint32(v))), err
	case tagDouble:
		v, err := r.int64()
		return math.Float64frombits(uint64(v)), err
	case tagByteArray:
		n, err := r.int32()
		if err != nil {
			return nil, err
		}
		b, err := r.take(int(n))
		if err != nil {
			return nil, err
		}
		out := make([]byte, int(n))
		copy(out, b)
		return out, nil
	case tagString:
		return r.string()
	case tagList:
		elemType, err := r.byte()
		if err != nil {
			return nil, err
		}
		n, err := r.int32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			n = 0
		}
		out := make([]any, 0, int(n))
		for i := int32(0); i < n; i++ {
			v, err := r.payload(elemType, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case tagCompound:
		return r.compound(depth)
	case tagIntArray:
		n, err := r.int32()
		if err != nil {
			return nil, err
		}
		out := make([]int64, 0, int(n))
		for i := int32(0); i < n; i++ {
			v, err := r.int32()
			if err != nil {
				return nil, err
			}
			out = append(out, int64(v))
		}
		return out, nil
	case tagLongArray:
		n, err := r.int32()
		if err != nil {
			return nil, err
		}
		out := make([]int64, 0, int(n))
		for i := int32(0); i < n; i++ {
			v, err := r.int64()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, errMalformed
}
