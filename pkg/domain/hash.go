package domain

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hashing uses 64-bit xxhash everywhere. A configuration is hashed over its
// canonical encoding: fragments in sorted kind order, fields in sorted name
// order, each value tagged with its type and length-prefixed. Unordered lists
// are sorted before encoding. The result is stable across runs, processes and
// machines.

const (
	tagBool   = 'b'
	tagString = 's'
	tagList   = 'l'
)

// HashString hashes the raw bytes of s, e.g. the canonical form of a label.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// FormatHash renders a hash as uppercase hexadecimal. Zero renders as "0".
func FormatHash(h uint64) string {
	return strings.ToUpper(strconv.FormatUint(h, 16))
}

func hashFragments(fragments map[FragmentKind]Fragment) uint64 {
	d := xxhash.New()
	var buf []byte
	for _, kind := range sortedKinds(fragments) {
		buf = appendString(buf[:0], string(kind))
		fields := sortedFields(fragments[kind])
		buf = binary.AppendUvarint(buf, uint64(len(fields)))
		for _, f := range fields {
			buf = appendString(buf, f.Name)
			buf = appendValue(buf, f)
		}
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}

// encodeField returns the canonical encoding of a field value. Two values
// are equal exactly when their encodings are.
func encodeField(f Field) []byte {
	return appendValue(nil, f)
}

func appendValue(buf []byte, f Field) []byte {
	switch v := f.Value.(type) {
	case bool:
		buf = append(buf, tagBool)
		if v {
			return append(buf, 1)
		}
		return append(buf, 0)
	case string:
		buf = append(buf, tagString)
		return appendString(buf, v)
	case DistinguisherMode:
		buf = append(buf, tagString)
		return appendString(buf, v.String())
	case []string:
		return appendList(buf, v, f.Unordered)
	case []Label:
		items := make([]string, len(v))
		for i, l := range v {
			items[i] = l.Canonical()
		}
		return appendList(buf, items, f.Unordered)
	default:
		panic(fmt.Sprintf("domain: field %q has unsupported type %T", f.Name, f.Value))
	}
}

func appendList(buf []byte, items []string, unordered bool) []byte {
	if unordered && !slices.IsSorted(items) {
		items = slices.Clone(items)
		slices.Sort(items)
	}
	buf = append(buf, tagList)
	buf = binary.AppendUvarint(buf, uint64(len(items)))
	for _, s := range items {
		buf = appendString(buf, s)
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func sortedKinds(fragments map[FragmentKind]Fragment) []FragmentKind {
	kinds := make([]FragmentKind, 0, len(fragments))
	for k := range fragments {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func sortedFields(f Fragment) []Field {
	fields := f.Fields()
	slices.SortFunc(fields, func(a, b Field) int {
		return strings.Compare(a.Name, b.Name)
	})
	return fields
}
