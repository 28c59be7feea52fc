package worker

import (
	"errors"
	"fmt"
	"slices"

	"github.com/emptyOVO/brckit-go/agg"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrCorruptPartial = errors.New("worker: corrupt partial result")

// Wire layout, protobuf compatible:
//
//	message Partial { repeated Entry entries = 1; }
//	message Entry {
//	  bytes  station = 1;
//	  sint64 min     = 2;
//	  sint64 max     = 3;
//	  sint64 sum     = 4;
//	  uint64 count   = 5;
//	}
const (
	fieldEntries protowire.Number = 1

	fieldStation protowire.Number = 1
	fieldMin     protowire.Number = 2
	fieldMax     protowire.Number = 3
	fieldSum     protowire.Number = 4
	fieldCount   protowire.Number = 5
)

// EncodePartial serializes r. Entries are written in station order so equal
// results encode to equal bytes.
func EncodePartial(r agg.Result) []byte {
	if len(r) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	b := make([]byte, 0, len(r)*32)
	var e []byte
	for _, k := range keys {
		s := r[k]
		e = e[:0]
		e = protowire.AppendTag(e, fieldStation, protowire.BytesType)
		e = protowire.AppendString(e, k)
		e = protowire.AppendTag(e, fieldMin, protowire.VarintType)
		e = protowire.AppendVarint(e, protowire.EncodeZigZag(s.Min))
		e = protowire.AppendTag(e, fieldMax, protowire.VarintType)
		e = protowire.AppendVarint(e, protowire.EncodeZigZag(s.Max))
		e = protowire.AppendTag(e, fieldSum, protowire.VarintType)
		e = protowire.AppendVarint(e, protowire.EncodeZigZag(s.Sum))
		e = protowire.AppendTag(e, fieldCount, protowire.VarintType)
		e = protowire.AppendVarint(e, s.Count)

		b = protowire.AppendTag(b, fieldEntries, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	return b
}

// DecodePartial parses data written by EncodePartial.
func DecodePartial(data []byte) (agg.Result, error) {
	out := agg.Result{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, corrupt(protowire.ParseError(n))
		}
		data = data[n:]
		if num != fieldEntries || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, corrupt(protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}
		entry, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, corrupt(protowire.ParseError(n))
		}
		data = data[n:]

		station, s, err := decodeEntry(entry)
		if err != nil {
			return nil, err
		}
		if cur, ok := out[station]; ok {
			cur.Merge(s)
			continue
		}
		out[station] = &s
	}
	return out, nil
}

func decodeEntry(b []byte) (string, agg.Stats, error) {
	var (
		station string
		s       agg.Stats
		seen    bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", s, corrupt(protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldStation && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return "", s, corrupt(protowire.ParseError(n))
			}
			station, seen = string(v), true
			b = b[n:]
		case num >= fieldMin && num <= fieldCount && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return "", s, corrupt(protowire.ParseError(n))
			}
			switch num {
			case fieldMin:
				s.Min = protowire.DecodeZigZag(v)
			case fieldMax:
				s.Max = protowire.DecodeZigZag(v)
			case fieldSum:
				s.Sum = protowire.DecodeZigZag(v)
			case fieldCount:
				s.Count = v
			}
			b = b[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return "", s, corrupt(protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if !seen {
		return "", s, fmt.Errorf("%w: entry without station", ErrCorruptPartial)
	}
	if s.Count == 0 || s.Min > s.Max {
		return "", s, fmt.Errorf("%w: invalid aggregate for %q", ErrCorruptPartial, station)
	}
	return station, s, nil
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %v", ErrCorruptPartial, err)
}
