package kv

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Snapshots are encoded in protobuf wire format as
//
//	message KeyValueSnapshot { repeated KeyValuePair pairs = 1; }
//	message KeyValuePair { string key = 1; repeated string values = 2; }
const (
	fieldSnapshotPairs protowire.Number = 1
	fieldPairKey       protowire.Number = 1
	fieldPairValues    protowire.Number = 2
)

// MarshalSnapshot encodes a snapshot for persistence.
func MarshalSnapshot(snapshot Snapshot) []byte {
	var out []byte
	for _, row := range snapshot {
		out = protowire.AppendTag(out, fieldSnapshotPairs, protowire.BytesType)
		out = protowire.AppendBytes(out, marshalRow(row))
	}
	return out
}

func marshalRow(row Row) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldPairKey, protowire.BytesType)
	b = protowire.AppendString(b, row.Key)
	for _, v := range row.Values {
		b = protowire.AppendTag(b, fieldPairValues, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}
	return b
}

// UnmarshalSnapshot decodes bytes produced by MarshalSnapshot. Unknown fields
// are skipped. Empty input is an empty snapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	snapshot := Snapshot{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, protowire.ParseError(n))
		}
		data = data[n:]

		if num == fieldSnapshotPairs && typ == protowire.BytesType {
			raw, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, protowire.ParseError(n))
			}
			data = data[n:]

			row, err := unmarshalRow(raw)
			if err != nil {
				return nil, err
			}
			snapshot = append(snapshot, row)
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, protowire.ParseError(n))
		}
		data = data[n:]
	}
	return snapshot, nil
}

func unmarshalRow(data []byte) (Row, error) {
	row := Row{Values: []string{}}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Row{}, fmt.Errorf("%w: pair: %v", ErrSnapshotCorrupt, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldPairKey && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return Row{}, fmt.Errorf("%w: key: %v", ErrSnapshotCorrupt, protowire.ParseError(n))
			}
			row.Key = s
			data = data[n:]
		case num == fieldPairValues && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return Row{}, fmt.Errorf("%w: value: %v", ErrSnapshotCorrupt, protowire.ParseError(n))
			}
			row.Values = append(row.Values, s)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Row{}, fmt.Errorf("%w: pair: %v", ErrSnapshotCorrupt, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return row, nil
}
