// Package wire implements the external byte-level interfaces: the forest
// checksum and the fixed-width partition record layout exchanged by the
// partition engine's send/receive rounds.
package wire

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/pool"
	"github.com/katalvlaran/forest/quadrant"
)

// RecordSize is the encoded byte length of a single PartitionRecord header
// (payload bytes, when a Pool carries a nonzero DataSize, travel in a
// second section appended after every header, in the same order).
const RecordSize = 4 + 8 + 8 + 1 // Tree int32 + X int64 + Y int64 + Level uint8

// PartitionRecord is the wire representation of one quadrant's header, as
// exchanged during a partition reshuffle: just enough to reconstruct its
// identity in the destination rank's tree.
type PartitionRecord struct {
	Tree  int32
	X, Y  quadrant.Coord
	Level uint8
}

// Encode appends the big-endian encoding of r to dst and returns the result.
func (r PartitionRecord) Encode(dst []byte) []byte {
	var buf [RecordSize]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(r.Tree))
	binary.BigEndian.PutUint64(buf[4:12], uint64(r.X))
	binary.BigEndian.PutUint64(buf[12:20], uint64(r.Y))
	buf[20] = r.Level

	return append(dst, buf[:]...)
}

// DecodeRecord reads one PartitionRecord from the front of b and returns it
// along with the remaining, unconsumed bytes.
func DecodeRecord(b []byte) (PartitionRecord, []byte) {
	r := PartitionRecord{
		Tree:  int32(binary.BigEndian.Uint32(b[0:4])),
		X:     quadrant.Coord(binary.BigEndian.Uint64(b[4:12])),
		Y:     quadrant.Coord(binary.BigEndian.Uint64(b[12:20])),
		Level: b[20],
	}

	return r, b[RecordSize:]
}

// ToQuadrant converts r back into a quadrant.Quadrant (WhichTree taken from
// r.Tree; Payload starts at quadrant.NilPayload, FromTree at -1 and Aux at
// zero, as quadrant.New sets them).
func (r PartitionRecord) ToQuadrant() quadrant.Quadrant {
	q := quadrant.New(r.X, r.Y, r.Level)
	q.WhichTree = r.Tree

	return q
}

// FromQuadrant builds a PartitionRecord describing q's header fields.
func FromQuadrant(q quadrant.Quadrant) PartitionRecord {
	return PartitionRecord{Tree: q.WhichTree, X: q.X, Y: q.Y, Level: q.Level}
}

// EncodeRecords encodes a whole slice of quadrants as: every quadrant's
// PartitionRecord header, concatenated in the order given, followed by -
// when p is non-nil and p.DataSize() > 0 - every quadrant's payload bytes,
// read via p.Get(q.Payload), in the same order. The caller is responsible
// for sorting qs before encoding if order matters.
func EncodeRecords(qs []quadrant.Quadrant, p *pool.Pool) ([]byte, error) {
	ds := 0
	if p != nil {
		ds = p.DataSize()
	}
	buf := make([]byte, 0, len(qs)*(RecordSize+ds))
	for _, q := range qs {
		buf = FromQuadrant(q).Encode(buf)
	}
	if ds == 0 {
		return buf, nil
	}
	for _, q := range qs {
		data, err := p.Get(pool.Handle(q.Payload))
		if err != nil {
			return nil, fmt.Errorf("wire: encoding payload for quadrant %s: %w", q, err)
		}
		buf = append(buf, data...)
	}

	return buf, nil
}

// DecodeRecords decodes a byte slice produced by EncodeRecords back into
// quadrants. When p is non-nil and p.DataSize() > 0, b is expected to carry
// a trailing payload section; DecodeRecords allocates a fresh handle in p
// for each quadrant and copies its data_size bytes in, so every decoded
// quadrant's Payload refers to a handle valid in p (never the sender's
// Pool, which belongs to a different rank).
func DecodeRecords(b []byte, p *pool.Pool) ([]quadrant.Quadrant, error) {
	ds := 0
	if p != nil {
		ds = p.DataSize()
	}
	stride := RecordSize + ds
	if stride == 0 || len(b)%stride != 0 {
		return nil, fmt.Errorf("wire: encoded length %d is not a multiple of record stride %d", len(b), stride)
	}
	n := len(b) / stride

	headers := b[:n*RecordSize]
	out := make([]quadrant.Quadrant, 0, n)
	for len(headers) > 0 {
		var rec PartitionRecord
		rec, headers = DecodeRecord(headers)
		out = append(out, rec.ToQuadrant())
	}

	if ds == 0 {
		return out, nil
	}
	payloads := b[n*RecordSize:]
	for i := range out {
		h := p.Alloc()
		if err := p.Set(h, payloads[:ds]); err != nil {
			return nil, fmt.Errorf("wire: decoding payload for quadrant %s: %w", out[i], err)
		}
		out[i].Payload = int64(h)
		payloads = payloads[ds:]
	}

	return out, nil
}

// Checksum computes the CRC-32 (IEEE polynomial) over the big-endian
// concatenation of every local leaf's PartitionRecord header encoding,
// across every tree the forest populates on this rank, in tree-then-leaf
// order. Two forests with identical local leaf sequences produce identical
// checksums regardless of payload contents - Checksum always encodes with
// a nil Pool, since it is a structural (not payload) integrity check.
func Checksum(f *forest.Forest) (uint32, error) {
	h := crc32.NewIEEE()
	if f.LastLocalTree >= f.FirstLocalTree {
		for i := f.FirstLocalTree; i <= f.LastLocalTree; i++ {
			tr := f.Tree(i)
			if tr == nil {
				continue
			}
			enc, err := EncodeRecords(tr.Leaves(), nil)
			if err != nil {
				return 0, err
			}
			if _, err := h.Write(enc); err != nil {
				return 0, err
			}
		}
	}

	return h.Sum32(), nil
}
