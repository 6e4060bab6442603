package index

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/spango/span"
)

// Compression selects the snapshot payload compression algorithm.
type Compression uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD Compression = 2
)

const (
	snapshotMagic   = 0x5350474f // "SPGO"
	snapshotVersion = 1
)

// ErrSnapshotCorrupt is returned when a snapshot fails structural or
// checksum validation.
var ErrSnapshotCorrupt = errors.New("snapshot corrupt")

// Encode serializes the segment into a self-describing binary snapshot.
//
// Layout: magic (4) | version (4) | compression (1) | payload CRC32 (4) |
// uncompressed length (8) | payload. The CRC covers the stored (possibly
// compressed) payload bytes.
func (s *Segment) Encode(c Compression) ([]byte, error) {
	payload, err := s.encodePayload()
	if err != nil {
		return nil, err
	}

	stored := payload
	switch c {
	case CompressionNone:
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(payload)))
		var compressor lz4.Compressor
		n, err := compressor.CompressBlock(payload, dst)
		if err != nil {
			return nil, err
		}
		if n == 0 || n >= len(payload) {
			// Incompressible; store raw instead.
			c = CompressionNone
		} else {
			stored = dst[:n]
		}
	case CompressionZSTD:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		stored = enc.EncodeAll(payload, make([]byte, 0, len(payload)/2))
		_ = enc.Close()
	default:
		return nil, fmt.Errorf("unknown compression type: %d", c)
	}

	out := make([]byte, 0, 21+len(stored))
	out = binary.LittleEndian.AppendUint32(out, snapshotMagic)
	out = binary.LittleEndian.AppendUint32(out, snapshotVersion)
	out = append(out, byte(c))
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(stored))
	out = binary.LittleEndian.AppendUint64(out, uint64(len(payload)))
	out = append(out, stored...)
	return out, nil
}

// DecodeSegment restores a segment from a snapshot produced by Encode.
func DecodeSegment(data []byte) (*Segment, error) {
	if len(data) < 21 {
		return nil, fmt.Errorf("%w: truncated header", ErrSnapshotCorrupt)
	}
	if binary.LittleEndian.Uint32(data[0:4]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrSnapshotCorrupt)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSnapshotCorrupt, v)
	}
	c := Compression(data[8])
	checksum := binary.LittleEndian.Uint32(data[9:13])
	rawLen := binary.LittleEndian.Uint64(data[13:21])
	stored := data[21:]

	if crc32.ChecksumIEEE(stored) != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrSnapshotCorrupt)
	}

	var payload []byte
	switch c {
	case CompressionNone:
		payload = stored
	case CompressionLZ4:
		payload = make([]byte, rawLen)
		n, err := lz4.UncompressBlock(stored, payload)
		if err != nil || uint64(n) != rawLen {
			return nil, fmt.Errorf("%w: lz4 payload", ErrSnapshotCorrupt)
		}
	case CompressionZSTD:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		payload, err = dec.DecodeAll(stored, make([]byte, 0, rawLen))
		dec.Close()
		if err != nil || uint64(len(payload)) != rawLen {
			return nil, fmt.Errorf("%w: zstd payload", ErrSnapshotCorrupt)
		}
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrSnapshotCorrupt, c)
	}

	return decodePayload(payload)
}

func (s *Segment) encodePayload() ([]byte, error) {
	buf := binary.AppendUvarint(nil, uint64(s.numDocs))

	termNames := make([]string, 0, len(s.terms))
	for t := range s.terms {
		termNames = append(termNames, t)
	}
	sort.Strings(termNames)

	buf = binary.AppendUvarint(buf, uint64(len(termNames)))
	for _, name := range termNames {
		p := s.terms[name]
		var err error
		buf, err = appendBitmapEntry(buf, name, p.docs)
		if err != nil {
			return nil, err
		}
		it := p.docs.Iterator()
		for it.HasNext() {
			doc := it.Next()
			positions := p.positions[doc]
			buf = binary.AppendUvarint(buf, uint64(len(positions)))
			prev := int32(0)
			for _, pos := range positions {
				buf = binary.AppendUvarint(buf, uint64(pos-prev))
				prev = pos
			}
		}
	}

	markerNames := make([]string, 0, len(s.markers))
	for m := range s.markers {
		markerNames = append(markerNames, m)
	}
	sort.Strings(markerNames)

	buf = binary.AppendUvarint(buf, uint64(len(markerNames)))
	for _, name := range markerNames {
		p := s.markers[name]
		var err error
		buf, err = appendBitmapEntry(buf, name, p.docs)
		if err != nil {
			return nil, err
		}
		it := p.docs.Iterator()
		for it.HasNext() {
			doc := it.Next()
			spans := p.spans[doc]
			buf = binary.AppendUvarint(buf, uint64(len(spans)))
			prev := 0
			for _, sp := range spans {
				buf = binary.AppendUvarint(buf, uint64(sp.Start-prev))
				buf = binary.AppendUvarint(buf, uint64(sp.End-sp.Start))
				prev = sp.Start
			}
		}
	}

	return buf, nil
}

func appendBitmapEntry(buf []byte, name string, docs *roaring.Bitmap) ([]byte, error) {
	buf = binary.AppendUvarint(buf, uint64(len(name)))
	buf = append(buf, name...)
	rb, err := docs.ToBytes()
	if err != nil {
		return nil, err
	}
	buf = binary.AppendUvarint(buf, uint64(len(rb)))
	return append(buf, rb...), nil
}

func decodePayload(payload []byte) (*Segment, error) {
	r := &payloadReader{buf: payload}

	seg := &Segment{
		numDocs: uint32(r.uvarint()),
		terms:   make(map[string]*postings),
		markers: make(map[string]*spanPostings),
	}

	numTerms := r.uvarint()
	for i := uint64(0); i < numTerms && r.err == nil; i++ {
		name, docs := r.bitmapEntry()
		if r.err != nil {
			break
		}
		p := &postings{docs: docs, positions: make(map[uint32][]int32, docs.GetCardinality())}
		it := docs.Iterator()
		for it.HasNext() {
			doc := it.Next()
			count := r.uvarint()
			positions := make([]int32, 0, count)
			prev := int32(0)
			for j := uint64(0); j < count; j++ {
				prev += int32(r.uvarint())
				positions = append(positions, prev)
			}
			p.positions[doc] = positions
		}
		seg.terms[name] = p
	}

	numMarkers := r.uvarint()
	for i := uint64(0); i < numMarkers && r.err == nil; i++ {
		name, docs := r.bitmapEntry()
		if r.err != nil {
			break
		}
		p := &spanPostings{docs: docs, spans: make(map[uint32][]span.Span, docs.GetCardinality())}
		it := docs.Iterator()
		for it.HasNext() {
			doc := it.Next()
			count := r.uvarint()
			spans := make([]span.Span, 0, count)
			prev := 0
			for j := uint64(0); j < count; j++ {
				prev += int(r.uvarint())
				length := int(r.uvarint())
				spans = append(spans, span.Span{Start: prev, End: prev + length})
			}
			p.spans[doc] = spans
		}
		seg.markers[name] = p
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, r.err)
	}
	return seg, nil
}

// payloadReader consumes uvarints and length-prefixed chunks, latching the
// first error.
type payloadReader struct {
	buf []byte
	off int
	err error
}

func (r *payloadReader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		r.err = errors.New("short uvarint")
		return 0
	}
	r.off += n
	return v
}

func (r *payloadReader) chunk() []byte {
	n := r.uvarint()
	if r.err != nil {
		return nil
	}
	if uint64(len(r.buf)-r.off) < n {
		r.err = errors.New("short chunk")
		return nil
	}
	c := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return c
}

func (r *payloadReader) bitmapEntry() (string, *roaring.Bitmap) {
	name := string(r.chunk())
	data := r.chunk()
	if r.err != nil {
		return "", nil
	}
	rb := roaring.New()
	if err := rb.UnmarshalBinary(data); err != nil {
		r.err = err
		return "", nil
	}
	return name, rb
}
