package nlist

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/proxigo/vec3"
)

// CompressionType selects the compression algorithm for snapshots.
type CompressionType uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

// Snapshot format:
// [magic uint32][version uint8][compression uint8]
// [uncompressedSize uint32][compressedSize uint32][payload...]
// compressedSize == 0 means the payload is stored uncompressed.
const (
	snapshotMagic   uint32 = 0x504e4c53 // "PNLS"
	snapshotVersion uint8  = 1
	headerSize             = 4 + 1 + 1 + 4 + 4
)

var (
	// ErrBadSnapshot indicates a truncated or corrupt snapshot stream.
	ErrBadSnapshot = errors.New("invalid neighbor list snapshot")

	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// snapshotPayload is the gob wire form of a NeighborList.
type snapshotPayload struct {
	QueryPointIndices []uint32
	PointIndices      []uint32
	Distances         []float32
	Weights           []float32
	Vectors           []vec3.Vec3
	NumPoints         int
	NumQueryPoints    int
}

// Save writes the list to w using the given compression.
func (nl *NeighborList) Save(w io.Writer, compression CompressionType) error {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(snapshotPayload{
		QueryPointIndices: nl.queryPointIndices,
		PointIndices:      nl.pointIndices,
		Distances:         nl.distances,
		Weights:           nl.weights,
		Vectors:           nl.vectors,
		NumPoints:         nl.numPoints,
		NumQueryPoints:    nl.numQueryPoints,
	}); err != nil {
		return fmt.Errorf("nlist: encode snapshot: %w", err)
	}
	data := payload.Bytes()

	compressed, err := compress(data, compression)
	if err != nil {
		return err
	}
	// Fall back to uncompressed storage when compression does not help.
	if compressed == nil || len(compressed) >= len(data) {
		compressed = nil
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:], snapshotMagic)
	header[4] = snapshotVersion
	header[5] = uint8(compression)
	binary.LittleEndian.PutUint32(header[6:], uint32(len(data)))
	binary.LittleEndian.PutUint32(header[10:], uint32(len(compressed)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if compressed == nil {
		_, err = w.Write(data)
	} else {
		_, err = w.Write(compressed)
	}
	return err
}

// Load reads a snapshot written by Save.
func Load(r io.Reader) (*NeighborList, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) < headerSize {
		return nil, ErrBadSnapshot
	}
	if binary.LittleEndian.Uint32(raw[0:]) != snapshotMagic {
		return nil, ErrBadSnapshot
	}
	if raw[4] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, raw[4])
	}
	compression := CompressionType(raw[5])
	uncompressedSize := binary.LittleEndian.Uint32(raw[6:])
	compressedSize := binary.LittleEndian.Uint32(raw[10:])
	body := raw[headerSize:]

	var data []byte
	if compressedSize == 0 {
		if uint32(len(body)) < uncompressedSize {
			return nil, ErrBadSnapshot
		}
		data = body[:uncompressedSize]
	} else {
		if uint32(len(body)) < compressedSize {
			return nil, ErrBadSnapshot
		}
		data, err = decompress(body[:compressedSize], int(uncompressedSize), compression)
		if err != nil {
			return nil, err
		}
	}

	var payload snapshotPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("nlist: decode snapshot: %w", err)
	}

	nl := &NeighborList{
		queryPointIndices: payload.QueryPointIndices,
		pointIndices:      payload.PointIndices,
		distances:         payload.Distances,
		weights:           payload.Weights,
		vectors:           payload.Vectors,
		numPoints:         payload.NumPoints,
		numQueryPoints:    payload.NumQueryPoints,
	}
	nl.buildSegments()
	return nl, nil
}

func compress(data []byte, compression CompressionType) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return nil, nil
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		buf := make([]byte, bound)
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil // incompressible
		}
		return buf[:n], nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("nlist: unknown compression type %d", compression)
	}
}

func decompress(data []byte, uncompressedSize int, compression CompressionType) ([]byte, error) {
	switch compression {
	case CompressionLZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		if n != uncompressedSize {
			return nil, ErrBadSnapshot
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, err
		}
		if len(out) != uncompressedSize {
			return nil, ErrBadSnapshot
		}
		return out, nil
	default:
		return nil, fmt.Errorf("nlist: unknown compression type %d", compression)
	}
}
