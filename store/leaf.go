package store

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/pierrec/lz4/v4"
)

// Leaf frame layout:
//
//	[0:4]   magic "RSLF"
//	[4]     version
//	[5]     flags (bit0: LZ4 block-compressed payload)
//	[6:8]   reserved
//	[8:12]  metadata length (uint32 LE)
//	[12:20] sample count (uint64 LE)
//	[20:]   metadata bytes, then sample payload
//	[-4:]   CRC32 (IEEE) over metadata + payload
//
// Samples are float64 little-endian. The CRC detects accidental
// corruption, not tampering.
const (
	leafMagic      = "RSLF"
	leafVersion    = 1
	leafHeaderSize = 20
	leafFooterSize = 4

	flagLZ4 = 1 << 0
)

// ChecksumMismatchError is returned when a leaf frame's CRC32 does not
// match its contents.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// EncodeLeaf frames a sample vector and its raw metadata block. With
// compress set, the sample payload is LZ4 block-compressed; if compression
// does not shrink the payload it is stored raw.
func EncodeLeaf(samples []float64, meta []byte, compress bool) ([]byte, error) {
	payload := make([]byte, 8*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint64(payload[8*i:], math.Float64bits(v))
	}

	var flags byte
	if compress && len(payload) > 0 {
		buf := make([]byte, lz4.CompressBlockBound(len(payload)))
		n, err := lz4.CompressBlock(payload, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("compress leaf payload: %w", err)
		}
		if n > 0 && n < len(payload) {
			payload = buf[:n]
			flags |= flagLZ4
		}
	}

	frame := make([]byte, leafHeaderSize, leafHeaderSize+len(meta)+len(payload)+leafFooterSize)
	copy(frame[0:4], leafMagic)
	frame[4] = leafVersion
	frame[5] = flags
	binary.LittleEndian.PutUint32(frame[8:12], uint32(len(meta)))
	binary.LittleEndian.PutUint64(frame[12:20], uint64(len(samples)))

	frame = append(frame, meta...)
	frame = append(frame, payload...)

	sum := crc32.ChecksumIEEE(frame[leafHeaderSize:])
	frame = binary.LittleEndian.AppendUint32(frame, sum)
	return frame, nil
}

// DecodeLeaf parses a leaf frame back into its sample vector and raw
// metadata block.
func DecodeLeaf(data []byte) ([]float64, []byte, error) {
	if len(data) < leafHeaderSize+leafFooterSize {
		return nil, nil, fmt.Errorf("leaf frame truncated: %d bytes", len(data))
	}
	if string(data[0:4]) != leafMagic {
		return nil, nil, fmt.Errorf("bad leaf magic %q", data[0:4])
	}
	if data[4] != leafVersion {
		return nil, nil, fmt.Errorf("unsupported leaf version %d", data[4])
	}
	flags := data[5]
	metaLen := int(binary.LittleEndian.Uint32(data[8:12]))
	sampleCount := int(binary.LittleEndian.Uint64(data[12:20]))

	body := data[leafHeaderSize : len(data)-leafFooterSize]
	if metaLen > len(body) {
		return nil, nil, fmt.Errorf("leaf metadata length %d exceeds frame", metaLen)
	}

	expected := binary.LittleEndian.Uint32(data[len(data)-leafFooterSize:])
	if actual := crc32.ChecksumIEEE(body); actual != expected {
		return nil, nil, &ChecksumMismatchError{Expected: expected, Actual: actual}
	}

	meta := make([]byte, metaLen)
	copy(meta, body[:metaLen])
	payload := body[metaLen:]

	if flags&flagLZ4 != 0 {
		raw := make([]byte, 8*sampleCount)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("decompress leaf payload: %w", err)
		}
		if n != len(raw) {
			return nil, nil, fmt.Errorf("leaf payload decompressed to %d bytes, want %d", n, len(raw))
		}
		payload = raw
	}
	if len(payload) != 8*sampleCount {
		return nil, nil, fmt.Errorf("leaf payload is %d bytes, want %d", len(payload), 8*sampleCount)
	}

	samples := make([]float64, sampleCount)
	for i := range samples {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[8*i:]))
	}
	return samples, meta, nil
}
