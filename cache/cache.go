package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/glaciodyn/radsurvey/blobstore"
	"github.com/glaciodyn/radsurvey/codec"
	"github.com/glaciodyn/radsurvey/metadata"
	"github.com/glaciodyn/radsurvey/model"
)

// ErrCorrupt is returned when an artifact exists but cannot be decoded:
// wrong magic, unknown version or codec, checksum mismatch, or a payload
// the codec rejects. The artifact format is not stable across releases,
// so a stale artifact surfaces here rather than as garbage data.
var ErrCorrupt = errors.New("corrupt cache artifact")

// Name returns the deterministic artifact name for one line and channel:
// <storeBase>_line<line>_<dc>.ird.
func Name(storeBase string, line, dc int) string {
	return fmt.Sprintf("%s_line%d_%d.ird", storeBase, line, dc)
}

const (
	envelopeMagic   = "RSCL"
	envelopeVersion = 1

	// magic + version + codec name length
	envelopeHeaderSize = len(envelopeMagic) + 2
	envelopeFooterSize = 4
)

// lineArtifact is the codec payload inside the envelope.
type lineArtifact struct {
	Number   int               `json:"number"`
	Channels []int             `json:"channels"`
	Rows     int               `json:"rows"`
	Cols     int               `json:"cols"`
	Data     []float64         `json:"data"`
	Paths    []string          `json:"paths"`
	Metadata []metadata.Record `json:"metadata"`
	Retain   map[int]bool      `json:"retain"`
}

// Gateway loads and saves line artifacts through a blob store.
type Gateway struct {
	blobs blobstore.BlobStore
	codec codec.Codec
}

// NewGateway creates a gateway over the given blob store. codec is used
// for writes; reads select their codec from the envelope header. A nil
// codec falls back to the package default.
func NewGateway(blobs blobstore.BlobStore, c codec.Codec) *Gateway {
	if c == nil {
		c = codec.Default
	}
	return &Gateway{blobs: blobs, codec: c}
}

// Load reads one artifact. A missing artifact returns
// blobstore.ErrNotFound; anything undecodable returns an error wrapping
// ErrCorrupt. The returned line carries no retention view; the retention
// snapshot recorded at save time is returned separately so the caller can
// restore it into a live view.
func (g *Gateway) Load(ctx context.Context, name string) (*model.Line, map[int]bool, error) {
	blob, err := g.blobs.Open(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	defer blob.Close()

	raw, err := blob.Bytes()
	if err != nil {
		return nil, nil, err
	}

	art, err := decodeEnvelope(raw)
	if err != nil {
		return nil, nil, err
	}

	if art.Rows*art.Cols != len(art.Data) {
		return nil, nil, fmt.Errorf("%w: %dx%d matrix with %d samples", ErrCorrupt, art.Rows, art.Cols, len(art.Data))
	}

	var data *mat.Dense
	if art.Rows > 0 && art.Cols > 0 {
		data = mat.NewDense(art.Rows, art.Cols, art.Data)
	}

	line := &model.Line{
		Data:     data,
		Paths:    art.Paths,
		Number:   art.Number,
		Channels: art.Channels,
		Metadata: metadata.NewListFromRecords(art.Metadata),
	}
	return line, art.Retain, nil
}

// Save writes one artifact, replacing any existing one under the same
// name.
func (g *Gateway) Save(ctx context.Context, name string, line *model.Line) error {
	art := lineArtifact{
		Number:   line.Number,
		Channels: line.Channels,
		Paths:    line.Paths,
	}
	if line.Data != nil {
		art.Rows, art.Cols = line.Data.Dims()
		art.Data = line.Data.RawMatrix().Data
	}
	if line.Metadata != nil {
		art.Metadata = line.Metadata.Records()
	}
	if line.Retain != nil {
		art.Retain = line.Retain.Snapshot()
	}

	payload, err := g.codec.Marshal(&art)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	compressed := enc.EncodeAll(payload, nil)
	enc.Close()

	codecName := g.codec.Name()
	buf := make([]byte, 0, envelopeHeaderSize+len(codecName)+len(compressed)+envelopeFooterSize)
	buf = append(buf, envelopeMagic...)
	buf = append(buf, envelopeVersion, byte(len(codecName)))
	buf = append(buf, codecName...)
	buf = append(buf, compressed...)
	buf = binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))

	return g.blobs.Put(ctx, name, buf)
}

func decodeEnvelope(raw []byte) (*lineArtifact, error) {
	if len(raw) < envelopeHeaderSize+envelopeFooterSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrCorrupt, len(raw))
	}

	body, footer := raw[:len(raw)-envelopeFooterSize], raw[len(raw)-envelopeFooterSize:]
	if sum := crc32.ChecksumIEEE(body); sum != binary.LittleEndian.Uint32(footer) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	if string(body[:len(envelopeMagic)]) != envelopeMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := body[len(envelopeMagic)]; v != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}

	nameLen := int(body[len(envelopeMagic)+1])
	rest := body[envelopeHeaderSize:]
	if len(rest) < nameLen {
		return nil, fmt.Errorf("%w: truncated codec name", ErrCorrupt)
	}
	codecName := string(rest[:nameLen])

	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrCorrupt, codecName)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(rest[nameLen:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var art lineArtifact
	if err := c.Unmarshal(payload, &art); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &art, nil
}
