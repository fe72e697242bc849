package testutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glaciodyn/radsurvey/store"
)

// Trace describes one leaf record to be written into a synthetic store.
type Trace struct {
	Line        int
	Location    int
	Datacapture int
	Echogram    int
	Samples     []float64
	Meta        string
	Compress    bool
}

// StoreBuilder assembles a survey container directory tree.
type StoreBuilder struct {
	root   string
	traces []Trace
	dirs   []string
	raw    map[string][]byte
}

// NewStoreBuilder creates a builder rooted at root.
func NewStoreBuilder(root string) *StoreBuilder {
	return &StoreBuilder{root: root, raw: make(map[string][]byte)}
}

// AddTrace queues a leaf with default metadata.
func (b *StoreBuilder) AddTrace(line, loc, dc, eg int, samples []float64) *StoreBuilder {
	return b.AddTraceMeta(line, loc, dc, eg, samples, MetaXML("2016-05-01T12:00:00Z", 69.0+float64(loc)/1000, -105.0, 7))
}

// AddTraceMeta queues a leaf with an explicit metadata block.
func (b *StoreBuilder) AddTraceMeta(line, loc, dc, eg int, samples []float64, meta string) *StoreBuilder {
	b.traces = append(b.traces, Trace{
		Line: line, Location: loc, Datacapture: dc, Echogram: eg,
		Samples: samples, Meta: meta,
	})
	return b
}

// AddCompressedTrace queues a leaf whose payload is LZ4-compressed.
func (b *StoreBuilder) AddCompressedTrace(line, loc, dc, eg int, samples []float64) *StoreBuilder {
	b.traces = append(b.traces, Trace{
		Line: line, Location: loc, Datacapture: dc, Echogram: eg,
		Samples: samples, Meta: MetaXML("2016-05-01T12:00:00Z", 69.0, -105.0, 7),
		Compress: true,
	})
	return b
}

// AddDir queues an empty group directory (e.g. an empty line).
func (b *StoreBuilder) AddDir(rel string) *StoreBuilder {
	b.dirs = append(b.dirs, rel)
	return b
}

// AddRaw queues arbitrary file contents at a path relative to the store
// root. Used for picked datasets and deliberately corrupt frames.
func (b *StoreBuilder) AddRaw(rel string, data []byte) *StoreBuilder {
	b.raw[rel] = data
	return b
}

// Build writes the queued tree to disk.
func (b *StoreBuilder) Build() error {
	if err := os.MkdirAll(b.root, 0o755); err != nil {
		return err
	}
	for _, d := range b.dirs {
		if err := os.MkdirAll(filepath.Join(b.root, filepath.FromSlash(d)), 0o755); err != nil {
			return err
		}
	}
	for _, tr := range b.traces {
		rel := fmt.Sprintf("line_%d/location_%d/datacapture_%d/echogram_%d",
			tr.Line, tr.Location, tr.Datacapture, tr.Echogram)
		frame, err := store.EncodeLeaf(tr.Samples, []byte(tr.Meta), tr.Compress)
		if err != nil {
			return err
		}
		if err := b.writeFile(rel, frame); err != nil {
			return err
		}
	}
	for rel, data := range b.raw {
		if err := b.writeFile(rel, data); err != nil {
			return err
		}
	}
	return nil
}

func (b *StoreBuilder) writeFile(rel string, data []byte) error {
	path := filepath.Join(b.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// MetaXML renders a metadata block in the store producer's per-trace
// layout.
func MetaXML(timestamp string, lat, lon float64, sats int) string {
	return fmt.Sprintf(`<trace>
  <timestamp>%s</timestamp>
  <gps><lat>%g</lat><lon>%g</lon><alt>100</alt><fix>2</fix><sats>%d</sats></gps>
  <digitizer><samplerate>2.5e8</samplerate><range>5e-06</range></digitizer>
</trace>`, timestamp, lat, lon, sats)
}

// Ramp returns n samples counting up from start. Handy for asserting row
// placement after padding.
func Ramp(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}
