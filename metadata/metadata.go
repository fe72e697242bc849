package metadata

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadValue is returned when a metadata block is well-formed XML but one
// of its fields does not parse into its expected type.
var ErrBadValue = errors.New("bad metadata field value")

// ParseError indicates a structural fault in a metadata block: the XML
// itself could not be decoded. The partially appended entry stays at the
// tail of the list until the caller drops it with CropRecords.
//
// The original underlying error can be accessed via errors.Unwrap.
type ParseError struct {
	FID   string
	cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("metadata parse failed for fid %s: %v", e.FID, e.cause)
}

func (e *ParseError) Unwrap() error { return e.cause }

// Record is one parsed metadata block.
type Record struct {
	FID           string  `json:"fid"`
	Timestamp     string  `json:"timestamp"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Altitude      float64 `json:"altitude"`
	FixQuality    int     `json:"fix_quality"`
	NumSats       int     `json:"num_sats"`
	SampleRate    float64 `json:"sample_rate"`
	VerticalRange float64 `json:"vertical_range"`
}

// traceXML mirrors the producer's per-trace metadata layout. All leaf
// fields are read as strings so that type conversion faults can be
// distinguished from structural ones.
type traceXML struct {
	XMLName   xml.Name `xml:"trace"`
	Timestamp string   `xml:"timestamp"`
	GPS       struct {
		Lat  string `xml:"lat"`
		Lon  string `xml:"lon"`
		Alt  string `xml:"alt"`
		Fix  string `xml:"fix"`
		Sats string `xml:"sats"`
	} `xml:"gps"`
	Digitizer struct {
		SampleRate string `xml:"samplerate"`
		Range      string `xml:"range"`
	} `xml:"digitizer"`
}

// List is an ordered metadata collection keyed by FID.
type List struct {
	records  []Record
	index    map[string]int
	complete int // records[:complete] parsed fully
}

// NewList creates an empty list.
func NewList() *List {
	return &List{index: make(map[string]int)}
}

// NewListFromRecords rebuilds a list from previously parsed records, e.g.
// when a cache artifact is deserialized.
func NewListFromRecords(records []Record) *List {
	l := &List{
		records:  append([]Record(nil), records...),
		index:    make(map[string]int, len(records)),
		complete: len(records),
	}
	for i, r := range l.records {
		l.index[r.FID] = i
	}
	return l
}

// AddDataset parses one raw metadata block and appends it under the given
// FID.
//
// A structural fault returns a *ParseError and leaves an incomplete entry
// at the tail; callers follow up with CropRecords. A value fault returns an
// error wrapping ErrBadValue and leaves the list unchanged.
func (l *List) AddDataset(raw []byte, fid string) error {
	l.records = append(l.records, Record{FID: fid})

	var tx traceXML
	if err := xml.Unmarshal(raw, &tx); err != nil {
		return &ParseError{FID: fid, cause: err}
	}

	rec, err := convertRecord(fid, &tx)
	if err != nil {
		l.records = l.records[:len(l.records)-1]
		return err
	}

	l.records[len(l.records)-1] = rec
	l.index[fid] = len(l.records) - 1
	l.complete = len(l.records)
	return nil
}

// CropRecords discards any trailing incomplete entry left behind by a
// structural parse fault.
func (l *List) CropRecords() {
	for i := l.complete; i < len(l.records); i++ {
		delete(l.index, l.records[i].FID)
	}
	l.records = l.records[:l.complete]
}

// Len returns the number of records, including a trailing incomplete one.
func (l *List) Len() int { return len(l.records) }

// Records returns the backing record slice in insertion order.
func (l *List) Records() []Record { return l.records }

// Get returns the fully parsed record for a FID.
func (l *List) Get(fid string) (Record, bool) {
	i, ok := l.index[fid]
	if !ok {
		return Record{}, false
	}
	return l.records[i], true
}

func convertRecord(fid string, tx *traceXML) (Record, error) {
	rec := Record{FID: fid, Timestamp: strings.TrimSpace(tx.Timestamp)}

	var err error
	if rec.Latitude, err = parseFloat(tx.GPS.Lat, "gps/lat"); err != nil {
		return Record{}, err
	}
	if rec.Longitude, err = parseFloat(tx.GPS.Lon, "gps/lon"); err != nil {
		return Record{}, err
	}
	if rec.Altitude, err = parseFloat(tx.GPS.Alt, "gps/alt"); err != nil {
		return Record{}, err
	}
	if rec.FixQuality, err = parseInt(tx.GPS.Fix, "gps/fix"); err != nil {
		return Record{}, err
	}
	if rec.NumSats, err = parseInt(tx.GPS.Sats, "gps/sats"); err != nil {
		return Record{}, err
	}
	if rec.SampleRate, err = parseFloat(tx.Digitizer.SampleRate, "digitizer/samplerate"); err != nil {
		return Record{}, err
	}
	if rec.VerticalRange, err = parseFloat(tx.Digitizer.Range, "digitizer/range"); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func parseFloat(s, field string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadValue, field, s)
	}
	return v, nil
}

func parseInt(s, field string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadValue, field, s)
	}
	return v, nil
}
