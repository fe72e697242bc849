// Package metadata parses the out-of-band XML blocks the store producer
// attaches to each echogram leaf and collects them into an ordered list
// keyed by FID.
//
// Parse faults come in two classes with different recovery policies:
// structural faults (*ParseError) leave a trailing incomplete entry that
// the caller drops via CropRecords before continuing, and value faults
// (ErrBadValue) skip the single affected record. Neither aborts a
// whole-line extraction.
package metadata
