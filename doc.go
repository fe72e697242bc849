// Package radsurvey provides read-mostly access to ice-penetrating radar
// survey containers.
//
// A survey container is a directory tree of line, location, datacapture,
// and echogram groups produced by acquisition tooling. This package
// indexes that hierarchy, assembles whole lines into dense
// samples × traces matrices, associates each trace with its out-of-band
// metadata, and re-serializes surveys with quality-controlled locations
// filtered out.
//
// # Quick Start
//
// Open a survey and extract a line:
//
//	sv, err := radsurvey.Open("gl2_2016.survey")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	line, err := sv.ExtractLine(ctx, 12, radsurvey.WithChannel(0))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(line.NumSamples(), line.NumTraces())
//
// Flag bad locations and write a filtered copy:
//
//	line.Retain.Set(44, false)
//	if err := sv.WriteFiltered("gl2_2016_clean.survey", false); err != nil {
//	    log.Fatal(err)
//	}
//
// # Cache Artifacts
//
// Line extraction can be expensive on large surveys, so extraction
// tooling pre-computes per-line artifacts. ExtractLine consults them
// when asked:
//
//	line, err := sv.ExtractLine(ctx, 12, radsurvey.FromCache())
//
// Artifacts live in a blobstore.BlobStore: a local directory by default,
// or shared object storage (MinIO, S3) via WithArtifactStore. A missing
// or stale artifact silently falls back to a full container read.
package radsurvey
