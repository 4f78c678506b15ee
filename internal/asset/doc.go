// Package asset builds the per-file records that make up a package manifest.
//
// A Descriptor carries the file name, display title, size, content hash,
// and probed audio properties of one source file. Probe failures do not
// abort a batch: the descriptor comes back tagged Invalid and IsEligible
// filters it out together with files that fail the quality thresholds.
package asset
