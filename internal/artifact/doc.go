// Package artifact builds derived artifact records: a parameter set applied
// to one primary sample, identified by a composite content hash.
//
// The composite hash is HashStructured([sampleHash, HashStructured(params)])
// with the pair order fixed, so the same sample rendered with the same
// parameters always lands on the same record file no matter which title,
// creator, or resource locations accompany it.
package artifact
