// Package hashing computes the content hashes soundpack uses as identities.
//
// Raw bytes, files, and text are digested directly. Structured values
// (maps, slices, scalars) are first reduced to a canonical byte encoding
// with sorted keys so map iteration order never leaks into a hash, while
// sequence order always does. The canonical form matches the output of the
// original Python tooling (json.dumps with sort_keys) byte for byte, which
// keeps composite hashes reproducible against previously published records.
//
// Short hashes are a display aid. Indexes and integrity checks always use
// the full digest.
package hashing
