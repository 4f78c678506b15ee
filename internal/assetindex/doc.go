// Package assetindex keeps a SQLite index of every packaged asset keyed by
// its full content hash.
//
// The index is derived data: the package manifests stay the source of
// truth and Reindex rebuilds the tables from them at any time. Its purpose
// is answering "where else does this content live", which the manifests
// alone can only answer by scanning every package.
package assetindex
