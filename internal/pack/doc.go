// Package pack assembles a folder of audio files into a package: a directory
// under the packages root holding copies of every eligible file plus a JSON
// manifest describing them.
//
// Assembly is idempotent. An existing package is left untouched unless the
// caller asks to overwrite it, and even then individual files are only ever
// added, never replaced. Manifests are written atomically and the catalog is
// rebuilt from disk after every successful build.
//
// Package ids are slugs of the title and are not content-derived; enable
// Layout.IDHashSuffix to append a short package hash when two sources may
// share a title.
package pack
