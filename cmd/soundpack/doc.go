// Command soundpack assembles audio sample packages for the engine
// resources tree and builds derived artifact records.
//
// Package commands (build, list, verify, export, index) work against the
// packages directory named in the configuration file. Artifact and upload
// commands additionally use the metadata directory and the pinning service.
package main
