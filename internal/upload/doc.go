// Package upload pins files and JSON documents to an IPFS pinning service.
//
// The client speaks the Pinata pinning API (pinFileToIPFS and
// pinJSONToIPFS) with bearer-token auth, requests CIDv1 content
// identifiers, and turns the returned CID into a gateway URL. Transient
// failures (timeouts, 408, 429, 5xx) are retried with exponential backoff,
// honouring Retry-After when the service sends it.
//
// Callers depend on the Uploader interface so tests can substitute a fake
// without network access.
package upload
