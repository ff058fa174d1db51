// Package downloader decides which copy of each stream file is authentic.
//
// Every node uploads its own copy of a file together with a signature of the
// file's hash. For each filename past the watermark, the Coordinator gathers
// the signature files of all nodes, keeps those that verify against the
// address book, and groups them by declared hash. A hash is accepted when the
// number of nodes vouching for it is strictly greater than two thirds of the
// nodes in the address book. The data file is then fetched from the
// supporting nodes, in node id order, until one copy hashes to the accepted
// hash.
//
// Failing to reach a quorum is not an error: the filename is simply tried
// again on the next cycle. Files are returned in filename order and only up
// to the first filename that could not be resolved, so the watermark never
// skips a file.
package downloader
