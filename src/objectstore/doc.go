// Package objectstore lists and fetches stream files from the bucket nodes
// upload them to.
//
// Keys use forward slashes whatever the backend:
//
//	<stream dir>/<node prefix><node account>/<filename>
//	recordstreams/record0.0.3/2021-03-05T14_00_00.123456789Z.rcd
//
// The bucket is untrusted. Nothing read from it is believed before the
// downloader has matched it against a quorum of node signatures.
package objectstore
