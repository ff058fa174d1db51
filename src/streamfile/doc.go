// Package streamfile holds what every stream decoder shares: the binary
// cursor that reads length-prefixed big-endian fields while feeding running
// digests, the filename conventions of the object store, and the decoded
// envelope (StreamFileRecord) with its lazy item sequence.
package streamfile
