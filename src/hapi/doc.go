// Package hapi decodes and encodes the handful of network API protobuf
// messages the ingestion engine needs to look into: transactions and their
// records, node address books, token balances, and the protobuf envelopes of
// v6 record and signature files.
//
// Messages are read and written field by field with protowire rather than
// through generated code. Unknown fields are skipped, so newer producers stay
// readable; a known field arriving with the wrong wire type, or a truncated
// field, is an error.
package hapi
