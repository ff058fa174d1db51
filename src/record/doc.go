// Package record decodes record stream files, the files in which every node
// writes the transactions the network reached consensus on, along with their
// records.
//
// Four layouts exist. The leading int32 of a file selects one of them:
//
//  1, 2  header (version, HAPI version, previous file hash) then repeated
//        transaction/record pairs, each preceded by a marker byte.
//  5     a HAPI version triple, then a serialized object stream: a start
//        running hash, record stream objects, and an end running hash.
//  6     a RecordStreamFile protobuf message.
//
// Decode returns a streamfile.StreamFileRecord whose items are RecordItems.
package record
