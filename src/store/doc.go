// Package store keeps the durable state of the engine and receives the
// decoded content of accepted files.
//
// A Store holds, per stream, the checkpoint of the last file whose content was
// fully persisted (its filename is the download watermark, its hash the chain
// tip) and every address book the assembler has published. A Sink receives
// the items of accepted files in batches.
//
// The badger implementations share a single database, so items, checkpoints
// and address books survive restarts together.
package store
