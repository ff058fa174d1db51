// Package importer drives the ingestion of stream files.
//
// Each cycle, and for each configured stream, the Importer asks the
// downloader for the files a quorum of nodes agrees on, decodes them, checks
// the hash chain, feeds roster updates found in record files to the address
// book assembler, and hands the content to a Sink in batches. The checkpoint
// of a stream, and with it the watermark, only moves once a file has been
// fully persisted. A failure stops the stream's cycle at the failing file,
// which is retried on the next cycle.
//
// Files of one stream are resolved concurrently but persisted one at a time
// in filename order.
package importer
