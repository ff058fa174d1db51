// Package balance decodes account balance snapshot files.
//
// Balance files are CSV. A few header lines come first, the last of which
// names the columns and contains the word "shard". Every following line is
// one account:
//
//	shard,realm,account,balance[,tokenBalances]
//
// Version 1 files have exactly four columns and usually take their consensus
// timestamp from the filename. Version 2 files start with "# 0.1.0", carry a
// "timestamp:" header line and may add a fifth column holding base64 encoded
// token balances. When a header timestamp is present it is authoritative; a
// disagreement with the filename is only logged.
//
// Rows are decoded lazily. A bad row surfaces as an InvalidDatasetRow error
// for that row only, while a bad header fails the whole file.
package balance
