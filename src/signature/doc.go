// Package signature parses the detached signature files nodes write next to
// every stream file and verifies them against the address book.
//
// Three layouts exist, told apart by the first byte:
//
//	4      legacy: 0x04, file hash, 0x03, length, signature
//	5      0x05, then file hash, file signature, metadata hash and metadata
//	       signature, each as a serialized object
//	6      0x06, then a SignatureFile protobuf message
//
// A signature from a node that is not in the address book, or one that does
// not verify, is reported as invalid. It is never an error: untrusted signers
// are simply left out of the quorum count.
package signature
