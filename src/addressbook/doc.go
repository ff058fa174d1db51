// Package addressbook reconstructs the network roster from the file updates
// and appends recorded in the record stream.
//
// The roster is written to two files, the primary (0.0.101) and the
// secondary (0.0.102). A FileUpdate replaces the content of a file and a
// FileAppend extends it; large rosters span one update and several appends.
// The Assembler buffers fragments per slot and publishes a new AddressBook
// every time the buffer parses as a complete roster.
//
// Signature verification asks for Current(), which prefers the secondary
// slot.
package addressbook
