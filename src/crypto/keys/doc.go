// Package keys implements the public key cryptography used to check the
// signatures that network nodes attach to the files they upload.
//
// A node publishes its public key in the address book. The key is stored as a
// hex string, either the DER encoding of an X.509 SubjectPublicKeyInfo (RSA
// or ECDSA P-256 keys), or the raw compressed/uncompressed form of a point on
// the secp256k1 curve. Whatever the key type, a node signs the SHA-384 hash of
// the file hash it vouches for.
package keys
