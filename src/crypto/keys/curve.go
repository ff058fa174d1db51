package keys

import (
	"github.com/btcsuite/btcd/btcec"
)

// KeyType identifies the signature scheme of a node key.
type KeyType int

const (
	// RSA keys sign with PKCS#1 v1.5 over SHA-384.
	RSA KeyType = iota
	// ECDSAP256 keys sign with ASN.1 encoded ECDSA over SHA-384.
	ECDSAP256
	// Secp256k1 keys sign with DER encoded ECDSA over SHA-384.
	Secp256k1
)

// String ...
func (k KeyType) String() string {
	switch k {
	case RSA:
		return "RSA"
	case ECDSAP256:
		return "ECDSA-P256"
	case Secp256k1:
		return "secp256k1"
	default:
		return "unknown"
	}
}

//S256 returns btcsuite's golang implementation of secp256k1.
func S256() *btcec.KoblitzCurve {
	return btcec.S256()
}
