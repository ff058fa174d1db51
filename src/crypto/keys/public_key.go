package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	"github.com/mosaicnetworks/streamgate/src/common"
)

// PublicKey is a parsed node key.
type PublicKey struct {
	Type KeyType

	rsa   *rsa.PublicKey
	ecdsa *ecdsa.PublicKey
	secp  *btcec.PublicKey

	raw []byte
}

// ParsePublicKey decodes the hex representation of a node key as found in the
// address book.
func ParsePublicKey(hexKey string) (*PublicKey, error) {
	raw, err := common.DecodeFromString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("public key is not hex: %v", err)
	}
	return ParsePublicKeyBytes(raw)
}

// ParsePublicKeyBytes decodes a DER SubjectPublicKeyInfo or a raw secp256k1
// point.
func ParsePublicKeyBytes(raw []byte) (*PublicKey, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty public key")
	}

	if pub, err := x509.ParsePKIXPublicKey(raw); err == nil {
		switch k := pub.(type) {
		case *rsa.PublicKey:
			return &PublicKey{Type: RSA, rsa: k, raw: raw}, nil
		case *ecdsa.PublicKey:
			return &PublicKey{Type: ECDSAP256, ecdsa: k, raw: raw}, nil
		default:
			return nil, fmt.Errorf("unsupported public key type %T", pub)
		}
	}

	if len(raw) == btcec.PubKeyBytesLenCompressed || len(raw) == btcec.PubKeyBytesLenUncompressed {
		secp, err := btcec.ParsePubKey(raw, btcec.S256())
		if err != nil {
			return nil, err
		}
		return &PublicKey{Type: Secp256k1, secp: secp, raw: raw}, nil
	}

	return nil, fmt.Errorf("unrecognised public key encoding (%d bytes)", len(raw))
}

// Bytes returns the encoding the key was parsed from.
func (k *PublicKey) Bytes() []byte {
	return k.raw
}

// Hex returns the lowercase hex form of Bytes.
func (k *PublicKey) Hex() string {
	return common.Hex(k.raw)
}

// Verify checks that sig is a signature of hash by the owner of this key. The
// signed message is the hash itself, which the scheme digests again with
// SHA-384.
func (k *PublicKey) Verify(hash, sig []byte) bool {
	if len(sig) == 0 {
		return false
	}

	digest := sha512.Sum384(hash)

	switch k.Type {
	case RSA:
		return rsa.VerifyPKCS1v15(k.rsa, crypto.SHA384, digest[:], sig) == nil
	case ECDSAP256:
		return ecdsa.VerifyASN1(k.ecdsa, digest[:], sig)
	case Secp256k1:
		s, err := btcec.ParseDERSignature(sig, btcec.S256())
		if err != nil {
			return false
		}
		return s.Verify(digest[:], k.secp)
	}
	return false
}
