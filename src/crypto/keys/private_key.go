package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"fmt"

	"github.com/btcsuite/btcd/btcec"
	"github.com/mosaicnetworks/streamgate/src/common"
)

/*
Nodes sign stream files, the engine only verifies them. Private keys exist here
so that the sign command and the tests can produce signature files that the
verifier accepts.
*/

// PrivateKey is a node signing key of any supported type.
type PrivateKey struct {
	Type KeyType

	rsa   *rsa.PrivateKey
	ecdsa *ecdsa.PrivateKey
	secp  *btcec.PrivateKey
}

// GenerateKey creates a new private key of the given type. RSA keys are 3072
// bits, as used by consensus nodes.
func GenerateKey(t KeyType) (*PrivateKey, error) {
	switch t {
	case RSA:
		return GenerateRSAKey(3072)
	case ECDSAP256:
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		return &PrivateKey{Type: ECDSAP256, ecdsa: k}, nil
	case Secp256k1:
		k, err := btcec.NewPrivateKey(btcec.S256())
		if err != nil {
			return nil, err
		}
		return &PrivateKey{Type: Secp256k1, secp: k}, nil
	}
	return nil, fmt.Errorf("unknown key type %d", t)
}

// GenerateRSAKey creates an RSA key with the given modulus size. Tests use
// small moduli to stay fast.
func GenerateRSAKey(bits int) (*PrivateKey, error) {
	k, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{Type: RSA, rsa: k}, nil
}

// Sign signs hash the way Verify expects.
func (p *PrivateKey) Sign(hash []byte) ([]byte, error) {
	digest := sha512.Sum384(hash)

	switch p.Type {
	case RSA:
		return rsa.SignPKCS1v15(rand.Reader, p.rsa, crypto.SHA384, digest[:])
	case ECDSAP256:
		return ecdsa.SignASN1(rand.Reader, p.ecdsa, digest[:])
	case Secp256k1:
		sig, err := p.secp.Sign(digest[:])
		if err != nil {
			return nil, err
		}
		return sig.Serialize(), nil
	}
	return nil, fmt.Errorf("unknown key type %d", p.Type)
}

// PublicKeyBytes returns the public key in the encoding published in address
// books.
func (p *PrivateKey) PublicKeyBytes() []byte {
	switch p.Type {
	case RSA:
		b, _ := x509.MarshalPKIXPublicKey(&p.rsa.PublicKey)
		return b
	case ECDSAP256:
		b, _ := x509.MarshalPKIXPublicKey(&p.ecdsa.PublicKey)
		return b
	case Secp256k1:
		return p.secp.PubKey().SerializeCompressed()
	}
	return nil
}

// PublicKeyHex is the hex of PublicKeyBytes.
func (p *PrivateKey) PublicKeyHex() string {
	return common.Hex(p.PublicKeyBytes())
}

// PublicKey returns the parsed public half.
func (p *PrivateKey) PublicKey() *PublicKey {
	pub, _ := ParsePublicKeyBytes(p.PublicKeyBytes())
	return pub
}
