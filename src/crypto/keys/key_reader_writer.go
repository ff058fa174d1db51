package keys

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"sync"

	"github.com/btcsuite/btcd/btcec"
)

const (
	pkcs8BlockType     = "PRIVATE KEY"
	secp256k1BlockType = "SECP256K1 PRIVATE KEY"
)

// KeyReaderWriter reads and writes node signing keys from/to any format or
// support.
type KeyReaderWriter interface {
	ReadKey() (*PrivateKey, error)
	WriteKey(*PrivateKey) error
}

// PemKeyfile implements KeyReaderWriter with an unencrypted PEM file. RSA and
// P-256 keys are stored as PKCS#8, secp256k1 keys as their raw scalar.
type PemKeyfile struct {
	l       sync.Mutex
	keyfile string
}

// NewPemKeyfile instantiates a new PemKeyfile with an underlying file
func NewPemKeyfile(keyfile string) *PemKeyfile {
	return &PemKeyfile{
		keyfile: keyfile,
	}
}

// CheckFileInfo verifies that the file exists and has user permissions only.
func (k *PemKeyfile) CheckFileInfo() error {
	info, err := os.Stat(k.keyfile)
	if err != nil {
		return err
	}

	// get file permissions
	perm := info.Mode().Perm()

	// build 000111111 mask
	var nonUserMask os.FileMode = (1 << 6) - 1

	// get permissions for 'groups' and 'others'
	nonUserPerm := perm & nonUserMask

	if nonUserPerm != 0 {
		return fmt.Errorf("key file permissions should exclude 'groups' and 'others'. Got %o", perm)
	}

	return nil
}

// ReadKey implements KeyReaderWriter.
func (k *PemKeyfile) ReadKey() (*PrivateKey, error) {
	k.l.Lock()
	defer k.l.Unlock()

	if err := k.CheckFileInfo(); err != nil {
		return nil, err
	}

	buf, err := ioutil.ReadFile(k.keyfile)
	if err != nil {
		return nil, err
	}

	return ParsePemKey(buf)
}

// WriteKey implements KeyReaderWriter.
func (k *PemKeyfile) WriteKey(key *PrivateKey) error {
	k.l.Lock()
	defer k.l.Unlock()

	data, err := EncodePemKey(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(path.Dir(k.keyfile), 0700); err != nil {
		return err
	}

	return ioutil.WriteFile(k.keyfile, data, 0600)
}

// ParsePemKey decodes a key written by EncodePemKey.
func ParsePemKey(buf []byte) (*PrivateKey, error) {
	block, _ := pem.Decode(buf)
	if block == nil {
		return nil, fmt.Errorf("error decoding PEM block from data")
	}

	switch block.Type {
	case secp256k1BlockType:
		priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), block.Bytes)
		return &PrivateKey{Type: Secp256k1, secp: priv}, nil
	case pkcs8BlockType:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		switch k := key.(type) {
		case *rsa.PrivateKey:
			return &PrivateKey{Type: RSA, rsa: k}, nil
		case *ecdsa.PrivateKey:
			return &PrivateKey{Type: ECDSAP256, ecdsa: k}, nil
		}
		return nil, fmt.Errorf("unsupported private key type %T", key)
	}

	return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
}

// EncodePemKey returns the PEM encoding of key.
func EncodePemKey(key *PrivateKey) ([]byte, error) {
	var block *pem.Block

	switch key.Type {
	case Secp256k1:
		block = &pem.Block{Type: secp256k1BlockType, Bytes: key.secp.Serialize()}
	case RSA, ECDSAP256:
		var priv interface{} = key.rsa
		if key.Type == ECDSAP256 {
			priv = key.ecdsa
		}
		b, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return nil, err
		}
		block = &pem.Block{Type: pkcs8BlockType, Bytes: b}
	default:
		return nil, fmt.Errorf("unknown key type %d", key.Type)
	}

	return pem.EncodeToMemory(block), nil
}
