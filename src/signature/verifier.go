package signature

import (
	"bytes"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto/keys"
)

// DefaultKeyCacheSize is the number of parsed public keys kept in memory.
const DefaultKeyCacheSize = 256

// Candidate is the signature file one node published for a data file.
type Candidate struct {
	// Filename is the name of the signature file.
	Filename string
	// Account is the node account owning the directory the file was listed
	// in, eg. 0.0.3
	Account string
	Data    []byte
}

// Result is the outcome of verifying a Candidate. DeclaredHash is filled in
// whenever the file parses, but may only be trusted when Valid is true.
type Result struct {
	Candidate    Candidate
	Node         addressbook.NodeEntry
	Valid        bool
	Version      byte
	DeclaredHash []byte
	MetadataHash []byte
	Reason       string
}

func (r Result) String() string {
	status := "valid"
	if !r.Valid {
		status = "invalid: " + r.Reason
	}
	return fmt.Sprintf("%s from %s %s", r.Candidate.Filename, r.Candidate.Account, status)
}

// Verifier checks signature files against node public keys.
type Verifier struct {
	keys   *lru.Cache[string, *keys.PublicKey]
	logger *logrus.Entry
}

// NewVerifier ...
func NewVerifier(cacheSize int, logger *logrus.Entry) (*Verifier, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultKeyCacheSize
	}
	cache, err := lru.New[string, *keys.PublicKey](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Verifier{
		keys:   cache,
		logger: logger,
	}, nil
}

// Verify parses the candidate and checks its signatures with the key of its
// node in book. The metadata signature, when present, must verify too.
func (v *Verifier) Verify(c Candidate, book *addressbook.AddressBook) Result {
	res := Result{Candidate: c}

	node, ok := book.ByAccount(c.Account)
	if !ok {
		return v.invalid(res, "node not in address book")
	}
	res.Node = node

	f, err := Parse(c.Filename, c.Data)
	if err != nil {
		return v.invalid(res, err.Error())
	}
	res.Version = f.Version
	res.DeclaredHash = f.FileHash
	res.MetadataHash = f.MetadataHash

	pub, err := v.publicKey(node.PublicKey)
	if err != nil {
		return v.invalid(res, fmt.Sprintf("public key: %v", err))
	}

	if !pub.Verify(f.FileHash, f.FileSignature) {
		return v.invalid(res, "file signature does not verify")
	}
	if len(f.MetadataHash) > 0 && !pub.Verify(f.MetadataHash, f.MetadataSignature) {
		return v.invalid(res, "metadata signature does not verify")
	}

	res.Valid = true
	return res
}

func (v *Verifier) invalid(res Result, reason string) Result {
	res.Reason = reason
	v.logger.WithFields(logrus.Fields{
		"file":    res.Candidate.Filename,
		"account": res.Candidate.Account,
		"reason":  reason,
	}).Debug("Signature rejected")
	return res
}

func (v *Verifier) publicKey(hexKey string) (*keys.PublicKey, error) {
	if pub, ok := v.keys.Get(hexKey); ok {
		return pub, nil
	}
	pub, err := keys.ParsePublicKey(hexKey)
	if err != nil {
		return nil, err
	}
	v.keys.Add(hexKey, pub)
	return pub, nil
}

// Sign produces the signature file a node would publish for a data file with
// the given hashes. metadataHash is ignored by the legacy layout.
func Sign(key *keys.PrivateKey, version byte, fileHash, metadataHash []byte) ([]byte, error) {
	f := &File{
		Version:  version,
		FileHash: fileHash,
	}

	var err error
	if f.FileSignature, err = key.Sign(fileHash); err != nil {
		return nil, err
	}

	switch version {
	case VersionLegacy:
	case VersionFive, VersionSix:
		if len(metadataHash) > 0 {
			f.MetadataHash = metadataHash
			if f.MetadataSignature, err = key.Sign(metadataHash); err != nil {
				return nil, err
			}
		} else if version == VersionFive {
			return nil, fmt.Errorf("version 5 signature files need a metadata hash")
		}
	default:
		return nil, common.NewStreamErr(common.UnknownVersion, "signature", "version %d", version)
	}

	return f.Marshal(), nil
}

// VersionFor returns the signature file version that accompanies a stream
// file of the given version.
func VersionFor(streamVersion int32) byte {
	switch {
	case streamVersion >= 6:
		return VersionSix
	case streamVersion == 5:
		return VersionFive
	default:
		return VersionLegacy
	}
}

// SameHash ...
func SameHash(a, b []byte) bool {
	return len(a) > 0 && bytes.Equal(a, b)
}
