package hapi

import "fmt"

// HashAlgorithmSHA384 is the only hash algorithm used by stream files.
const HashAlgorithmSHA384 int32 = 1

// SignatureTypeSHA384WithRSA identifies signatures in v6 signature files.
const SignatureTypeSHA384WithRSA int32 = 1

// HashObject is a hash tagged with its algorithm.
type HashObject struct {
	Algorithm int32
	Length    int32
	Hash      []byte
}

// NewHashObject ...
func NewHashObject(hash []byte) *HashObject {
	return &HashObject{Algorithm: HashAlgorithmSHA384, Length: int32(len(hash)), Hash: hash}
}

// Marshal ...
func (h *HashObject) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(h.Algorithm))
	b = appendVarintField(b, 2, uint64(h.Length))
	b = appendBytesField(b, 3, h.Hash)
	return b
}

// UnmarshalHashObject decodes a HashObject and checks that the declared length
// matches the hash.
func UnmarshalHashObject(b []byte) (*HashObject, error) {
	h := &HashObject{}
	err := walk(b, func(f field) error {
		var (
			v   int64
			err error
		)
		switch f.num {
		case 1:
			v, err = f.int64()
			h.Algorithm = int32(v)
		case 2:
			v, err = f.int64()
			h.Length = int32(v)
		case 3:
			h.Hash, err = f.message()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if int(h.Length) != len(h.Hash) {
		return nil, fmt.Errorf("hash object declares %d bytes, has %d", h.Length, len(h.Hash))
	}
	return h, nil
}

// RecordStreamItem is a transaction and its record, both kept serialized.
type RecordStreamItem struct {
	Transaction []byte
	Record      []byte
}

// RecordStreamFile is the protobuf body of a v6 record file.
type RecordStreamFile struct {
	HapiVersion   SemanticVersion
	StartHash     *HashObject
	Items         []RecordStreamItem
	EndHash       *HashObject
	BlockNumber   int64
	SidecarsCount int
}

// Marshal ...
func (r *RecordStreamFile) Marshal() []byte {
	var b []byte
	b = appendMessageField(b, 1, r.HapiVersion.Marshal())
	if r.StartHash != nil {
		b = appendMessageField(b, 2, r.StartHash.Marshal())
	}
	for _, item := range r.Items {
		var ib []byte
		ib = appendMessageField(ib, 1, item.Transaction)
		ib = appendMessageField(ib, 2, item.Record)
		b = appendMessageField(b, 3, ib)
	}
	if r.EndHash != nil {
		b = appendMessageField(b, 4, r.EndHash.Marshal())
	}
	b = appendVarintField(b, 5, uint64(r.BlockNumber))
	return b
}

// UnmarshalRecordStreamFile ...
func UnmarshalRecordStreamFile(b []byte) (*RecordStreamFile, error) {
	r := &RecordStreamFile{}
	err := walk(b, func(f field) error {
		var (
			m   []byte
			err error
		)
		switch f.num {
		case 1:
			if m, err = f.message(); err == nil {
				r.HapiVersion, err = UnmarshalSemanticVersion(m)
			}
		case 2:
			if m, err = f.message(); err == nil {
				r.StartHash, err = UnmarshalHashObject(m)
			}
		case 3:
			if m, err = f.message(); err == nil {
				var item RecordStreamItem
				err = walk(m, func(itf field) error {
					var e error
					switch itf.num {
					case 1:
						item.Transaction, e = itf.message()
					case 2:
						item.Record, e = itf.message()
					}
					return e
				})
				r.Items = append(r.Items, item)
			}
		case 4:
			if m, err = f.message(); err == nil {
				r.EndHash, err = UnmarshalHashObject(m)
			}
		case 5:
			r.BlockNumber, err = f.int64()
		case 6:
			r.SidecarsCount++
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SignatureObject is one signature in a v6 signature file, along with the
// hash it signs.
type SignatureObject struct {
	Type      int32
	Length    int32
	Checksum  int32
	Signature []byte
	HashObj   *HashObject
}

// NewSignatureObject ...
func NewSignatureObject(hash, sig []byte) *SignatureObject {
	return &SignatureObject{
		Type:      SignatureTypeSHA384WithRSA,
		Length:    int32(len(sig)),
		Checksum:  101 - int32(len(sig)),
		Signature: sig,
		HashObj:   NewHashObject(hash),
	}
}

// Marshal ...
func (s *SignatureObject) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(s.Type))
	b = appendVarintField(b, 2, uint64(s.Length))
	b = appendVarintField(b, 3, uint64(s.Checksum))
	b = appendBytesField(b, 4, s.Signature)
	if s.HashObj != nil {
		b = appendMessageField(b, 5, s.HashObj.Marshal())
	}
	return b
}

func unmarshalSignatureObject(b []byte) (*SignatureObject, error) {
	s := &SignatureObject{}
	err := walk(b, func(f field) error {
		var (
			v   int64
			m   []byte
			err error
		)
		switch f.num {
		case 1:
			v, err = f.int64()
			s.Type = int32(v)
		case 2:
			v, err = f.int64()
			s.Length = int32(v)
		case 3:
			v, err = f.int64()
			s.Checksum = int32(v)
		case 4:
			s.Signature, err = f.message()
		case 5:
			if m, err = f.message(); err == nil {
				s.HashObj, err = UnmarshalHashObject(m)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if int(s.Length) != len(s.Signature) {
		return nil, fmt.Errorf("signature object declares %d bytes, has %d", s.Length, len(s.Signature))
	}
	if s.Checksum != 101-s.Length {
		return nil, fmt.Errorf("signature object checksum %d does not match length %d", s.Checksum, s.Length)
	}
	if s.HashObj == nil {
		return nil, fmt.Errorf("signature object without hash")
	}
	return s, nil
}

// SignatureFile is the protobuf body of a v6 signature file.
type SignatureFile struct {
	FileSignature     *SignatureObject
	MetadataSignature *SignatureObject
}

// Marshal ...
func (s *SignatureFile) Marshal() []byte {
	var b []byte
	if s.FileSignature != nil {
		b = appendMessageField(b, 1, s.FileSignature.Marshal())
	}
	if s.MetadataSignature != nil {
		b = appendMessageField(b, 2, s.MetadataSignature.Marshal())
	}
	return b
}

// UnmarshalSignatureFile ...
func UnmarshalSignatureFile(b []byte) (*SignatureFile, error) {
	s := &SignatureFile{}
	err := walk(b, func(f field) error {
		var (
			m   []byte
			err error
		)
		switch f.num {
		case 1:
			if m, err = f.message(); err == nil {
				s.FileSignature, err = unmarshalSignatureObject(m)
			}
		case 2:
			if m, err = f.message(); err == nil {
				s.MetadataSignature, err = unmarshalSignatureObject(m)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.FileSignature == nil {
		return nil, fmt.Errorf("signature file without file signature")
	}
	return s, nil
}
