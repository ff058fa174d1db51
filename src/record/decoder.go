package record

import (
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Supported versions.
const (
	VersionOne  int32 = 1
	VersionTwo  int32 = 2
	VersionFive int32 = 5
	VersionSix  int32 = 6
)

// Field size limits.
const (
	MaxTransactionLength = 64 * 1024
	MaxRecordLength      = 64 * 1024
)

// Decode parses an accepted record file. name is the data filename; it
// selects decompression and labels errors.
func Decode(name string, data []byte) (*streamfile.StreamFileRecord, error) {
	raw, err := streamfile.Decompress(name, data)
	if err != nil {
		return nil, common.WrapStreamErr(common.MalformedStreamFile, name, err)
	}

	version, err := PeekVersion(raw)
	if err != nil {
		return nil, common.WrapStreamErr(common.MalformedStreamFile, name, err)
	}

	var rec *streamfile.StreamFileRecord
	switch version {
	case VersionOne, VersionTwo:
		rec, err = decodeV1V2(name, version, raw)
	case VersionFive:
		rec, err = decodeV5(name, raw)
	case VersionSix:
		rec, err = decodeV6(name, raw)
	default:
		return nil, common.NewStreamErr(common.UnknownVersion, name, "record file version %d", version)
	}
	if err != nil {
		return nil, err
	}

	rec.Name = name
	rec.Stream = streamfile.RecordStream
	rec.Size = len(raw)
	return rec, nil
}

// PeekVersion reads the version tag without decoding the file.
func PeekVersion(raw []byte) (int32, error) {
	c := streamfile.NewCursor(raw)
	return c.ReadInt32()
}

// FileHash computes the hash node signatures vouch for, without decoding the
// items. For v2 files this is the combined header/body digest, for every
// other version the digest of the whole file.
func FileHash(name string, data []byte) ([]byte, error) {
	raw, err := streamfile.Decompress(name, data)
	if err != nil {
		return nil, err
	}
	version, err := PeekVersion(raw)
	if err != nil {
		return nil, err
	}
	if version == VersionTwo {
		if len(raw) < v2HeaderLength {
			return nil, common.NewStreamErr(common.MalformedStreamFile, name, "v2 header truncated")
		}
		return v2Hash(raw[:v2HeaderLength], crypto.SHA384(raw[v2HeaderLength:])), nil
	}
	return crypto.SHA384(raw), nil
}

func v2Hash(header, bodyHash []byte) []byte {
	return crypto.SimpleHashFromTwoHashes(header, bodyHash)
}

func malformed(name string, err error) error {
	if err == nil {
		return nil
	}
	return common.WrapStreamErr(common.MalformedStreamFile, name, err)
}
