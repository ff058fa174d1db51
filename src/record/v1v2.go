package record

import (
	"fmt"

	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Markers of the v1/v2 layout.
const (
	markerPrevHash byte = 1
	markerRecord   byte = 2
)

// version, hapi version, marker, previous hash
const v2HeaderLength = 4 + 4 + 1 + crypto.DigestSize

func decodeV1V2(name string, version int32, raw []byte) (*streamfile.StreamFileRecord, error) {
	c := streamfile.NewCursor(raw)

	if err := c.ReadInt32Expect(version, "version"); err != nil {
		return nil, malformed(name, err)
	}
	hapiVersion, err := c.ReadInt32()
	if err != nil {
		return nil, malformed(name, err)
	}
	if err := c.ReadMarker(markerPrevHash, "previous hash"); err != nil {
		return nil, malformed(name, err)
	}
	prevHash, err := c.ReadBytes(crypto.DigestSize)
	if err != nil {
		return nil, malformed(name, err)
	}

	var s scanned
	for !c.AtEnd() {
		if err := c.ReadMarker(markerRecord, "record"); err != nil {
			return nil, malformed(name, err)
		}
		tx, err := c.ReadLengthPrefixed(1, MaxTransactionLength, "transaction")
		if err != nil {
			return nil, malformed(name, err)
		}
		rec, err := c.ReadLengthPrefixed(1, MaxRecordLength, "record")
		if err != nil {
			return nil, malformed(name, err)
		}
		if err := s.add(pair{transaction: tx, record: rec}); err != nil {
			return nil, malformed(name, err)
		}
	}

	var fileHash []byte
	if version == VersionOne {
		fileHash = crypto.SHA384(raw)
	} else {
		fileHash = v2Hash(raw[:v2HeaderLength], crypto.SHA384(raw[v2HeaderLength:]))
	}

	r := &streamfile.StreamFileRecord{
		Version:      version,
		HapiVersion:  fmt.Sprintf("%d", hapiVersion),
		PreviousHash: copyBytes(prevHash),
		Hash:         fileHash,
		FileHash:     fileHash,
	}
	s.apply(r, name)
	return r, nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
