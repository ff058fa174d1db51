package record

import (
	"fmt"
	"strings"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Object stream constants of the v5 layout.
const (
	ObjectStreamVersion int32 = 1

	HashClassID      int64 = -0x0bdd257c5dae8be2 // 0xf422da83a251741e
	HashClassVersion int32 = 1

	// HashDigestType identifies SHA-384 in hash objects.
	HashDigestType int32 = 0x58ff811b

	RecordStreamObjectClassID      int64 = -0x1c8f6d645abd6275 // 0xe370929ba5429d8b
	RecordStreamObjectClassVersion int32 = 1
)

// readHashObject reads a running hash object: class id, class version,
// digest type, length and hash.
func readHashObject(c *streamfile.Cursor, what string) ([]byte, error) {
	classID, err := c.ReadInt64()
	if err != nil {
		return nil, err
	}
	if classID != HashClassID {
		return nil, fmt.Errorf("%s: class id %#x", what, uint64(classID))
	}
	if err := c.ReadInt32Expect(HashClassVersion, what+" class version"); err != nil {
		return nil, err
	}
	if err := c.ReadInt32Expect(HashDigestType, what+" digest type"); err != nil {
		return nil, err
	}
	return c.ReadLengthPrefixed(crypto.DigestSize, crypto.DigestSize, what)
}

func decodeV5(name string, raw []byte) (*streamfile.StreamFileRecord, error) {
	metadata := crypto.NewRunningDigest()
	c := streamfile.NewCursor(raw, metadata)

	if err := c.ReadInt32Expect(VersionFive, "version"); err != nil {
		return nil, malformed(name, err)
	}
	hapi := make([]string, 3)
	for i := range hapi {
		v, err := c.ReadInt32()
		if err != nil {
			return nil, malformed(name, err)
		}
		hapi[i] = fmt.Sprintf("%d", v)
	}
	if err := c.ReadInt32Expect(ObjectStreamVersion, "object stream version"); err != nil {
		return nil, malformed(name, err)
	}
	startHash, err := readHashObject(c, "start running hash")
	if err != nil {
		return nil, malformed(name, err)
	}

	var s scanned
	metadata.Pause()
	for {
		classID, ok := c.PeekInt64()
		if !ok {
			metadata.Resume()
			return nil, common.NewStreamErr(common.MalformedStreamFile, name, "missing end running hash")
		}
		if classID == HashClassID {
			break
		}
		if _, err := c.ReadInt64(); err != nil {
			return nil, malformed(name, err)
		}
		if classID != RecordStreamObjectClassID {
			return nil, common.NewStreamErr(common.MalformedStreamFile, name,
				"unexpected class id %#x at offset %d", uint64(classID), c.Position()-8)
		}
		if err := c.ReadInt32Expect(RecordStreamObjectClassVersion, "record stream object class version"); err != nil {
			return nil, malformed(name, err)
		}
		rec, err := c.ReadLengthPrefixed(1, MaxRecordLength, "record")
		if err != nil {
			return nil, malformed(name, err)
		}
		tx, err := c.ReadLengthPrefixed(1, MaxTransactionLength, "transaction")
		if err != nil {
			return nil, malformed(name, err)
		}
		if err := s.add(pair{transaction: tx, record: rec}); err != nil {
			return nil, malformed(name, err)
		}
	}
	metadata.Resume()

	if len(s.pairs) == 0 {
		return nil, common.NewStreamErr(common.EmptyStreamFile, name, "no record stream objects")
	}

	endHash, err := readHashObject(c, "end running hash")
	if err != nil {
		return nil, malformed(name, err)
	}
	if !c.AtEnd() {
		return nil, common.NewStreamErr(common.TrailingData, name, "%d bytes after end running hash", c.Remaining())
	}

	r := &streamfile.StreamFileRecord{
		Version:      VersionFive,
		HapiVersion:  strings.Join(hapi, "."),
		PreviousHash: copyBytes(startHash),
		Hash:         copyBytes(endHash),
		FileHash:     crypto.SHA384(raw),
		MetadataHash: metadata.Sum(),
	}
	s.apply(r, name)
	return r, nil
}
