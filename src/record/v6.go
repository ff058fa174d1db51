package record

import (
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

func decodeV6(name string, raw []byte) (*streamfile.StreamFileRecord, error) {
	c := streamfile.NewCursor(raw)
	if err := c.ReadInt32Expect(VersionSix, "version"); err != nil {
		return nil, malformed(name, err)
	}

	msg, err := hapi.UnmarshalRecordStreamFile(c.Rest())
	if err != nil {
		return nil, malformed(name, err)
	}
	if msg.StartHash == nil || msg.EndHash == nil {
		return nil, common.NewStreamErr(common.MalformedStreamFile, name, "missing running hash")
	}
	if len(msg.StartHash.Hash) != crypto.DigestSize || len(msg.EndHash.Hash) != crypto.DigestSize {
		return nil, common.NewStreamErr(common.MalformedStreamFile, name, "running hash is not %d bytes", crypto.DigestSize)
	}
	if len(msg.Items) == 0 {
		return nil, common.NewStreamErr(common.EmptyStreamFile, name, "no record stream items")
	}

	var s scanned
	for _, item := range msg.Items {
		if len(item.Transaction) > MaxTransactionLength || len(item.Record) > MaxRecordLength {
			return nil, common.NewStreamErr(common.MalformedStreamFile, name, "item %d exceeds size limit", len(s.pairs))
		}
		if err := s.add(pair{transaction: item.Transaction, record: item.Record}); err != nil {
			return nil, malformed(name, err)
		}
	}

	r := &streamfile.StreamFileRecord{
		Version:      VersionSix,
		HapiVersion:  msg.HapiVersion.String(),
		PreviousHash: copyBytes(msg.StartHash.Hash),
		Hash:         copyBytes(msg.EndHash.Hash),
		FileHash:     crypto.SHA384(raw),
		MetadataHash: v6MetadataHash(msg),
		BlockNumber:  msg.BlockNumber,
	}
	s.apply(r, name)
	return r, nil
}

// v6MetadataHash digests the version, the HAPI triple, the raw bytes of both
// running hashes and the block number. Items do not contribute.
func v6MetadataHash(msg *hapi.RecordStreamFile) []byte {
	var w streamfile.Writer
	w.WriteInt32(VersionSix)
	w.WriteInt32(msg.HapiVersion.Major)
	w.WriteInt32(msg.HapiVersion.Minor)
	w.WriteInt32(msg.HapiVersion.Patch)
	w.Write(msg.StartHash.Hash)
	w.Write(msg.EndHash.Hash)
	w.WriteInt64(msg.BlockNumber)
	return crypto.SHA384(w.Bytes())
}
