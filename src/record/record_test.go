package record

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

const baseNanos int64 = 1600000000000000000

var hapiVersion = hapi.SemanticVersion{Major: 0, Minor: 30, Patch: 1}

func samplePairs(n int) []Pair {
	pairs := make([]Pair, n)
	for i := range pairs {
		pairs[i] = NewTransferPair(baseNanos+int64(i)*1000, "transfer")
	}
	return pairs
}

func collect(t *testing.T, rec *streamfile.StreamFileRecord) []*RecordItem {
	var items []*RecordItem
	it := rec.Items()
	for it.Next() {
		require.NoError(t, it.Err())
		items = append(items, it.Item().(*RecordItem))
	}
	return items
}

func TestDecodeV2RoundTrip(t *testing.T) {
	prev := crypto.SHA384([]byte("previous"))
	pairs := samplePairs(3)
	data := EncodeV2(10, prev, pairs)

	rec, err := Decode("2020-09-13T12_26_40.000000000Z.rcd", data)
	require.NoError(t, err)

	require.Equal(t, VersionTwo, rec.Version)
	require.Equal(t, "10", rec.HapiVersion)
	require.Equal(t, prev, rec.PreviousHash)
	require.Equal(t, 3, rec.Count)
	require.Equal(t, baseNanos, rec.ConsensusStart)
	require.Equal(t, baseNanos+2000, rec.ConsensusEnd)

	header := data[:v2HeaderLength]
	expected := crypto.SimpleHashFromTwoHashes(header, crypto.SHA384(data[v2HeaderLength:]))
	require.Equal(t, expected, rec.Hash)
	require.Equal(t, expected, rec.FileHash)

	fileHash, err := FileHash(rec.Name, data)
	require.NoError(t, err)
	require.Equal(t, expected, fileHash)

	items := collect(t, rec)
	require.Len(t, items, 3)
	for i, item := range items {
		require.Equal(t, i, item.Index())
		require.Equal(t, baseNanos+int64(i)*1000, item.ConsensusTimestamp())
		require.Equal(t, pairs[i].Transaction, item.TransactionBytes)
		require.Equal(t, pairs[i].Record, item.RecordBytes)
		require.Equal(t, hapi.KindCryptoTransfer, item.Kind())
		require.Equal(t, "transfer", item.Body.Memo)
	}

	// Items can be walked again.
	require.Len(t, collect(t, rec), 3)
}

func TestDecodeV1HashesWholeFile(t *testing.T) {
	data := EncodeV1(3, nil, samplePairs(2))
	rec, err := Decode("2020-09-13T12_26_40Z.rcd", data)
	require.NoError(t, err)
	require.Equal(t, crypto.SHA384(data), rec.Hash)
	require.Equal(t, make([]byte, crypto.DigestSize), rec.PreviousHash)
	require.Equal(t, 2, rec.Count)
}

func TestDecodeV1V2Errors(t *testing.T) {
	data := EncodeV2(10, nil, samplePairs(2))

	badMarker := append([]byte(nil), data...)
	badMarker[v2HeaderLength] = 7
	_, err := Decode("bad-marker.rcd", badMarker)
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	badPrevMarker := append([]byte(nil), data...)
	badPrevMarker[8] = 2
	_, err = Decode("bad-prev-marker.rcd", badPrevMarker)
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	_, err = Decode("truncated.rcd", data[:len(data)-3])
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	_, err = Decode("header.rcd", data[:20])
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)
}

func TestDecodeUnknownVersion(t *testing.T) {
	data := EncodeV2(10, nil, samplePairs(1))
	data[3] = 4
	_, err := Decode("v4.rcd", data)
	require.True(t, common.IsStream(err, common.UnknownVersion), "%v", err)
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	_, err = Decode("short.rcd", []byte{0, 0})
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)
}

func TestDecodeV5(t *testing.T) {
	start := crypto.SHA384([]byte("start"))
	pairs := samplePairs(4)
	data := EncodeV5(hapiVersion, start, pairs)

	rec, err := Decode("2020-09-13T12_26_40.000000000Z.rcd", data)
	require.NoError(t, err)
	require.Equal(t, VersionFive, rec.Version)
	require.Equal(t, "0.30.1", rec.HapiVersion)
	require.Equal(t, start, rec.PreviousHash)
	require.Equal(t, crypto.SHA384(data), rec.FileHash)
	require.Equal(t, 4, rec.Count)

	end := start
	for _, p := range pairs {
		end = NextRunningHash(end, p)
	}
	require.Equal(t, end, rec.Hash)

	// The metadata hash leaves out the record stream objects.
	var meta bytes.Buffer
	meta.Write(data[:4*5])
	var w streamfile.Writer
	writeHashObject(&w, start)
	writeHashObject(&w, end)
	meta.Write(w.Bytes())
	require.Equal(t, crypto.SHA384(meta.Bytes()), rec.MetadataHash)

	// The end hash covers the items, so the metadata hash moves with them.
	other, err := Decode("other.rcd", EncodeV5(hapiVersion, start, samplePairs(1)))
	require.NoError(t, err)
	require.NotEqual(t, rec.MetadataHash, other.MetadataHash)

	items := collect(t, rec)
	require.Len(t, items, 4)
	require.Equal(t, pairs[3].Record, items[3].RecordBytes)
}

func TestDecodeV5Empty(t *testing.T) {
	data := EncodeV5(hapiVersion, nil, nil)
	_, err := Decode("empty.rcd", data)
	require.True(t, common.IsStream(err, common.EmptyStreamFile), "%v", err)
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)
}

func TestDecodeV5TrailingData(t *testing.T) {
	data := EncodeV5(hapiVersion, nil, samplePairs(2))
	data = append(data, 0xde, 0xad)
	_, err := Decode("trailing.rcd", data)
	require.True(t, common.IsStream(err, common.TrailingData), "%v", err)
}

func TestDecodeV5MissingEndHash(t *testing.T) {
	data := EncodeV5(hapiVersion, nil, samplePairs(2))
	// Drop the end running hash object: class id, version, digest type,
	// length, hash.
	data = data[:len(data)-(8+4+4+4+crypto.DigestSize)]
	_, err := Decode("no-end.rcd", data)
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)
}

func TestDecodeV6(t *testing.T) {
	start := crypto.SHA384([]byte("start"))
	pairs := samplePairs(3)
	data := EncodeV6(hapiVersion, start, 42, pairs)

	rec, err := Decode("2022-09-13T12_26_40.000000000Z.rcd", data)
	require.NoError(t, err)
	require.Equal(t, VersionSix, rec.Version)
	require.Equal(t, int64(42), rec.BlockNumber)
	require.Equal(t, start, rec.PreviousHash)
	require.Equal(t, crypto.SHA384(data), rec.FileHash)
	require.Equal(t, 3, rec.Count)

	var meta streamfile.Writer
	meta.WriteInt32(VersionSix)
	meta.WriteInt32(hapiVersion.Major)
	meta.WriteInt32(hapiVersion.Minor)
	meta.WriteInt32(hapiVersion.Patch)
	meta.Write(start)
	meta.Write(rec.Hash)
	meta.WriteInt64(42)
	require.Equal(t, crypto.SHA384(meta.Bytes()), rec.MetadataHash)

	// Metadata identity does not depend on the items, only on the hashes
	// and block number.
	msg, err := hapi.UnmarshalRecordStreamFile(data[4:])
	require.NoError(t, err)
	msg.Items = msg.Items[:1]
	shorter := append([]byte{0, 0, 0, 6}, msg.Marshal()...)
	rec2, err := Decode("shorter.rcd", shorter)
	require.NoError(t, err)
	require.Equal(t, rec.MetadataHash, rec2.MetadataHash)
	require.NotEqual(t, rec.FileHash, rec2.FileHash)

	require.Len(t, collect(t, rec), 3)
}

func TestDecodeV6Empty(t *testing.T) {
	_, err := Decode("empty.rcd", EncodeV6(hapiVersion, nil, 1, nil))
	require.True(t, common.IsStream(err, common.EmptyStreamFile), "%v", err)
}

func TestDecodeCompressed(t *testing.T) {
	data := EncodeV6(hapiVersion, nil, 7, samplePairs(2))
	gz := streamfile.Compress(data)

	rec, err := Decode("2022-09-13T12_26_40.000000000Z.rcd.gz", gz)
	require.NoError(t, err)
	require.Equal(t, crypto.SHA384(data), rec.FileHash)
	require.Equal(t, len(data), rec.Size)

	hash, err := FileHash("2022-09-13T12_26_40.000000000Z.rcd.gz", gz)
	require.NoError(t, err)
	require.Equal(t, rec.FileHash, hash)
}

func TestChainedFiles(t *testing.T) {
	first := EncodeV5(hapiVersion, nil, samplePairs(2))
	rec1, err := Decode("a.rcd", first)
	require.NoError(t, err)

	second := EncodeV5(hapiVersion, rec1.Hash, samplePairs(1))
	rec2, err := Decode("b.rcd", second)
	require.NoError(t, err)
	require.Equal(t, rec1.Hash, rec2.PreviousHash)
}
