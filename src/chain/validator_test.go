package chain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/record"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

var hapiVersion = hapi.SemanticVersion{Minor: 30}

func decode(t *testing.T, name string, data []byte) *streamfile.StreamFileRecord {
	rec, err := record.Decode(name, data)
	require.NoError(t, err)
	return rec
}

// Every accepted file must declare the hash of the file accepted before it.
func TestConsecutiveFilesLink(t *testing.T) {
	v := NewValidator(common.NewTestEntry(t, "chain"))

	prev := make([]byte, crypto.DigestSize)
	var records []*streamfile.StreamFileRecord
	for i := 0; i < 5; i++ {
		pairs := []record.Pair{record.NewTransferPair(int64(i+1)*1000, "x")}
		rec := decode(t, "f.rcd", record.EncodeV5(hapiVersion, prev, pairs))
		res := v.Accept(rec)
		require.False(t, res.Discontinuity, "file %d", i)
		records = append(records, rec)
		prev = rec.Hash
	}

	for i := 1; i < len(records); i++ {
		require.Equal(t, records[i-1].Hash, records[i].PreviousHash)
	}
	require.Equal(t, records[4].Hash, v.Tip(streamfile.RecordStream.Name))
	require.Zero(t, v.Discontinuities())
}

func TestDiscontinuityIsReportedAndAccepted(t *testing.T) {
	v := NewValidator(common.NewTestEntry(t, "chain"))

	pairs := []record.Pair{record.NewTransferPair(1000, "x")}
	first := decode(t, "a.rcd", record.EncodeV2(10, nil, pairs))
	require.False(t, v.Accept(first).Discontinuity)

	second := decode(t, "b.rcd", record.EncodeV2(10, crypto.SHA384([]byte("fork")), pairs))

	res := v.Check(second)
	require.True(t, res.Discontinuity)
	require.Equal(t, first.Hash, res.Expected)
	require.True(t, common.IsStream(res.Err(second.Name), common.ChainDiscontinuity))
	// Check does not move the tip
	require.Equal(t, first.Hash, v.Tip(streamfile.RecordStream.Name))

	res = v.Accept(second)
	require.True(t, res.Discontinuity)
	require.Equal(t, second.Hash, v.Tip(streamfile.RecordStream.Name))
	require.Equal(t, int64(1), v.Discontinuities())

	third := decode(t, "c.rcd", record.EncodeV2(10, second.Hash, pairs))
	require.False(t, v.Accept(third).Discontinuity)
	require.Nil(t, Result{}.Err("x"))
}

func TestUnlinkedStreams(t *testing.T) {
	v := NewValidator(common.NewTestEntry(t, "chain"))
	v.Seed(streamfile.BalanceStream.Name, []byte{1})

	rec := &streamfile.StreamFileRecord{
		Name:   "2021-03-05T14_00_00Z_Balances.csv",
		Stream: streamfile.BalanceStream,
		Hash:   []byte{2},
	}
	require.False(t, v.Accept(rec).Discontinuity)
	require.Equal(t, []byte{2}, v.Tip(streamfile.BalanceStream.Name))
}

func TestSeed(t *testing.T) {
	v := NewValidator(common.NewTestEntry(t, "chain"))
	v.Seed(streamfile.RecordStream.Name, crypto.SHA384([]byte("persisted tip")))

	pairs := []record.Pair{record.NewTransferPair(1000, "x")}
	rec := decode(t, "a.rcd", record.EncodeV5(hapiVersion, nil, pairs))
	require.True(t, v.Check(rec).Discontinuity)
}
