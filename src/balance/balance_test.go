package balance

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

const fileName = "2021-03-05T14_00_00.123456789Z_Balances.csv"

var fileTime = time.Date(2021, 3, 5, 14, 0, 0, 123456789, time.UTC)

func testDecoder(t *testing.T) *Decoder {
	return NewDecoder(0, common.NewTestEntry(t, "balance"))
}

func collect(t *testing.T, rec *streamfile.StreamFileRecord) ([]*Item, []error) {
	var (
		items []*Item
		errs  []error
	)
	it := rec.Items()
	for it.Next() {
		if err := it.Err(); err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, it.Item().(*Item))
	}
	return items, errs
}

func TestSelectVersion(t *testing.T) {
	cases := map[string]int32{
		"# 0.1.0":                        VersionTwo,
		"# 0.1.0,,,,":                    VersionTwo,
		"# 0.1.0 extra":                  VersionTwo,
		"  # 0.1.0":                      VersionTwo,
		"TimeStamp:2019-08-30T18:15:00Z": VersionOne,
		"shardNum,realmNum,accountNum":   VersionOne,
		"# 0.2.0":                        VersionOne,
		"":                               VersionOne,
	}
	for line, expected := range cases {
		if v := SelectVersion(line); v != expected {
			t.Fatalf("SelectVersion(%q) = %d, expected %d", line, v, expected)
		}
	}
}

func TestParseLineRejections(t *testing.T) {
	_, err := ParseLine("1,0,100,500", VersionOne, 0, 1)
	require.True(t, common.IsStream(err, common.InvalidDatasetRow), "%v", err)
	require.Contains(t, err.Error(), "shard 1")

	_, err = ParseLine("0,0,100,-5", VersionOne, 0, 1)
	require.True(t, common.IsStream(err, common.InvalidDatasetRow), "%v", err)
	require.Contains(t, err.Error(), "negative")

	_, err = ParseLine("0,0,abc,5", VersionTwo, 0, 1)
	require.True(t, common.IsStream(err, common.InvalidDatasetRow), "%v", err)

	_, err = ParseLine("0,0,100", VersionTwo, 0, 1)
	require.True(t, common.IsStream(err, common.InvalidDatasetRow), "%v", err)

	_, err = ParseLine("0,0,100,5,CgQ=", VersionOne, 0, 1)
	require.True(t, common.IsStream(err, common.InvalidDatasetRow), "%v", err)

	_, err = ParseLine("0,0,100,5,!!!", VersionTwo, 0, 1)
	require.True(t, common.IsStream(err, common.InvalidDatasetRow), "%v", err)

	item, err := ParseLine(" 0, 0, 100, 500 ", VersionOne, 0, 7)
	require.NoError(t, err)
	require.Equal(t, hapi.AccountID{Num: 100}, item.Account)
	require.Equal(t, int64(500), item.Balance)
	require.Equal(t, int64(7), item.ConsensusTimestamp())
}

func TestDecodeV1(t *testing.T) {
	data := strings.Join([]string{
		"TimeStamp:2021-03-05T14:00:00.123456789Z",
		"shardNum,realmNum,accountNum,balance",
		"0,0,1,100",
		"0,0,2,200",
		"1,0,3,300",
		"",
		"0,0,4,400",
	}, "\n")

	rec, err := testDecoder(t).Decode(fileName, []byte(data))
	require.NoError(t, err)
	require.Equal(t, VersionOne, rec.Version)
	require.Equal(t, fileTime.UnixNano(), rec.ConsensusStart)
	require.Equal(t, crypto.SHA384([]byte(data)), rec.FileHash)
	require.Empty(t, rec.PreviousHash)
	require.Equal(t, 4, rec.Count)

	items, errs := collect(t, rec)
	require.Len(t, items, 3)
	require.Len(t, errs, 1)
	require.True(t, common.IsStream(errs[0], common.InvalidDatasetRow))
	require.Contains(t, errs[0].Error(), fileName+":5")

	require.Equal(t, int64(4), items[2].Account.Num)
	require.Equal(t, 3, items[2].Index())
}

func TestDecodeV1TimestampFromFilename(t *testing.T) {
	data := "shard,realm,number,balance\n0,0,2,5000\n"
	rec, err := testDecoder(t).Decode(fileName, []byte(data))
	require.NoError(t, err)
	require.Equal(t, fileTime.UnixNano(), rec.ConsensusStart)
}

func TestDecodeV1TimestampHeaderSkipped(t *testing.T) {
	for _, header := range []string{
		"TimeStamp:2021-03-05T14_00_00.123456789Z",
		"TimeStamp:2021-03-05T15:30:00Z",
		"TimeStamp:garbage",
	} {
		data := header + "\nshardNum,realmNum,accountNum,balance\n0,0,2,100\n"
		rec, err := testDecoder(t).Decode(fileName, []byte(data))
		require.NoError(t, err, header)
		require.Equal(t, VersionOne, rec.Version)
		require.Equal(t, fileTime.UnixNano(), rec.ConsensusStart, header)

		items, errs := collect(t, rec)
		require.Empty(t, errs)
		require.Len(t, items, 1)
		require.Equal(t, int64(100), items[0].Balance)
		require.Equal(t, fileTime.UnixNano(), items[0].ConsensusTimestamp())
	}
}

func TestDecodeV2(t *testing.T) {
	tokens := hapi.MarshalTokenBalances([]hapi.TokenBalance{
		{TokenID: hapi.TokenID{Num: 1001}, Balance: 15, Decimals: 2},
	})
	data := strings.Join([]string{
		"# 0.1.0",
		"# TimeStamp:2021-03-05T14:00:00.123456789Z",
		"shard,realm,number,balance,tokenbalances",
		"0,0,2,5000,",
		"0,0,3,10," + base64.StdEncoding.EncodeToString(tokens),
		"0,0,4,10",
		"0,0,5,-10",
	}, "\r\n")

	rec, err := testDecoder(t).Decode(fileName, []byte(data))
	require.NoError(t, err)
	require.Equal(t, VersionTwo, rec.Version)
	require.Equal(t, 4, rec.Count)

	items, errs := collect(t, rec)
	require.Len(t, items, 3)
	require.Len(t, errs, 1)
	require.Len(t, items[1].TokenBalances, 1)
	require.Equal(t, uint64(15), items[1].TokenBalances[0].Balance)
	require.Equal(t, int64(1001), items[1].TokenBalances[0].TokenID.Num)
	require.Empty(t, items[0].TokenBalances)
}

func TestDecodeV2HeaderErrors(t *testing.T) {
	noTimestamp := "# 0.1.0\nshard,realm,number,balance\n0,0,2,5\n"
	_, err := testDecoder(t).Decode(fileName, []byte(noTimestamp))
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	badTimestamp := "# 0.1.0\n# Timestamp:yesterday\nshard,realm,number,balance\n"
	_, err = testDecoder(t).Decode(fileName, []byte(badTimestamp))
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	lines := []string{"# 0.1.0", "# Timestamp:2021-03-05T14:00:00.123456789Z"}
	for i := 0; i < MaxHeaderLines; i++ {
		lines = append(lines, "# comment")
	}
	lines = append(lines, "shard,realm,number,balance")
	_, err = testDecoder(t).Decode(fileName, []byte(strings.Join(lines, "\n")))
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	_, err = testDecoder(t).Decode(fileName, nil)
	require.True(t, common.IsStream(err, common.EmptyStreamFile), "%v", err)
}

func TestDecodeInternalTimestampWins(t *testing.T) {
	data := "# 0.1.0\n# Timestamp:2021-03-05T14:00:01Z\nshard,realm,number,balance\n0,0,2,5\n"
	rec, err := testDecoder(t).Decode(fileName, []byte(data))
	require.NoError(t, err)

	internal := time.Date(2021, 3, 5, 14, 0, 1, 0, time.UTC)
	require.Equal(t, internal.UnixNano(), rec.ConsensusStart)

	items, errs := collect(t, rec)
	require.Empty(t, errs)
	require.Equal(t, internal.UnixNano(), items[0].ConsensusTimestamp())
}

func TestDecodeCompressed(t *testing.T) {
	data := []byte("# 0.1.0\n# Timestamp:2021-03-05T14:00:00.123456789Z\nshard,realm,number,balance\n0,0,2,5\n")
	rec, err := testDecoder(t).Decode(fileName+".gz", streamfile.Compress(data))
	require.NoError(t, err)
	require.Equal(t, crypto.SHA384(data), rec.FileHash)
	require.Equal(t, 1, rec.Count)
}
