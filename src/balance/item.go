package balance

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/hapi"
)

// Item is the balance of one account at the consensus timestamp of its file.
type Item struct {
	index     int
	timestamp int64

	Account       hapi.AccountID
	Balance       int64
	TokenBalances []hapi.TokenBalance
}

// ConsensusTimestamp implements streamfile.DecodedItem. All rows of a file
// share the timestamp of the snapshot.
func (i *Item) ConsensusTimestamp() int64 {
	return i.timestamp
}

// Index implements streamfile.DecodedItem.
func (i *Item) Index() int {
	return i.index
}

// ParseLine decodes one data row. Errors are InvalidDatasetRow.
func ParseLine(line string, version int32, shard int64, consensusNanos int64) (*Item, error) {
	cols := strings.Split(strings.TrimSpace(line), ",")

	switch {
	case len(cols) == 4:
	case len(cols) == 5 && version == VersionTwo:
	default:
		return nil, rowErr(line, "%d columns", len(cols))
	}

	var nums [4]int64
	for i := range nums {
		v, err := strconv.ParseInt(strings.TrimSpace(cols[i]), 10, 64)
		if err != nil {
			return nil, rowErr(line, "column %d: %v", i+1, err)
		}
		if v < 0 {
			return nil, rowErr(line, "column %d is negative", i+1)
		}
		nums[i] = v
	}
	if nums[0] != shard {
		return nil, rowErr(line, "shard %d, expected %d", nums[0], shard)
	}

	item := &Item{
		timestamp: consensusNanos,
		Account:   hapi.AccountID{Shard: nums[0], Realm: nums[1], Num: nums[2]},
		Balance:   nums[3],
	}

	if len(cols) == 5 {
		encoded := strings.TrimSpace(cols[4])
		if encoded != "" {
			raw, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, rowErr(line, "token balances: %v", err)
			}
			item.TokenBalances, err = hapi.UnmarshalTokenBalances(raw)
			if err != nil {
				return nil, rowErr(line, "token balances: %v", err)
			}
		}
	}

	return item, nil
}

func rowErr(line string, format string, args ...interface{}) error {
	return common.NewStreamErr(common.InvalidDatasetRow, fmt.Sprintf("%q", line), format, args...)
}
