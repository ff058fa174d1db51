package addressbook

import (
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/record"
)

//Fragment is the content of one roster file transaction
type Fragment struct {
	ConsensusTimestamp int64
	Bytes              []byte
	Slot               Slot
	IsAppend           bool
}

//FromItem extracts a Fragment from a record item. Only successful
//FileUpdate and FileAppend transactions on a roster file qualify.
func FromItem(item *record.RecordItem) (Fragment, bool) {
	if item.Body == nil || item.Body.File == nil || item.Record == nil {
		return Fragment{}, false
	}
	if !item.Record.Successful() {
		return Fragment{}, false
	}

	var isAppend bool
	switch item.Body.Kind {
	case hapi.KindFileUpdate:
	case hapi.KindFileAppend:
		isAppend = true
	default:
		return Fragment{}, false
	}

	slot, ok := SlotOf(item.Body.File.FileID)
	if !ok {
		return Fragment{}, false
	}

	return Fragment{
		ConsensusTimestamp: item.ConsensusTimestamp(),
		Bytes:              item.Body.File.Contents,
		Slot:               slot,
		IsAppend:           isAppend,
	}, true
}
