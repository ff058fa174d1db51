package addressbook

import (
	"fmt"

	"github.com/mosaicnetworks/streamgate/src/hapi"
)

//Slot identifies one of the two roster files
type Slot int

const (
	//Primary is file 0.0.101
	Primary Slot = iota
	//Secondary is file 0.0.102
	Secondary
)

var slotFiles = [...]hapi.FileID{
	Primary:   {Num: 101},
	Secondary: {Num: 102},
}

//Slots lists the slots in order of preference for key lookups
func Slots() []Slot {
	return []Slot{Secondary, Primary}
}

//FileID returns the roster file of the slot in the given shard and realm
func (s Slot) FileID(shard, realm int64) hapi.FileID {
	id := slotFiles[s]
	id.Shard = shard
	id.Realm = realm
	return id
}

//SlotOf maps a file id to its slot
func SlotOf(id hapi.FileID) (Slot, bool) {
	for s, f := range slotFiles {
		if f.Num == id.Num {
			return Slot(s), true
		}
	}
	return 0, false
}

func (s Slot) String() string {
	switch s {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}
