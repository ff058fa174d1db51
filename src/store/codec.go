package store

import (
	"bytes"

	"github.com/ugorji/go/codec"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	cm "github.com/mosaicnetworks/streamgate/src/common"
)

var msgpackHandle = new(codec.MsgpackHandle)

func marshal(v interface{}) ([]byte, error) {
	var b bytes.Buffer
	enc := codec.NewEncoder(&b, msgpackHandle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func unmarshal(data []byte, v interface{}) error {
	dec := codec.NewDecoder(bytes.NewReader(data), msgpackHandle)
	return dec.Decode(v)
}

// storedAddressBook is the persisted form of an AddressBook. Nodes are
// rebuilt from the raw roster.
type storedAddressBook struct {
	Slot           int
	StartConsensus int64
	EndConsensus   int64
	Raw            []byte
}

func toStored(ab *addressbook.AddressBook) storedAddressBook {
	return storedAddressBook{
		Slot:           int(ab.Slot),
		StartConsensus: ab.StartConsensus,
		EndConsensus:   ab.EndConsensus,
		Raw:            ab.Raw,
	}
}

func (s storedAddressBook) addressBook() (*addressbook.AddressBook, error) {
	ab, err := addressbook.Parse(addressbook.Slot(s.Slot), s.StartConsensus, s.Raw)
	if err != nil {
		return nil, err
	}
	if s.EndConsensus != 0 {
		ab = ab.Closed(s.EndConsensus)
	}
	return ab, nil
}

type storedPending struct {
	Slot          int
	Bytes         []byte
	LastConsensus int64
}

func isNotFound(err error) bool {
	return cm.IsStore(err, cm.KeyNotFound)
}
